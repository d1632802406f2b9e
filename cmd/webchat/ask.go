package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cubenlp/WebChatter/pkg/conversation"
	"github.com/cubenlp/WebChatter/pkg/webchat"
)

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Send a message and print the answer",
	Long: `Send a message to the service and print the answer.

Without flags every invocation starts a fresh conversation. Pass
--conversation to continue a conversation stored on the server, or
--session to keep the conversation in a local file across invocations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID, _ := cmd.Flags().GetString("conversation")
		nodeID, _ := cmd.Flags().GetString("node")
		sessionFile, _ := cmd.Flags().GetString("session")
		regenerate, _ := cmd.Flags().GetBool("regenerate")

		message := strings.Join(args, " ")

		options := []webchat.Option{}
		if conversationID != "" {
			options = append(options, webchat.WithConversationID(conversationID))
		}
		if nodeID != "" {
			options = append(options, webchat.WithCurrentNodeID(conversation.NodeID(nodeID)))
		}

		chat, err := resolveSettings().newChat(options...)
		if err != nil {
			return err
		}

		if sessionFile != "" {
			if _, err := os.Stat(sessionFile); err == nil {
				if err := chat.Load(sessionFile); err != nil {
					return err
				}
			}
		}

		var answer string
		if regenerate {
			answer, err = chat.Regenerate(cmd.Context(), message)
		} else {
			answer, err = chat.Ask(cmd.Context(), message)
		}
		if err != nil {
			return err
		}

		if sessionFile != "" {
			if err := chat.Save(sessionFile); err != nil {
				return err
			}
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), answer)

		return nil
	},
}

func init() {
	askCmd.Flags().String("conversation", "", "Continue the conversation with this id")
	askCmd.Flags().String("node", "", "Continue from this node instead of the server-declared current one")
	askCmd.Flags().String("session", "", "Load and save the session from this file")
	askCmd.Flags().Bool("regenerate", false, "Regenerate the current answer instead of asking; with a message the current question is edited")
	rootCmd.AddCommand(askCmd)
}
