package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cubenlp/WebChatter/pkg/webchat"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the question and answer thread of a conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID, _ := cmd.Flags().GetString("conversation")
		sessionFile, _ := cmd.Flags().GetString("session")
		format, _ := cmd.Flags().GetString("output")

		if conversationID == "" && sessionFile == "" {
			return errors.New("either --conversation or --session is required")
		}

		options := []webchat.Option{}
		if conversationID != "" {
			options = append(options, webchat.WithConversationID(conversationID))
		}

		chat, err := resolveSettings().newChat(options...)
		if err != nil {
			return err
		}

		if sessionFile != "" {
			if err := chat.Load(sessionFile); err != nil {
				return err
			}
		} else if err := chat.LoadConversation(cmd.Context(), ""); err != nil {
			return err
		}

		if format != "text" {
			chatLog, err := chat.ChatLog()
			if err != nil {
				return err
			}
			return renderStructured(cmd.OutOrStdout(), format, chatLog)
		}

		return chat.PrintLog(cmd.OutOrStdout())
	},
}

func init() {
	logCmd.Flags().String("conversation", "", "Conversation id to fetch from the server")
	logCmd.Flags().String("session", "", "Session file to read instead of the server")
	logCmd.Flags().String("output", "text", "Output format (text, json, yaml)")
	rootCmd.AddCommand(logCmd)
}
