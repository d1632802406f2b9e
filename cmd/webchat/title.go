package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cubenlp/WebChatter/pkg/conversation"
)

var titleCmd = &cobra.Command{
	Use:   "title",
	Short: "Manage conversation titles",
}

var titleSetCmd = &cobra.Command{
	Use:   "set <conversation-id> <title>",
	Short: "Set the title of a conversation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveSettings().newClient()
		if err != nil {
			return err
		}
		return client.SetConversationTitle(cmd.Context(), args[0], args[1])
	},
}

var titleGenCmd = &cobra.Command{
	Use:   "gen <conversation-id>",
	Short: "Ask the server to generate a title for a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		messageID, _ := cmd.Flags().GetString("message-id")
		if messageID == "" {
			return errors.New("--message-id is required")
		}

		client, err := resolveSettings().newClient()
		if err != nil {
			return err
		}

		title, err := client.GenerateConversationTitle(cmd.Context(), args[0], conversation.NodeID(messageID))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), title)

		return nil
	},
}

func init() {
	titleGenCmd.Flags().String("message-id", "", "Message the title generation is anchored on")
	titleCmd.AddCommand(titleSetCmd)
	titleCmd.AddCommand(titleGenCmd)
	rootCmd.AddCommand(titleCmd)
}
