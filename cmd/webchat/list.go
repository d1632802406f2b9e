package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations stored on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveSettings().newClient()
		if err != nil {
			return err
		}

		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")
		order, _ := cmd.Flags().GetString("order")
		shared, _ := cmd.Flags().GetBool("shared")
		format, _ := cmd.Flags().GetString("output")

		fetch := client.Conversations
		if shared {
			fetch = client.SharedConversations
		}

		page, err := fetch(cmd.Context(), offset, limit, order)
		if err != nil {
			return err
		}

		if format != "text" {
			return renderStructured(cmd.OutOrStdout(), format, page)
		}

		out := cmd.OutOrStdout()
		for _, item := range page.Items {
			title := item.Title
			if title == "" {
				title = "(untitled)"
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", item.ID, title)
		}
		_, _ = fmt.Fprintf(out, "%d of %d conversations\n", len(page.Items), page.Total)

		return nil
	},
}

func init() {
	listCmd.Flags().Int("offset", 0, "Pagination offset")
	listCmd.Flags().Int("limit", 20, "Page size")
	listCmd.Flags().String("order", "updated", "Sort order")
	listCmd.Flags().Bool("shared", false, "List shared conversations instead")
	listCmd.Flags().String("output", "text", "Output format (text, json, yaml)")
	rootCmd.AddCommand(listCmd)
}
