package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Request an export of the account data",
	Long: `Request an export of the account data. The server assembles the
archive asynchronously and mails a download link to the account address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveSettings().newClient()
		if err != nil {
			return err
		}

		if err := client.RequestDataExport(cmd.Context()); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "export requested, watch your inbox")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
