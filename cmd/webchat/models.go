package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available to the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveSettings().newClient()
		if err != nil {
			return err
		}

		historyOff, _ := cmd.Flags().GetBool("disable-history")
		format, _ := cmd.Flags().GetString("output")

		models, err := client.Models(cmd.Context(), historyOff)
		if err != nil {
			return err
		}

		if format != "text" {
			return renderStructured(cmd.OutOrStdout(), format, models)
		}

		out := cmd.OutOrStdout()
		for _, model := range models.Models {
			_, _ = fmt.Fprintf(out, "%s\t%s\n", model.Slug, model.Title)
			if model.Description != "" {
				_, _ = fmt.Fprintf(out, "\t%s\n", model.Description)
			}
		}
		for _, category := range models.Categories {
			_, _ = fmt.Fprintf(out, "%s\tdefault=%s\n", category.Category, category.DefaultModel)
		}

		return nil
	},
}

func init() {
	modelsCmd.Flags().String("output", "text", "Output format (text, json, yaml)")
	rootCmd.AddCommand(modelsCmd)
}
