package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Hide a conversation from the server-side history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !deleteForce {
			ui := &input.UI{
				Writer: cmd.OutOrStdout(),
				Reader: cmd.InOrStdin(),
			}

			query := fmt.Sprintf("Delete conversation %s? [y/n]", args[0])
			answer, err := ui.Ask(query, &input.Options{
				Default:  "n",
				Required: true,
				Loop:     true,
				ValidateFunc: func(answer string) error {
					switch answer {
					case "y", "Y", "n", "N":
						return nil
					default:
						return fmt.Errorf("please enter 'y' or 'n'")
					}
				},
			})
			if err != nil {
				return err
			}
			if strings.ToLower(answer) != "y" {
				return nil
			}
		}

		client, err := resolveSettings().newClient()
		if err != nil {
			return err
		}

		if err := client.DeleteConversation(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])

		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Delete without asking for confirmation")
	rootCmd.AddCommand(deleteCmd)
}
