package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cubenlp/WebChatter/pkg/backendapi"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account plan, available models and enabled beta features",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveSettings().newClient()
		if err != nil {
			return err
		}

		var (
			status   *backendapi.AccountStatus
			models   *backendapi.ModelList
			features map[string]bool
			limit    *backendapi.ConversationLimit
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			status, err = client.AccountStatus(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			models, err = client.Models(ctx, false)
			return err
		})
		g.Go(func() error {
			var err error
			features, err = client.BetaFeatures(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			limit, err = client.ConversationLimit(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		_, _ = fmt.Fprintf(out, "Country: %s\n", status.UserCountry)
		planKeys := make([]string, 0, len(status.AccountPlan))
		for k := range status.AccountPlan {
			planKeys = append(planKeys, k)
		}
		sort.Strings(planKeys)
		for _, k := range planKeys {
			_, _ = fmt.Fprintf(out, "  %s: %v\n", k, status.AccountPlan[k])
		}

		_, _ = fmt.Fprintf(out, "\nModels:\n")
		for _, category := range models.Categories {
			_, _ = fmt.Fprintf(out, "  %s: %s\n", category.HumanCategoryName, category.DefaultModel)
		}

		enabled := make([]string, 0, len(features))
		for name, on := range features {
			if on {
				enabled = append(enabled, name)
			}
		}
		sort.Strings(enabled)
		_, _ = fmt.Fprintf(out, "\nBeta features: %s\n", strings.Join(enabled, ", "))

		if limit.MessageCap > 0 {
			_, _ = fmt.Fprintf(out, "Message cap: %d every %d minutes\n", limit.MessageCap, limit.MessageCapWindow)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
