package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/jobmatch/internal/usecase/invalidation"
)

const invalidationSource = "cli"

var invalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached embeddings and results for a changed posting or profile",
}

var invalidateJobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Invalidate everything derived from a job posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		return runInvalidate(cmd, invalidation.Event{Kind: invalidation.KindJob, ID: args[0], Region: region})
	},
}

var invalidateProfileCmd = &cobra.Command{
	Use:   "profile <userID>",
	Short: "Invalidate everything derived from a user profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvalidate(cmd, invalidation.Event{Kind: invalidation.KindProfile, ID: args[0]})
	},
}

func init() {
	invalidateJobCmd.Flags().String("region", "",
		"region of the posting; without it every cached result is dropped")
	invalidateCmd.AddCommand(invalidateJobCmd, invalidateProfileCmd)
	rootCmd.AddCommand(invalidateCmd)
}

func runInvalidate(cmd *cobra.Command, ev invalidation.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	cfg, logger, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newCacheApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.invalidation.Apply(cmd.Context(), invalidationSource, ev)
	if err != nil {
		return fmt.Errorf("invalidate: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), map[string]int{"invalidated": n})
}
