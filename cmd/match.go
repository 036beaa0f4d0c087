package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <import-id>",
	Short: "Match an import's statement lines to internal sales",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := svc.RunMatching(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Import %s: %d/%d matched (%d new, %d unmatched)\n",
			stats.ImportID, stats.Matched, stats.Total, stats.NewlyMatched, stats.Unmatched)
		return nil
	},
}

var matchLineCmd = &cobra.Command{
	Use:   "match-line <line-id> <sale-id>",
	Short: "Link one statement line to a sale by hand",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		line, err := svc.ManualMatch(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Printf("Matched line %s (%s) to sale %s\n", line.ID, line.PolicyNumber, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(matchLineCmd)
}
