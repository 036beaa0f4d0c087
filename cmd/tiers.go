package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/commission-cli/internal/recon"
)

var tiersAll bool

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Manage commission tier bands",
}

var tiersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List commission tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tiers, err := st.ListTiers(ctx, !tiersAll)
		if err != nil {
			return err
		}
		if len(tiers) == 0 {
			fmt.Fprintln(os.Stderr, "No tiers configured. Run 'tiers seed' to install the defaults.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tMIN PREMIUM\tMAX PREMIUM\tRATE\tACTIVE\tDESCRIPTION")
		fmt.Fprintln(w, "-----\t-----------\t-----------\t----\t------\t-----------")
		for _, t := range tiers {
			maxStr := "-"
			if t.MaxWrittenPremium != nil {
				maxStr = t.MaxWrittenPremium.StringFixed(2)
			}
			fmt.Fprintf(w, "L%d\t%s\t%s\t%s\t%t\t%s\n",
				t.TierLevel, t.MinWrittenPremium.StringFixed(2), maxStr,
				t.CommissionRate.StringFixed(4), t.IsActive, t.Description)
		}
		return w.Flush()
	},
}

var tiersSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the default seven-band tier table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		existing, err := st.ListTiers(ctx, false)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return eris.Errorf("tiers already configured (%d present), refusing to seed", len(existing))
		}

		defaults := recon.DefaultTiers()
		for i := range defaults {
			if err := st.CreateTier(ctx, &defaults[i]); err != nil {
				return err
			}
		}
		fmt.Printf("Seeded %d tiers\n", len(defaults))
		return nil
	},
}

func init() {
	tiersListCmd.Flags().BoolVar(&tiersAll, "all", false, "include inactive tiers")
	tiersCmd.AddCommand(tiersListCmd, tiersSeedCmd)
	rootCmd.AddCommand(tiersCmd)
}
