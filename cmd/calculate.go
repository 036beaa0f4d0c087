package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/commission-cli/internal/recon"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate <import-id>",
	Short: "Calculate agent commissions for a single import",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := svc.CalculateImportCommissions(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Import %s, period %s (tiers from %s)\n", res.ImportID, res.Period, res.TierBasis)
		return printAgentSummaries(res.Agents)
	},
}

func printAgentSummaries(agents []recon.AgentSummary) error {
	if len(agents) == 0 {
		fmt.Fprintln(os.Stderr, "No agent commissions.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tTIER\tRATE\tPREMIUM\tNEW BUS\tCHARGEBACKS\tCOMMISSION\tTOTAL")
	fmt.Fprintln(w, "-----\t----\t----\t-------\t-------\t-----------\t----------\t-----")
	for _, a := range agents {
		fmt.Fprintf(w, "%s\tL%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.AgentName, a.TierLevel, a.EffectiveRate.StringFixed(4),
			a.TotalPremium.StringFixed(2), a.NewBusinessPremium.StringFixed(2),
			a.Chargebacks.StringFixed(2), a.TotalAgentCommission.StringFixed(2),
			a.GrandTotal.StringFixed(2))
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(calculateCmd)
}
