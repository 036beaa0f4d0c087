package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sells-group/commission-cli/internal/model"
)

var (
	sheetRateAdjustment float64
	sheetBonus          float64
)

var sheetCmd = &cobra.Command{
	Use:   "sheet <period> <agent-id>",
	Short: "Print an agent's commission sheet for a period",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		period, err := model.ParsePeriod(args[0])
		if err != nil {
			return err
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sheet, err := svc.AgentCommissionSheet(ctx, period, args[1],
			decimal.NewFromFloat(sheetRateAdjustment), decimal.NewFromFloat(sheetBonus))
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s), %s\n", sheet.AgentName, sheet.AgentRole, sheet.PeriodDisplay)
		fmt.Printf("  tier:        L%d (%s written premium)\n",
			sheet.TierLevel, sheet.TierPremium.StringFixed(2))
		fmt.Printf("  rate:        %s", sheet.EffectiveRate.StringFixed(4))
		if !sheet.RateAdjustment.IsZero() {
			fmt.Printf(" (base %s, adjustment %s)", sheet.BaseRate.StringFixed(4), sheet.RateAdjustment.StringFixed(4))
		}
		fmt.Println()

		if len(sheet.Lines) > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POLICY\tINSURED\tCARRIER\tTYPE\tPREMIUM\tCOMMISSION")
			fmt.Fprintln(w, "------\t-------\t-------\t----\t-------\t----------")
			for _, ln := range sheet.Lines {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					ln.PolicyNumber, ln.InsuredName, ln.Carrier, ln.TransactionType,
					ln.Premium.StringFixed(2), ln.AgentCommission.StringFixed(2))
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		sum := sheet.Summary
		fmt.Printf("\n  new business premium: %s\n", sum.NewBusinessPremium.StringFixed(2))
		fmt.Printf("  other paid premium:   %s\n", sum.OtherPaidPremium.StringFixed(2))
		fmt.Printf("  chargebacks:          %s (%d)\n", sum.Chargebacks.StringFixed(2), sum.ChargebackCount)
		fmt.Printf("  commission:           %s\n", sum.TotalAgentCommission.StringFixed(2))
		if !sum.Bonus.IsZero() {
			fmt.Printf("  bonus:                %s\n", sum.Bonus.StringFixed(2))
		}
		fmt.Printf("  grand total:          %s\n", sum.GrandTotal.StringFixed(2))
		return nil
	},
}

func init() {
	sheetCmd.Flags().Float64Var(&sheetRateAdjustment, "rate-adjustment", 0, "add to the agent's tier rate")
	sheetCmd.Flags().Float64Var(&sheetBonus, "bonus", 0, "flat bonus added to the sheet total")
	rootCmd.AddCommand(sheetCmd)
}
