package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/commission-cli/internal/model"
)

var payCmd = &cobra.Command{
	Use:   "pay <period>",
	Short: "Calculate combined monthly pay across all carrier imports",
	Args:  cobra.ExactArgs(1),
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

		pay, err := svc.CalculateMonthlyPay(ctx, period)
		if err != nil {
			return err
		}

		fmt.Printf("Monthly pay %s (tiers from %s)\n", pay.Period, pay.TierBasis)
		fmt.Printf("  carriers:           %d\n", pay.Totals.TotalCarriers)
		fmt.Printf("  matched lines:      %d\n", pay.Totals.TotalMatchedLines)
		fmt.Printf("  premium:            %s\n", pay.Totals.TotalPremium.StringFixed(2))
		fmt.Printf("  carrier commission: %s\n", pay.Totals.TotalCarrierCommission.StringFixed(2))
		fmt.Printf("  chargebacks:        %s\n", pay.Totals.TotalChargebacks.StringFixed(2))
		fmt.Printf("  agent pay:          %s\n\n", pay.Totals.TotalAgentPay.StringFixed(2))

		return printAgentSummaries(pay.Agents)
	},
}

func init() {
	rootCmd.AddCommand(payCmd)
}
