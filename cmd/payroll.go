package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/recon"
)

var (
	payrollSubmittedBy  string
	payrollOverrideArgs []string
	payrollHistoryLimit int
)

var payrollCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Submit and track monthly payroll",
}

var payrollSubmitCmd = &cobra.Command{
	Use:   "submit <period>",
	Short: "Snapshot the period's pay calculation and lock it",
	Long:  "Recomputes monthly pay, applies any per-agent overrides, persists the payroll record, and locks the period. Overrides take the form agent-id=rate_adjustment:bonus, e.g. --override a1=0.01:250.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		period, err := model.ParsePeriod(args[0])
		if err != nil {
			return err
		}
		overrides, err := parseOverrides(payrollOverrideArgs)
		if err != nil {
			return err
		}

		submittedBy := payrollSubmittedBy
		if submittedBy == "" {
			submittedBy = cfg.Payroll.SubmittedBy
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := svc.SubmitPayroll(ctx, period, overrides, submittedBy)
		if err != nil {
			return err
		}

		fmt.Printf("Submitted payroll %s for %s\n", rec.ID, rec.PeriodDisplay)
		fmt.Printf("  agents:    %d\n", rec.TotalAgents)
		fmt.Printf("  carriers:  %d\n", rec.TotalCarriers)
		fmt.Printf("  agent pay: %s\n", rec.TotalAgentPay.StringFixed(2))
		return nil
	},
}

// parseOverrides turns agent-id=rate_adjustment:bonus flags into the
// service override map. Either component may be omitted.
func parseOverrides(args []string) (map[string]recon.AgentOverride, error) {
	if len(args) == 0 {
		return nil, nil
	}
	overrides := make(map[string]recon.AgentOverride, len(args))
	for _, raw := range args {
		agentID, spec, ok := strings.Cut(raw, "=")
		if !ok || agentID == "" {
			return nil, eris.Errorf("bad override %q, want agent-id=rate:bonus", raw)
		}

		var ov recon.AgentOverride
		ratePart, bonusPart, _ := strings.Cut(spec, ":")
		var err error
		if ratePart != "" {
			if ov.RateAdjustment, err = decimal.NewFromString(ratePart); err != nil {
				return nil, eris.Wrapf(err, "bad rate adjustment in %q", raw)
			}
		}
		if bonusPart != "" {
			if ov.Bonus, err = decimal.NewFromString(bonusPart); err != nil {
				return nil, eris.Wrapf(err, "bad bonus in %q", raw)
			}
		}
		overrides[agentID] = ov
	}
	return overrides, nil
}

var payrollUnlockCmd = &cobra.Command{
	Use:   "unlock <period>",
	Short: "Unlock a submitted payroll for corrections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return payrollTransition(cmd, args[0], "Unlocked", func(svc *recon.Service, p model.Period) (*model.PayrollRecord, error) {
			return svc.UnlockPayroll(cmd.Context(), p)
		})
	},
}

var payrollMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid <period>",
	Short: "Mark a locked payroll as paid out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return payrollTransition(cmd, args[0], "Marked paid", func(svc *recon.Service, p model.Period) (*model.PayrollRecord, error) {
			return svc.MarkPayrollPaid(cmd.Context(), p)
		})
	},
}

func payrollTransition(cmd *cobra.Command, rawPeriod, verb string, fn func(*recon.Service, model.Period) (*model.PayrollRecord, error)) error {
	period, err := model.ParsePeriod(rawPeriod)
	if err != nil {
		return err
	}

	svc, st, err := initService(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	rec, err := fn(svc, period)
	if err != nil {
		return err
	}
	fmt.Printf("%s payroll %s (%s)\n", verb, rec.ID, rec.PeriodDisplay)
	return nil
}

var payrollHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List past payroll runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := svc.PayrollHistory(ctx, payrollHistoryLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No payroll records.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PERIOD\tSTATUS\tAGENTS\tCARRIERS\tPREMIUM\tAGENT PAY\tSUBMITTED BY")
		fmt.Fprintln(w, "------\t------\t------\t--------\t-------\t---------\t------------")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
				rec.Period, rec.Status, rec.TotalAgents, rec.TotalCarriers,
				rec.TotalPremium.StringFixed(2), rec.TotalAgentPay.StringFixed(2),
				rec.SubmittedBy)
		}
		return w.Flush()
	},
}

var payrollDetailCmd = &cobra.Command{
	Use:   "detail <period>",
	Short: "Show one payroll run with per-agent lines",
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

		detail, err := svc.GetPayrollDetail(ctx, period)
		if err != nil {
			return err
		}
		rec := detail.Record

		fmt.Printf("%s  %s  (%s)\n", rec.ID, rec.PeriodDisplay, rec.Status)
		if rec.SubmittedAt != nil {
			fmt.Printf("  submitted: %s by %s\n", rec.SubmittedAt.Format("2006-01-02"), rec.SubmittedBy)
		}
		if rec.PaidAt != nil {
			fmt.Printf("  paid:      %s\n", rec.PaidAt.Format("2006-01-02"))
		}
		fmt.Printf("  agent pay: %s\n\n", rec.TotalAgentPay.StringFixed(2))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AGENT\tTIER\tRATE\tPREMIUM\tCOMMISSION\tBONUS\tTOTAL\tSTATUS")
		fmt.Fprintln(w, "-----\t----\t----\t-------\t----------\t-----\t-----\t------")
		for _, ln := range detail.Lines {
			fmt.Fprintf(w, "%s\tL%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				ln.AgentName, ln.TierLevel, ln.CommissionRate.StringFixed(4),
				ln.TotalPremium.StringFixed(2), ln.TotalAgentCommission.StringFixed(2),
				ln.Bonus.StringFixed(2), ln.GrandTotal.StringFixed(2), ln.CommissionStatus)
		}
		return w.Flush()
	},
}

func init() {
	payrollSubmitCmd.Flags().StringVar(&payrollSubmittedBy, "submitted-by", "", "who is submitting (defaults to config)")
	payrollSubmitCmd.Flags().StringArrayVar(&payrollOverrideArgs, "override", nil, "per-agent override, agent-id=rate_adjustment:bonus (repeatable)")
	payrollHistoryCmd.Flags().IntVar(&payrollHistoryLimit, "limit", 24, "max records to list")
	payrollCmd.AddCommand(payrollSubmitCmd, payrollUnlockCmd, payrollMarkPaidCmd, payrollHistoryCmd, payrollDetailCmd)
	rootCmd.AddCommand(payrollCmd)
}
