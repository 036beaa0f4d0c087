package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

var (
	importsCarrier string
	importsStatus  string
	importsPeriod  string
	importsLimit   int
)

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Inspect statement imports",
}

var importsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List statement imports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filter := store.ImportFilter{
			Carrier: importsCarrier,
			Status:  model.ImportStatus(importsStatus),
			Limit:   importsLimit,
		}
		if importsPeriod != "" {
			p, err := model.ParsePeriod(importsPeriod)
			if err != nil {
				return err
			}
			filter.Period = p
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		imports, err := svc.ListImports(ctx, filter)
		if err != nil {
			return err
		}
		if len(imports) == 0 {
			fmt.Fprintln(os.Stderr, "No imports found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCARRIER\tPERIOD\tSTATUS\tROWS\tMATCHED\tPREMIUM\tCOMMISSION\tFILE")
		fmt.Fprintln(w, "--\t-------\t------\t------\t----\t-------\t-------\t----------\t----")
		for _, imp := range imports {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
				imp.ID, imp.Carrier, imp.Period, imp.Status,
				imp.TotalRows, imp.MatchedRows,
				imp.TotalPremium.StringFixed(2), imp.TotalCommission.StringFixed(2),
				imp.Filename)
		}
		return w.Flush()
	},
}

var importsShowCmd = &cobra.Command{
	Use:   "show <import-id>",
	Short: "Show one import with its reconciliation summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := svc.Summary(ctx, args[0])
		if err != nil {
			return err
		}
		imp := sum.Import

		fmt.Printf("%s  %s  %s  (%s)\n", imp.ID, imp.Carrier, imp.Period, imp.Status)
		fmt.Printf("  file:       %s\n", imp.Filename)
		fmt.Printf("  rows:       %d (%d matched, %d unmatched, %d skipped)\n",
			imp.TotalRows, imp.MatchedRows, imp.UnmatchedRows, imp.SkippedRows)
		fmt.Printf("  premium:    %s\n", imp.TotalPremium.StringFixed(2))
		fmt.Printf("  commission: %s\n", imp.TotalCommission.StringFixed(2))

		if len(sum.TypeSummary) > 0 {
			fmt.Println("\nBy transaction type:")
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tCOUNT\tPREMIUM\tCOMMISSION")
			fmt.Fprintln(w, "----\t-----\t-------\t----------")
			for name, ts := range sum.TypeSummary {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
					name, ts.Count, ts.Premium.StringFixed(2), ts.Commission.StringFixed(2))
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		if len(sum.UnmatchedLines) > 0 {
			fmt.Println("\nUnmatched lines:")
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LINE\tPOLICY\tINSURED\tTYPE\tPREMIUM\tCOMMISSION")
			fmt.Fprintln(w, "----\t------\t-------\t----\t-------\t----------")
			for _, ln := range sum.UnmatchedLines {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					ln.ID, ln.PolicyNumber, ln.InsuredName, ln.TransactionType,
					fmtDec(ln.PremiumAmount), fmtDec(ln.CommissionAmount))
			}
			return w.Flush()
		}
		return nil
	},
}

var importsDeleteCmd = &cobra.Command{
	Use:   "delete <import-id>",
	Short: "Delete an import and its lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := svc.DeleteImport(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted import %s\n", args[0])
		return nil
	},
}

func init() {
	importsListCmd.Flags().StringVar(&importsCarrier, "carrier", "", "filter by carrier key")
	importsListCmd.Flags().StringVar(&importsStatus, "status", "", "filter by status")
	importsListCmd.Flags().StringVar(&importsPeriod, "period", "", "filter by period YYYY-MM")
	importsListCmd.Flags().IntVar(&importsLimit, "limit", 50, "max imports to list")
	importsCmd.AddCommand(importsListCmd, importsShowCmd, importsDeleteCmd)
	rootCmd.AddCommand(importsCmd)
}
