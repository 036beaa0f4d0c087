package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/recon"
)

var (
	importCarrier string
	importPeriod  string
	importDir     string
	importMatch   bool
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import carrier commission statements",
	Long:  "Parses a statement file (or every statement in --dir) and persists the import with its normalized lines. With --match, runs policy matching immediately after.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if (len(args) == 0) == (importDir == "") {
			return eris.New("provide exactly one of a statement file or --dir")
		}
		period, err := model.ParsePeriod(importPeriod)
		if err != nil {
			return err
		}

		svc, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if importDir != "" {
			return importDirectory(cmd, svc, period)
		}
		return importOne(cmd, svc, args[0], period)
	},
}

func importOne(cmd *cobra.Command, svc *recon.Service, path string, period model.Period) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}

	imp, report, err := svc.CreateImport(ctx, filepath.Base(path), data, importCarrier, period)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %s\n", imp.Filename)
	fmt.Printf("  id:         %s\n", imp.ID)
	fmt.Printf("  carrier:    %s\n", imp.Carrier)
	if report.CarrierOverridden {
		fmt.Printf("  detected:   %s (selected %s)\n", report.DetectedCarrier, importCarrier)
	}
	fmt.Printf("  rows:       %d (%d skipped)\n", imp.TotalRows, imp.SkippedRows)
	fmt.Printf("  premium:    %s\n", imp.TotalPremium.StringFixed(2))
	fmt.Printf("  commission: %s\n", imp.TotalCommission.StringFixed(2))

	if importMatch {
		stats, err := svc.RunMatching(ctx, imp.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  matched:    %d/%d\n", stats.Matched, stats.Total)
	}
	return nil
}

// importDirectory imports every statement file in a directory with a
// bounded worker group. Files that fail to parse are reported and do not
// stop the rest of the batch.
func importDirectory(cmd *cobra.Command, svc *recon.Service, period model.Period) error {
	ctx := cmd.Context()

	entries, err := os.ReadDir(importDir)
	if err != nil {
		return eris.Wrapf(err, "read dir %s", importDir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".tsv", ".xlsx", ".xls", ".pdf":
			files = append(files, filepath.Join(importDir, e.Name()))
		}
	}
	if len(files) == 0 {
		return eris.Errorf("no statement files in %s", importDir)
	}
	sort.Strings(files)

	type outcome struct {
		file string
		imp  *model.StatementImport
		err  error
	}

	var mu sync.Mutex
	results := make([]outcome, 0, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Import.MaxConcurrentFiles)
	for _, path := range files {
		path := path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			var imp *model.StatementImport
			if err == nil {
				imp, _, err = svc.CreateImport(gctx, filepath.Base(path), data, importCarrier, period)
			}
			mu.Lock()
			results = append(results, outcome{file: path, imp: imp, err: err})
			mu.Unlock()
			if err != nil {
				zap.L().Warn("import failed", zap.String("file", path), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].file < results[j].file })
	var failed int
	for _, res := range results {
		if res.err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", filepath.Base(res.file), res.err)
			continue
		}
		fmt.Printf("ok    %s  carrier=%s rows=%d premium=%s\n",
			filepath.Base(res.file), res.imp.Carrier, res.imp.TotalRows, res.imp.TotalPremium.StringFixed(2))

		if importMatch {
			stats, err := svc.RunMatching(ctx, res.imp.ID)
			if err != nil {
				return err
			}
			fmt.Printf("      matched %d/%d\n", stats.Matched, stats.Total)
		}
	}
	fmt.Printf("%d imported, %d failed\n", len(results)-failed, failed)
	return nil
}

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Detect which carrier a statement file belongs to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		detected := newRegistry().Detect(cmd.Context(), data, filepath.Base(args[0]))
		if detected == "" {
			fmt.Println("no carrier detected (generic parser will be used)")
			return nil
		}
		fmt.Println(detected)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCarrier, "carrier", "generic", "carrier key (auto-detection may override)")
	importCmd.Flags().StringVar(&importPeriod, "period", "", "statement period YYYY-MM (required)")
	importCmd.Flags().StringVar(&importDir, "dir", "", "import every statement file in a directory")
	importCmd.Flags().BoolVar(&importMatch, "match", false, "run policy matching after import")
	_ = importCmd.MarkFlagRequired("period")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(detectCmd)
}
