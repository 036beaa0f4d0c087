package recon

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

// errorMessageLimit caps the stored parse error so a pathological file
// cannot bloat the import row.
const errorMessageLimit = 500

// CreateImport parses an uploaded statement file and persists the import
// with its lines in one transaction. The auto-detector runs first: when it
// recognizes a different carrier than the caller selected, detection wins
// and the disagreement is reported for audit.
//
// A structural parse failure persists the import with status failed, a
// truncated error message, and zero lines, then returns the error.
func (s *Service) CreateImport(ctx context.Context, filename string, file []byte, carrierKey string, period model.Period) (*model.StatementImport, *ImportReport, error) {
	if _, err := s.registry.Get(carrierKey); err != nil && carrierKey != s.registry.Fallback().Name() {
		return nil, nil, eris.Wrapf(err, "recon: invalid carrier %q", carrierKey)
	}

	report := &ImportReport{}
	effective := carrierKey
	if detected := s.registry.Detect(ctx, file, filename); detected != "" {
		report.DetectedCarrier = detected
		if detected != carrierKey {
			report.CarrierOverridden = true
			effective = detected
			s.log.Warn("carrier detection overrode selection",
				zap.String("selected", carrierKey),
				zap.String("detected", detected),
				zap.String("filename", filename))
		}
	}

	now := time.Now().UTC()
	imp := &model.StatementImport{
		Filename:            filename,
		FileFormat:          model.FormatForFilename(filename),
		FileSize:            int64(len(file)),
		Carrier:             effective,
		Period:              period,
		Status:              model.StatusProcessing,
		ProcessingStartedAt: &now,
	}

	adapter := s.registry.GetOrGeneric(effective)
	result, parseErr := adapter.Parse(ctx, file, filename)
	completed := time.Now().UTC()
	imp.ProcessingCompletedAt = &completed

	if parseErr != nil {
		imp.Status = model.StatusFailed
		imp.ErrorMessage = truncate(parseErr.Error(), errorMessageLimit)
		if err := s.store.CreateImport(ctx, imp); err != nil {
			return nil, nil, err
		}
		s.log.Error("statement parse failed",
			zap.String("import_id", imp.ID),
			zap.String("carrier", effective),
			zap.Error(parseErr))
		return imp, report, eris.Wrapf(parseErr, "recon: parse %s statement", effective)
	}

	report.Skipped = result.Skipped
	imp.TotalRows = len(result.Lines)
	imp.SkippedRows = len(result.Skipped)
	for i := range result.Lines {
		l := &result.Lines[i]
		l.CreatedAt = now
		imp.TotalPremium = imp.TotalPremium.Add(l.Premium())
		imp.TotalCommission = imp.TotalCommission.Add(l.CarrierCommission())
	}
	imp.Status = model.StatusMatched

	if err := s.store.CreateImportWithLines(ctx, imp, result.Lines); err != nil {
		return nil, nil, err
	}

	s.log.Info("statement imported",
		zap.String("import_id", imp.ID),
		zap.String("carrier", effective),
		zap.String("period", string(period)),
		zap.Int("rows", imp.TotalRows),
		zap.Int("skipped", imp.SkippedRows),
		zap.String("premium", imp.TotalPremium.String()),
		zap.String("commission", imp.TotalCommission.String()))

	return imp, report, nil
}

// ListImports returns imports matching the filter.
func (s *Service) ListImports(ctx context.Context, filter store.ImportFilter) ([]model.StatementImport, error) {
	return s.store.ListImports(ctx, filter)
}

// Summary assembles the full review view of an import: its lines split by
// match state plus a per-raw-transaction-type rollup.
func (s *Service) Summary(ctx context.Context, importID string) (*ImportSummary, error) {
	imp, err := s.store.GetImport(ctx, importID)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.ListLines(ctx, store.LineFilter{ImportID: importID})
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		Import:      imp,
		TypeSummary: map[string]TypeStat{},
	}
	for _, line := range lines {
		if line.IsMatched {
			summary.MatchedLines = append(summary.MatchedLines, line)
		} else {
			summary.UnmatchedLines = append(summary.UnmatchedLines, line)
		}

		label := line.TransactionTypeRaw
		if label == "" {
			label = "Unknown"
		}
		stat := summary.TypeSummary[label]
		stat.Count++
		stat.Premium = stat.Premium.Add(line.Premium())
		stat.Commission = stat.Commission.Add(line.CarrierCommission())
		summary.TypeSummary[label] = stat
	}
	return summary, nil
}

// DeleteImport hard-deletes an import and its lines.
func (s *Service) DeleteImport(ctx context.Context, importID string) error {
	if err := s.store.DeleteImport(ctx, importID); err != nil {
		return err
	}
	s.log.Info("import deleted", zap.String("import_id", importID))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
