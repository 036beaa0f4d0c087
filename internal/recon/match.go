package recon

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

// fuzzyMinLen is the shortest zero-stripped policy number worth a
// substring search; anything shorter matches too promiscuously.
const fuzzyMinLen = 5

// RunMatching matches an import's lines to sales by policy number, exact
// first and then a leading-zero-stripped substring fallback. It is
// re-runnable: already-matched lines (including manual matches) are
// skipped, never re-evaluated, so corrections survive later passes.
func (s *Service) RunMatching(ctx context.Context, importID string) (*MatchStats, error) {
	imp, err := s.store.GetImport(ctx, importID)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.ListLines(ctx, store.LineFilter{ImportID: importID})
	if err != nil {
		return nil, err
	}

	stats := &MatchStats{ImportID: importID, Total: len(lines)}
	for i := range lines {
		line := &lines[i]
		if line.IsMatched && line.MatchedSaleID != "" {
			stats.Matched++
			continue
		}

		sale, err := s.lookupSale(ctx, line.PolicyNumber)
		if err != nil {
			return nil, err
		}
		if sale == nil {
			stats.Unmatched++
			continue
		}

		confidence := model.MatchExact
		if sale.PolicyNumber != line.PolicyNumber {
			confidence = model.MatchFuzzy
		}
		now := time.Now().UTC()
		line.IsMatched = true
		line.MatchedSaleID = sale.ID
		line.MatchConfidence = confidence
		line.MatchedAt = &now
		line.AssignedAgentID = sale.ProducerID
		if err := s.store.UpdateLineMatch(ctx, line); err != nil {
			return nil, err
		}
		stats.Matched++
		stats.NewlyMatched++
	}

	imp.MatchedRows = stats.Matched
	imp.UnmatchedRows = stats.Unmatched
	imp.Status = model.StatusPartiallyMatched
	if err := s.store.UpdateImport(ctx, imp); err != nil {
		return nil, err
	}

	s.log.Info("matching pass complete",
		zap.String("import_id", importID),
		zap.Int("matched", stats.Matched),
		zap.Int("newly_matched", stats.NewlyMatched),
		zap.Int("unmatched", stats.Unmatched))
	return stats, nil
}

// lookupSale finds a sale for a policy number: exact, then substring on the
// zero-stripped form. A nil sale with nil error means no match.
func (s *Service) lookupSale(ctx context.Context, policyNumber string) (*model.Sale, error) {
	sale, err := s.store.GetSaleByPolicy(ctx, policyNumber)
	if err == nil {
		return sale, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	cleaned := strings.TrimLeft(policyNumber, "0")
	if len(cleaned) < fuzzyMinLen {
		return nil, nil
	}
	sale, err = s.store.FindSaleByPolicyFragment(ctx, cleaned)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// ManualMatch links a line to a sale by operator decision. The match is
// durable: automatic passes never revisit matched lines.
func (s *Service) ManualMatch(ctx context.Context, lineID, saleID string) (*model.StatementLine, error) {
	line, err := s.store.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	sale, err := s.store.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	wasUnmatched := !line.IsMatched
	now := time.Now().UTC()
	line.IsMatched = true
	line.MatchedSaleID = sale.ID
	line.MatchConfidence = model.MatchManual
	line.MatchedAt = &now
	line.AssignedAgentID = sale.ProducerID
	if err := s.store.UpdateLineMatch(ctx, line); err != nil {
		return nil, err
	}

	if wasUnmatched {
		imp, err := s.store.GetImport(ctx, line.ImportID)
		if err == nil {
			imp.MatchedRows++
			if imp.UnmatchedRows > 0 {
				imp.UnmatchedRows--
			}
			if err := s.store.UpdateImport(ctx, imp); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	s.log.Info("manual match",
		zap.String("line_id", lineID),
		zap.String("sale_id", saleID),
		zap.String("agent_id", sale.ProducerID))
	return line, nil
}
