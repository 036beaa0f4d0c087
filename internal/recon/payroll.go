package recon

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

// SubmitPayroll finalizes a period: it recalculates monthly pay, applies
// per-agent overrides, snapshots the result, locks the period, and flags
// the underlying sales as commission-pending. Resubmitting a draft period
// replaces the prior record; a locked period must be unlocked first.
func (s *Service) SubmitPayroll(ctx context.Context, period model.Period, overrides map[string]AgentOverride, submittedBy string) (*model.PayrollRecord, error) {
	existing, err := s.store.GetPayroll(ctx, period)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsLocked {
		return nil, eris.Wrapf(ErrPayrollLocked, "%s", period)
	}

	pay, err := s.CalculateMonthlyPay(ctx, period)
	if err != nil {
		return nil, err
	}

	applyOverrides(pay, overrides)

	snapshot, err := json.Marshal(pay)
	if err != nil {
		return nil, eris.Wrap(err, "recon: marshal payroll snapshot")
	}

	now := time.Now().UTC()
	rec := &model.PayrollRecord{
		Period:           period,
		PeriodDisplay:    period.Display(),
		Status:           model.PayrollSubmitted,
		IsLocked:         true,
		SubmittedAt:      &now,
		SubmittedBy:      submittedBy,
		TotalAgents:      len(pay.Agents),
		TotalCarriers:    pay.Totals.TotalCarriers,
		TotalPremium:     pay.Totals.TotalPremium,
		TotalChargebacks: pay.Totals.TotalChargebacks,
		Snapshot:         snapshot,
	}

	lines := make([]model.PayrollAgentLine, 0, len(pay.Agents))
	for _, a := range pay.Agents {
		rec.TotalAgentPay = rec.TotalAgentPay.Add(a.GrandTotal)
		lines = append(lines, model.PayrollAgentLine{
			AgentID:              a.AgentID,
			AgentName:            a.AgentName,
			AgentRole:            a.AgentRole,
			TierLevel:            a.TierLevel,
			CommissionRate:       a.EffectiveRate,
			TotalPremium:         a.TotalPremium,
			NewBusinessPremium:   a.NewBusinessPremium,
			TotalAgentCommission: a.AdjustedCommission,
			Chargebacks:          a.Chargebacks,
			ChargebackPremium:    a.ChargebackPremium,
			ChargebackCount:      a.ChargebackCount,
			LineCount:            a.LineCount,
			RateAdjustment:       a.RateAdjustment,
			Bonus:                a.Bonus,
			GrandTotal:           a.GrandTotal,
			CarrierBreakdown:     a.CarrierBreakdown,
			CommissionStatus:     model.CommissionPending,
		})
	}

	if err := s.store.SavePayroll(ctx, rec, lines); err != nil {
		return nil, err
	}

	if err := s.setPeriodSalesStatus(ctx, period, model.CommissionPending, nil); err != nil {
		return nil, err
	}

	s.log.Info("payroll submitted",
		zap.String("period", string(period)),
		zap.String("payroll_id", rec.ID),
		zap.Int("agents", rec.TotalAgents),
		zap.String("total_agent_pay", rec.TotalAgentPay.String()))
	return rec, nil
}

// applyOverrides rewrites each agent's adjustment fields from the operator
// inputs. A rate adjustment reprices the commissionable premium at the
// adjusted rate; the bonus is flat.
func applyOverrides(pay *MonthlyPay, overrides map[string]AgentOverride) {
	for i := range pay.Agents {
		a := &pay.Agents[i]
		ov := overrides[a.AgentID]
		a.RateAdjustment = ov.RateAdjustment
		a.Bonus = ov.Bonus

		a.AdjustedCommission = a.TotalAgentCommission
		if !ov.RateAdjustment.IsZero() && !a.BaseRate.IsZero() {
			commissionablePremium := a.TotalAgentCommission.Div(a.BaseRate)
			a.AdjustedCommission = commissionablePremium.Mul(a.BaseRate.Add(ov.RateAdjustment)).Round(2)
			a.EffectiveRate = a.BaseRate.Add(ov.RateAdjustment)
		}
		a.GrandTotal = a.AdjustedCommission.Add(ov.Bonus)
	}
}

// UnlockPayroll puts a submitted period back in draft for recalculation.
func (s *Service) UnlockPayroll(ctx context.Context, period model.Period) (*model.PayrollRecord, error) {
	rec, err := s.store.GetPayroll(ctx, period)
	if err != nil {
		return nil, err
	}
	rec.IsLocked = false
	rec.Status = model.PayrollDraft
	if err := s.store.UpdatePayroll(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Info("payroll unlocked", zap.String("period", string(period)))
	return rec, nil
}

// MarkPayrollPaid marks the period's record, its agent lines, and the
// matched sales as paid.
func (s *Service) MarkPayrollPaid(ctx context.Context, period model.Period) (*model.PayrollRecord, error) {
	rec, err := s.store.GetPayroll(ctx, period)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.store.MarkPayrollPaid(ctx, rec.ID, now); err != nil {
		return nil, err
	}
	if err := s.setPeriodSalesStatus(ctx, period, model.CommissionPaid, &now); err != nil {
		return nil, err
	}

	rec.Status = model.PayrollPaid
	rec.PaidAt = &now
	s.log.Info("payroll marked paid", zap.String("period", string(period)))
	return rec, nil
}

// PayrollHistory lists payroll records, newest period first.
func (s *Service) PayrollHistory(ctx context.Context, limit int) ([]model.PayrollRecord, error) {
	return s.store.ListPayrolls(ctx, limit)
}

// GetPayrollDetail returns a period's record with its agent lines.
func (s *Service) GetPayrollDetail(ctx context.Context, period model.Period) (*PayrollDetail, error) {
	rec, err := s.store.GetPayroll(ctx, period)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.PayrollLines(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &PayrollDetail{Record: rec, Lines: lines}, nil
}

// setPeriodSalesStatus updates commission status on every sale matched by
// the period's statement lines.
func (s *Service) setPeriodSalesStatus(ctx context.Context, period model.Period, status string, paidAt *time.Time) error {
	imports, err := s.store.ListImports(ctx, store.ImportFilter{Period: period, Limit: 500})
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	var saleIDs []string
	for _, imp := range imports {
		lines, err := s.store.ListLines(ctx, store.LineFilter{ImportID: imp.ID, Matched: boolp(true)})
		if err != nil {
			return err
		}
		for _, line := range lines {
			if line.MatchedSaleID == "" || seen[line.MatchedSaleID] {
				continue
			}
			seen[line.MatchedSaleID] = true
			saleIDs = append(saleIDs, line.MatchedSaleID)
		}
	}
	return s.store.SetSalesCommissionStatus(ctx, saleIDs, status, period, paidAt)
}
