package recon

import (
	"context"
	"errors"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

// payContext carries the shared lookups one pay calculation needs.
type payContext struct {
	period    model.Period
	tiers     []model.CommissionTier
	sales     map[string]*model.Sale
	carrierOf map[string]string // import id -> carrier key
}

// ImportCommissions is the legacy single-import agent summary.
type ImportCommissions struct {
	ImportID  string         `json:"import_id"`
	Period    model.Period   `json:"period"`
	TierBasis model.Period   `json:"tier_based_on"`
	Agents    []AgentSummary `json:"agent_summaries"`
}

// CalculateMonthlyPay combines matched, agent-assigned lines across every
// carrier import for the period into per-agent payable totals. Line-level
// agent commission is persisted as a side effect so the review UI shows
// the same numbers.
func (s *Service) CalculateMonthlyPay(ctx context.Context, period model.Period) (*MonthlyPay, error) {
	imports, err := s.store.ListImports(ctx, store.ImportFilter{Period: period, Limit: 500})
	if err != nil {
		return nil, err
	}
	if len(imports) == 0 {
		return nil, eris.Wrapf(ErrNoImports, "%s", period)
	}

	pc, err := s.newPayContext(ctx, period, imports)
	if err != nil {
		return nil, err
	}

	byAgent := map[string][]model.StatementLine{}
	for _, imp := range imports {
		lines, err := s.store.ListLines(ctx, store.LineFilter{ImportID: imp.ID, Matched: boolp(true)})
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if line.AssignedAgentID == "" {
				continue
			}
			byAgent[line.AssignedAgentID] = append(byAgent[line.AssignedAgentID], line)
		}
	}

	pay := &MonthlyPay{Period: period, TierBasis: period}
	for agentID, agentLines := range byAgent {
		summary, err := s.agentPay(ctx, agentID, agentLines, pc)
		if err != nil {
			return nil, err
		}
		if summary == nil {
			continue
		}
		pay.Agents = append(pay.Agents, *summary)
	}
	sort.Slice(pay.Agents, func(i, j int) bool {
		if !pay.Agents[i].TotalAgentCommission.Equal(pay.Agents[j].TotalAgentCommission) {
			return pay.Agents[i].TotalAgentCommission.GreaterThan(pay.Agents[j].TotalAgentCommission)
		}
		return pay.Agents[i].AgentName < pay.Agents[j].AgentName
	})

	pay.Carriers = carrierRollup(imports)
	pay.Totals.TotalCarriers = len(imports)
	for _, imp := range imports {
		pay.Totals.TotalMatchedLines += imp.MatchedRows
		pay.Totals.TotalPremium = pay.Totals.TotalPremium.Add(imp.TotalPremium)
		pay.Totals.TotalCarrierCommission = pay.Totals.TotalCarrierCommission.Add(imp.TotalCommission)
	}
	for _, a := range pay.Agents {
		pay.Totals.TotalAgentPay = pay.Totals.TotalAgentPay.Add(a.TotalAgentCommission)
		pay.Totals.TotalChargebacks = pay.Totals.TotalChargebacks.Add(a.Chargebacks)
	}

	s.log.Info("monthly pay calculated",
		zap.String("period", string(period)),
		zap.Int("carriers", len(imports)),
		zap.Int("agents", len(pay.Agents)),
		zap.String("total_agent_pay", pay.Totals.TotalAgentPay.String()))
	return pay, nil
}

// CalculateImportCommissions computes per-agent pay for a single import,
// the pre-monthly-pay review path.
func (s *Service) CalculateImportCommissions(ctx context.Context, importID string) (*ImportCommissions, error) {
	imp, err := s.store.GetImport(ctx, importID)
	if err != nil {
		return nil, err
	}

	pc, err := s.newPayContext(ctx, imp.Period, []model.StatementImport{*imp})
	if err != nil {
		return nil, err
	}

	lines, err := s.store.ListLines(ctx, store.LineFilter{ImportID: importID})
	if err != nil {
		return nil, err
	}
	byAgent := map[string][]model.StatementLine{}
	for _, line := range lines {
		if line.AssignedAgentID == "" {
			continue
		}
		byAgent[line.AssignedAgentID] = append(byAgent[line.AssignedAgentID], line)
	}

	out := &ImportCommissions{ImportID: importID, Period: imp.Period, TierBasis: imp.Period}
	for agentID, agentLines := range byAgent {
		summary, err := s.agentPay(ctx, agentID, agentLines, pc)
		if err != nil {
			return nil, err
		}
		if summary == nil {
			continue
		}
		out.Agents = append(out.Agents, *summary)
	}
	sort.Slice(out.Agents, func(i, j int) bool {
		return out.Agents[i].TotalAgentCommission.GreaterThan(out.Agents[j].TotalAgentCommission)
	})
	return out, nil
}

func (s *Service) newPayContext(ctx context.Context, period model.Period, imports []model.StatementImport) (*payContext, error) {
	tiers, err := s.store.ListTiers(ctx, true)
	if err != nil {
		return nil, err
	}
	pc := &payContext{
		period:    period,
		tiers:     tiers,
		sales:     map[string]*model.Sale{},
		carrierOf: map[string]string{},
	}
	for _, imp := range imports {
		pc.carrierOf[imp.ID] = imp.Carrier
	}
	return pc, nil
}

// agentPay computes one agent's summary over their period lines and
// persists each line's agent commission. A nil summary with nil error
// means the agent record no longer exists.
func (s *Service) agentPay(ctx context.Context, agentID string, lines []model.StatementLine, pc *payContext) (*AgentSummary, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("skipping lines for unknown agent", zap.String("agent_id", agentID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rate, level, tierPremium, err := s.agentTier(ctx, agentID, pc.period, pc.tiers)
	if err != nil {
		return nil, err
	}

	summary := &AgentSummary{
		AgentID:       agentID,
		AgentName:     agent.Name,
		AgentRole:     agent.Role,
		TierLevel:     level,
		BaseRate:      rate,
		EffectiveRate: rate,
		TierPremium:   tierPremium,
		LineCount:     len(lines),
	}

	breakdown := map[string]*model.CarrierBreakdown{}
	for i := range lines {
		line := &lines[i]
		premium := line.Premium()
		carrierComm := line.CarrierCommission()

		sale, err := s.saleFor(ctx, line.MatchedSaleID, pc.sales)
		if err != nil {
			return nil, err
		}

		agentComm := decimal.Zero
		if WithinFirstTerm(line, sale, pc.period) {
			agentComm = premium.Mul(rate)
		}
		if agentComm.IsNegative() {
			summary.Chargebacks = summary.Chargebacks.Add(agentComm)
			summary.ChargebackPremium = summary.ChargebackPremium.Add(premium)
			summary.ChargebackCount++
		}
		if !agentComm.IsZero() && line.TransactionType == model.TxNewBusiness {
			summary.NewBusinessPremium = summary.NewBusinessPremium.Add(premium)
		}

		line.AgentCommissionRate = &rate
		amt := agentComm
		line.AgentCommissionAmount = &amt
		if err := s.store.UpdateLineCommission(ctx, line); err != nil {
			return nil, err
		}

		carrierName := pc.carrierOf[line.ImportID]
		if carrierName == "" {
			carrierName = "unknown"
		}
		cb, ok := breakdown[carrierName]
		if !ok {
			cb = &model.CarrierBreakdown{Carrier: carrierName}
			breakdown[carrierName] = cb
		}
		cb.Premium = cb.Premium.Add(premium)
		cb.CarrierCommission = cb.CarrierCommission.Add(carrierComm)
		cb.AgentCommission = cb.AgentCommission.Add(agentComm)
		if agentComm.IsNegative() {
			cb.Chargebacks = cb.Chargebacks.Add(premium)
		}
		cb.LineCount++

		summary.TotalPremium = summary.TotalPremium.Add(premium)
		summary.TotalAgentCommission = summary.TotalAgentCommission.Add(agentComm)
		summary.CarrierCommissionTotal = summary.CarrierCommissionTotal.Add(carrierComm)
	}

	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		summary.CarrierBreakdown = append(summary.CarrierBreakdown, *breakdown[name])
	}

	// Base values; payroll submission overwrites these with overrides.
	summary.AdjustedCommission = summary.TotalAgentCommission
	summary.GrandTotal = summary.TotalAgentCommission
	return summary, nil
}

func (s *Service) saleFor(ctx context.Context, saleID string, cache map[string]*model.Sale) (*model.Sale, error) {
	if saleID == "" {
		return nil, nil
	}
	if sale, ok := cache[saleID]; ok {
		return sale, nil
	}
	sale, err := s.store.GetSale(ctx, saleID)
	if errors.Is(err, store.ErrNotFound) {
		cache[saleID] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cache[saleID] = sale
	return sale, nil
}

func carrierRollup(imports []model.StatementImport) []CarrierTotals {
	byCarrier := map[string]*CarrierTotals{}
	order := []string{}
	for _, imp := range imports {
		ct, ok := byCarrier[imp.Carrier]
		if !ok {
			ct = &CarrierTotals{Carrier: imp.Carrier}
			byCarrier[imp.Carrier] = ct
			order = append(order, imp.Carrier)
		}
		ct.TotalRows += imp.TotalRows
		ct.MatchedRows += imp.MatchedRows
		ct.UnmatchedRows += imp.UnmatchedRows
		ct.TotalPremium = ct.TotalPremium.Add(imp.TotalPremium)
		ct.TotalCommission = ct.TotalCommission.Add(imp.TotalCommission)
	}
	out := make([]CarrierTotals, 0, len(order))
	for _, name := range order {
		out = append(out, *byCarrier[name])
	}
	return out
}

func boolp(b bool) *bool { return &b }
