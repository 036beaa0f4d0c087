package recon

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

// AgentCommissionSheet builds the detailed line-by-line sheet for one agent
// and period. A rate adjustment shifts the tier rate before any line math;
// a bonus is a flat amount added to the grand total. Only lines that move
// agent pay appear; chargebacks sort to the bottom.
func (s *Service) AgentCommissionSheet(ctx context.Context, period model.Period, agentID string, rateAdjustment, bonus decimal.Decimal) (*AgentSheet, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

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

	baseRate, level, tierPremium, err := s.agentTier(ctx, agentID, period, pc.tiers)
	if err != nil {
		return nil, err
	}
	rate := baseRate.Add(rateAdjustment)

	sheet := &AgentSheet{
		AgentID:        agentID,
		AgentName:      agent.Name,
		AgentRole:      agent.Role,
		AgentEmail:     agent.Email,
		Period:         period,
		PeriodDisplay:  period.Display(),
		TierLevel:      level,
		BaseRate:       baseRate,
		RateAdjustment: rateAdjustment,
		EffectiveRate:  rate,
		TierPremium:    tierPremium,
	}

	for _, imp := range imports {
		lines, err := s.store.ListLines(ctx, store.LineFilter{
			ImportID: imp.ID,
			AgentID:  agentID,
			Matched:  boolp(true),
		})
		if err != nil {
			return nil, err
		}

		for i := range lines {
			line := &lines[i]
			premium := line.Premium()

			sale, err := s.saleFor(ctx, line.MatchedSaleID, pc.sales)
			if err != nil {
				return nil, err
			}

			agentComm := decimal.Zero
			if WithinFirstTerm(line, sale, period) {
				agentComm = premium.Mul(rate)
			}

			if agentComm.IsNegative() {
				sheet.Summary.Chargebacks = sheet.Summary.Chargebacks.Add(agentComm)
				sheet.Summary.ChargebackPremium = sheet.Summary.ChargebackPremium.Add(premium)
				sheet.Summary.ChargebackCount++
			}
			sheet.Summary.TotalAgentCommission = sheet.Summary.TotalAgentCommission.Add(agentComm)

			if agentComm.IsZero() {
				continue
			}
			if line.TransactionType == model.TxNewBusiness {
				sheet.Summary.NewBusinessPremium = sheet.Summary.NewBusinessPremium.Add(premium)
			} else {
				sheet.Summary.OtherPaidPremium = sheet.Summary.OtherPaidPremium.Add(premium)
			}

			label := line.TransactionTypeRaw
			if label == "" {
				label = string(line.TransactionType)
			}
			item := SheetLine{
				PolicyNumber:    line.PolicyNumber,
				InsuredName:     line.InsuredName,
				Carrier:         imp.Carrier,
				TransactionType: label,
				Premium:         premium,
				AgentCommission: agentComm,
				IsChargeback:    agentComm.IsNegative(),
			}
			if line.EffectiveDate != nil {
				item.EffectiveDate = line.EffectiveDate.Format("2006-01-02")
			}
			sheet.Lines = append(sheet.Lines, item)
		}
	}

	sort.Slice(sheet.Lines, func(i, j int) bool {
		a, b := sheet.Lines[i], sheet.Lines[j]
		if a.IsChargeback != b.IsChargeback {
			return !a.IsChargeback
		}
		if a.Carrier != b.Carrier {
			return a.Carrier < b.Carrier
		}
		return a.PolicyNumber < b.PolicyNumber
	})

	sheet.Summary.TotalPaidPremium = sheet.Summary.NewBusinessPremium.Add(sheet.Summary.OtherPaidPremium)
	sheet.Summary.Bonus = bonus
	sheet.Summary.GrandTotal = sheet.Summary.TotalAgentCommission.Add(bonus)
	sheet.Summary.TotalLines = len(sheet.Lines)
	return sheet, nil
}
