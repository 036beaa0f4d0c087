// Package recon orchestrates the reconciliation pipeline: statement import,
// policy matching, first-term commission checks, tier resolution, monthly
// pay aggregation, and payroll finalization.
package recon

import (
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/commission-cli/internal/carrier"
	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

var (
	// ErrNoImports reports a pay calculation against a period with no
	// statement imports. A zero payroll for an empty period is a silent
	// failure, so this is surfaced as an error instead.
	ErrNoImports = eris.New("recon: no imports for period")

	// ErrPayrollLocked reports a submit against an already-locked period.
	ErrPayrollLocked = eris.New("recon: payroll period is locked")
)

// Service wires the carrier registry and store into the reconciliation
// operations the CLI and HTTP server expose.
type Service struct {
	store    store.Store
	registry *carrier.Registry
	log      *zap.Logger
}

func NewService(st store.Store, registry *carrier.Registry, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, registry: registry, log: log}
}

// MatchStats summarizes one matching pass over an import.
type MatchStats struct {
	ImportID     string `json:"import_id"`
	Total        int    `json:"total"`
	Matched      int    `json:"matched"`
	NewlyMatched int    `json:"newly_matched"`
	Unmatched    int    `json:"unmatched"`
}

// ImportReport carries parse-side results the upload response surfaces:
// the detector's verdict and the rows the adapter skipped.
type ImportReport struct {
	DetectedCarrier   string               `json:"detected_carrier,omitempty"`
	CarrierOverridden bool                 `json:"carrier_overridden,omitempty"`
	Skipped           []carrier.SkipReason `json:"skipped,omitempty"`
}

// TypeStat is the per-transaction-type rollup in a reconciliation summary.
type TypeStat struct {
	Count      int             `json:"count"`
	Premium    decimal.Decimal `json:"premium"`
	Commission decimal.Decimal `json:"commission"`
}

// ImportSummary is the full review view of one import.
type ImportSummary struct {
	Import         *model.StatementImport `json:"import"`
	MatchedLines   []model.StatementLine  `json:"matched_lines"`
	UnmatchedLines []model.StatementLine  `json:"unmatched_lines"`
	TypeSummary    map[string]TypeStat    `json:"type_summary"`
}

// CarrierTotals is one import's contribution to a period rollup.
type CarrierTotals struct {
	Carrier         string          `json:"carrier"`
	TotalRows       int             `json:"total_rows"`
	MatchedRows     int             `json:"matched_rows"`
	UnmatchedRows   int             `json:"unmatched_rows"`
	TotalPremium    decimal.Decimal `json:"total_premium"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

// AgentSummary is one agent's computed pay for a period. RateAdjustment,
// Bonus, AdjustedCommission, and GrandTotal start at base values and are
// rewritten when payroll submission applies operator overrides.
type AgentSummary struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	AgentRole string `json:"agent_role"`

	TierLevel      int             `json:"tier_level"`
	BaseRate       decimal.Decimal `json:"base_commission_rate"`
	RateAdjustment decimal.Decimal `json:"rate_adjustment"`
	EffectiveRate  decimal.Decimal `json:"commission_rate"`
	TierPremium    decimal.Decimal `json:"tier_premium"`

	TotalPremium           decimal.Decimal `json:"total_premium"`
	NewBusinessPremium     decimal.Decimal `json:"new_business_premium"`
	CarrierCommissionTotal decimal.Decimal `json:"carrier_commission_total"`
	TotalAgentCommission   decimal.Decimal `json:"total_agent_commission"`

	Chargebacks       decimal.Decimal `json:"chargebacks"`
	ChargebackPremium decimal.Decimal `json:"chargeback_premium"`
	ChargebackCount   int             `json:"chargeback_count"`
	LineCount         int             `json:"line_count"`

	Bonus              decimal.Decimal `json:"bonus"`
	AdjustedCommission decimal.Decimal `json:"adjusted_commission"`
	GrandTotal         decimal.Decimal `json:"grand_total"`

	CarrierBreakdown []model.CarrierBreakdown `json:"carrier_breakdown"`
}

// PayTotals aggregates the period across all carriers and agents.
type PayTotals struct {
	TotalCarriers          int             `json:"total_carriers"`
	TotalMatchedLines      int             `json:"total_matched_lines"`
	TotalPremium           decimal.Decimal `json:"total_premium"`
	TotalCarrierCommission decimal.Decimal `json:"total_carrier_commission"`
	TotalAgentPay          decimal.Decimal `json:"total_agent_pay"`
	TotalChargebacks       decimal.Decimal `json:"total_chargebacks"`
}

// MonthlyPay is the combined cross-carrier pay calculation for one period.
// It is also the payroll snapshot payload.
type MonthlyPay struct {
	Period    model.Period    `json:"period"`
	TierBasis model.Period    `json:"tier_based_on"`
	Carriers  []CarrierTotals `json:"carriers"`
	Agents    []AgentSummary  `json:"agent_summaries"`
	Totals    PayTotals       `json:"totals"`
}

// SheetLine is one paid line item on an agent's commission sheet.
type SheetLine struct {
	PolicyNumber    string          `json:"policy_number"`
	InsuredName     string          `json:"insured_name,omitempty"`
	Carrier         string          `json:"carrier"`
	TransactionType string          `json:"transaction_type"`
	Premium         decimal.Decimal `json:"premium"`
	AgentCommission decimal.Decimal `json:"agent_commission"`
	IsChargeback    bool            `json:"is_chargeback"`
	EffectiveDate   string          `json:"effective_date,omitempty"`
}

// SheetSummary totals an agent's sheet.
type SheetSummary struct {
	NewBusinessPremium   decimal.Decimal `json:"new_business_premium"`
	OtherPaidPremium     decimal.Decimal `json:"other_paid_premium"`
	TotalPaidPremium     decimal.Decimal `json:"total_paid_premium"`
	Chargebacks          decimal.Decimal `json:"chargebacks"`
	ChargebackPremium    decimal.Decimal `json:"chargeback_premium"`
	ChargebackCount      int             `json:"chargeback_count"`
	TotalAgentCommission decimal.Decimal `json:"total_agent_commission"`
	Bonus                decimal.Decimal `json:"bonus"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
	TotalLines           int             `json:"total_lines"`
}

// AgentSheet is the detailed per-agent line-item view for one period.
type AgentSheet struct {
	AgentID        string          `json:"agent_id"`
	AgentName      string          `json:"agent_name"`
	AgentRole      string          `json:"agent_role"`
	AgentEmail     string          `json:"agent_email,omitempty"`
	Period         model.Period    `json:"period"`
	PeriodDisplay  string          `json:"period_display"`
	TierLevel      int             `json:"tier_level"`
	BaseRate       decimal.Decimal `json:"base_commission_rate"`
	RateAdjustment decimal.Decimal `json:"rate_adjustment"`
	EffectiveRate  decimal.Decimal `json:"commission_rate"`
	TierPremium    decimal.Decimal `json:"tier_premium"`
	Summary        SheetSummary    `json:"summary"`
	Lines          []SheetLine     `json:"line_items"`
}

// AgentOverride carries the operator's per-agent payroll inputs.
type AgentOverride struct {
	RateAdjustment decimal.Decimal `json:"rate_adjustment"`
	Bonus          decimal.Decimal `json:"bonus"`
}

// PayrollDetail is a payroll record with its agent lines.
type PayrollDetail struct {
	Record *model.PayrollRecord     `json:"record"`
	Lines  []model.PayrollAgentLine `json:"agent_lines"`
}
