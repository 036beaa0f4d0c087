package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payroll record statuses.
const (
	PayrollDraft     = "draft"
	PayrollSubmitted = "submitted"
	PayrollPaid      = "paid"
)

// Commission payment statuses carried on sales and payroll agent lines.
const (
	CommissionPending = "pending"
	CommissionPaid    = "paid"
)

// PayrollRecord is the finalized snapshot of one period's monthly pay.
// Once submitted it is locked; recalculation requires an explicit unlock.
type PayrollRecord struct {
	ID            string     `json:"id"`
	Period        Period     `json:"period"`
	PeriodDisplay string     `json:"period_display"`
	Status        string     `json:"status"`
	IsLocked      bool       `json:"is_locked"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	SubmittedBy   string     `json:"submitted_by,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	TotalAgents      int             `json:"total_agents"`
	TotalCarriers    int             `json:"total_carriers"`
	TotalPremium     decimal.Decimal `json:"total_premium"`
	TotalAgentPay    decimal.Decimal `json:"total_agent_pay"`
	TotalChargebacks decimal.Decimal `json:"total_chargebacks"`

	// Full monthly pay result as JSON, kept for audit display.
	Snapshot []byte `json:"-"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PayrollAgentLine is one agent's finalized pay within a payroll record.
type PayrollAgentLine struct {
	ID        string `json:"id"`
	PayrollID string `json:"payroll_id"`
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	AgentRole string `json:"agent_role"`

	TierLevel      int             `json:"tier_level"`
	CommissionRate decimal.Decimal `json:"commission_rate"`

	TotalPremium         decimal.Decimal `json:"total_premium"`
	NewBusinessPremium   decimal.Decimal `json:"new_business_premium"`
	TotalAgentCommission decimal.Decimal `json:"total_agent_commission"`
	Chargebacks          decimal.Decimal `json:"chargebacks"`
	ChargebackPremium    decimal.Decimal `json:"chargeback_premium"`
	ChargebackCount      int             `json:"chargeback_count"`
	LineCount            int             `json:"line_count"`

	// Operator overrides applied at submission time.
	RateAdjustment decimal.Decimal `json:"rate_adjustment"`
	Bonus          decimal.Decimal `json:"bonus"`
	GrandTotal     decimal.Decimal `json:"grand_total"`

	CarrierBreakdown []CarrierBreakdown `json:"carrier_breakdown,omitempty"`

	CommissionStatus string     `json:"commission_status"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

// CarrierBreakdown is one carrier's contribution to an agent's period pay.
// It round-trips through the payroll snapshot JSON column, so the decimal
// fields carry real tags (shopspring marshals them as exact strings).
type CarrierBreakdown struct {
	Carrier           string          `json:"carrier"`
	Premium           decimal.Decimal `json:"premium"`
	CarrierCommission decimal.Decimal `json:"carrier_commission"`
	AgentCommission   decimal.Decimal `json:"agent_commission"`
	Chargebacks       decimal.Decimal `json:"chargebacks"`
	LineCount         int             `json:"line_count"`
}
