package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an internal sale record. The reconciliation engine only reads
// sales: they are the lookup target for policy matching and the source of
// truth for the original effective date and producer assignment.
type Sale struct {
	ID           string `json:"id"`
	PolicyNumber string `json:"policy_number"`
	PolicyType   string `json:"policy_type,omitempty"`
	ProducerID   string `json:"producer_id"`

	WrittenPremium    decimal.Decimal  `json:"written_premium"`
	RecognizedPremium *decimal.Decimal `json:"recognized_premium,omitempty"`

	SaleDate      time.Time  `json:"sale_date"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`

	// Updated by payroll submission/mark-paid: pending or paid.
	CommissionStatus     string     `json:"commission_status"`
	CommissionPaidPeriod Period     `json:"commission_paid_period,omitempty"`
	CommissionPaidDate   *time.Time `json:"commission_paid_date,omitempty"`
}

// Agent is a producer who can be owed commission.
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}
