// Package model defines the domain types shared across the reconciliation
// pipeline: statement imports and their normalized lines, sales, agents,
// commission tiers, and finalized payroll records.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatementFormat is the file format of an uploaded carrier statement.
type StatementFormat string

const (
	FormatCSV  StatementFormat = "csv"
	FormatXLSX StatementFormat = "xlsx"
	FormatXLS  StatementFormat = "xls"
	FormatPDF  StatementFormat = "pdf"
)

// FormatForFilename infers the statement format from a filename extension.
// Unknown extensions default to CSV, matching the upload contract.
func FormatForFilename(name string) StatementFormat {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".xlsx"):
		return FormatXLSX
	case strings.HasSuffix(strings.ToLower(name), ".xls"):
		return FormatXLS
	case strings.HasSuffix(strings.ToLower(name), ".pdf"):
		return FormatPDF
	default:
		return FormatCSV
	}
}

// ImportStatus tracks a statement import through its lifecycle:
// uploaded → processing → matched|failed, then partially_matched after the
// matching pass and completed after payroll submission.
type ImportStatus string

const (
	StatusUploaded         ImportStatus = "uploaded"
	StatusProcessing       ImportStatus = "processing"
	StatusMatched          ImportStatus = "matched"
	StatusPartiallyMatched ImportStatus = "partially_matched"
	StatusCompleted        ImportStatus = "completed"
	StatusFailed           ImportStatus = "failed"
)

// TransactionType is the canonical transaction kind every carrier label is
// normalized into.
type TransactionType string

const (
	TxNewBusiness   TransactionType = "new_business"
	TxRenewal       TransactionType = "renewal"
	TxEndorsement   TransactionType = "endorsement"
	TxCancellation  TransactionType = "cancellation"
	TxReinstatement TransactionType = "reinstatement"
	TxAudit         TransactionType = "audit"
	TxAdjustment    TransactionType = "adjustment"
	TxOther         TransactionType = "other"
)

// MatchConfidence records how a statement line was matched to a sale.
type MatchConfidence string

const (
	MatchExact  MatchConfidence = "exact"
	MatchFuzzy  MatchConfidence = "fuzzy"
	MatchManual MatchConfidence = "manual"
)

// StatementImport is one uploaded carrier statement file and its parse and
// matching results.
type StatementImport struct {
	ID         string          `json:"id"`
	Filename   string          `json:"filename"`
	FileFormat StatementFormat `json:"file_format"`
	FileSize   int64           `json:"file_size"`
	Carrier    string          `json:"carrier"`
	Period     Period          `json:"period"`
	Status     ImportStatus    `json:"status"`

	TotalRows     int `json:"total_rows"`
	MatchedRows   int `json:"matched_rows"`
	UnmatchedRows int `json:"unmatched_rows"`
	SkippedRows   int `json:"skipped_rows"`

	TotalPremium    decimal.Decimal `json:"total_premium"`
	TotalCommission decimal.Decimal `json:"total_commission"`

	ErrorMessage          string     `json:"error_message,omitempty"`
	ProcessingStartedAt   *time.Time `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time `json:"processing_completed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// StatementLine is one normalized transaction row from a carrier statement.
// CommissionAmount is what the carrier paid the agency (signed; negative for
// chargebacks). AgentCommissionAmount is what this engine computed for the
// assigned agent and is only ever non-zero on matched, first-term lines.
type StatementLine struct {
	ID       string `json:"id"`
	ImportID string `json:"import_id"`

	PolicyNumber       string          `json:"policy_number"`
	InsuredName        string          `json:"insured_name,omitempty"`
	TransactionType    TransactionType `json:"transaction_type"`
	TransactionTypeRaw string          `json:"transaction_type_raw"`
	TransactionDate    *time.Time      `json:"transaction_date,omitempty"`
	EffectiveDate      *time.Time      `json:"effective_date,omitempty"`

	PremiumAmount    *decimal.Decimal `json:"premium_amount,omitempty"`
	CommissionRate   *decimal.Decimal `json:"commission_rate,omitempty"`
	CommissionAmount *decimal.Decimal `json:"commission_amount,omitempty"`

	// Informational only; the carrier's producer label is never used for pay.
	ProducerName   string `json:"producer_name,omitempty"`
	ProductType    string `json:"product_type,omitempty"`
	LineOfBusiness string `json:"line_of_business,omitempty"`
	State          string `json:"state,omitempty"`
	TermMonths     *int   `json:"term_months,omitempty"`
	RawData        string `json:"-"`

	IsMatched       bool            `json:"is_matched"`
	MatchedSaleID   string          `json:"matched_sale_id,omitempty"`
	MatchConfidence MatchConfidence `json:"match_confidence,omitempty"`
	MatchedAt       *time.Time      `json:"matched_at,omitempty"`

	AssignedAgentID       string           `json:"assigned_agent_id,omitempty"`
	AgentCommissionRate   *decimal.Decimal `json:"agent_commission_rate,omitempty"`
	AgentCommissionAmount *decimal.Decimal `json:"agent_commission_amount,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Premium returns the line premium, treating nil as zero.
func (l *StatementLine) Premium() decimal.Decimal {
	if l.PremiumAmount == nil {
		return decimal.Zero
	}
	return *l.PremiumAmount
}

// CarrierCommission returns the carrier-paid commission, treating nil as zero.
func (l *StatementLine) CarrierCommission() decimal.Decimal {
	if l.CommissionAmount == nil {
		return decimal.Zero
	}
	return *l.CommissionAmount
}
