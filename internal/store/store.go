// Package store persists statement imports, matched lines, sales, tiers,
// and payroll records behind a single interface with PostgreSQL and SQLite
// implementations.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
)

// ErrNotFound reports a lookup that matched nothing.
var ErrNotFound = eris.New("store: not found")

// ImportFilter specifies criteria for listing statement imports.
type ImportFilter struct {
	Carrier string             `json:"carrier,omitempty"`
	Period  model.Period       `json:"period,omitempty"`
	Status  model.ImportStatus `json:"status,omitempty"`
	Limit   int                `json:"limit,omitempty"`
	Offset  int                `json:"offset,omitempty"`
}

// LineFilter specifies criteria for listing statement lines.
// Matched filters on match state when non-nil.
type LineFilter struct {
	ImportID string `json:"import_id,omitempty"`
	AgentID  string `json:"agent_id,omitempty"`
	Matched  *bool  `json:"matched,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the reconciliation pipeline.
type Store interface {
	// Statement imports
	CreateImport(ctx context.Context, imp *model.StatementImport) error
	CreateImportWithLines(ctx context.Context, imp *model.StatementImport, lines []model.StatementLine) error
	UpdateImport(ctx context.Context, imp *model.StatementImport) error
	GetImport(ctx context.Context, id string) (*model.StatementImport, error)
	ListImports(ctx context.Context, filter ImportFilter) ([]model.StatementImport, error)
	DeleteImport(ctx context.Context, id string) error

	// Statement lines
	ListLines(ctx context.Context, filter LineFilter) ([]model.StatementLine, error)
	GetLine(ctx context.Context, id string) (*model.StatementLine, error)
	UpdateLineMatch(ctx context.Context, line *model.StatementLine) error
	UpdateLineCommission(ctx context.Context, line *model.StatementLine) error

	// Sales and agents
	CreateSale(ctx context.Context, sale *model.Sale) error
	GetSale(ctx context.Context, id string) (*model.Sale, error)
	GetSaleByPolicy(ctx context.Context, policyNumber string) (*model.Sale, error)
	FindSaleByPolicyFragment(ctx context.Context, fragment string) (*model.Sale, error)
	SetSalesCommissionStatus(ctx context.Context, saleIDs []string, status string, period model.Period, paidAt *time.Time) error
	CreateAgent(ctx context.Context, agent *model.Agent) error
	GetAgent(ctx context.Context, id string) (*model.Agent, error)
	AgentWrittenPremium(ctx context.Context, agentID string, period model.Period) (decimal.Decimal, error)

	// Commission tiers
	ListTiers(ctx context.Context, activeOnly bool) ([]model.CommissionTier, error)
	CreateTier(ctx context.Context, tier *model.CommissionTier) error

	// Payroll
	GetPayroll(ctx context.Context, period model.Period) (*model.PayrollRecord, error)
	SavePayroll(ctx context.Context, rec *model.PayrollRecord, lines []model.PayrollAgentLine) error
	UpdatePayroll(ctx context.Context, rec *model.PayrollRecord) error
	MarkPayrollPaid(ctx context.Context, payrollID string, paidAt time.Time) error
	ListPayrolls(ctx context.Context, limit int) ([]model.PayrollRecord, error)
	PayrollLines(ctx context.Context, payrollID string) ([]model.PayrollAgentLine, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
