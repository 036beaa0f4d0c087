package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/commission-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs the
// single-operator CLI mode where running Postgres is not worth it.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS statement_imports (
	id                      TEXT PRIMARY KEY,
	filename                TEXT NOT NULL,
	file_format             TEXT NOT NULL,
	file_size               INTEGER NOT NULL DEFAULT 0,
	carrier                 TEXT NOT NULL,
	period                  TEXT NOT NULL,
	status                  TEXT NOT NULL DEFAULT 'uploaded',
	total_rows              INTEGER NOT NULL DEFAULT 0,
	matched_rows            INTEGER NOT NULL DEFAULT 0,
	unmatched_rows          INTEGER NOT NULL DEFAULT 0,
	skipped_rows            INTEGER NOT NULL DEFAULT 0,
	total_premium           TEXT NOT NULL DEFAULT '0',
	total_commission        TEXT NOT NULL DEFAULT '0',
	error_message           TEXT NOT NULL DEFAULT '',
	processing_started_at   DATETIME,
	processing_completed_at DATETIME,
	created_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS statement_lines (
	id                      TEXT PRIMARY KEY,
	import_id               TEXT NOT NULL REFERENCES statement_imports(id) ON DELETE CASCADE,
	policy_number           TEXT NOT NULL,
	insured_name            TEXT NOT NULL DEFAULT '',
	transaction_type        TEXT NOT NULL,
	transaction_type_raw    TEXT NOT NULL DEFAULT '',
	transaction_date        DATETIME,
	effective_date          DATETIME,
	premium_amount          TEXT,
	commission_rate         TEXT,
	commission_amount       TEXT,
	producer_name           TEXT NOT NULL DEFAULT '',
	product_type            TEXT NOT NULL DEFAULT '',
	line_of_business        TEXT NOT NULL DEFAULT '',
	state                   TEXT NOT NULL DEFAULT '',
	term_months             INTEGER,
	raw_data                TEXT NOT NULL DEFAULT '',
	is_matched              INTEGER NOT NULL DEFAULT 0,
	matched_sale_id         TEXT NOT NULL DEFAULT '',
	match_confidence        TEXT NOT NULL DEFAULT '',
	matched_at              DATETIME,
	assigned_agent_id       TEXT NOT NULL DEFAULT '',
	agent_commission_rate   TEXT,
	agent_commission_amount TEXT,
	created_at              DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sales (
	id                     TEXT PRIMARY KEY,
	policy_number          TEXT NOT NULL,
	policy_type            TEXT NOT NULL DEFAULT '',
	producer_id            TEXT NOT NULL DEFAULT '',
	written_premium        TEXT NOT NULL DEFAULT '0',
	recognized_premium     TEXT,
	sale_date              DATETIME NOT NULL,
	effective_date         DATETIME,
	commission_status      TEXT NOT NULL DEFAULT '',
	commission_paid_period TEXT NOT NULL DEFAULT '',
	commission_paid_date   DATETIME
);

CREATE TABLE IF NOT EXISTS agents (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	email     TEXT NOT NULL DEFAULT '',
	role      TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS commission_tiers (
	id                  TEXT PRIMARY KEY,
	tier_level          INTEGER NOT NULL,
	min_written_premium TEXT NOT NULL DEFAULT '0',
	max_written_premium TEXT,
	commission_rate     TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	is_active           INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS payroll_records (
	id                TEXT PRIMARY KEY,
	period            TEXT NOT NULL UNIQUE,
	status            TEXT NOT NULL DEFAULT 'draft',
	is_locked         INTEGER NOT NULL DEFAULT 0,
	submitted_at      DATETIME,
	submitted_by      TEXT NOT NULL DEFAULT '',
	paid_at           DATETIME,
	total_agents      INTEGER NOT NULL DEFAULT 0,
	total_carriers    INTEGER NOT NULL DEFAULT 0,
	total_premium     TEXT NOT NULL DEFAULT '0',
	total_agent_pay   TEXT NOT NULL DEFAULT '0',
	total_chargebacks TEXT NOT NULL DEFAULT '0',
	snapshot          TEXT,
	notes             TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS payroll_agent_lines (
	id                     TEXT PRIMARY KEY,
	payroll_id             TEXT NOT NULL REFERENCES payroll_records(id) ON DELETE CASCADE,
	agent_id               TEXT NOT NULL,
	agent_name             TEXT NOT NULL DEFAULT '',
	agent_role             TEXT NOT NULL DEFAULT '',
	tier_level             INTEGER NOT NULL DEFAULT 0,
	commission_rate        TEXT NOT NULL DEFAULT '0',
	total_premium          TEXT NOT NULL DEFAULT '0',
	new_business_premium   TEXT NOT NULL DEFAULT '0',
	total_agent_commission TEXT NOT NULL DEFAULT '0',
	chargebacks            TEXT NOT NULL DEFAULT '0',
	chargeback_premium     TEXT NOT NULL DEFAULT '0',
	chargeback_count       INTEGER NOT NULL DEFAULT 0,
	line_count             INTEGER NOT NULL DEFAULT 0,
	rate_adjustment        TEXT NOT NULL DEFAULT '0',
	bonus                  TEXT NOT NULL DEFAULT '0',
	grand_total            TEXT NOT NULL DEFAULT '0',
	carrier_breakdown      TEXT,
	commission_status      TEXT NOT NULL DEFAULT 'pending',
	paid_at                DATETIME
);

CREATE INDEX IF NOT EXISTS idx_imports_period ON statement_imports(period);
CREATE INDEX IF NOT EXISTS idx_imports_carrier ON statement_imports(carrier);
CREATE INDEX IF NOT EXISTS idx_lines_import_id ON statement_lines(import_id);
CREATE INDEX IF NOT EXISTS idx_lines_policy ON statement_lines(policy_number);
CREATE INDEX IF NOT EXISTS idx_lines_agent ON statement_lines(assigned_agent_id);
CREATE INDEX IF NOT EXISTS idx_sales_policy ON sales(policy_number);
CREATE INDEX IF NOT EXISTS idx_sales_producer ON sales(producer_id);
CREATE INDEX IF NOT EXISTS idx_payroll_lines_payroll ON payroll_agent_lines(payroll_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// ── statement imports ────────────────────────────────────────────────

const sqliteImportInsert = `INSERT INTO statement_imports (` + importColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) CreateImport(ctx context.Context, imp *model.StatementImport) error {
	stampImport(imp)
	_, err := s.db.ExecContext(ctx, sqliteImportInsert, importArgs(imp)...)
	return eris.Wrapf(err, "sqlite: insert import %s", imp.ID)
}

func (s *SQLiteStore) CreateImportWithLines(ctx context.Context, imp *model.StatementImport, lines []model.StatementLine) error {
	stampImport(imp)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin import tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqliteImportInsert, importArgs(imp)...); err != nil {
		return eris.Wrapf(err, "sqlite: insert import %s", imp.ID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO statement_lines (`+lineColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare line insert")
	}
	defer stmt.Close()

	for i := range lines {
		stampLine(&lines[i], imp.ID)
		l := &lines[i]
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now().UTC()
		}
		_, err = stmt.ExecContext(ctx,
			l.ID, l.ImportID, l.PolicyNumber, l.InsuredName, string(l.TransactionType),
			l.TransactionTypeRaw, l.TransactionDate, l.EffectiveDate, l.PremiumAmount,
			l.CommissionRate, l.CommissionAmount, l.ProducerName, l.ProductType,
			l.LineOfBusiness, l.State, l.TermMonths, l.RawData, l.IsMatched,
			l.MatchedSaleID, string(l.MatchConfidence), l.MatchedAt, l.AssignedAgentID,
			l.AgentCommissionRate, l.AgentCommissionAmount, l.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert line %s", l.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit import tx")
}

func (s *SQLiteStore) UpdateImport(ctx context.Context, imp *model.StatementImport) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE statement_imports SET status = ?, total_rows = ?, matched_rows = ?,
		 unmatched_rows = ?, skipped_rows = ?, total_premium = ?, total_commission = ?,
		 error_message = ?, processing_started_at = ?, processing_completed_at = ?
		 WHERE id = ?`,
		string(imp.Status), imp.TotalRows, imp.MatchedRows, imp.UnmatchedRows,
		imp.SkippedRows, imp.TotalPremium, imp.TotalCommission, imp.ErrorMessage,
		imp.ProcessingStartedAt, imp.ProcessingCompletedAt, imp.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update import %s", imp.ID)
	}
	return checkRowsAffected(res, "import", imp.ID)
}

func (s *SQLiteStore) GetImport(ctx context.Context, id string) (*model.StatementImport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+importColumns+` FROM statement_imports WHERE id = ?`, id)
	imp, err := sqliteScanImport(row)
	if err != nil {
		return nil, eris.Wrapf(sqliteNotFound(err), "sqlite: get import %s", id)
	}
	return imp, nil
}

func (s *SQLiteStore) ListImports(ctx context.Context, filter ImportFilter) ([]model.StatementImport, error) {
	query := `SELECT ` + importColumns + ` FROM statement_imports WHERE true`
	args := []any{}

	if filter.Carrier != "" {
		query += ` AND carrier = ?`
		args = append(args, filter.Carrier)
	}
	if filter.Period != "" {
		query += ` AND period = ?`
		args = append(args, string(filter.Period))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list imports")
	}
	defer rows.Close()

	var imports []model.StatementImport
	for rows.Next() {
		imp, err := sqliteScanImport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import")
		}
		imports = append(imports, *imp)
	}
	return imports, eris.Wrap(rows.Err(), "sqlite: list imports iterate")
}

func (s *SQLiteStore) DeleteImport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM statement_imports WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete import %s", id)
	}
	return checkRowsAffected(res, "import", id)
}

// ── statement lines ──────────────────────────────────────────────────

func (s *SQLiteStore) ListLines(ctx context.Context, filter LineFilter) ([]model.StatementLine, error) {
	query := `SELECT ` + lineColumns + ` FROM statement_lines WHERE true`
	args := []any{}

	if filter.ImportID != "" {
		query += ` AND import_id = ?`
		args = append(args, filter.ImportID)
	}
	if filter.AgentID != "" {
		query += ` AND assigned_agent_id = ?`
		args = append(args, filter.AgentID)
	}
	if filter.Matched != nil {
		query += ` AND is_matched = ?`
		args = append(args, *filter.Matched)
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lines")
	}
	defer rows.Close()

	var lines []model.StatementLine
	for rows.Next() {
		line, err := sqliteScanLine(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan line")
		}
		lines = append(lines, *line)
	}
	return lines, eris.Wrap(rows.Err(), "sqlite: list lines iterate")
}

func (s *SQLiteStore) GetLine(ctx context.Context, id string) (*model.StatementLine, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lineColumns+` FROM statement_lines WHERE id = ?`, id)
	line, err := sqliteScanLine(row)
	if err != nil {
		return nil, eris.Wrapf(sqliteNotFound(err), "sqlite: get line %s", id)
	}
	return line, nil
}

func (s *SQLiteStore) UpdateLineMatch(ctx context.Context, line *model.StatementLine) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE statement_lines SET is_matched = ?, matched_sale_id = ?,
		 match_confidence = ?, matched_at = ?, assigned_agent_id = ?
		 WHERE id = ?`,
		line.IsMatched, line.MatchedSaleID, string(line.MatchConfidence),
		line.MatchedAt, line.AssignedAgentID, line.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update line match %s", line.ID)
	}
	return checkRowsAffected(res, "line", line.ID)
}

func (s *SQLiteStore) UpdateLineCommission(ctx context.Context, line *model.StatementLine) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE statement_lines SET agent_commission_rate = ?, agent_commission_amount = ?
		 WHERE id = ?`,
		line.AgentCommissionRate, line.AgentCommissionAmount, line.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update line commission %s", line.ID)
	}
	return checkRowsAffected(res, "line", line.ID)
}

// ── sales and agents ─────────────────────────────────────────────────

func (s *SQLiteStore) CreateSale(ctx context.Context, sale *model.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sales (`+saleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.PolicyNumber, sale.PolicyType, sale.ProducerID, sale.WrittenPremium,
		sale.RecognizedPremium, sale.SaleDate, sale.EffectiveDate, sale.CommissionStatus,
		string(sale.CommissionPaidPeriod), sale.CommissionPaidDate,
	)
	return eris.Wrapf(err, "sqlite: insert sale %s", sale.ID)
}

func (s *SQLiteStore) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	sale, err := sqliteScanSale(row)
	if err != nil {
		return nil, eris.Wrapf(sqliteNotFound(err), "sqlite: get sale %s", id)
	}
	return sale, nil
}

func (s *SQLiteStore) GetSaleByPolicy(ctx context.Context, policyNumber string) (*model.Sale, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE policy_number = ? ORDER BY sale_date DESC LIMIT 1`,
		policyNumber,
	)
	sale, err := sqliteScanSale(row)
	if err != nil {
		return nil, eris.Wrapf(sqliteNotFound(err), "sqlite: get sale by policy %s", policyNumber)
	}
	return sale, nil
}

func (s *SQLiteStore) FindSaleByPolicyFragment(ctx context.Context, fragment string) (*model.Sale, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE policy_number LIKE '%' || ? || '%'
		 ORDER BY sale_date DESC LIMIT 1`,
		fragment,
	)
	sale, err := sqliteScanSale(row)
	if err != nil {
		return nil, eris.Wrapf(sqliteNotFound(err), "sqlite: find sale by fragment %s", fragment)
	}
	return sale, nil
}

func (s *SQLiteStore) SetSalesCommissionStatus(ctx context.Context, saleIDs []string, status string, period model.Period, paidAt *time.Time) error {
	if len(saleIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(saleIDs)), ", ")
	args := []any{status, string(period), paidAt}
	for _, id := range saleIDs {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE sales SET commission_status = ?, commission_paid_period = ?,
		 commission_paid_date = ? WHERE id IN (%s)`, placeholders),
		args...,
	)
	return eris.Wrap(err, "sqlite: set sales commission status")
}

func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *model.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, name, email, role, is_active) VALUES (?, ?, ?, ?, ?)`,
		agent.ID, agent.Name, agent.Email, agent.Role, agent.IsActive,
	)
	return eris.Wrapf(err, "sqlite: insert agent %s", agent.ID)
}

func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	var a model.Agent
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, is_active FROM agents WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.IsActive)
	if err != nil {
		return nil, eris.Wrapf(sqliteNotFound(err), "sqlite: get agent %s", id)
	}
	return &a, nil
}

// AgentWrittenPremium sums sale premiums in Go rather than in SQL because
// premiums are stored as decimal strings.
func (s *SQLiteStore) AgentWrittenPremium(ctx context.Context, agentID string, period model.Period) (decimal.Decimal, error) {
	start := period.FirstDay()
	end := start.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT written_premium FROM sales
		 WHERE producer_id = ? AND sale_date >= ? AND sale_date < ?`,
		agentID, start, end,
	)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "sqlite: agent written premium %s", agentID)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var premium decimal.Decimal
		if err := rows.Scan(&premium); err != nil {
			return decimal.Zero, eris.Wrap(err, "sqlite: scan written premium")
		}
		total = total.Add(premium)
	}
	return total, eris.Wrap(rows.Err(), "sqlite: agent written premium iterate")
}

// ── commission tiers ─────────────────────────────────────────────────

func (s *SQLiteStore) ListTiers(ctx context.Context, activeOnly bool) ([]model.CommissionTier, error) {
	query := `SELECT id, tier_level, min_written_premium, max_written_premium,
		commission_rate, description, is_active FROM commission_tiers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY tier_level`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tiers")
	}
	defer rows.Close()

	var tiers []model.CommissionTier
	for rows.Next() {
		var t model.CommissionTier
		var maxPremium sql.NullString
		if err := rows.Scan(&t.ID, &t.TierLevel, &t.MinWrittenPremium, &maxPremium,
			&t.CommissionRate, &t.Description, &t.IsActive); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tier")
		}
		t.MaxWrittenPremium, err = decFromNull(maxPremium)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: parse tier max premium")
		}
		tiers = append(tiers, t)
	}
	return tiers, eris.Wrap(rows.Err(), "sqlite: list tiers iterate")
}

func (s *SQLiteStore) CreateTier(ctx context.Context, tier *model.CommissionTier) error {
	if tier.ID == "" {
		tier.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commission_tiers (id, tier_level, min_written_premium, max_written_premium,
		 commission_rate, description, is_active) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tier.ID, tier.TierLevel, tier.MinWrittenPremium, tier.MaxWrittenPremium,
		tier.CommissionRate, tier.Description, tier.IsActive,
	)
	return eris.Wrapf(err, "sqlite: insert tier %d", tier.TierLevel)
}

// ── payroll ──────────────────────────────────────────────────────────

func (s *SQLiteStore) GetPayroll(ctx context.Context, period model.Period) (*model.PayrollRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+payrollColumns+` FROM payroll_records WHERE period = ?`, string(period))
	rec, err := sqliteScanPayroll(row)
	if err != nil {
		return nil, eris.Wrapf(sqliteNotFound(err), "sqlite: get payroll %s", period)
	}
	return rec, nil
}

func (s *SQLiteStore) SavePayroll(ctx context.Context, rec *model.PayrollRecord, lines []model.PayrollAgentLine) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin payroll tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payroll_records WHERE period = ?`, string(rec.Period)); err != nil {
		return eris.Wrapf(err, "sqlite: delete prior payroll %s", rec.Period)
	}

	var snapshot any
	if len(rec.Snapshot) > 0 {
		snapshot = string(rec.Snapshot)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payroll_records (`+payrollColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Period), rec.Status, rec.IsLocked, rec.SubmittedAt, rec.SubmittedBy,
		rec.PaidAt, rec.TotalAgents, rec.TotalCarriers, rec.TotalPremium, rec.TotalAgentPay,
		rec.TotalChargebacks, snapshot, rec.Notes, rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert payroll %s", rec.Period)
	}

	for i := range lines {
		l := &lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.PayrollID = rec.ID
		breakdown, err := json.Marshal(l.CarrierBreakdown)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal carrier breakdown")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payroll_agent_lines (`+payrollLineColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.PayrollID, l.AgentID, l.AgentName, l.AgentRole, l.TierLevel,
			l.CommissionRate, l.TotalPremium, l.NewBusinessPremium, l.TotalAgentCommission,
			l.Chargebacks, l.ChargebackPremium, l.ChargebackCount, l.LineCount,
			l.RateAdjustment, l.Bonus, l.GrandTotal, string(breakdown), l.CommissionStatus, l.PaidAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert payroll line %s", l.AgentID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit payroll tx")
}

func (s *SQLiteStore) UpdatePayroll(ctx context.Context, rec *model.PayrollRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payroll_records SET status = ?, is_locked = ?, submitted_at = ?,
		 submitted_by = ?, paid_at = ?, notes = ? WHERE id = ?`,
		rec.Status, rec.IsLocked, rec.SubmittedAt, rec.SubmittedBy, rec.PaidAt, rec.Notes, rec.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update payroll %s", rec.ID)
	}
	return checkRowsAffected(res, "payroll", rec.ID)
}

func (s *SQLiteStore) MarkPayrollPaid(ctx context.Context, payrollID string, paidAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin mark paid tx")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE payroll_records SET status = ?, paid_at = ? WHERE id = ?`,
		model.PayrollPaid, paidAt, payrollID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark payroll paid %s", payrollID)
	}
	if err := checkRowsAffected(res, "payroll", payrollID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE payroll_agent_lines SET commission_status = ?, paid_at = ? WHERE payroll_id = ?`,
		model.CommissionPaid, paidAt, payrollID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark payroll lines paid %s", payrollID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit mark paid tx")
}

func (s *SQLiteStore) ListPayrolls(ctx context.Context, limit int) ([]model.PayrollRecord, error) {
	if limit <= 0 {
		limit = 24
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+payrollColumns+` FROM payroll_records ORDER BY period DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list payrolls")
	}
	defer rows.Close()

	var recs []model.PayrollRecord
	for rows.Next() {
		rec, err := sqliteScanPayroll(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan payroll")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list payrolls iterate")
}

func (s *SQLiteStore) PayrollLines(ctx context.Context, payrollID string) ([]model.PayrollAgentLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+payrollLineColumns+` FROM payroll_agent_lines
		 WHERE payroll_id = ? ORDER BY CAST(grand_total AS REAL) DESC`, payrollID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: payroll lines %s", payrollID)
	}
	defer rows.Close()

	var lines []model.PayrollAgentLine
	for rows.Next() {
		var l model.PayrollAgentLine
		var breakdown sql.NullString
		var paidAt sql.NullTime
		if err := rows.Scan(&l.ID, &l.PayrollID, &l.AgentID, &l.AgentName, &l.AgentRole,
			&l.TierLevel, &l.CommissionRate, &l.TotalPremium, &l.NewBusinessPremium,
			&l.TotalAgentCommission, &l.Chargebacks, &l.ChargebackPremium, &l.ChargebackCount,
			&l.LineCount, &l.RateAdjustment, &l.Bonus, &l.GrandTotal, &breakdown,
			&l.CommissionStatus, &paidAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan payroll line")
		}
		l.PaidAt = timeFromNull(paidAt)
		if breakdown.Valid && breakdown.String != "" {
			if err := json.Unmarshal([]byte(breakdown.String), &l.CarrierBreakdown); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal carrier breakdown")
			}
		}
		lines = append(lines, l)
	}
	return lines, eris.Wrap(rows.Err(), "sqlite: payroll lines iterate")
}

// ── scan helpers ─────────────────────────────────────────────────────

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func sqliteNotFound(err error) error {
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func decFromNull(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func timeFromNull(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func intFromNull(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

func sqliteScanImport(row rowScanner) (*model.StatementImport, error) {
	var imp model.StatementImport
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&imp.ID, &imp.Filename, &imp.FileFormat, &imp.FileSize, &imp.Carrier,
		&imp.Period, &imp.Status, &imp.TotalRows, &imp.MatchedRows, &imp.UnmatchedRows,
		&imp.SkippedRows, &imp.TotalPremium, &imp.TotalCommission, &imp.ErrorMessage,
		&startedAt, &completedAt, &imp.CreatedAt)
	if err != nil {
		return nil, err
	}
	imp.ProcessingStartedAt = timeFromNull(startedAt)
	imp.ProcessingCompletedAt = timeFromNull(completedAt)
	return &imp, nil
}

func sqliteScanLine(row rowScanner) (*model.StatementLine, error) {
	var l model.StatementLine
	var transDate, effDate, matchedAt sql.NullTime
	var premium, rate, commission, agentRate, agentCommission sql.NullString
	var term sql.NullInt64

	err := row.Scan(&l.ID, &l.ImportID, &l.PolicyNumber, &l.InsuredName, &l.TransactionType,
		&l.TransactionTypeRaw, &transDate, &effDate, &premium, &rate, &commission,
		&l.ProducerName, &l.ProductType, &l.LineOfBusiness, &l.State, &term,
		&l.RawData, &l.IsMatched, &l.MatchedSaleID, &l.MatchConfidence, &matchedAt,
		&l.AssignedAgentID, &agentRate, &agentCommission, &l.CreatedAt)
	if err != nil {
		return nil, err
	}

	l.TransactionDate = timeFromNull(transDate)
	l.EffectiveDate = timeFromNull(effDate)
	l.MatchedAt = timeFromNull(matchedAt)
	l.TermMonths = intFromNull(term)
	for _, f := range []struct {
		src sql.NullString
		dst **decimal.Decimal
	}{
		{premium, &l.PremiumAmount},
		{rate, &l.CommissionRate},
		{commission, &l.CommissionAmount},
		{agentRate, &l.AgentCommissionRate},
		{agentCommission, &l.AgentCommissionAmount},
	} {
		d, err := decFromNull(f.src)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: parse line decimal")
		}
		*f.dst = d
	}
	return &l, nil
}

func sqliteScanSale(row rowScanner) (*model.Sale, error) {
	var s model.Sale
	var recognized sql.NullString
	var effDate, paidDate sql.NullTime

	err := row.Scan(&s.ID, &s.PolicyNumber, &s.PolicyType, &s.ProducerID, &s.WrittenPremium,
		&recognized, &s.SaleDate, &effDate, &s.CommissionStatus, &s.CommissionPaidPeriod,
		&paidDate)
	if err != nil {
		return nil, err
	}
	s.EffectiveDate = timeFromNull(effDate)
	s.CommissionPaidDate = timeFromNull(paidDate)
	s.RecognizedPremium, err = decFromNull(recognized)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: parse recognized premium")
	}
	return &s, nil
}

func sqliteScanPayroll(row rowScanner) (*model.PayrollRecord, error) {
	var rec model.PayrollRecord
	var submittedAt, paidAt sql.NullTime
	var snapshot sql.NullString

	err := row.Scan(&rec.ID, &rec.Period, &rec.Status, &rec.IsLocked, &submittedAt,
		&rec.SubmittedBy, &paidAt, &rec.TotalAgents, &rec.TotalCarriers, &rec.TotalPremium,
		&rec.TotalAgentPay, &rec.TotalChargebacks, &snapshot, &rec.Notes, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.SubmittedAt = timeFromNull(submittedAt)
	rec.PaidAt = timeFromNull(paidAt)
	if snapshot.Valid {
		rec.Snapshot = []byte(snapshot.String)
	}
	rec.PeriodDisplay = rec.Period.Display()
	return &rec, nil
}
