package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/db"
	"github.com/sells-group/commission-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"get_import":         `SELECT ` + importColumns + ` FROM statement_imports WHERE id = $1`,
	"get_line":           `SELECT ` + lineColumns + ` FROM statement_lines WHERE id = $1`,
	"get_sale_by_policy": `SELECT ` + saleColumns + ` FROM sales WHERE policy_number = $1 ORDER BY sale_date DESC LIMIT 1`,
	"get_agent":          `SELECT id, name, email, role, is_active FROM agents WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests hand in a pgxmock pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS statement_imports (
	id                      TEXT PRIMARY KEY,
	filename                TEXT NOT NULL,
	file_format             TEXT NOT NULL,
	file_size               BIGINT NOT NULL DEFAULT 0,
	carrier                 TEXT NOT NULL,
	period                  TEXT NOT NULL,
	status                  TEXT NOT NULL DEFAULT 'uploaded',
	total_rows              INTEGER NOT NULL DEFAULT 0,
	matched_rows            INTEGER NOT NULL DEFAULT 0,
	unmatched_rows          INTEGER NOT NULL DEFAULT 0,
	skipped_rows            INTEGER NOT NULL DEFAULT 0,
	total_premium           NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_commission        NUMERIC(14,2) NOT NULL DEFAULT 0,
	error_message           TEXT NOT NULL DEFAULT '',
	processing_started_at   TIMESTAMPTZ,
	processing_completed_at TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS statement_lines (
	id                      TEXT PRIMARY KEY,
	import_id               TEXT NOT NULL REFERENCES statement_imports(id) ON DELETE CASCADE,
	policy_number           TEXT NOT NULL,
	insured_name            TEXT NOT NULL DEFAULT '',
	transaction_type        TEXT NOT NULL,
	transaction_type_raw    TEXT NOT NULL DEFAULT '',
	transaction_date        TIMESTAMPTZ,
	effective_date          TIMESTAMPTZ,
	premium_amount          NUMERIC(14,2),
	commission_rate         NUMERIC(9,6),
	commission_amount       NUMERIC(14,2),
	producer_name           TEXT NOT NULL DEFAULT '',
	product_type            TEXT NOT NULL DEFAULT '',
	line_of_business        TEXT NOT NULL DEFAULT '',
	state                   TEXT NOT NULL DEFAULT '',
	term_months             INTEGER,
	raw_data                TEXT NOT NULL DEFAULT '',
	is_matched              BOOLEAN NOT NULL DEFAULT FALSE,
	matched_sale_id         TEXT NOT NULL DEFAULT '',
	match_confidence        TEXT NOT NULL DEFAULT '',
	matched_at              TIMESTAMPTZ,
	assigned_agent_id       TEXT NOT NULL DEFAULT '',
	agent_commission_rate   NUMERIC(9,6),
	agent_commission_amount NUMERIC(14,2),
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sales (
	id                     TEXT PRIMARY KEY,
	policy_number          TEXT NOT NULL,
	policy_type            TEXT NOT NULL DEFAULT '',
	producer_id            TEXT NOT NULL DEFAULT '',
	written_premium        NUMERIC(14,2) NOT NULL DEFAULT 0,
	recognized_premium     NUMERIC(14,2),
	sale_date              TIMESTAMPTZ NOT NULL,
	effective_date         TIMESTAMPTZ,
	commission_status      TEXT NOT NULL DEFAULT '',
	commission_paid_period TEXT NOT NULL DEFAULT '',
	commission_paid_date   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS agents (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	email     TEXT NOT NULL DEFAULT '',
	role      TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS commission_tiers (
	id                  TEXT PRIMARY KEY,
	tier_level          INTEGER NOT NULL,
	min_written_premium NUMERIC(14,2) NOT NULL DEFAULT 0,
	max_written_premium NUMERIC(14,2),
	commission_rate     NUMERIC(9,6) NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	is_active           BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS payroll_records (
	id                TEXT PRIMARY KEY,
	period            TEXT NOT NULL UNIQUE,
	status            TEXT NOT NULL DEFAULT 'draft',
	is_locked         BOOLEAN NOT NULL DEFAULT FALSE,
	submitted_at      TIMESTAMPTZ,
	submitted_by      TEXT NOT NULL DEFAULT '',
	paid_at           TIMESTAMPTZ,
	total_agents      INTEGER NOT NULL DEFAULT 0,
	total_carriers    INTEGER NOT NULL DEFAULT 0,
	total_premium     NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_agent_pay   NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_chargebacks NUMERIC(14,2) NOT NULL DEFAULT 0,
	snapshot          JSONB,
	notes             TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payroll_agent_lines (
	id                     TEXT PRIMARY KEY,
	payroll_id             TEXT NOT NULL REFERENCES payroll_records(id) ON DELETE CASCADE,
	agent_id               TEXT NOT NULL,
	agent_name             TEXT NOT NULL DEFAULT '',
	agent_role             TEXT NOT NULL DEFAULT '',
	tier_level             INTEGER NOT NULL DEFAULT 0,
	commission_rate        NUMERIC(9,6) NOT NULL DEFAULT 0,
	total_premium          NUMERIC(14,2) NOT NULL DEFAULT 0,
	new_business_premium   NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_agent_commission NUMERIC(14,2) NOT NULL DEFAULT 0,
	chargebacks            NUMERIC(14,2) NOT NULL DEFAULT 0,
	chargeback_premium     NUMERIC(14,2) NOT NULL DEFAULT 0,
	chargeback_count       INTEGER NOT NULL DEFAULT 0,
	line_count             INTEGER NOT NULL DEFAULT 0,
	rate_adjustment        NUMERIC(9,6) NOT NULL DEFAULT 0,
	bonus                  NUMERIC(14,2) NOT NULL DEFAULT 0,
	grand_total            NUMERIC(14,2) NOT NULL DEFAULT 0,
	carrier_breakdown      JSONB,
	commission_status      TEXT NOT NULL DEFAULT 'pending',
	paid_at                TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_imports_period ON statement_imports(period);
CREATE INDEX IF NOT EXISTS idx_imports_carrier ON statement_imports(carrier);
CREATE INDEX IF NOT EXISTS idx_imports_status ON statement_imports(status);
CREATE INDEX IF NOT EXISTS idx_lines_import_id ON statement_lines(import_id);
CREATE INDEX IF NOT EXISTS idx_lines_policy ON statement_lines(policy_number);
CREATE INDEX IF NOT EXISTS idx_lines_matched ON statement_lines(is_matched);
CREATE INDEX IF NOT EXISTS idx_lines_agent ON statement_lines(assigned_agent_id);
CREATE INDEX IF NOT EXISTS idx_sales_policy ON sales(policy_number);
CREATE INDEX IF NOT EXISTS idx_sales_producer ON sales(producer_id);
CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales(sale_date);
CREATE INDEX IF NOT EXISTS idx_tiers_level ON commission_tiers(tier_level);
CREATE INDEX IF NOT EXISTS idx_payroll_period ON payroll_records(period);
CREATE INDEX IF NOT EXISTS idx_payroll_lines_payroll ON payroll_agent_lines(payroll_id);
`

const importColumns = `id, filename, file_format, file_size, carrier, period, status,
	total_rows, matched_rows, unmatched_rows, skipped_rows, total_premium, total_commission,
	error_message, processing_started_at, processing_completed_at, created_at`

const lineColumns = `id, import_id, policy_number, insured_name, transaction_type,
	transaction_type_raw, transaction_date, effective_date, premium_amount, commission_rate,
	commission_amount, producer_name, product_type, line_of_business, state, term_months,
	raw_data, is_matched, matched_sale_id, match_confidence, matched_at, assigned_agent_id,
	agent_commission_rate, agent_commission_amount, created_at`

const saleColumns = `id, policy_number, policy_type, producer_id, written_premium,
	recognized_premium, sale_date, effective_date, commission_status, commission_paid_period,
	commission_paid_date`

// lineInsertColumns matches lineColumns minus created_at, which defaults.
var lineInsertColumns = []string{
	"id", "import_id", "policy_number", "insured_name", "transaction_type",
	"transaction_type_raw", "transaction_date", "effective_date", "premium_amount",
	"commission_rate", "commission_amount", "producer_name", "product_type",
	"line_of_business", "state", "term_months", "raw_data", "is_matched",
	"matched_sale_id", "match_confidence", "matched_at", "assigned_agent_id",
	"agent_commission_rate", "agent_commission_amount",
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ── statement imports ────────────────────────────────────────────────

func (s *PostgresStore) CreateImport(ctx context.Context, imp *model.StatementImport) error {
	stampImport(imp)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO statement_imports (`+importColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		importArgs(imp)...,
	)
	return eris.Wrapf(err, "postgres: insert import %s", imp.ID)
}

func (s *PostgresStore) CreateImportWithLines(ctx context.Context, imp *model.StatementImport, lines []model.StatementLine) error {
	stampImport(imp)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin import tx")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO statement_imports (`+importColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		importArgs(imp)...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert import %s", imp.ID)
	}

	rows := make([][]any, len(lines))
	for i := range lines {
		stampLine(&lines[i], imp.ID)
		l := &lines[i]
		rows[i] = []any{
			l.ID, l.ImportID, l.PolicyNumber, l.InsuredName, string(l.TransactionType),
			l.TransactionTypeRaw, l.TransactionDate, l.EffectiveDate, l.PremiumAmount,
			l.CommissionRate, l.CommissionAmount, l.ProducerName, l.ProductType,
			l.LineOfBusiness, l.State, l.TermMonths, l.RawData, l.IsMatched,
			l.MatchedSaleID, string(l.MatchConfidence), l.MatchedAt, l.AssignedAgentID,
			l.AgentCommissionRate, l.AgentCommissionAmount,
		}
	}
	if _, err := db.CopyFromTx(ctx, tx, "statement_lines", lineInsertColumns, rows); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit import tx")
}

func (s *PostgresStore) UpdateImport(ctx context.Context, imp *model.StatementImport) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE statement_imports SET status = $1, total_rows = $2, matched_rows = $3,
		 unmatched_rows = $4, skipped_rows = $5, total_premium = $6, total_commission = $7,
		 error_message = $8, processing_started_at = $9, processing_completed_at = $10
		 WHERE id = $11`,
		string(imp.Status), imp.TotalRows, imp.MatchedRows, imp.UnmatchedRows,
		imp.SkippedRows, imp.TotalPremium, imp.TotalCommission, imp.ErrorMessage,
		imp.ProcessingStartedAt, imp.ProcessingCompletedAt, imp.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update import %s", imp.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetImport(ctx context.Context, id string) (*model.StatementImport, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+importColumns+` FROM statement_imports WHERE id = $1`, id)
	imp, err := scanImport(row)
	if err != nil {
		return nil, eris.Wrapf(notFound(err), "postgres: get import %s", id)
	}
	return imp, nil
}

func (s *PostgresStore) ListImports(ctx context.Context, filter ImportFilter) ([]model.StatementImport, error) {
	query := `SELECT ` + importColumns + ` FROM statement_imports WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Carrier != "" {
		query += fmt.Sprintf(` AND carrier = $%d`, argIdx)
		args = append(args, filter.Carrier)
		argIdx++
	}
	if filter.Period != "" {
		query += fmt.Sprintf(` AND period = $%d`, argIdx)
		args = append(args, string(filter.Period))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list imports")
	}
	defer rows.Close()

	var imports []model.StatementImport
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan import")
		}
		imports = append(imports, *imp)
	}
	return imports, eris.Wrap(rows.Err(), "postgres: list imports iterate")
}

func (s *PostgresStore) DeleteImport(ctx context.Context, id string) error {
	// statement_lines cascade.
	tag, err := s.pool.Exec(ctx, `DELETE FROM statement_imports WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete import %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ── statement lines ──────────────────────────────────────────────────

func (s *PostgresStore) ListLines(ctx context.Context, filter LineFilter) ([]model.StatementLine, error) {
	query := `SELECT ` + lineColumns + ` FROM statement_lines WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ImportID != "" {
		query += fmt.Sprintf(` AND import_id = $%d`, argIdx)
		args = append(args, filter.ImportID)
		argIdx++
	}
	if filter.AgentID != "" {
		query += fmt.Sprintf(` AND assigned_agent_id = $%d`, argIdx)
		args = append(args, filter.AgentID)
		argIdx++
	}
	if filter.Matched != nil {
		query += fmt.Sprintf(` AND is_matched = $%d`, argIdx)
		args = append(args, *filter.Matched)
		argIdx++
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lines")
	}
	defer rows.Close()

	var lines []model.StatementLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan line")
		}
		lines = append(lines, *line)
	}
	return lines, eris.Wrap(rows.Err(), "postgres: list lines iterate")
}

func (s *PostgresStore) GetLine(ctx context.Context, id string) (*model.StatementLine, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+lineColumns+` FROM statement_lines WHERE id = $1`, id)
	line, err := scanLine(row)
	if err != nil {
		return nil, eris.Wrapf(notFound(err), "postgres: get line %s", id)
	}
	return line, nil
}

func (s *PostgresStore) UpdateLineMatch(ctx context.Context, line *model.StatementLine) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE statement_lines SET is_matched = $1, matched_sale_id = $2,
		 match_confidence = $3, matched_at = $4, assigned_agent_id = $5
		 WHERE id = $6`,
		line.IsMatched, line.MatchedSaleID, string(line.MatchConfidence),
		line.MatchedAt, line.AssignedAgentID, line.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update line match %s", line.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateLineCommission(ctx context.Context, line *model.StatementLine) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE statement_lines SET agent_commission_rate = $1, agent_commission_amount = $2
		 WHERE id = $3`,
		line.AgentCommissionRate, line.AgentCommissionAmount, line.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update line commission %s", line.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ── sales and agents ─────────────────────────────────────────────────

func (s *PostgresStore) CreateSale(ctx context.Context, sale *model.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sales (`+saleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sale.ID, sale.PolicyNumber, sale.PolicyType, sale.ProducerID, sale.WrittenPremium,
		sale.RecognizedPremium, sale.SaleDate, sale.EffectiveDate, sale.CommissionStatus,
		string(sale.CommissionPaidPeriod), sale.CommissionPaidDate,
	)
	return eris.Wrapf(err, "postgres: insert sale %s", sale.ID)
}

func (s *PostgresStore) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if err != nil {
		return nil, eris.Wrapf(notFound(err), "postgres: get sale %s", id)
	}
	return sale, nil
}

func (s *PostgresStore) GetSaleByPolicy(ctx context.Context, policyNumber string) (*model.Sale, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE policy_number = $1 ORDER BY sale_date DESC LIMIT 1`,
		policyNumber,
	)
	sale, err := scanSale(row)
	if err != nil {
		return nil, eris.Wrapf(notFound(err), "postgres: get sale by policy %s", policyNumber)
	}
	return sale, nil
}

func (s *PostgresStore) FindSaleByPolicyFragment(ctx context.Context, fragment string) (*model.Sale, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE policy_number LIKE '%' || $1 || '%'
		 ORDER BY sale_date DESC LIMIT 1`,
		fragment,
	)
	sale, err := scanSale(row)
	if err != nil {
		return nil, eris.Wrapf(notFound(err), "postgres: find sale by fragment %s", fragment)
	}
	return sale, nil
}

func (s *PostgresStore) SetSalesCommissionStatus(ctx context.Context, saleIDs []string, status string, period model.Period, paidAt *time.Time) error {
	if len(saleIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE sales SET commission_status = $1, commission_paid_period = $2,
		 commission_paid_date = $3 WHERE id = ANY($4)`,
		status, string(period), paidAt, saleIDs,
	)
	return eris.Wrap(err, "postgres: set sales commission status")
}

func (s *PostgresStore) CreateAgent(ctx context.Context, agent *model.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agents (id, name, email, role, is_active) VALUES ($1, $2, $3, $4, $5)`,
		agent.ID, agent.Name, agent.Email, agent.Role, agent.IsActive,
	)
	return eris.Wrapf(err, "postgres: insert agent %s", agent.ID)
}

func (s *PostgresStore) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	var a model.Agent
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, role, is_active FROM agents WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.IsActive)
	if err != nil {
		return nil, eris.Wrapf(notFound(err), "postgres: get agent %s", id)
	}
	return &a, nil
}

func (s *PostgresStore) AgentWrittenPremium(ctx context.Context, agentID string, period model.Period) (decimal.Decimal, error) {
	start := period.FirstDay()
	end := start.AddDate(0, 1, 0)

	var total decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(written_premium), 0) FROM sales
		 WHERE producer_id = $1 AND sale_date >= $2 AND sale_date < $3`,
		agentID, start, end,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "postgres: agent written premium %s", agentID)
	}
	return total, nil
}

// ── commission tiers ─────────────────────────────────────────────────

func (s *PostgresStore) ListTiers(ctx context.Context, activeOnly bool) ([]model.CommissionTier, error) {
	query := `SELECT id, tier_level, min_written_premium, max_written_premium,
		commission_rate, description, is_active FROM commission_tiers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY tier_level`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tiers")
	}
	defer rows.Close()

	var tiers []model.CommissionTier
	for rows.Next() {
		var t model.CommissionTier
		if err := rows.Scan(&t.ID, &t.TierLevel, &t.MinWrittenPremium, &t.MaxWrittenPremium,
			&t.CommissionRate, &t.Description, &t.IsActive); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tier")
		}
		tiers = append(tiers, t)
	}
	return tiers, eris.Wrap(rows.Err(), "postgres: list tiers iterate")
}

func (s *PostgresStore) CreateTier(ctx context.Context, tier *model.CommissionTier) error {
	if tier.ID == "" {
		tier.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO commission_tiers (id, tier_level, min_written_premium, max_written_premium,
		 commission_rate, description, is_active) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tier.ID, tier.TierLevel, tier.MinWrittenPremium, tier.MaxWrittenPremium,
		tier.CommissionRate, tier.Description, tier.IsActive,
	)
	return eris.Wrapf(err, "postgres: insert tier %d", tier.TierLevel)
}

// ── payroll ──────────────────────────────────────────────────────────

const payrollColumns = `id, period, status, is_locked, submitted_at, submitted_by, paid_at,
	total_agents, total_carriers, total_premium, total_agent_pay, total_chargebacks,
	snapshot, notes, created_at`

const payrollLineColumns = `id, payroll_id, agent_id, agent_name, agent_role, tier_level,
	commission_rate, total_premium, new_business_premium, total_agent_commission, chargebacks,
	chargeback_premium, chargeback_count, line_count, rate_adjustment, bonus, grand_total,
	carrier_breakdown, commission_status, paid_at`

func (s *PostgresStore) GetPayroll(ctx context.Context, period model.Period) (*model.PayrollRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+payrollColumns+` FROM payroll_records WHERE period = $1`, string(period))
	rec, err := scanPayroll(row)
	if err != nil {
		return nil, eris.Wrapf(notFound(err), "postgres: get payroll %s", period)
	}
	return rec, nil
}

// SavePayroll replaces any existing payroll for the record's period.
// Submission always regenerates the full snapshot.
func (s *PostgresStore) SavePayroll(ctx context.Context, rec *model.PayrollRecord, lines []model.PayrollAgentLine) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin payroll tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM payroll_records WHERE period = $1`, string(rec.Period)); err != nil {
		return eris.Wrapf(err, "postgres: delete prior payroll %s", rec.Period)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO payroll_records (`+payrollColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		rec.ID, string(rec.Period), rec.Status, rec.IsLocked, rec.SubmittedAt, rec.SubmittedBy,
		rec.PaidAt, rec.TotalAgents, rec.TotalCarriers, rec.TotalPremium, rec.TotalAgentPay,
		rec.TotalChargebacks, rec.Snapshot, rec.Notes, rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert payroll %s", rec.Period)
	}

	for i := range lines {
		l := &lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.PayrollID = rec.ID
		breakdown, err := json.Marshal(l.CarrierBreakdown)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal carrier breakdown")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO payroll_agent_lines (`+payrollLineColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
			l.ID, l.PayrollID, l.AgentID, l.AgentName, l.AgentRole, l.TierLevel,
			l.CommissionRate, l.TotalPremium, l.NewBusinessPremium, l.TotalAgentCommission,
			l.Chargebacks, l.ChargebackPremium, l.ChargebackCount, l.LineCount,
			l.RateAdjustment, l.Bonus, l.GrandTotal, breakdown, l.CommissionStatus, l.PaidAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert payroll line %s", l.AgentID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit payroll tx")
}

func (s *PostgresStore) UpdatePayroll(ctx context.Context, rec *model.PayrollRecord) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE payroll_records SET status = $1, is_locked = $2, submitted_at = $3,
		 submitted_by = $4, paid_at = $5, notes = $6 WHERE id = $7`,
		rec.Status, rec.IsLocked, rec.SubmittedAt, rec.SubmittedBy, rec.PaidAt, rec.Notes, rec.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update payroll %s", rec.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkPayrollPaid(ctx context.Context, payrollID string, paidAt time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin mark paid tx")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE payroll_records SET status = $1, paid_at = $2 WHERE id = $3`,
		model.PayrollPaid, paidAt, payrollID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark payroll paid %s", payrollID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE payroll_agent_lines SET commission_status = $1, paid_at = $2 WHERE payroll_id = $3`,
		model.CommissionPaid, paidAt, payrollID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark payroll lines paid %s", payrollID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit mark paid tx")
}

func (s *PostgresStore) ListPayrolls(ctx context.Context, limit int) ([]model.PayrollRecord, error) {
	if limit <= 0 {
		limit = 24
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+payrollColumns+` FROM payroll_records ORDER BY period DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list payrolls")
	}
	defer rows.Close()

	var recs []model.PayrollRecord
	for rows.Next() {
		rec, err := scanPayroll(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan payroll")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list payrolls iterate")
}

func (s *PostgresStore) PayrollLines(ctx context.Context, payrollID string) ([]model.PayrollAgentLine, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+payrollLineColumns+` FROM payroll_agent_lines
		 WHERE payroll_id = $1 ORDER BY grand_total DESC`, payrollID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: payroll lines %s", payrollID)
	}
	defer rows.Close()

	var lines []model.PayrollAgentLine
	for rows.Next() {
		var l model.PayrollAgentLine
		var breakdown []byte
		if err := rows.Scan(&l.ID, &l.PayrollID, &l.AgentID, &l.AgentName, &l.AgentRole,
			&l.TierLevel, &l.CommissionRate, &l.TotalPremium, &l.NewBusinessPremium,
			&l.TotalAgentCommission, &l.Chargebacks, &l.ChargebackPremium, &l.ChargebackCount,
			&l.LineCount, &l.RateAdjustment, &l.Bonus, &l.GrandTotal, &breakdown,
			&l.CommissionStatus, &l.PaidAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan payroll line")
		}
		if len(breakdown) > 0 {
			if err := json.Unmarshal(breakdown, &l.CarrierBreakdown); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal carrier breakdown")
			}
		}
		lines = append(lines, l)
	}
	return lines, eris.Wrap(rows.Err(), "postgres: payroll lines iterate")
}

// ── scan helpers ─────────────────────────────────────────────────────

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func stampImport(imp *model.StatementImport) {
	if imp.ID == "" {
		imp.ID = uuid.New().String()
	}
	if imp.CreatedAt.IsZero() {
		imp.CreatedAt = time.Now().UTC()
	}
}

func stampLine(l *model.StatementLine, importID string) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.ImportID = importID
}

func importArgs(imp *model.StatementImport) []any {
	return []any{
		imp.ID, imp.Filename, string(imp.FileFormat), imp.FileSize, imp.Carrier,
		string(imp.Period), string(imp.Status), imp.TotalRows, imp.MatchedRows,
		imp.UnmatchedRows, imp.SkippedRows, imp.TotalPremium, imp.TotalCommission,
		imp.ErrorMessage, imp.ProcessingStartedAt, imp.ProcessingCompletedAt, imp.CreatedAt,
	}
}

func scanImport(row rowScanner) (*model.StatementImport, error) {
	var imp model.StatementImport
	err := row.Scan(&imp.ID, &imp.Filename, &imp.FileFormat, &imp.FileSize, &imp.Carrier,
		&imp.Period, &imp.Status, &imp.TotalRows, &imp.MatchedRows, &imp.UnmatchedRows,
		&imp.SkippedRows, &imp.TotalPremium, &imp.TotalCommission, &imp.ErrorMessage,
		&imp.ProcessingStartedAt, &imp.ProcessingCompletedAt, &imp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &imp, nil
}

func scanLine(row rowScanner) (*model.StatementLine, error) {
	var l model.StatementLine
	err := row.Scan(&l.ID, &l.ImportID, &l.PolicyNumber, &l.InsuredName, &l.TransactionType,
		&l.TransactionTypeRaw, &l.TransactionDate, &l.EffectiveDate, &l.PremiumAmount,
		&l.CommissionRate, &l.CommissionAmount, &l.ProducerName, &l.ProductType,
		&l.LineOfBusiness, &l.State, &l.TermMonths, &l.RawData, &l.IsMatched,
		&l.MatchedSaleID, &l.MatchConfidence, &l.MatchedAt, &l.AssignedAgentID,
		&l.AgentCommissionRate, &l.AgentCommissionAmount, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanSale(row rowScanner) (*model.Sale, error) {
	var s model.Sale
	err := row.Scan(&s.ID, &s.PolicyNumber, &s.PolicyType, &s.ProducerID, &s.WrittenPremium,
		&s.RecognizedPremium, &s.SaleDate, &s.EffectiveDate, &s.CommissionStatus,
		&s.CommissionPaidPeriod, &s.CommissionPaidDate)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanPayroll(row rowScanner) (*model.PayrollRecord, error) {
	var rec model.PayrollRecord
	err := row.Scan(&rec.ID, &rec.Period, &rec.Status, &rec.IsLocked, &rec.SubmittedAt,
		&rec.SubmittedBy, &rec.PaidAt, &rec.TotalAgents, &rec.TotalCarriers, &rec.TotalPremium,
		&rec.TotalAgentPay, &rec.TotalChargebacks, &rec.Snapshot, &rec.Notes, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.PeriodDisplay = rec.Period.Display()
	return &rec, nil
}
