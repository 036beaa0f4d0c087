package recon

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
	"github.com/sells-group/commission-cli/internal/store"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	imports  map[string]*model.StatementImport
	lines    map[string]*model.StatementLine
	sales    map[string]*model.Sale
	agents   map[string]*model.Agent
	tiers    []model.CommissionTier
	payrolls map[string]*model.PayrollRecord // keyed by period
	payLines map[string][]model.PayrollAgentLine
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		imports:  map[string]*model.StatementImport{},
		lines:    map[string]*model.StatementLine{},
		sales:    map[string]*model.Sale{},
		agents:   map[string]*model.Agent{},
		payrolls: map[string]*model.PayrollRecord{},
		payLines: map[string][]model.PayrollAgentLine{},
	}
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) CreateImport(_ context.Context, imp *model.StatementImport) error {
	if imp.ID == "" {
		imp.ID = uuid.New().String()
	}
	cp := *imp
	f.imports[imp.ID] = &cp
	return nil
}

func (f *fakeStore) CreateImportWithLines(ctx context.Context, imp *model.StatementImport, lines []model.StatementLine) error {
	if err := f.CreateImport(ctx, imp); err != nil {
		return err
	}
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.New().String()
		}
		lines[i].ImportID = imp.ID
		cp := lines[i]
		f.lines[cp.ID] = &cp
	}
	return nil
}

func (f *fakeStore) UpdateImport(_ context.Context, imp *model.StatementImport) error {
	if _, ok := f.imports[imp.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *imp
	f.imports[imp.ID] = &cp
	return nil
}

func (f *fakeStore) GetImport(_ context.Context, id string) (*model.StatementImport, error) {
	imp, ok := f.imports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *imp
	return &cp, nil
}

func (f *fakeStore) ListImports(_ context.Context, filter store.ImportFilter) ([]model.StatementImport, error) {
	var out []model.StatementImport
	for _, imp := range f.imports {
		if filter.Carrier != "" && imp.Carrier != filter.Carrier {
			continue
		}
		if filter.Period != "" && imp.Period != filter.Period {
			continue
		}
		if filter.Status != "" && imp.Status != filter.Status {
			continue
		}
		out = append(out, *imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteImport(_ context.Context, id string) error {
	if _, ok := f.imports[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.imports, id)
	for lid, line := range f.lines {
		if line.ImportID == id {
			delete(f.lines, lid)
		}
	}
	return nil
}

func (f *fakeStore) ListLines(_ context.Context, filter store.LineFilter) ([]model.StatementLine, error) {
	var out []model.StatementLine
	for _, line := range f.lines {
		if filter.ImportID != "" && line.ImportID != filter.ImportID {
			continue
		}
		if filter.AgentID != "" && line.AssignedAgentID != filter.AgentID {
			continue
		}
		if filter.Matched != nil && line.IsMatched != *filter.Matched {
			continue
		}
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolicyNumber < out[j].PolicyNumber })
	return out, nil
}

func (f *fakeStore) GetLine(_ context.Context, id string) (*model.StatementLine, error) {
	line, ok := f.lines[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *line
	return &cp, nil
}

func (f *fakeStore) UpdateLineMatch(_ context.Context, line *model.StatementLine) error {
	existing, ok := f.lines[line.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.IsMatched = line.IsMatched
	existing.MatchedSaleID = line.MatchedSaleID
	existing.MatchConfidence = line.MatchConfidence
	existing.MatchedAt = line.MatchedAt
	existing.AssignedAgentID = line.AssignedAgentID
	return nil
}

func (f *fakeStore) UpdateLineCommission(_ context.Context, line *model.StatementLine) error {
	existing, ok := f.lines[line.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.AgentCommissionRate = line.AgentCommissionRate
	existing.AgentCommissionAmount = line.AgentCommissionAmount
	return nil
}

func (f *fakeStore) CreateSale(_ context.Context, sale *model.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	cp := *sale
	f.sales[sale.ID] = &cp
	return nil
}

func (f *fakeStore) GetSale(_ context.Context, id string) (*model.Sale, error) {
	sale, ok := f.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sale
	return &cp, nil
}

func (f *fakeStore) GetSaleByPolicy(_ context.Context, policyNumber string) (*model.Sale, error) {
	var best *model.Sale
	for _, sale := range f.sales {
		if sale.PolicyNumber != policyNumber {
			continue
		}
		if best == nil || sale.SaleDate.After(best.SaleDate) {
			best = sale
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeStore) FindSaleByPolicyFragment(_ context.Context, fragment string) (*model.Sale, error) {
	var best *model.Sale
	for _, sale := range f.sales {
		if !strings.Contains(sale.PolicyNumber, fragment) {
			continue
		}
		if best == nil || sale.SaleDate.After(best.SaleDate) {
			best = sale
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeStore) SetSalesCommissionStatus(_ context.Context, saleIDs []string, status string, period model.Period, paidAt *time.Time) error {
	for _, id := range saleIDs {
		if sale, ok := f.sales[id]; ok {
			sale.CommissionStatus = status
			sale.CommissionPaidPeriod = period
			sale.CommissionPaidDate = paidAt
		}
	}
	return nil
}

func (f *fakeStore) CreateAgent(_ context.Context, agent *model.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	cp := *agent
	f.agents[agent.ID] = &cp
	return nil
}

func (f *fakeStore) GetAgent(_ context.Context, id string) (*model.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *agent
	return &cp, nil
}

func (f *fakeStore) AgentWrittenPremium(_ context.Context, agentID string, period model.Period) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, sale := range f.sales {
		if sale.ProducerID != agentID || !period.Contains(sale.SaleDate) {
			continue
		}
		total = total.Add(sale.WrittenPremium)
	}
	return total, nil
}

func (f *fakeStore) ListTiers(_ context.Context, activeOnly bool) ([]model.CommissionTier, error) {
	var out []model.CommissionTier
	for _, t := range f.tiers {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) CreateTier(_ context.Context, tier *model.CommissionTier) error {
	if tier.ID == "" {
		tier.ID = uuid.New().String()
	}
	f.tiers = append(f.tiers, *tier)
	return nil
}

func (f *fakeStore) GetPayroll(_ context.Context, period model.Period) (*model.PayrollRecord, error) {
	rec, ok := f.payrolls[string(period)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) SavePayroll(_ context.Context, rec *model.PayrollRecord, lines []model.PayrollAgentLine) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if old, ok := f.payrolls[string(rec.Period)]; ok {
		delete(f.payLines, old.ID)
	}
	cp := *rec
	f.payrolls[string(rec.Period)] = &cp
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.New().String()
		}
		lines[i].PayrollID = rec.ID
	}
	f.payLines[rec.ID] = append([]model.PayrollAgentLine(nil), lines...)
	return nil
}

func (f *fakeStore) UpdatePayroll(_ context.Context, rec *model.PayrollRecord) error {
	existing, ok := f.payrolls[string(rec.Period)]
	if !ok || existing.ID != rec.ID {
		return store.ErrNotFound
	}
	cp := *rec
	f.payrolls[string(rec.Period)] = &cp
	return nil
}

func (f *fakeStore) MarkPayrollPaid(_ context.Context, payrollID string, paidAt time.Time) error {
	for _, rec := range f.payrolls {
		if rec.ID != payrollID {
			continue
		}
		rec.Status = model.PayrollPaid
		rec.PaidAt = &paidAt
		lines := f.payLines[payrollID]
		for i := range lines {
			lines[i].CommissionStatus = model.CommissionPaid
			lines[i].PaidAt = &paidAt
		}
		f.payLines[payrollID] = lines
		return nil
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListPayrolls(_ context.Context, limit int) ([]model.PayrollRecord, error) {
	var out []model.PayrollRecord
	for _, rec := range f.payrolls {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) PayrollLines(_ context.Context, payrollID string) ([]model.PayrollAgentLine, error) {
	return append([]model.PayrollAgentLine(nil), f.payLines[payrollID]...), nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }
