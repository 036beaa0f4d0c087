package carrier

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/commission-cli/internal/model"
)

// generic is the fallback adapter for carriers without a dedicated one.
// It guesses the column mapping from header keywords and refuses the file
// when it cannot find a policy number column.
type generic struct{}

func (generic) Name() string        { return "generic" }
func (generic) DisplayName() string { return "Generic" }
func (generic) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatCSV, model.FormatXLSX, model.FormatXLS}
}

type genericColumns struct {
	policy, insured, premium, commission, rate, transType, date int
}

func mapGenericColumns(header []string) (genericColumns, bool) {
	cols := genericColumns{-1, -1, -1, -1, -1, -1, -1}
	for i, c := range header {
		cl := strings.ToLower(strings.TrimSpace(c))
		switch {
		case strings.Contains(cl, "policy") &&
			(strings.Contains(cl, "num") || strings.Contains(cl, "#") || cl == "policy number"):
			cols.policy = i
		case strings.Contains(cl, "insured") || strings.Contains(cl, "policyholder") || strings.Contains(cl, "name"):
			if cols.insured < 0 {
				cols.insured = i
			}
		case strings.Contains(cl, "premium") && !strings.Contains(cl, "commission"):
			cols.premium = i
		case strings.Contains(cl, "commission") &&
			(strings.Contains(cl, "amt") || strings.Contains(cl, "amount")):
			cols.commission = i
		case strings.Contains(cl, "comm") && strings.Contains(cl, "rate"):
			cols.rate = i
		case strings.Contains(cl, "trans") &&
			(strings.Contains(cl, "type") || strings.Contains(cl, "desc")):
			cols.transType = i
		case strings.Contains(cl, "date"):
			if cols.date < 0 {
				cols.date = i
			}
		}
	}
	return cols, cols.policy >= 0
}

func (generic) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	rows, err := tabularRows(file, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrStructure
	}
	cols, ok := mapGenericColumns(rows[0])
	if !ok {
		return nil, eris.Wrapf(ErrStructure, "no policy number column in %v", rows[0])
	}

	res := &ParseResult{}
	for _, row := range rows[1:] {
		policy := cellAt(row, cols.policy)
		if policy == "" {
			continue
		}
		rawType := cellAt(row, cols.transType)
		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        cellAt(row, cols.insured),
			TransactionType:    ClassifyTransaction(rawType),
			TransactionTypeRaw: rawType,
			TransactionDate:    ParseDate(cellAt(row, cols.date)),
			PremiumAmount:      ParseCurrency(cellAt(row, cols.premium)),
			CommissionRate:     ParseRate(cellAt(row, cols.rate)),
			CommissionAmount:   ParseCurrency(cellAt(row, cols.commission)),
			RawData:            rawRow(row),
		})
	}
	return res, nil
}
