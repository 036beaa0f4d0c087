package carrier

import (
	"context"
	"strings"

	"github.com/sells-group/commission-cli/internal/model"
)

// safeco parses Safeco (Liberty Mutual) statements. Portal exports vary
// their column names between runs, so headers are matched by fragment.
type safeco struct{}

func (safeco) Name() string        { return "safeco" }
func (safeco) DisplayName() string { return "Safeco" }
func (safeco) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatCSV, model.FormatXLSX}
}

type safecoColumns struct {
	policy, insured, transType, transDate, effDate       int
	premium, commRate, commAmount, state, producer       int
	lob, term, product                                   int
}

func mapSafecoColumns(header []string) (safecoColumns, bool) {
	cols := safecoColumns{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
	for i, c := range header {
		cl := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c)), " ", "_")
		switch {
		case strings.Contains(cl, "policy") &&
			(strings.Contains(cl, "num") || strings.Contains(cl, "no") || cl == "policy"):
			cols.policy = i
		case strings.Contains(cl, "insured") || strings.Contains(cl, "name"):
			if cols.insured < 0 {
				cols.insured = i
			}
		case strings.Contains(cl, "trans") && strings.Contains(cl, "type"),
			strings.Contains(cl, "activity") && strings.Contains(cl, "type"):
			cols.transType = i
		case strings.Contains(cl, "trans") && strings.Contains(cl, "date"):
			cols.transDate = i
		case strings.Contains(cl, "eff") && strings.Contains(cl, "date"):
			cols.effDate = i
		case strings.Contains(cl, "premium") &&
			(strings.Contains(cl, "written") || strings.Contains(cl, "net") || cl == "premium"):
			cols.premium = i
		case strings.Contains(cl, "comm") &&
			(strings.Contains(cl, "rate") || strings.Contains(cl, "pct") || strings.Contains(cl, "percent")):
			cols.commRate = i
		case strings.Contains(cl, "comm") &&
			(strings.Contains(cl, "amt") || strings.Contains(cl, "amount") || cl == "commission"):
			cols.commAmount = i
		case strings.Contains(cl, "state") && !strings.Contains(cl, "code"):
			cols.state = i
		case strings.Contains(cl, "producer") || strings.Contains(cl, "agent") || strings.Contains(cl, "writer"):
			cols.producer = i
		case strings.Contains(cl, "line") && strings.Contains(cl, "bus"):
			cols.lob = i
		case strings.Contains(cl, "term"):
			cols.term = i
		case strings.Contains(cl, "product"):
			cols.product = i
		}
	}
	return cols, cols.policy >= 0
}

func (safeco) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	rows, err := tabularRows(file, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrStructure
	}
	cols, ok := mapSafecoColumns(rows[0])
	if !ok {
		return nil, ErrStructure
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
			TransactionDate:    ParseDate(cellAt(row, cols.transDate)),
			EffectiveDate:      ParseDate(cellAt(row, cols.effDate)),
			PremiumAmount:      ParseCurrency(cellAt(row, cols.premium)),
			CommissionRate:     ParseRate(cellAt(row, cols.commRate)),
			CommissionAmount:   ParseCurrency(cellAt(row, cols.commAmount)),
			ProducerName:       cellAt(row, cols.producer),
			ProductType:        cellAt(row, cols.product),
			LineOfBusiness:     cellAt(row, cols.lob),
			State:              stateCode(cellAt(row, cols.state)),
			TermMonths:         ParseTermMonths(cellAt(row, cols.term)),
			RawData:            rawRow(row),
		})
	}
	return res, nil
}
