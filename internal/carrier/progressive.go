package carrier

import (
	"context"

	"github.com/sells-group/commission-cli/internal/model"
)

// progressive parses Progressive statements, delivered as CSV or a
// single-sheet workbook with a fixed header. Auto policies run six-month
// terms; everything else is annual.
type progressive struct{}

func (progressive) Name() string        { return "progressive" }
func (progressive) DisplayName() string { return "Progressive" }
func (progressive) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatCSV, model.FormatXLSX}
}

func (progressive) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	rows, err := tabularRows(file, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrStructure
	}
	colIdx := mapColumnsNormalized(rows[0])
	if _, ok := colIdx[normalizeCol("Policy Number")]; !ok {
		return nil, ErrStructure
	}

	res := &ParseResult{}
	for _, row := range rows[1:] {
		policy := getColN(row, colIdx, "Policy Number")
		if policy == "" {
			continue
		}

		rawType := getColN(row, colIdx, "Tran Code")
		prodLine := getColN(row, colIdx, "Prod")
		term := 12
		if prodLine == "Auto" {
			term = 6
		}
		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        getColN(row, colIdx, "Insured Name"),
			TransactionType:    ClassifyTransaction(rawType),
			TransactionTypeRaw: rawType,
			TransactionDate:    ParseDate(getColN(row, colIdx, "Tran Date")),
			EffectiveDate:      ParseDate(getColN(row, colIdx, "Policy Effective Date")),
			PremiumAmount:      ParseCurrency(getColN(row, colIdx, "Gross Premium")),
			CommissionRate:     ParseRate(getColN(row, colIdx, "Comm")),
			CommissionAmount:   ParseCurrency(getColN(row, colIdx, "Gross Comm")),
			ProducerName:       getColN(row, colIdx, "Prod Name"),
			ProductType:        prodLine,
			LineOfBusiness:     prodLine,
			TermMonths:         &term,
			RawData:            rawRow(row),
		})
	}
	return res, nil
}
