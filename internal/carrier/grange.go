package carrier

import (
	"context"
	"strings"

	"github.com/sells-group/commission-cli/internal/model"
)

// grange parses Grange CSV statements. Policy cells carry a short product
// prefix ("DF  5148587") and placeholder rows use policy "0000000".
type grange struct{}

func (grange) Name() string        { return "grange" }
func (grange) DisplayName() string { return "Grange" }
func (grange) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatCSV}
}

func (grange) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	rows, err := readCSV(file)
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
	for i, row := range rows[1:] {
		policyRaw := getColN(row, colIdx, "Policy Number")
		if policyRaw == "" {
			continue
		}
		if policyRaw == "0000000" {
			res.skip(i+2, "placeholder policy number")
			continue
		}

		policy := policyRaw
		product := ""
		if parts := strings.Fields(policyRaw); len(parts) >= 2 && len(parts[0]) <= 3 {
			policy = parts[len(parts)-1]
			product = parts[0]
		}

		rawType := getColN(row, colIdx, "Transaction Description")
		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        getColN(row, colIdx, "Policyholder Name or Description"),
			TransactionType:    ClassifyTransaction(rawType),
			TransactionTypeRaw: rawType,
			TransactionDate:    ParseDate(getColN(row, colIdx, "Date Entered")),
			EffectiveDate:      ParseDate(getColN(row, colIdx, "Date")),
			PremiumAmount:      ParseCurrency(getColN(row, colIdx, "Premium Amount")),
			CommissionRate:     ParseRate(getColN(row, colIdx, "Comm %")),
			CommissionAmount:   ParseCurrency(getColN(row, colIdx, "Commission Amount")),
			ProducerName:       getColN(row, colIdx, "Producer Name"),
			ProductType:        product,
			State:              stateCode(getColN(row, colIdx, "Risk State")),
			RawData:            rawRow(row),
		})
	}
	return res, nil
}
