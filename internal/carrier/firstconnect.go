package carrier

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
)

// firstConnect parses First Connect aggregator workbooks. The statement has
// a banner block above the real header row (the row whose first cell is
// "Carriers"); each data row names the sub-carrier. The money columns shift
// between exports, so premium, rate, and commission are read from the tail
// of the row: commission last, rate before it, premium before that.
type firstConnect struct{}

func (firstConnect) Name() string        { return "first_connect" }
func (firstConnect) DisplayName() string { return "First Connect" }
func (firstConnect) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatXLSX}
}

func (firstConnect) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	sheets, err := readWorkbook(file, model.FormatForFilename(filename))
	if err != nil {
		return nil, err
	}
	var rows [][]string
	if sh := sheetByName(sheets, "Commissions Report"); sh != nil {
		rows = sh.Rows
	} else if len(sheets) > 0 {
		rows = sheets[0].Rows
	}

	headerIdx := -1
	for i, row := range rows {
		if cellAt(row, 0) == "Carriers" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrStructure
	}

	res := &ParseResult{}
	term := 12
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		subCarrier := cellAt(row, 0)
		if subCarrier == "" || strings.EqualFold(subCarrier, "total") {
			continue
		}
		policy := cellAt(row, 4)
		if policy == "" {
			continue
		}

		nonEmpty := 0
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				nonEmpty++
			}
		}
		if nonEmpty < 8 {
			res.skip(i+1, "incomplete row")
			continue
		}

		// Money columns counted back from the end of the row.
		var tail []string
		for j := 8; j < len(row); j++ {
			if strings.TrimSpace(row[j]) != "" {
				tail = append(tail, strings.TrimSpace(row[j]))
			}
		}
		var premium, rate, commission *decimal.Decimal
		if len(tail) >= 1 {
			commission = ParseCurrency(tail[len(tail)-1])
		}
		if len(tail) >= 2 {
			rate = ParseRate(tail[len(tail)-2])
		}
		if len(tail) >= 3 {
			premium = ParseCurrency(tail[len(tail)-3])
		}

		rawType := cellAt(row, 7)
		agent := cellAt(row, 2)
		if strings.Contains(agent, "@") {
			agent = ""
		}
		lob := cellAt(row, 6)

		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        cellAt(row, 3),
			TransactionType:    ClassifyTransaction(rawType),
			TransactionTypeRaw: rawType,
			EffectiveDate:      ParseDate(cellAt(row, 5)),
			PremiumAmount:      premium,
			CommissionRate:     rate,
			CommissionAmount:   commission,
			ProducerName:       agent,
			ProductType:        lob,
			LineOfBusiness:     lob,
			TermMonths:         &term,
			RawData:            rawRow(row),
		})
	}
	return res, nil
}
