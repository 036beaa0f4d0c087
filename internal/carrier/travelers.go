package carrier

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
)

// travelers parses Travelers PI commission workbooks. The layout is rough:
// the first data row repeats sub-headers ("DATE", "CDE"), POL-EFF-DT packs
// the effective date and transaction code into one cell ("013026-NEW-BUS"),
// COMM stores the rate in basis points (1500 means 15.00%), and policy
// numbers carry space-separated suffixes.
type travelers struct{}

func (travelers) Name() string        { return "travelers" }
func (travelers) DisplayName() string { return "Travelers" }
func (travelers) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatXLSX, model.FormatXLS}
}

// travelersTransLabel maps a POL-EFF-DT code onto a classifiable label.
func travelersTransLabel(code string) string {
	c := strings.ToUpper(code)
	switch {
	case c == "":
		return ""
	case strings.Contains(c, "NEW-BUS"), strings.Contains(c, "NEW BUS"):
		return "NEW BUSINESS"
	case strings.Contains(c, "CONT"):
		return "RENEWAL"
	case strings.Contains(c, "CANC"):
		return "CANCELLATION"
	case strings.Contains(c, "CHANGE"):
		return "ENDORSEMENT"
	case strings.Contains(c, "REIN"):
		return "REINSTATEMENT"
	case strings.Contains(c, "UNHON"), strings.Contains(c, "CHECK"):
		return "ADJUSTMENT"
	case strings.Contains(c, "WAIVE"):
		return "ENDORSEMENT"
	default:
		return "OTHER"
	}
}

// travelersCodeDate extracts the MMDDYY prefix of a transaction code.
func travelersCodeDate(code string) *time.Time {
	if len(code) < 6 {
		return nil
	}
	t, err := time.Parse("010206", code[:6])
	if err != nil {
		return nil
	}
	return &t
}

// travelersRate handles the basis-point encoding: 1500 → 0.15, 15 → 0.15,
// 0.15 → 0.15.
func travelersRate(s string) *decimal.Decimal {
	d := ParseCurrency(s)
	if d == nil {
		return nil
	}
	switch {
	case d.GreaterThan(decimal.NewFromInt(100)):
		v := d.Div(decimal.NewFromInt(10000))
		return &v
	case d.GreaterThan(decimal.NewFromInt(1)):
		v := d.Div(decimal.NewFromInt(100))
		return &v
	default:
		return d
	}
}

func (travelers) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	rows, err := tabularRows(file, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrStructure
	}
	colIdx := mapColumnsNormalized(rows[0])
	if _, ok := colIdx[normalizeCol("NAME OF INSURED")]; !ok {
		return nil, ErrStructure
	}

	res := &ParseResult{}
	term := 12
	for i, row := range rows[1:] {
		// The sub-header row repeats column labels under the real header.
		if i == 0 && getColN(row, colIdx, "STATEMENT") == "DATE" {
			continue
		}
		insured := getColN(row, colIdx, "NAME OF INSURED")
		if insured == "" {
			continue
		}
		policyRaw := getColN(row, colIdx, "POLICY NUMBER")
		if policyRaw == "" {
			continue
		}
		policy := strings.Fields(policyRaw)[0]

		code := getColN(row, colIdx, "POL-EFF-DT")
		stmtDate := ParseDate(getColN(row, colIdx, "STATEMENT"))
		effDate := travelersCodeDate(code)
		if effDate == nil {
			effDate = stmtDate
		}

		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        insured,
			TransactionType:    ClassifyTransaction(travelersTransLabel(code)),
			TransactionTypeRaw: code,
			TransactionDate:    stmtDate,
			EffectiveDate:      effDate,
			PremiumAmount:      ParseCurrency(getColN(row, colIdx, "PAYMENT")),
			CommissionRate:     travelersRate(getColN(row, colIdx, "COMM")),
			CommissionAmount:   ParseCurrency(getColN(row, colIdx, "PAID")),
			ProducerName:       getColN(row, colIdx, "SUB"),
			TermMonths:         &term,
			RawData:            rawRow(row),
		})
	}
	return res, nil
}
