package carrier

import (
	"context"
	"strings"

	"github.com/sells-group/commission-cli/internal/model"
)

// universal parses Universal Property & Casualty CSV statements. There is
// no effective date column; policies are annual, so it is inferred as one
// year before the expiration date.
type universal struct{}

func (universal) Name() string        { return "universal" }
func (universal) DisplayName() string { return "Universal Property & Casualty" }
func (universal) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatCSV}
}

func (universal) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	rows, err := readCSV(file)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrStructure
	}
	colIdx := mapColumnsNormalized(rows[0])
	if _, ok := colIdx[normalizeCol("PolicyNumber")]; !ok {
		return nil, ErrStructure
	}

	res := &ParseResult{}
	term := 12
	for _, row := range rows[1:] {
		policy := getColN(row, colIdx, "PolicyNumber")
		if policy == "" {
			continue
		}

		rawType := getColN(row, colIdx, "TransactionType")
		effDate := ParseDate(getColN(row, colIdx, "ExpirationDate"))
		if effDate != nil {
			d := effDate.AddDate(-1, 0, 0)
			effDate = &d
		}

		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        getColN(row, colIdx, "InsuredName"),
			TransactionType:    ClassifyTransaction(universalTransLabel(rawType)),
			TransactionTypeRaw: rawType,
			EffectiveDate:      effDate,
			PremiumAmount:      ParseCurrency(getColN(row, colIdx, "Written")),
			CommissionRate:     ParseRate(getColN(row, colIdx, "Rate")),
			CommissionAmount:   ParseCurrency(getColN(row, colIdx, "Commission")),
			LineOfBusiness:     "Property",
			TermMonths:         &term,
			RawData:            rawRow(row),
		})
	}
	return res, nil
}

// universalTransLabel normalizes labels like "Renewal Policy" and
// "Policy Endorsement" where the keyword is not at the front.
func universalTransLabel(raw string) string {
	l := strings.ToLower(raw)
	switch {
	case strings.Contains(l, "renewal"):
		return "RENEWAL"
	case strings.Contains(l, "new"):
		return "NEW BUSINESS"
	case strings.Contains(l, "endorsement"):
		return "ENDORSEMENT"
	case strings.Contains(l, "cancel"):
		return "CANCELLATION"
	default:
		return raw
	}
}
