package carrier

import (
	"context"
	"strings"

	"github.com/sells-group/commission-cli/internal/model"
)

// geico parses Geico commission workbooks. The detail lives on the second
// sheet, headerless, split into "First Year Commission" and "Renewal Year
// Commission" sections with data at fixed sparse column positions. Totals
// rows are recognized by the agent ID column not starting with "I".
type geico struct{}

func (geico) Name() string        { return "geico" }
func (geico) DisplayName() string { return "Geico" }
func (geico) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatXLSX}
}

const (
	geicoColAgentID    = 1
	geicoColAgentName  = 3
	geicoColPolicy     = 5
	geicoColInsured    = 8
	geicoColEffDate    = 11
	geicoColTransDate  = 13
	geicoColPremium    = 14
	geicoColRate       = 15
	geicoColCommission = 18
)

func (geico) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	sheets, err := readWorkbook(file, model.FormatForFilename(filename))
	if err != nil {
		return nil, err
	}
	if len(sheets) < 2 {
		return nil, ErrStructure
	}
	rows := sheets[1].Rows

	res := &ParseResult{}
	term := 6
	section := model.TransactionType("")
	for i, row := range rows {
		text := strings.Join(row, " ")
		switch {
		case strings.Contains(text, "First Year Commission"):
			section = model.TxNewBusiness
			continue
		case strings.Contains(text, "Renewal Year Commission"):
			section = model.TxRenewal
			continue
		}
		if section == "" {
			continue
		}
		if strings.Contains(text, "Writing Agent") ||
			strings.Contains(text, "CALCULATION") ||
			strings.Contains(text, "Agent Wise") {
			continue
		}

		agentID := cellAt(row, geicoColAgentID)
		policyRaw := cellAt(row, geicoColPolicy)
		if agentID == "" || policyRaw == "" {
			continue
		}
		if !strings.HasPrefix(agentID, "I") {
			res.skip(i+1, "totals row")
			continue
		}

		// "6192911649-426633894" pairs policy and account; keep the policy.
		policy, _, _ := strings.Cut(policyRaw, "-")

		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        cellAt(row, geicoColInsured),
			TransactionType:    section,
			TransactionTypeRaw: string(section),
			TransactionDate:    ParseDate(cellAt(row, geicoColTransDate)),
			EffectiveDate:      ParseDate(cellAt(row, geicoColEffDate)),
			PremiumAmount:      ParseCurrency(cellAt(row, geicoColPremium)),
			CommissionRate:     ParseRate(cellAt(row, geicoColRate)),
			CommissionAmount:   ParseCurrency(cellAt(row, geicoColCommission)),
			ProducerName:       cellAt(row, geicoColAgentName),
			ProductType:        "Private Passenger Auto",
			LineOfBusiness:     "Auto",
			TermMonths:         &term,
			RawData:            rawRow(row),
		})
	}
	return res, nil
}
