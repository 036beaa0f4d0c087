package carrier

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
)

// nationalGeneral parses National General workbook statements. The per-policy
// detail lives on the "Summary Details" sheet (older exports use
// "All Producers"); a separate "Adjustments" sheet carries quote-level
// incentives and chargebacks keyed by quote number instead of policy.
type nationalGeneral struct{}

func (nationalGeneral) Name() string        { return "national_general" }
func (nationalGeneral) DisplayName() string { return "National General" }
func (nationalGeneral) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatXLSX, model.FormatXLS}
}

// ngColumns maps the detail sheet headers by fragment rather than exact name;
// National General renames columns between statement vintages.
type ngColumns struct {
	policy, insured, producer, transType, premium, rate, commission int
	term, effDate, state, product                                   int
}

func mapNGColumns(header []string) (ngColumns, bool) {
	cols := ngColumns{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
	for i, c := range header {
		cl := strings.ToLower(strings.TrimSpace(c))
		switch {
		case cl == "policy" || (strings.Contains(cl, "policy") && !strings.Contains(cl, "number")):
			cols.policy = i
		case strings.Contains(cl, "insured"):
			cols.insured = i
		case strings.Contains(cl, "selling") && strings.Contains(cl, "producer"):
			cols.producer = i
		case strings.Contains(cl, "trans") && strings.Contains(cl, "type"):
			cols.transType = i
		case cl == "premium" || (strings.Contains(cl, "written") && strings.Contains(cl, "premium")):
			cols.premium = i
		case cl == "rate":
			cols.rate = i
		case cl == "commission" ||
			(strings.Contains(cl, "commission") && (strings.Contains(cl, "paid") || strings.Contains(cl, "amount"))):
			cols.commission = i
		case cl == "term":
			cols.term = i
		case strings.Contains(cl, "eff") && strings.Contains(cl, "date"):
			cols.effDate = i
		case cl == "state":
			cols.state = i
		case strings.Contains(cl, "product"):
			cols.product = i
		}
	}
	return cols, cols.policy >= 0
}

func (a nationalGeneral) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	sheets, err := readWorkbook(file, model.FormatForFilename(filename))
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, ErrStructure
	}

	sheet := sheetByName(sheets, "Summary Details")
	if sheet == nil {
		sheet = sheetByName(sheets, "All Producers")
	}
	if sheet == nil {
		sheet = &sheets[0]
	}

	res := &ParseResult{}
	var cols ngColumns
	headerSeen := false
	for _, row := range sheet.Rows {
		if rowIsEmpty(row) {
			continue
		}
		if !headerSeen {
			if c, ok := mapNGColumns(row); ok {
				cols = c
				headerSeen = true
			}
			continue
		}

		policyRaw := cellAt(row, cols.policy)
		if policyRaw == "" {
			continue
		}
		// "2033396050 00" carries a modifier suffix; keep the first segment.
		policy := policyRaw
		if fields := strings.Fields(policyRaw); len(fields) > 1 {
			policy = fields[0]
		}

		rawType := cellAt(row, cols.transType)
		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        cellAt(row, cols.insured),
			TransactionType:    ClassifyTransaction(rawType),
			TransactionTypeRaw: rawType,
			EffectiveDate:      ParseDate(cellAt(row, cols.effDate)),
			PremiumAmount:      ParseCurrency(cellAt(row, cols.premium)),
			CommissionRate:     ParseRate(cellAt(row, cols.rate)),
			CommissionAmount:   ParseCurrency(cellAt(row, cols.commission)),
			ProducerName:       cellAt(row, cols.producer),
			ProductType:        cellAt(row, cols.product),
			State:              stateCode(cellAt(row, cols.state)),
			TermMonths:         ParseTermMonths(cellAt(row, cols.term)),
			RawData:            rawRow(row),
		})
	}
	if !headerSeen {
		return nil, ErrStructure
	}

	if adj := sheetByName(sheets, "Adjustments"); adj != nil {
		a.parseAdjustments(adj, res)
	}
	return res, nil
}

// parseAdjustments appends the quote-keyed adjustment rows. These carry no
// premium; the quote number stands in for the policy number.
func (nationalGeneral) parseAdjustments(sheet *sheetData, res *ParseResult) {
	var colIdx map[string]int
	zero := decimal.Zero
	for _, row := range sheet.Rows {
		if rowIsEmpty(row) {
			continue
		}
		if colIdx == nil {
			idx := mapColumnsNormalized(row)
			if _, ok := idx[normalizeCol("Quote Num")]; ok {
				colIdx = idx
			}
			continue
		}
		quote := getColN(row, colIdx, "Quote Num")
		if quote == "" {
			continue
		}
		rawType := getColN(row, colIdx, "TransType")
		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       quote,
			InsuredName:        getColN(row, colIdx, "Drivers Name"),
			TransactionType:    ClassifyTransaction(rawType),
			TransactionTypeRaw: rawType,
			EffectiveDate:      ParseDate(getColN(row, colIdx, "Order Date")),
			PremiumAmount:      &zero,
			CommissionAmount:   ParseCurrency(getColN(row, colIdx, "Amount")),
			ProducerName:       getColN(row, colIdx, "Quoting Producer"),
			ProductType:        getColN(row, colIdx, "Product"),
			State:              stateCode(getColN(row, colIdx, "Gov State")),
			RawData:            rawRow(row),
		})
	}
}
