package carrier

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/commission-cli/internal/model"
)

// TextExtractor pulls plain text out of a PDF statement.
type TextExtractor interface {
	ExtractTextBytes(ctx context.Context, pdf []byte) (string, error)
}

// nbs parses NBS / Bridge Specialty remittance advice PDFs. The layout
// extraction yields roughly fixed-width lines; each detail line starts with
// an account number ending in "I", carries the policy number, three ddMONyy
// dates, a truncated transaction type ("New Po", "Renewa"), and premium,
// rate, and commission at the tail. Negative amounts use a trailing minus.
type nbs struct {
	extractor TextExtractor
}

func (nbs) Name() string        { return "nbs" }
func (nbs) DisplayName() string { return "NBS / Bridge Specialty" }
func (nbs) Formats() []model.StatementFormat {
	return []model.StatementFormat{model.FormatPDF}
}

var (
	nbsAccountRe = regexp.MustCompile(`^\d+I$`)
	nbsPolicyRe  = regexp.MustCompile(`^\d{7,10}$`)
	nbsDateRe    = regexp.MustCompile(`^\d{2}[A-Za-z]{3}\d{2}$`)
	nbsAmountRe  = regexp.MustCompile(`^-?[\d,]+\.?\d*-?$`)
)

// nbsSkipMarkers identify header, footer, and summary lines.
var nbsSkipMarkers = []string{
	"REMITTANCE", "Check Date", "Payee", "BETTER CHOICE",
	"Bridge Specialty", "PO BOX", "SAINT CHARLES",
	"Cust/Acct#", "Line of", "Total Amount",
	"ACH Payment", "Page ", "Philadelphia",
}

// nbsDate parses "10SEP25" style dates.
func nbsDate(s string) *time.Time {
	if len(s) != 7 {
		return nil
	}
	// Month abbreviations arrive uppercase; the layout wants "Sep".
	norm := s[:2] + strings.ToUpper(s[2:3]) + strings.ToLower(s[3:5]) + s[5:]
	t, err := time.Parse("02Jan06", norm)
	if err != nil {
		return nil
	}
	return &t
}

// nbsAmount handles the trailing-minus convention: "1,234.56-" is negative.
func nbsAmount(s string) *decimal.Decimal {
	if strings.HasSuffix(s, "-") {
		return ParseCurrency("-" + strings.TrimSuffix(s, "-"))
	}
	return ParseCurrency(s)
}

func nbsTransLabel(line string) string {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "new po"):
		return "NEW BUSINESS"
	case strings.Contains(l, "renewa"):
		return "RENEWAL"
	case strings.Contains(l, "cancel"):
		return "CANCELLATION"
	case strings.Contains(l, "endors"):
		return "ENDORSEMENT"
	default:
		return "RENEWAL"
	}
}

func (a nbs) Parse(ctx context.Context, file []byte, filename string) (*ParseResult, error) {
	text, err := a.extractor.ExtractTextBytes(ctx, file)
	if err != nil {
		return nil, err
	}
	return a.parseText(text)
}

func (a nbs) parseText(text string) (*ParseResult, error) {
	res := &ParseResult{}
	term := 12
	sawAccount := false

	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || nbsIsSkippable(line) {
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) < 5 || !nbsAccountRe.MatchString(tokens[0]) {
			continue
		}
		sawAccount = true

		policy, policyIdx := "", -1
		for i, tok := range tokens[1:] {
			if nbsPolicyRe.MatchString(tok) {
				policy, policyIdx = tok, i+1
				break
			}
		}
		if policy == "" {
			res.skip(lineNo+1, "no policy number")
			continue
		}

		// The insured name sits between the account number and the carrier
		// program block that precedes the policy number.
		var insured []string
		for _, tok := range tokens[1:policyIdx] {
			switch tok {
			case "American", "Mod", "DB", "Pers", "Line", "Bi", "Bri", "LE", "Person", "B":
			default:
				insured = append(insured, tok)
			}
		}

		var effDate, tranDate *time.Time
		for _, tok := range tokens[policyIdx+1:] {
			if !nbsDateRe.MatchString(tok) {
				continue
			}
			if effDate == nil {
				effDate = nbsDate(tok)
			} else if tranDate == nil {
				tranDate = nbsDate(tok)
				break
			}
		}

		// Premium, rate, and commission run out to the end of the line.
		var nums []string
		for i := len(tokens) - 1; i > policyIdx; i-- {
			if !nbsAmountRe.MatchString(tokens[i]) {
				break
			}
			nums = append([]string{tokens[i]}, nums...)
		}
		var premium, rate, commission *decimal.Decimal
		if len(nums) >= 1 {
			commission = nbsAmount(nums[len(nums)-1])
		}
		if len(nums) >= 2 {
			rate = ParseRate(strings.TrimSuffix(nums[len(nums)-2], "-"))
		}
		if len(nums) >= 3 {
			premium = nbsAmount(nums[len(nums)-3])
		}

		label := nbsTransLabel(line)
		res.Lines = append(res.Lines, model.StatementLine{
			PolicyNumber:       policy,
			InsuredName:        strings.Join(insured, " "),
			TransactionType:    ClassifyTransaction(label),
			TransactionTypeRaw: label,
			TransactionDate:    tranDate,
			EffectiveDate:      effDate,
			PremiumAmount:      premium,
			CommissionRate:     rate,
			CommissionAmount:   commission,
			ProductType:        "Personal Lines",
			LineOfBusiness:     "Personal Lines",
			TermMonths:         &term,
			RawData:            line,
		})
	}
	if !sawAccount && len(res.Lines) == 0 {
		return nil, ErrStructure
	}
	return res, nil
}

func nbsIsSkippable(line string) bool {
	for _, marker := range nbsSkipMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
