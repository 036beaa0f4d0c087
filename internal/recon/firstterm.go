package recon

import (
	"strings"
	"time"

	"github.com/sells-group/commission-cli/internal/model"
)

// WithinFirstTerm reports whether a statement line falls inside the policy's
// original term, the only window in which the selling agent is paid.
//
// Renewals are past the first term by definition and "other" lines are
// servicing activity, so both are always excluded. The original effective
// date comes from the matched sale when available, falling back to the
// line's own effective date; without either the term cannot be proven and
// the line is not paid.
func WithinFirstTerm(line *model.StatementLine, sale *model.Sale, period model.Period) bool {
	switch line.TransactionType {
	case model.TxRenewal, model.TxOther:
		return false
	}

	var effDate time.Time
	switch {
	case sale != nil && sale.EffectiveDate != nil:
		effDate = *sale.EffectiveDate
	case line.EffectiveDate != nil:
		effDate = *line.EffectiveDate
	default:
		return false
	}

	termEnd := effDate.AddDate(0, termMonths(line, sale), 0)
	return period.FirstDay().Before(termEnd)
}

// termMonths resolves the policy term length for a line. Term values over
// 12 are day counts mis-entered as months and collapse to 6 or 12; missing
// terms are inferred from the policy type text.
func termMonths(line *model.StatementLine, sale *model.Sale) int {
	if line.TermMonths != nil && *line.TermMonths > 0 {
		term := *line.TermMonths
		if term > 12 {
			if term <= 180 {
				return 6
			}
			return 12
		}
		return term
	}

	policyType := ""
	if sale != nil && sale.PolicyType != "" {
		policyType = strings.ToLower(sale.PolicyType)
	} else if line.ProductType != "" {
		policyType = strings.ToLower(line.ProductType)
	}

	if strings.Contains(policyType, "6m") || strings.Contains(policyType, "6 month") {
		return 6
	}
	if strings.Contains(policyType, "auto") && !strings.Contains(policyType, "12") {
		return 6
	}
	// Home, dwelling, umbrella, and everything else runs annual terms.
	return 12
}
