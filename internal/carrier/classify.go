package carrier

import (
	"strings"

	"github.com/sells-group/commission-cli/internal/model"
)

// Keyword lists are checked as prefixes of the uppercased raw label, most
// specific family first. Adjustments are checked before cancellations so
// "CHARGEBACK" style labels never read as cancels.
var (
	newBusinessKeywords = []string{"NEW BUSINESS", "NEW BUS-A", "NEW BUS", "NB", "NEW"}
	renewalKeywords     = []string{"RENEWAL", "RENEW", "RWL", "REN"}
	endorsementKeywords = []string{"ENDORSEMENT", "ENDORS", "REVISION", "CHANGE"}
	cancellationKeywords = []string{
		"CANCELLATION", "CANCEL-NP", "CANCEL-INS", "CANCEL PRO RATE", "CANCEL FLAT", "CANCEL",
	}
	reinstatementKeywords = []string{"REINSTATEMENTS", "REINSTATEMENT", "REINSTATE"}
	auditKeywords         = []string{"AUDIT PREM", "AUDIT"}
	adjustmentKeywords    = []string{
		"ADJUSTMENTS", "ADJUSTMENT", "ADJUST",
		"CHARGEBACK", "LOSS HIST CHARGEBACK", "VIOLATION HISTORY CHARGEBACK",
		"UNCOLLECTED PREMIUM REIMBURSEMENT", "UNCOLLECTED PREMIUM",
		"RECOUPMENTS", "APP INCENTIVE", "CREDIT ENDORSEMENT", "UNHON", "WAIVED",
	}
)

func matchesAny(label string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.HasPrefix(label, kw) {
			return true
		}
	}
	return false
}

// ClassifyTransaction maps a carrier's raw transaction label onto the shared
// transaction taxonomy. Every input classifies; unknown labels fall through
// to TxOther rather than failing the row.
func ClassifyTransaction(raw string) model.TransactionType {
	label := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case label == "":
		return model.TxOther
	case matchesAny(label, adjustmentKeywords):
		return model.TxAdjustment
	case matchesAny(label, cancellationKeywords):
		return model.TxCancellation
	case matchesAny(label, reinstatementKeywords):
		return model.TxReinstatement
	case matchesAny(label, auditKeywords):
		return model.TxAudit
	case matchesAny(label, endorsementKeywords):
		return model.TxEndorsement
	case matchesAny(label, renewalKeywords):
		return model.TxRenewal
	case matchesAny(label, newBusinessKeywords):
		return model.TxNewBusiness
	default:
		return model.TxOther
	}
}
