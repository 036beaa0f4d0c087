package carrier

import (
	"context"
	"strings"

	"github.com/sells-group/commission-cli/internal/model"
)

// Detect inspects a statement file and returns the carrier key it appears
// to belong to, or "" when nothing matches. Detection looks at header
// column names first, then at workbook sheet names and banner cells for
// the carriers that ship headerless files.
func (r *Registry) Detect(ctx context.Context, file []byte, filename string) string {
	format := model.FormatForFilename(filename)

	if format == model.FormatPDF {
		return r.detectPDF(ctx, file)
	}

	var sheets []sheetData
	var header []string
	if format == model.FormatCSV {
		rows, err := readCSV(file)
		if err == nil && len(rows) > 0 {
			header = rows[0]
		}
	} else {
		var err error
		sheets, err = readWorkbook(file, format)
		if err == nil && len(sheets) > 0 && len(sheets[0].Rows) > 0 {
			header = sheets[0].Rows[0]
		}
	}

	if key := detectByHeader(header); key != "" {
		return key
	}
	return detectBySheets(sheets)
}

func (r *Registry) detectPDF(ctx context.Context, file []byte) string {
	// Uncompressed PDFs keep their text in the raw bytes.
	head := file
	if len(head) > 3000 {
		head = head[:3000]
	}
	if bytesLookLikeNBS(string(head)) {
		return "nbs"
	}
	if r.extractor != nil {
		if text, err := r.extractor.ExtractTextBytes(ctx, file); err == nil && bytesLookLikeNBS(text) {
			return "nbs"
		}
	}
	return ""
}

func bytesLookLikeNBS(text string) bool {
	return strings.Contains(text, "Bridge Specialty") || strings.Contains(text, "REMITTANCE ADVICE")
}

func detectByHeader(header []string) string {
	if len(header) == 0 {
		return ""
	}
	cols := make(map[string]bool, len(header))
	for _, c := range header {
		cols[strings.ToLower(strings.TrimSpace(c))] = true
	}
	joined := strings.ToLower(strings.Join(header, " "))

	switch {
	case cols["tran code"] || cols["gross comm"]:
		return "progressive"
	case cols["activity type"] || cols["comm amount"]:
		return "safeco"
	case cols["name of insured"] || cols["pol-eff-dt"]:
		return "travelers"
	case cols["selling producer"] || (cols["trans type"] && strings.Contains(joined, "written premium")):
		return "national_general"
	case cols["policyholder name or description"] || strings.Contains(joined, "commission rate reason"):
		return "grange"
	case cols["policynumber"] || (cols["insuredname"] && cols["transactiontype"]):
		return "universal"
	default:
		return ""
	}
}

func detectBySheets(sheets []sheetData) string {
	if len(sheets) == 0 {
		return ""
	}

	// Geico puts its banner on the first sheet and the data on the second.
	if len(sheets) >= 2 {
		for _, row := range firstRows(sheets[0].Rows, 10) {
			for _, cell := range row {
				if strings.Contains(cell, "Commission Statement GEICO") {
					return "geico"
				}
			}
		}
	}

	if cr := sheetByName(sheets, "Commissions Report"); cr != nil {
		for _, row := range firstRows(cr.Rows, 15) {
			for _, cell := range row {
				if strings.Contains(cell, "Commission Payable Statement") || strings.TrimSpace(cell) == "Carriers" {
					return "first_connect"
				}
			}
		}
	}

	if sheetByName(sheets, "Summary Details") != nil || sheetByName(sheets, "All Producers") != nil {
		return "national_general"
	}
	return ""
}

func firstRows(rows [][]string, n int) [][]string {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
