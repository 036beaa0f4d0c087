package carrier

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/extrame/xls"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/commission-cli/internal/model"
)

// sheetData is one worksheet reduced to a string grid. CSV files are a
// single unnamed sheet.
type sheetData struct {
	Name string
	Rows [][]string
}

// readCSV parses CSV bytes into a sheet, tolerating a UTF-8 BOM, ragged
// rows, and stray quotes (carrier exports are rarely strict RFC 4180).
func readCSV(b []byte) ([][]string, error) {
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "carrier: read csv")
	}
	return rows, nil
}

// readXLSX loads every worksheet of an xlsx workbook.
func readXLSX(b []byte) ([]sheetData, error) {
	f, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, eris.Wrap(err, "carrier: open xlsx")
	}
	sheets := make([]sheetData, 0, len(f.Sheets))
	for _, sh := range f.Sheets {
		rows := make([][]string, 0, len(sh.Rows))
		for _, row := range sh.Rows {
			cells := make([]string, len(row.Cells))
			for i, c := range row.Cells {
				cells[i] = strings.TrimSpace(c.String())
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, sheetData{Name: sh.Name, Rows: rows})
	}
	return sheets, nil
}

// readXLS loads every worksheet of a legacy BIFF workbook.
func readXLS(b []byte) ([]sheetData, error) {
	wb, err := xls.OpenReader(bytes.NewReader(b), "utf-8")
	if err != nil {
		return nil, eris.Wrap(err, "carrier: open xls")
	}
	var sheets []sheetData
	for i := 0; i < wb.NumSheets(); i++ {
		sh := wb.GetSheet(i)
		if sh == nil {
			continue
		}
		rows := make([][]string, 0, int(sh.MaxRow)+1)
		for r := 0; r <= int(sh.MaxRow); r++ {
			row := sh.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol()+1)
			for c := 0; c <= row.LastCol(); c++ {
				cells[c] = strings.TrimSpace(row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, sheetData{Name: sh.Name, Rows: rows})
	}
	return sheets, nil
}

// readWorkbook loads a spreadsheet in either modern or legacy format,
// falling back to the other reader when the extension lies about the
// container (carriers rename files more often than they should).
func readWorkbook(b []byte, format model.StatementFormat) ([]sheetData, error) {
	switch format {
	case model.FormatXLS:
		sheets, err := readXLS(b)
		if err != nil {
			return readXLSX(b)
		}
		return sheets, nil
	default:
		sheets, err := readXLSX(b)
		if err != nil {
			return readXLS(b)
		}
		return sheets, nil
	}
}

// tabularRows loads a statement that may arrive as CSV or as a workbook,
// returning the rows of the CSV or of the first worksheet.
func tabularRows(b []byte, filename string) ([][]string, error) {
	format := model.FormatForFilename(filename)
	if format == model.FormatCSV {
		return readCSV(b)
	}
	sheets, err := readWorkbook(b, format)
	if err != nil {
		// Carriers sometimes export CSV under a spreadsheet extension.
		if rows, csvErr := readCSV(b); csvErr == nil {
			return rows, nil
		}
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, eris.New("carrier: workbook has no sheets")
	}
	return sheets[0].Rows, nil
}

// sheetByName returns the sheet with the given name, or nil.
func sheetByName(sheets []sheetData, name string) *sheetData {
	for i := range sheets {
		if strings.EqualFold(sheets[i].Name, name) {
			return &sheets[i]
		}
	}
	return nil
}

// rowIsEmpty reports whether every cell in the row is blank.
func rowIsEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
