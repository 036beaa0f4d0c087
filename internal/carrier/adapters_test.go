package carrier

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/commission-cli/internal/model"
)

// buildXLSX assembles an in-memory workbook for adapter tests.
func buildXLSX(t *testing.T, sheets []sheetData) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for _, sd := range sheets {
		sh, err := f.AddSheet(sd.Name)
		require.NoError(t, err)
		for _, row := range sd.Rows {
			r := sh.AddRow()
			for _, cell := range row {
				r.AddCell().Value = cell
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestGrangeParse(t *testing.T) {
	csv := strings.Join([]string{
		"Date,NPN,Producer Name,Risk State,Policyholder Name or Description,Policy Number,MOD,Date Entered,Transaction Description,Premium Amount,Comm %,Commission Amount,Commission Rate Reason",
		`01/15/2026,12345,Jane Smith,Ohio,SMITH JOHN,DF  5148587,00,01/20/2026,New Business,"1,200.00",15.00,180.00,Standard`,
		"01/15/2026,12345,Jane Smith,OH,DOE JANE,HM  6605796,00,01/20/2026,Renewal,800.00,12.00,96.00,Standard",
		"01/15/2026,12345,Jane Smith,OH,PLACEHOLDER,0000000,00,01/20/2026,Adjustment,0,0,5.00,Other",
	}, "\n")

	res, err := grange{}.Parse(context.Background(), []byte(csv), "grange_jan.csv")
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	require.Len(t, res.Skipped, 1)

	first := res.Lines[0]
	assert.Equal(t, "5148587", first.PolicyNumber)
	assert.Equal(t, "DF", first.ProductType)
	assert.Equal(t, "SMITH JOHN", first.InsuredName)
	assert.Equal(t, model.TxNewBusiness, first.TransactionType)
	assert.Equal(t, "OH", first.State)
	require.NotNil(t, first.PremiumAmount)
	assert.Equal(t, "1200", first.PremiumAmount.String())
	require.NotNil(t, first.CommissionRate)
	assert.Equal(t, "0.15", first.CommissionRate.String())
	require.NotNil(t, first.CommissionAmount)
	assert.Equal(t, "180", first.CommissionAmount.String())
	require.NotNil(t, first.EffectiveDate)
	assert.Equal(t, "2026-01-15", first.EffectiveDate.Format("2006-01-02"))

	assert.Equal(t, "6605796", res.Lines[1].PolicyNumber)
	assert.Equal(t, model.TxRenewal, res.Lines[1].TransactionType)
}

func TestProgressiveParse(t *testing.T) {
	csv := strings.Join([]string{
		"Insured Name,Policy Number,Policy Effective Date,Policy Expiration Date,Prod,Tran Code,Tran Date,Gross Premium,Comm,Gross Comm,Prod Name",
		"JOHN SMITH,987654321,01/10/2026,07/10/2026,Auto,NB,01/12/2026,600.00,10,60.00,AGENCY",
		"JANE DOE,123456789,02/01/2026,02/01/2027,Home,RWL,02/03/2026,900.00,12,108.00,AGENCY",
	}, "\n")

	res, err := progressive{}.Parse(context.Background(), []byte(csv), "progressive.csv")
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)

	auto := res.Lines[0]
	assert.Equal(t, model.TxNewBusiness, auto.TransactionType)
	require.NotNil(t, auto.TermMonths)
	assert.Equal(t, 6, *auto.TermMonths)
	require.NotNil(t, auto.CommissionRate)
	assert.Equal(t, "0.1", auto.CommissionRate.String())

	home := res.Lines[1]
	assert.Equal(t, model.TxRenewal, home.TransactionType)
	require.NotNil(t, home.TermMonths)
	assert.Equal(t, 12, *home.TermMonths)
}

func TestUniversalParse(t *testing.T) {
	csv := strings.Join([]string{
		"Textbox230,PolicyNumber,InsuredName,Written,Cash,Textbox4,Rate,Commission,PaidToDate,MaxCommission,ExpirationDate,TransactionType",
		"AGENCY,1001234567,SMITH JOHN,1500.00,1500.00,0,0.15,225.00,225.00,225.00,03/15/2027,Renewal Policy",
		"AGENCY,1007654321,DOE JANE,2000.00,2000.00,0,0.15,300.00,300.00,300.00,06/01/2027,New Policy",
	}, "\n")

	res, err := universal{}.Parse(context.Background(), []byte(csv), "universal.csv")
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)

	ren := res.Lines[0]
	assert.Equal(t, model.TxRenewal, ren.TransactionType)
	assert.Equal(t, "Renewal Policy", ren.TransactionTypeRaw)
	require.NotNil(t, ren.EffectiveDate)
	assert.Equal(t, "2026-03-15", ren.EffectiveDate.Format("2006-01-02"))
	require.NotNil(t, ren.CommissionRate)
	assert.Equal(t, "0.15", ren.CommissionRate.String())

	assert.Equal(t, model.TxNewBusiness, res.Lines[1].TransactionType)
}

func TestTravelersParse(t *testing.T) {
	csv := strings.Join([]string{
		"STATEMENT,SUB,NAME OF INSURED,POLICY NUMBER,POL-EFF-DT,PAYMENT,COMM,PAID",
		"DATE,CDE,,,CODE,,,",
		"01/31/2026,001,ACME LLC,615263935 633  1,013026-NEW-BUS,1000.00,1500,150.00",
		"01/31/2026,001,BETA INC,715263935,012426-CONT,500.00,15,75.00",
		"01/31/2026,001,GONE LLC,815263935,081225-CANC,(200.00),1500,(30.00)",
	}, "\n")

	res, err := travelers{}.Parse(context.Background(), []byte(csv), "travelers.csv")
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)

	nb := res.Lines[0]
	assert.Equal(t, "615263935", nb.PolicyNumber)
	assert.Equal(t, model.TxNewBusiness, nb.TransactionType)
	require.NotNil(t, nb.EffectiveDate)
	assert.Equal(t, "2026-01-30", nb.EffectiveDate.Format("2006-01-02"))
	require.NotNil(t, nb.CommissionRate)
	assert.Equal(t, "0.15", nb.CommissionRate.String()) // 1500 basis points

	ren := res.Lines[1]
	assert.Equal(t, model.TxRenewal, ren.TransactionType)
	require.NotNil(t, ren.CommissionRate)
	assert.Equal(t, "0.15", ren.CommissionRate.String()) // 15 percent

	canc := res.Lines[2]
	assert.Equal(t, model.TxCancellation, canc.TransactionType)
	require.NotNil(t, canc.CommissionAmount)
	assert.Equal(t, "-30", canc.CommissionAmount.String())
}

func TestSafecoParse(t *testing.T) {
	csv := strings.Join([]string{
		"Policy Number,Named Insured,Activity Type,Transaction Date,Effective Date,Written Premium,Comm Rate,Comm Amount,State,Producer,Term",
		"OK1234567,SMITH JOHN,New Business,01/05/2026,01/10/2026,1100.00,15%,165.00,OH,Jane Smith,12",
	}, "\n")

	res, err := safeco{}.Parse(context.Background(), []byte(csv), "safeco.csv")
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)

	line := res.Lines[0]
	assert.Equal(t, "OK1234567", line.PolicyNumber)
	assert.Equal(t, model.TxNewBusiness, line.TransactionType)
	require.NotNil(t, line.TermMonths)
	assert.Equal(t, 12, *line.TermMonths)
	require.NotNil(t, line.CommissionRate)
	assert.Equal(t, "0.15", line.CommissionRate.String())
}

func TestNationalGeneralParse(t *testing.T) {
	file := buildXLSX(t, []sheetData{
		{Name: "Summary Details", Rows: [][]string{
			{"Sub Agent", "Selling Producer", "Policy", "Product", "State", "Insured", "Eff Date", "Trans Type", "Written Premium", "Rate", "Commission Paid", "Term"},
			{"001", "Jane Smith", "2033396050 00", "Auto", "OH", "SMITH JOHN", "01/10/2026", "New Business", "2400.00", "15", "360.00", "N12"},
			{"001", "Jane Smith", "2033396051", "Auto", "OH", "DOE JANE", "01/12/2026", "Renewal", "1200.00", "12", "144.00", "6"},
		}},
		{Name: "Adjustments", Rows: [][]string{
			{"Quote Num", "Drivers Name", "TransType", "Order Date", "Amount", "Quoting Producer", "Product", "Gov State"},
			{"Q-555", "ROE RICHARD", "App Incentive", "01/20/2026", "25.00", "Jane Smith", "Auto", "OH"},
		}},
	})

	res, err := nationalGeneral{}.Parse(context.Background(), file, "natgen.xlsx")
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)

	first := res.Lines[0]
	assert.Equal(t, "2033396050", first.PolicyNumber)
	assert.Equal(t, "Jane Smith", first.ProducerName)
	require.NotNil(t, first.TermMonths)
	assert.Equal(t, 12, *first.TermMonths)
	require.NotNil(t, first.CommissionRate)
	assert.Equal(t, "0.15", first.CommissionRate.String())

	adj := res.Lines[2]
	assert.Equal(t, "Q-555", adj.PolicyNumber)
	assert.Equal(t, model.TxAdjustment, adj.TransactionType)
	require.NotNil(t, adj.PremiumAmount)
	assert.True(t, adj.PremiumAmount.IsZero())
	require.NotNil(t, adj.CommissionAmount)
	assert.Equal(t, "25", adj.CommissionAmount.String())
}

func TestGeicoParse(t *testing.T) {
	data := [][]string{
		{"", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", ""},
		{"", "First Year Commission"},
		{"", "Writing Agent ID", "", "Agent Name", "", "Policy#", "", "", "Insured"},
		{"", "I001", "", "Jane Smith", "", "6192911649-426633894", "", "", "SMITH JOHN", "", "", "01/10/2026", "", "01/12/2026", "800.00", "10", "", "", "80.00"},
		{"", "TOTAL", "", "", "", "x", "", "", "", "", "", "", "", "", "800.00", "", "", "", "80.00"},
		{"", "Renewal Year Commission"},
		{"", "I001", "", "Jane Smith", "", "7192911649", "", "", "DOE JANE", "", "", "02/01/2026", "", "02/03/2026", "600.00", "5", "", "", "30.00"},
	}
	file := buildXLSX(t, []sheetData{
		{Name: "Sheet1", Rows: [][]string{{"Commission Statement GEICO"}}},
		{Name: "Sheet2", Rows: data},
	})

	res, err := geico{}.Parse(context.Background(), file, "geico.xlsx")
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	require.Len(t, res.Skipped, 1) // totals row

	first := res.Lines[0]
	assert.Equal(t, "6192911649", first.PolicyNumber)
	assert.Equal(t, model.TxNewBusiness, first.TransactionType)
	assert.Equal(t, "SMITH JOHN", first.InsuredName)
	require.NotNil(t, first.TermMonths)
	assert.Equal(t, 6, *first.TermMonths)
	require.NotNil(t, first.CommissionAmount)
	assert.Equal(t, "80", first.CommissionAmount.String())

	assert.Equal(t, model.TxRenewal, res.Lines[1].TransactionType)
}

func TestFirstConnectParse(t *testing.T) {
	rows := [][]string{
		{"Commission Payable Statement"},
		{""},
		{"Carriers", "Organization", "Agent", "Insured Name", "Policy#", "Eff. Date", "LOB", "TransType", "Term", "Pay Type", "Term $", "Rate %", "Commission"},
		{"Branch Insurance", "Agency", "Jane Smith", "SMITH JOHN", "BR123456", "01/10/2026", "Home", "New", "12", "Annual", "1500.00", "13", "195.00"},
		{"Total", "", "", "", "", "", "", "", "", "", "", "", "195.00"},
	}
	file := buildXLSX(t, []sheetData{{Name: "Commissions Report", Rows: rows}})

	res, err := firstConnect{}.Parse(context.Background(), file, "firstconnect.xlsx")
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)

	line := res.Lines[0]
	assert.Equal(t, "BR123456", line.PolicyNumber)
	assert.Equal(t, model.TxNewBusiness, line.TransactionType)
	assert.Equal(t, "Home", line.LineOfBusiness)
	require.NotNil(t, line.PremiumAmount)
	assert.Equal(t, "1500", line.PremiumAmount.String())
	require.NotNil(t, line.CommissionRate)
	assert.Equal(t, "0.13", line.CommissionRate.String())
	require.NotNil(t, line.CommissionAmount)
	assert.Equal(t, "195", line.CommissionAmount.String())
}

func TestFirstConnectMissingHeader(t *testing.T) {
	file := buildXLSX(t, []sheetData{{Name: "Sheet1", Rows: [][]string{{"nothing here"}}}})
	_, err := firstConnect{}.Parse(context.Background(), file, "mystery.xlsx")
	assert.ErrorIs(t, err, ErrStructure)
}

func TestGenericParse(t *testing.T) {
	csv := strings.Join([]string{
		"Policy Number,Insured,Premium,Comm Rate,Commission Amount,Transaction Type,Statement Date",
		"ZZ999,SMITH JOHN,100.00,10%,10.00,Renewal,01/31/2026",
	}, "\n")

	res, err := generic{}.Parse(context.Background(), []byte(csv), "unknown.csv")
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "ZZ999", res.Lines[0].PolicyNumber)
	assert.Equal(t, model.TxRenewal, res.Lines[0].TransactionType)
}

func TestGenericParseNoPolicyColumn(t *testing.T) {
	csv := "Foo,Bar\n1,2\n"
	_, err := generic{}.Parse(context.Background(), []byte(csv), "unknown.csv")
	assert.ErrorIs(t, err, ErrStructure)
}

func TestNBSParseText(t *testing.T) {
	text := strings.Join([]string{
		"Bridge Specialty Group            REMITTANCE ADVICE",
		"Cust/Acct#  Insured          Company        Line of Business",
		"4912134I DONALD MARTIN American Mod DB Pers Line 0105459621 10SEP25 10SEP25 12SEP25 884411 LE Person Bi DB New Po 1,545.00 15.00 231.75",
		"4912135I SUSAN GREEN American Mod DB Pers Line 0105459622 01AUG25 01AUG25 05AUG25 884412 LE Person Bi DB Renewa 800.00 15.00 120.00-",
		"Total Amount 351.75",
	}, "\n")

	res, err := nbs{}.parseText(text)
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)

	nb := res.Lines[0]
	assert.Equal(t, "0105459621", nb.PolicyNumber)
	assert.Equal(t, "DONALD MARTIN", nb.InsuredName)
	assert.Equal(t, model.TxNewBusiness, nb.TransactionType)
	require.NotNil(t, nb.EffectiveDate)
	assert.Equal(t, "2025-09-10", nb.EffectiveDate.Format("2006-01-02"))
	require.NotNil(t, nb.PremiumAmount)
	assert.Equal(t, "1545", nb.PremiumAmount.String())
	require.NotNil(t, nb.CommissionRate)
	assert.Equal(t, "0.15", nb.CommissionRate.String())
	require.NotNil(t, nb.CommissionAmount)
	assert.Equal(t, "231.75", nb.CommissionAmount.String())

	ren := res.Lines[1]
	assert.Equal(t, model.TxRenewal, ren.TransactionType)
	require.NotNil(t, ren.CommissionAmount)
	assert.Equal(t, "-120", ren.CommissionAmount.String())
}

func TestNBSParseTextUnrecognized(t *testing.T) {
	_, err := nbs{}.parseText("completely unrelated text\nno detail lines at all\n")
	assert.ErrorIs(t, err, ErrStructure)
}
