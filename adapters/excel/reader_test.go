package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"breakfit/adapters/datareadiness/coercer"
	"breakfit/domain/fit"
	"breakfit/domain/series"
)

func TestReadTableFrom_CSV(t *testing.T) {
	body := "\ufeffDate , Close\n2020-01-01, 10\n2020-01-02,NA\n2020-01-03\n"
	table, err := ReadTableFrom(strings.NewReader(body), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Close"}, table.Headers)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, "10", table.Rows[0].Values["Close"])
	assert.Equal(t, "", table.Rows[2].Values["Close"])
	assert.Equal(t, 2, table.Rows[2].Index)
}

func TestReadTableFrom_HeaderOnly(t *testing.T) {
	_, err := ReadTableFrom(strings.NewReader("Date,Close\n"), FormatCSV)
	assert.Error(t, err)
}

func TestDataReader_XLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Prices"))
	require.NoError(t, f.SetSheetRow("Prices", "A1", &[]interface{}{"Date", "Close"}))
	require.NoError(t, f.SetSheetRow("Prices", "A2", &[]interface{}{"2020-01-01", 1.5}))
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := NewDataReader(path).ReadTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Close"}, table.Headers)
	assert.Equal(t, "1.5", table.Rows[0].Values["Close"])
}

func TestDataReader_XLSXDateCells(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Date", "Close"}))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 2058.2))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", time.Date(2015, 1, 5, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", 2020.58))
	require.NoError(t, f.SetCellValue("Sheet1", "A4", "2015-01-06"))
	require.NoError(t, f.SetCellValue("Sheet1", "B4", 2002.61))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := ReadTableFrom(&buf, FormatXLSX)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, "2015-01-02", table.Rows[0].Values["Date"])
	assert.Equal(t, "2015-01-05T12:00:00Z", table.Rows[1].Values["Date"])
	assert.Equal(t, "2015-01-06", table.Rows[2].Values["Date"])
	assert.Equal(t, "2058.2", table.Rows[0].Values["Close"])

	ts, err := coercer.ParseTimestamp(table.Rows[1].Values["Date"])
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 5, 12, 0, 0, 0, time.UTC), ts)
}

func TestResolveDateCells(t *testing.T) {
	rows := [][]string{{"Date", "Close"}, {"01-02-15", "1,234.50"}, {"x"}}
	raw := [][]string{{"Date", "Close"}, {"42006", "1234.5"}}
	got := resolveDateCells(rows, raw, false)
	assert.Equal(t, "2015-01-02", got[1][0])
	assert.Equal(t, "1,234.50", got[1][1])
	assert.Equal(t, []string{"x"}, got[2])
}

func TestDataReader_Missing(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.csv")).ReadTable()
	assert.Error(t, err)
}

func TestFormatDetection(t *testing.T) {
	assert.Equal(t, FormatCSV, FormatFromPath("a/B.CSV"))
	assert.Equal(t, FormatXLSX, FormatFromPath("a/b.xlsx"))
	assert.Equal(t, FormatXLSX, FormatFromContentType(ContentTypeXLSX+"; charset=binary"))
	assert.Equal(t, FormatCSV, FormatFromContentType("text/csv"))
	assert.Equal(t, FormatCSV, FormatFromContentType(""))
}

func sampleSelection() *fit.Selection {
	source := series.NewTable([]string{"Date", "Close"}, [][]string{
		{"2020-01-01", "1"}, {"2020-01-02", "9"}, {"2020-01-03", "3"},
	})
	day := func(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }
	return &fit.Selection{
		BreakCount:   2,
		Candidates:   []fit.Candidate{{Breaks: 2, RSS: 1, BIC: -3}},
		Breakpoints:  []float64{float64(day(1).Unix()), float64(day(2).Unix()), float64(day(3).Unix())},
		Coefficients: []float64{1, 0, 0},
		Series: series.Series{
			DateColumn:  "Date",
			ValueColumn: "Close",
			Observations: []series.Observation{
				{Row: 0, Time: day(1), X: float64(day(1).Unix()), Value: 1},
				{Row: 1, Time: day(2), X: float64(day(2).Unix()), Value: 9},
				{Row: 2, Time: day(3), X: float64(day(3).Unix()), Value: 3},
			},
		},
		Fitted:      []float64{1, 2, 3},
		Residuals:   []float64{0, 7, 0},
		OutlierMask: []bool{false, true, false},
		Outliers:    source.SelectIndices([]int{1}),
		Config:      fit.DefaultConfig(),
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteWorkbook(path, sampleSelection()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetSummary, SheetFitted, SheetOutliers}, f.GetSheetList())

	fitted, err := f.GetRows(SheetFitted)
	require.NoError(t, err)
	require.Len(t, fitted, 4)
	assert.Equal(t, "TRUE", fitted[2][6])

	outliers, err := f.GetRows(SheetOutliers)
	require.NoError(t, err)
	assert.Equal(t, []string{"row", "Date", "Close"}, outliers[0])
	assert.Equal(t, []string{"1", "2020-01-02", "9"}, outliers[1])

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteOutliersCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutliersCSV(&buf, sampleSelection()))
	assert.Equal(t, "row,Date,Close\n1,2020-01-02,9\n", buf.String())
}
