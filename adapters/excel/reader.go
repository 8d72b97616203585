package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"breakfit/adapters/datareadiness/coercer"
	"breakfit/domain/series"
	"breakfit/internal"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType Format
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: FormatFromPath(filePath),
		config:   DefaultReaderConfig(),
		logger:   internal.DefaultLogger.With("DataReader"),
	}
}

// WithConfig replaces the reader configuration
func (r *DataReader) WithConfig(cfg ReaderConfig) *DataReader {
	r.config = cfg
	return r
}

// ReadTable reads the file into a table
func (r *DataReader) ReadTable() (*series.Table, error) {
	r.logger.Debug("starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(string(r.fileType)), r.filePath)
	}
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.filePath, err)
	}
	defer file.Close()

	return readTable(file, r.fileType, r.config, r.logger)
}

// ReadTableFrom reads an uploaded body in the given format
func ReadTableFrom(src io.Reader, format Format) (*series.Table, error) {
	return readTable(src, format, DefaultReaderConfig(), internal.DefaultLogger.With("DataReader"))
}

func readTable(src io.Reader, format Format, cfg ReaderConfig, logger *internal.Logger) (*series.Table, error) {
	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSVRows(src, cfg)
	case FormatXLSX:
		rows, err = readExcelRows(src, cfg)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", format)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s input must have at least a header row and one data row", strings.ToUpper(string(format)))
	}

	table := processRows(rows)
	logger.Debug("%s read in %.2fms (%d columns, %d rows)",
		strings.ToUpper(string(format)), float64(time.Since(start).Nanoseconds())/1e6, len(table.Headers), table.Len())
	return table, nil
}

// readExcelRows reads the configured sheet, falling back to the first one
func readExcelRows(src io.Reader, cfg ReaderConfig) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := cfg.Sheet
	if sheet == "" {
		sheet = "Sheet1"
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			list := f.GetSheetList()
			if len(list) == 0 {
				return nil, fmt.Errorf("workbook has no sheets")
			}
			sheet = list[0]
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	return resolveDateCells(rows, raw, date1904), nil
}

// resolveDateCells replaces the display text of date-styled cells with an
// ISO timestamp built from the stored serial. Display formats such as
// mm-dd-yy are locale dependent and lose the century, so the serial is the
// only reliable source. Numeric styles like 1,234.50 keep their text.
func resolveDateCells(rows, raw [][]string, date1904 bool) [][]string {
	for i := range rows {
		if i >= len(raw) {
			break
		}
		for j, shown := range rows[i] {
			if j >= len(raw[i]) || shown == raw[i][j] {
				continue
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(raw[i][j]), 64)
			if err != nil {
				continue
			}
			if _, err := coercer.ParseNumeric(shown); err == nil {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
				rows[i][j] = t.Format("2006-01-02")
			} else {
				rows[i][j] = t.UTC().Format(time.RFC3339)
			}
		}
	}
	return rows
}

func readCSVRows(src io.Reader, cfg ReaderConfig) ([][]string, error) {
	reader := csv.NewReader(src)
	if cfg.Comma != 0 {
		reader.Comma = cfg.Comma
	}
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows trims headers and cells; short rows leave trailing cells empty
func processRows(rows [][]string) *series.Table {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make([]string, len(headers))
		for j := 0; j < len(headers) && j < len(row); j++ {
			rec[j] = strings.TrimSpace(row[j])
		}
		records = append(records, rec)
	}
	return series.NewTable(headers, records)
}
