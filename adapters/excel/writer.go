package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"breakfit/domain/core"
	"breakfit/domain/fit"
)

// Sheet names of an exported selection workbook
const (
	SheetSummary  = "Summary"
	SheetFitted   = "Fitted"
	SheetOutliers = "Outliers"
)

// BuildWorkbook lays a selection out over three sheets
func BuildWorkbook(sel *fit.Selection) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetFitted, SheetOutliers} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	if err := writeSummary(f, sel); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeFitted(f, sel); err != nil {
		return nil, fmt.Errorf("fitted sheet: %w", err)
	}
	if err := writeOutliers(f, sel); err != nil {
		return nil, fmt.Errorf("outliers sheet: %w", err)
	}
	return f, nil
}

// WriteWorkbook saves the selection workbook to path
func WriteWorkbook(path string, sel *fit.Selection) error {
	f, err := BuildWorkbook(sel)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// WriteWorkbookTo streams the selection workbook to w
func WriteWorkbookTo(w io.Writer, sel *fit.Selection) error {
	f, err := BuildWorkbook(sel)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeSummary(f *excelize.File, sel *fit.Selection) error {
	rows := [][]interface{}{
		{"Value column", sel.Series.ValueColumn},
		{"Date column", sel.Series.DateColumn},
		{"Observations", sel.Series.Len()},
		{"Dropped rows", sel.Series.Dropped},
		{"Selected segments", sel.BreakCount},
		{"Complexity penalty", sel.Config.ComplexityPenalty},
		{"Outlier threshold", sel.Config.OutlierThreshold},
		{"Outliers", sel.OutlierCount()},
		{"Residual mean", sel.Residual.Mean},
		{"Residual std", sel.Residual.Std},
		{"Residual skewness", sel.Residual.Skewness},
		{"Residual excess kurtosis", sel.Residual.ExcessKurtosis},
		{"Jarque-Bera p", sel.Residual.NormalityP},
		{"Durbin-Watson", sel.Residual.DurbinWatson},
		{"Elastic net alpha", sel.Regularized.Alpha},
		{"Elastic net l1 ratio", sel.Regularized.L1Ratio},
		{},
		{"Segments", "RSS", "BIC"},
	}
	for _, c := range sel.Candidates {
		rows = append(rows, []interface{}{c.Breaks, c.RSS, c.BIC})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Breakpoint", "Date", "Coefficient", "Regularized"})
	for i, b := range sel.Breakpoints {
		row := []interface{}{b, core.FromEpochSeconds(b).Format(time.RFC3339)}
		if i < len(sel.Coefficients) {
			row = append(row, sel.Coefficients[i])
		}
		if i < len(sel.Regularized.Coefficients) {
			row = append(row, sel.Regularized.Coefficients[i])
		}
		rows = append(rows, row)
	}
	return setRows(f, SheetSummary, rows)
}

func writeFitted(f *excelize.File, sel *fit.Selection) error {
	rows := make([][]interface{}, 0, sel.Series.Len()+1)
	rows = append(rows, []interface{}{"row", "x", sel.Series.DateColumn, sel.Series.ValueColumn, "fitted", "residual", "outlier"})
	for i, o := range sel.Series.Observations {
		rows = append(rows, []interface{}{
			o.Row, o.X, o.Time.UTC().Format(time.RFC3339), o.Value,
			sel.Fitted[i], sel.Residuals[i], sel.OutlierMask[i],
		})
	}
	return setRows(f, SheetFitted, rows)
}

func writeOutliers(f *excelize.File, sel *fit.Selection) error {
	if sel.Outliers == nil {
		return nil
	}
	header := []interface{}{"row"}
	for _, h := range sel.Outliers.Headers {
		header = append(header, h)
	}
	rows := [][]interface{}{header}
	for _, r := range sel.Outliers.Rows {
		row := []interface{}{r.Index}
		for _, h := range sel.Outliers.Headers {
			row = append(row, r.Values[h])
		}
		rows = append(rows, row)
	}
	return setRows(f, SheetOutliers, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

// WriteOutliersCSV writes the outlier rows with their source row index
func WriteOutliersCSV(w io.Writer, sel *fit.Selection) error {
	cw := csv.NewWriter(w)
	if sel.Outliers == nil {
		cw.Flush()
		return cw.Error()
	}
	if err := cw.Write(append([]string{"row"}, sel.Outliers.Headers...)); err != nil {
		return err
	}
	for _, r := range sel.Outliers.Rows {
		rec := []string{strconv.Itoa(r.Index)}
		for _, h := range sel.Outliers.Headers {
			rec = append(rec, r.Values[h])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
