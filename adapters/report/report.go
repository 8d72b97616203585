// Package report renders a stored selection run as a markdown summary and
// as a standalone HTML page.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"breakfit/domain/run"
)

// maxOutlierRows caps the outlier table; the workbook export has them all
const maxOutlierRows = 200

// Markdown writes the run summary
func Markdown(r *run.SelectionRun) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Piecewise Linear Fit of %s\n\n", r.ValueColumn)
	fmt.Fprintf(&b, "Run `%s`, created %s.\n\n", r.RunID, r.CreatedAt.Time().UTC().Format(time.RFC3339))

	b.WriteString("## Selection\n\n")
	b.WriteString("| Setting | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Date column | %s |\n", escape(r.DateColumn))
	fmt.Fprintf(&b, "| Value column | %s |\n", escape(r.ValueColumn))
	fmt.Fprintf(&b, "| Observations | %d (%d dropped) |\n", r.Observations, r.Dropped)
	fmt.Fprintf(&b, "| Complexity penalty | %g |\n", r.Config.ComplexityPenalty)
	fmt.Fprintf(&b, "| Max segments | %d |\n", r.Config.MaxBreaks)
	fmt.Fprintf(&b, "| Outlier threshold | %g sd |\n", r.Config.OutlierThreshold)
	fmt.Fprintf(&b, "| **Selected segments** | **%d** |\n\n", r.BreakCount)

	b.WriteString("## Candidates\n\n")
	b.WriteString("| Segments | RSS | BIC | |\n|---:|---:|---:|---|\n")
	for _, c := range r.Candidates {
		mark := ""
		if c.Breaks == r.BreakCount {
			mark = "selected"
		}
		fmt.Fprintf(&b, "| %d | %.6g | %.6g | %s |\n", c.Breaks, c.RSS, c.BIC, mark)
	}
	b.WriteString("\n")

	b.WriteString("## Breakpoints\n\n")
	b.WriteString("| # | Date | Coefficient | Regularized |\n|---:|---|---:|---:|\n")
	times := r.BreakTimes()
	for i, t := range times {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i, t.Format("2006-01-02 15:04:05"),
			number(r.Coefficients, i), number(r.Regularized.Coefficients, i))
	}
	fmt.Fprintf(&b, "\nElastic net: alpha %.4g, l1 ratio %g, CV MSE %.6g", r.Regularized.Alpha, r.Regularized.L1Ratio, r.Regularized.CVMSE)
	if !r.Regularized.Converged {
		b.WriteString(" (did not converge)")
	}
	b.WriteString(". The regularized coefficients are reported only; fitted values and outliers use the unregularized fit.\n\n")

	b.WriteString("## Residuals\n\n")
	b.WriteString("| Mean | Std | Min | P05 | Median | P95 | Max |\n|---:|---:|---:|---:|---:|---:|---:|\n")
	s := r.Residual
	fmt.Fprintf(&b, "| %.4g | %.4g | %.4g | %.4g | %.4g | %.4g | %.4g |\n\n", s.Mean, s.Std, s.Min, s.P05, s.Median, s.P95, s.Max)
	verdict := "rejects normality"
	if s.LooksNormal() {
		verdict = "does not reject normality"
	}
	fmt.Fprintf(&b, "Skewness %.3g, excess kurtosis %.3g. Jarque-Bera %.4g (p=%.3g) %s at 5%%. Durbin-Watson %.3g. %d residuals outside the Tukey fences.\n\n",
		s.Skewness, s.ExcessKurtosis, s.JarqueBera, s.NormalityP, verdict, s.DurbinWatson, s.IQROutliers)

	fmt.Fprintf(&b, "## Outliers (%d)\n\n", len(r.OutlierRows))
	writeOutliers(&b, r)
	return []byte(b.String())
}

func writeOutliers(b *strings.Builder, r *run.SelectionRun) {
	if r.Outliers == nil || r.Outliers.Len() == 0 {
		b.WriteString("None.\n")
		return
	}
	headers := append([]string(nil), r.Outliers.Headers...)
	b.WriteString("| Row | " + strings.Join(escapeAll(headers), " | ") + " |\n")
	b.WriteString("|---:|" + strings.Repeat("---|", len(headers)) + "\n")

	rows := append(r.Outliers.Rows[:0:0], r.Outliers.Rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	for i, row := range rows {
		if i == maxOutlierRows {
			fmt.Fprintf(b, "\n%d more rows not shown.\n", len(rows)-maxOutlierRows)
			break
		}
		cells := make([]string, len(headers))
		for j, h := range headers {
			cells[j] = escape(row.Values[h])
		}
		fmt.Fprintf(b, "| %d | %s |\n", row.Index, strings.Join(cells, " | "))
	}
}

// HTML renders the markdown summary as a complete page
func HTML(r *run.SelectionRun) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(Markdown(r))
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Piecewise Linear Fit of " + r.ValueColumn,
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
	})
	return markdown.Render(doc, renderer)
}

func number(values []float64, i int) string {
	if i >= len(values) {
		return ""
	}
	return fmt.Sprintf("%.6g", values[i])
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func escapeAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = escape(s)
	}
	return out
}
