// Package api serves break-count selections over JSON.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"breakfit/adapters/excel"
	"breakfit/app"
	"breakfit/domain/core"
	"breakfit/domain/fit"
	"breakfit/domain/run"
	"breakfit/domain/series"
	"breakfit/internal"
	"breakfit/ports"
)

// maxUploadBytes bounds request bodies
const maxUploadBytes = 32 << 20

// SelectionService is what the handlers need from the application layer
type SelectionService interface {
	Run(ctx context.Context, req app.SelectionRequest) (*app.SelectionOutcome, error)
	Get(ctx context.Context, id core.RunID) (*run.SelectionRun, error)
	Recent(ctx context.Context, limit int) ([]*run.SelectionRun, error)
	FindByFingerprint(ctx context.Context, fp core.Hash) (*run.SelectionRun, error)
	Report(ctx context.Context, id core.RunID) ([]byte, error)
	Profiles() map[string]fit.Profile
}

// Handler holds the HTTP handlers
type Handler struct {
	svc    SelectionService
	logger *internal.Logger
}

// NewHandler creates the handlers around a selection service
func NewHandler(svc SelectionService, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Handler{svc: svc, logger: logger.With("API")}
}

// breakpoint is a breakpoint with its calendar date
type breakpoint struct {
	X           float64 `json:"x"`
	Date        string  `json:"date"`
	Coefficient float64 `json:"coefficient"`
}

// selectionResponse is the body returned by POST /selections
type selectionResponse struct {
	ID           core.RunID      `json:"id"`
	Fingerprint  core.Hash       `json:"fingerprint"`
	Cached       bool            `json:"cached"`
	Stored       bool            `json:"stored"`
	RuntimeMs    int64           `json:"runtime_ms"`
	Config       fit.Config      `json:"config"`
	BreakCount   int             `json:"break_count"`
	Observations int             `json:"observations"`
	Dropped      int             `json:"dropped"`
	Candidates   []fit.Candidate `json:"candidates"`
	Breakpoints  []breakpoint    `json:"breakpoints"`
	Slopes       []float64       `json:"slopes"`
	Regularized  fit.Regularized `json:"regularized"`
	Residual     fit.Summary     `json:"residual_summary"`
	OutlierRows  []int           `json:"outlier_rows"`
	Outliers     *series.Table   `json:"outliers"`
	Chart        *fit.Chart      `json:"chart,omitempty"`
}

func newSelectionResponse(out *app.SelectionOutcome) selectionResponse {
	r, sel := out.Run, out.Selection
	breaks := make([]breakpoint, len(r.Breakpoints))
	for i, t := range r.BreakTimes() {
		breaks[i] = breakpoint{X: r.Breakpoints[i], Date: t.Format(time.RFC3339)}
		if i < len(r.Coefficients) {
			breaks[i].Coefficient = r.Coefficients[i]
		}
	}
	return selectionResponse{
		ID:           r.RunID,
		Fingerprint:  r.Fingerprint.Fingerprint,
		Cached:       out.Cached,
		Stored:       out.Stored,
		RuntimeMs:    out.RuntimeMs,
		Config:       r.Config,
		BreakCount:   r.BreakCount,
		Observations: r.Observations,
		Dropped:      r.Dropped,
		Candidates:   r.Candidates,
		Breakpoints:  breaks,
		Slopes:       sel.Slopes,
		Regularized:  r.Regularized,
		Residual:     r.Residual,
		OutlierRows:  r.OutlierRows,
		Outliers:     r.Outliers,
		Chart:        out.Chart,
	}
}

// CreateSelection fits an uploaded CSV or XLSX body
func (h *Handler) CreateSelection(c *gin.Context) {
	dateCol, valueCol := strings.TrimSpace(c.Query("date_col")), strings.TrimSpace(c.Query("value_col"))
	if dateCol == "" || valueCol == "" {
		badRequest(c, "date_col and value_col are required")
		return
	}
	overrides, err := parseOverrides(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	table, err := excel.ReadTableFrom(body, excel.FormatFromContentType(c.ContentType()))
	if err != nil {
		badRequest(c, "cannot read table: "+err.Error())
		return
	}

	out, err := h.svc.Run(c.Request.Context(), app.SelectionRequest{
		Table:       table,
		DateColumn:  dateCol,
		ValueColumn: valueCol,
		Profile:     c.Query("profile"),
		Overrides:   overrides,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusCreated
	if out.Cached {
		status = http.StatusOK
	}
	c.JSON(status, newSelectionResponse(out))
}

// parseOverrides reads penalty, max_breaks, threshold and plot
func parseOverrides(c *gin.Context) (fit.Overrides, error) {
	var o fit.Overrides
	if v, ok := c.GetQuery("penalty"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, queryError("penalty", v)
		}
		o.ComplexityPenalty = &f
	}
	if v, ok := c.GetQuery("max_breaks"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, queryError("max_breaks", v)
		}
		o.MaxBreaks = &n
	}
	if v, ok := c.GetQuery("threshold"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, queryError("threshold", v)
		}
		o.OutlierThreshold = &f
	}
	if v, ok := c.GetQuery("plot"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return o, queryError("plot", v)
		}
		o.PlotResults = &b
	}
	return o, nil
}

type invalidQuery struct {
	name, value string
}

func (e invalidQuery) Error() string {
	return "invalid " + e.name + " " + strconv.Quote(e.value)
}

func queryError(name, value string) error {
	return invalidQuery{name: name, value: value}
}

// ListSelections returns stored run summaries, newest first, or the run
// matching ?fingerprint=
func (h *Handler) ListSelections(c *gin.Context) {
	if fp := strings.TrimSpace(c.Query("fingerprint")); fp != "" {
		r, err := h.svc.FindByFingerprint(c.Request.Context(), core.Hash(fp))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": []ports.RunSummary{ports.SummarizeRun(r)}})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			badRequest(c, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	runs, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]ports.RunSummary, len(runs))
	for i, r := range runs {
		out[i] = ports.SummarizeRun(r)
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

// GetSelection returns one stored run
func (h *Handler) GetSelection(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetReport returns the HTML report of a stored run
func (h *Handler) GetReport(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	page, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// ListProfiles returns the named selection profiles
func (h *Handler) ListProfiles(c *gin.Context) {
	profiles := h.svc.Profiles()
	out := make([]fit.Profile, 0, len(profiles))
	for _, name := range fit.ProfileNames(profiles) {
		out = append(out, profiles[name])
	}
	c.JSON(http.StatusOK, gin.H{"profiles": out})
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func runID(c *gin.Context) (core.RunID, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return id, true
}
