package ui

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"breakfit/domain/core"
	"breakfit/ports"
)

func (a *App) handleIndex(pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := a.reader.ListRuns(r.Context(), ports.RunFilters{Limit: pageSize})
		if err != nil {
			a.logger.Error("list runs: %v", err)
			http.Error(w, "cannot list runs", http.StatusInternalServerError)
			return
		}
		a.renderTemplate(w, "runs.html", map[string]interface{}{
			"Title": "Break-count selections",
			"Runs":  runs,
		})
	}
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := a.reader.RenderReport(r.Context(), id)
	if err != nil {
		if core.IsNotFoundError(err) {
			http.NotFound(w, r)
			return
		}
		a.logger.Error("render report %s: %v", id, err)
		http.Error(w, "cannot render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// renderTemplate executes into a buffer first so a template error never
// leaves a half-written page
func (a *App) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template %s: %v", name, err)
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("write %s: %v", name, err)
	}
}
