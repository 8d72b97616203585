package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakfit/domain/core"
	"breakfit/domain/run"
	"breakfit/internal"
	"breakfit/ports"
)

type fakeReader struct {
	runs []ports.RunSummary
}

func (f *fakeReader) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	return f.runs, nil
}

func (f *fakeReader) GetRun(ctx context.Context, id core.RunID) (*run.SelectionRun, error) {
	for _, r := range f.runs {
		if r.ID == id {
			return &run.SelectionRun{RunID: id}, nil
		}
	}
	return nil, core.NewNotFoundError("selection run", id.String())
}

func (f *fakeReader) RenderReport(ctx context.Context, id core.RunID) ([]byte, error) {
	if _, err := f.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return []byte("<html>report " + id.String() + "</html>"), nil
}

func newTestApp(t *testing.T, reader ports.ReaderPort, api http.Handler) *App {
	t.Helper()
	app, err := NewApp(Config{}, reader, api, internal.NewLogger(internal.LogLevelError))
	require.NoError(t, err)
	return app
}

func get(app http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndex(t *testing.T) {
	id := core.NewRunID()
	reader := &fakeReader{runs: []ports.RunSummary{{
		ID:          id,
		DateColumn:  "Date",
		ValueColumn: "Close",
		BreakCount:  3,
		CreatedAt:   core.NewTimestamp(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	}}}
	rec := get(newTestApp(t, reader, nil), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Break-count selections</title>")
	assert.Contains(t, body, `href="/runs/`+id.String()+`"`)
	assert.Contains(t, body, "2024-05-01T12:00:00Z")
	assert.Contains(t, body, "</html>")
}

func TestIndex_Empty(t *testing.T) {
	rec := get(newTestApp(t, &fakeReader{}, nil), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No selection runs stored yet")
}

func TestRunReport(t *testing.T) {
	id := core.NewRunID()
	app := newTestApp(t, &fakeReader{runs: []ports.RunSummary{{ID: id}}}, nil)

	rec := get(app, "/runs/"+id.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())

	assert.Equal(t, http.StatusNotFound, get(app, "/runs/"+core.NewRunID().String()).Code)
	assert.Equal(t, http.StatusBadRequest, get(app, "/runs/nope").Code)
}

func TestMountsAPIWithFullPath(t *testing.T) {
	var seen string
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Path
		w.WriteHeader(http.StatusTeapot)
	})
	app := newTestApp(t, &fakeReader{}, api)

	rec := get(app, "/api/v1/selections")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "/api/v1/selections", seen)

	assert.Equal(t, http.StatusOK, get(app, "/healthz").Code)
}
