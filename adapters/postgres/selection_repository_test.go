package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakfit/adapters/db/postgres/migrations"
	"breakfit/domain/core"
	"breakfit/domain/fit"
	"breakfit/domain/run"
	"breakfit/domain/series"
)

func openTestDB(t *testing.T) *selectionRepository {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.NewMigrator(db).Up(ctx))
	return NewSelectionRepository(db).(*selectionRepository)
}

func sampleRun(created time.Time, seed int64) *run.SelectionRun {
	outliers := series.NewTable([]string{"Date", "Close"}, [][]string{{"2020-01-01", "1"}, {"2020-01-02", "50"}}).SelectIndices([]int{1})
	return &run.SelectionRun{
		RunID:        core.NewRunID(),
		Fingerprint:  run.NewRunFingerprint("ds", "cfg", seed, run.CodeVersion),
		DateColumn:   "Date",
		ValueColumn:  "Close",
		Config:       fit.DefaultConfig(),
		BreakCount:   2,
		Observations: 2,
		Breakpoints:  []float64{0, 43200, 86400},
		Coefficients: []float64{1, 2, 3},
		Candidates:   []fit.Candidate{{Breaks: 2, Breakpoints: []float64{0, 43200, 86400}, RSS: 1.5, BIC: -2}},
		Regularized:  fit.Regularized{Coefficients: []float64{1, 1.5, 2}, Alpha: 0.1, L1Ratio: 0.5},
		Residual:     fit.Summary{Mean: 0.1, Std: 2},
		OutlierRows:  []int{1},
		Outliers:     outliers,
		CreatedAt:    core.NewTimestamp(created),
	}
}

func TestSelectionRepository_RoundTrip(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	want := sampleRun(created, 42)
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.GetByID(ctx, want.RunID)
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)
	assert.Equal(t, want.Config, got.Config)
	assert.Equal(t, want.Breakpoints, got.Breakpoints)
	assert.Equal(t, want.Candidates, got.Candidates)
	assert.Equal(t, want.Regularized, got.Regularized)
	assert.Equal(t, want.Residual, got.Residual)
	assert.Equal(t, want.OutlierRows, got.OutlierRows)
	assert.Equal(t, want.Outliers.Rows, got.Outliers.Rows)
	assert.True(t, created.Equal(got.CreatedAt.Time()))
}

func TestSelectionRepository_NotFound(t *testing.T) {
	repo := openTestDB(t)
	_, err := repo.GetByID(context.Background(), core.NewRunID())
	assert.True(t, core.IsNotFoundError(err))
	_, err = repo.FindByFingerprint(context.Background(), "missing")
	assert.True(t, core.IsNotFoundError(err))
}

func TestSelectionRepository_ListAndFind(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	older := sampleRun(base, 1)
	newer := sampleRun(base.Add(time.Hour), 2)
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	runs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.RunID, runs[0].RunID)

	runs, err = repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	found, err := repo.FindByFingerprint(ctx, older.Fingerprint.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, older.RunID, found.RunID)
}

func TestSelectionRepository_RejectsInvalid(t *testing.T) {
	repo := openTestDB(t)
	bad := sampleRun(time.Now(), 1)
	bad.Breakpoints = nil
	assert.Error(t, repo.Save(context.Background(), bad))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	assert.Error(t, err)
}
