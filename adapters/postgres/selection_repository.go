package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"breakfit/domain/core"
	"breakfit/domain/fit"
	"breakfit/domain/run"
	"breakfit/domain/series"
	"breakfit/ports"
)

// selectionRepository implements the SelectionRepository interface
type selectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository creates a new selection run repository
func NewSelectionRepository(db *sqlx.DB) ports.SelectionRepository {
	return &selectionRepository{db: db}
}

// selectionRunRow is the column layout of selection_runs
type selectionRunRow struct {
	ID              string    `db:"id"`
	Fingerprint     string    `db:"fingerprint"`
	DatasetHash     string    `db:"dataset_hash"`
	ConfigHash      string    `db:"config_hash"`
	Seed            int64     `db:"seed"`
	CodeVersion     string    `db:"code_version"`
	DateColumn      string    `db:"date_column"`
	ValueColumn     string    `db:"value_column"`
	Config          string    `db:"config"`
	BreakCount      int       `db:"break_count"`
	Observations    int       `db:"observations"`
	Dropped         int       `db:"dropped"`
	Breakpoints     string    `db:"breakpoints"`
	Coefficients    string    `db:"coefficients"`
	Candidates      string    `db:"candidates"`
	Regularized     string    `db:"regularized"`
	ResidualSummary string    `db:"residual_summary"`
	OutlierRows     string    `db:"outlier_rows"`
	Outliers        string    `db:"outliers"`
	CreatedAt       time.Time `db:"created_at"`
}

const selectColumns = `id, fingerprint, dataset_hash, config_hash, seed, code_version,
	date_column, value_column, config, break_count, observations, dropped,
	breakpoints, coefficients, candidates, regularized, residual_summary,
	outlier_rows, outliers, created_at`

// Save inserts a selection run
func (r *selectionRepository) Save(ctx context.Context, sr *run.SelectionRun) error {
	if err := sr.Validate(); err != nil {
		return err
	}
	row, err := toRow(sr)
	if err != nil {
		return err
	}

	query := `INSERT INTO selection_runs (
		id, fingerprint, dataset_hash, config_hash, seed, code_version,
		date_column, value_column, config, break_count, observations, dropped,
		breakpoints, coefficients, candidates, regularized, residual_summary,
		outlier_rows, outliers, created_at
	) VALUES (
		:id, :fingerprint, :dataset_hash, :config_hash, :seed, :code_version,
		:date_column, :value_column, :config, :break_count, :observations, :dropped,
		:breakpoints, :coefficients, :candidates, :regularized, :residual_summary,
		:outlier_rows, :outliers, :created_at
	)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save selection run: %w", err)
	}
	return nil
}

// GetByID retrieves a selection run by its ID
func (r *selectionRepository) GetByID(ctx context.Context, id core.RunID) (*run.SelectionRun, error) {
	var row selectionRunRow
	query := r.db.Rebind(`SELECT ` + selectColumns + ` FROM selection_runs WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("selection run", id.String())
		}
		return nil, fmt.Errorf("failed to get selection run: %w", err)
	}
	return fromRow(row)
}

// ListRecent returns the newest runs first
func (r *selectionRepository) ListRecent(ctx context.Context, limit int) ([]*run.SelectionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []selectionRunRow
	query := r.db.Rebind(`SELECT ` + selectColumns + ` FROM selection_runs ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query selection runs: %w", err)
	}
	out := make([]*run.SelectionRun, 0, len(rows))
	for _, row := range rows {
		sr, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, nil
}

// FindByFingerprint returns the newest run with the given fingerprint
func (r *selectionRepository) FindByFingerprint(ctx context.Context, fingerprint core.Hash) (*run.SelectionRun, error) {
	var row selectionRunRow
	query := r.db.Rebind(`SELECT ` + selectColumns + ` FROM selection_runs WHERE fingerprint = ? ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err := r.db.GetContext(ctx, &row, query, fingerprint.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("selection run", fingerprint.Short())
		}
		return nil, fmt.Errorf("failed to find selection run: %w", err)
	}
	return fromRow(row)
}

func toRow(sr *run.SelectionRun) (selectionRunRow, error) {
	row := selectionRunRow{
		ID:           sr.RunID.String(),
		Fingerprint:  sr.Fingerprint.Fingerprint.String(),
		DatasetHash:  sr.Fingerprint.DatasetHash.String(),
		ConfigHash:   sr.Fingerprint.ConfigHash.String(),
		Seed:         sr.Fingerprint.Seed,
		CodeVersion:  sr.Fingerprint.CodeVersion,
		DateColumn:   sr.DateColumn,
		ValueColumn:  sr.ValueColumn,
		BreakCount:   sr.BreakCount,
		Observations: sr.Observations,
		Dropped:      sr.Dropped,
		CreatedAt:    sr.CreatedAt.Time().UTC(),
	}
	fields := []struct {
		dst *string
		src interface{}
		tag string
	}{
		{&row.Config, sr.Config, "config"},
		{&row.Breakpoints, nonNil(sr.Breakpoints), "breakpoints"},
		{&row.Coefficients, nonNil(sr.Coefficients), "coefficients"},
		{&row.Candidates, sr.Candidates, "candidates"},
		{&row.Regularized, sr.Regularized, "regularized"},
		{&row.ResidualSummary, sr.Residual, "residual summary"},
		{&row.OutlierRows, sr.OutlierRows, "outlier rows"},
		{&row.Outliers, sr.Outliers, "outliers"},
	}
	for _, f := range fields {
		data, err := json.Marshal(f.src)
		if err != nil {
			return row, fmt.Errorf("failed to marshal %s: %w", f.tag, err)
		}
		*f.dst = string(data)
	}
	return row, nil
}

func fromRow(row selectionRunRow) (*run.SelectionRun, error) {
	sr := &run.SelectionRun{
		RunID:        core.RunID(row.ID),
		Fingerprint:  run.RunFingerprint{DatasetHash: core.DatasetHash(row.DatasetHash), ConfigHash: core.Hash(row.ConfigHash), Seed: row.Seed, CodeVersion: row.CodeVersion, Fingerprint: core.Hash(row.Fingerprint)},
		DateColumn:   row.DateColumn,
		ValueColumn:  row.ValueColumn,
		BreakCount:   row.BreakCount,
		Observations: row.Observations,
		Dropped:      row.Dropped,
		CreatedAt:    core.NewTimestamp(row.CreatedAt.UTC()),
	}
	var (
		cfg      fit.Config
		outliers series.Table
	)
	fields := []struct {
		src string
		dst interface{}
		tag string
	}{
		{row.Config, &cfg, "config"},
		{row.Breakpoints, &sr.Breakpoints, "breakpoints"},
		{row.Coefficients, &sr.Coefficients, "coefficients"},
		{row.Candidates, &sr.Candidates, "candidates"},
		{row.Regularized, &sr.Regularized, "regularized"},
		{row.ResidualSummary, &sr.Residual, "residual summary"},
		{row.OutlierRows, &sr.OutlierRows, "outlier rows"},
		{row.Outliers, &outliers, "outliers"},
	}
	for _, f := range fields {
		if f.src == "" || f.src == "null" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", f.tag, err)
		}
	}
	sr.Config = cfg
	sr.Outliers = &outliers
	return sr, nil
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
