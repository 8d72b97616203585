package testkit

import (
	"context"
	"sort"
	"sync"

	"breakfit/domain/core"
	"breakfit/domain/run"
)

// InMemorySelectionRepository implements ports.SelectionRepository with
// in-memory storage
type InMemorySelectionRepository struct {
	runs  map[core.RunID]*run.SelectionRun
	order []core.RunID
	mu    sync.RWMutex
}

func NewInMemorySelectionRepository() *InMemorySelectionRepository {
	return &InMemorySelectionRepository{
		runs: make(map[core.RunID]*run.SelectionRun),
	}
}

func (s *InMemorySelectionRepository) Save(ctx context.Context, r *run.SelectionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.RunID]; !exists {
		s.order = append(s.order, r.RunID)
	}
	s.runs[r.RunID] = r
	return nil
}

func (s *InMemorySelectionRepository) GetByID(ctx context.Context, id core.RunID) (*run.SelectionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.runs[id]
	if !exists {
		return nil, core.NewNotFoundError("selection run", id.String())
	}
	return r, nil
}

func (s *InMemorySelectionRepository) ListRecent(ctx context.Context, limit int) ([]*run.SelectionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*run.SelectionRun, 0, len(s.order))
	for _, id := range s.order {
		results = append(results, s.runs[id])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.Time().After(results[j].CreatedAt.Time())
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *InMemorySelectionRepository) FindByFingerprint(ctx context.Context, fingerprint core.Hash) (*run.SelectionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		if r := s.runs[s.order[i]]; r.Fingerprint.Fingerprint == fingerprint {
			return r, nil
		}
	}
	return nil, core.NewNotFoundError("selection run", fingerprint.Short())
}
