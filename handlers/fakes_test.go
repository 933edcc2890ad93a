package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/mirokatsu/osu-streak-tracker/models"
	"github.com/mirokatsu/osu-streak-tracker/repositories"
)

// fakeRepo is a minimal in-memory PlayerRepository for handler tests.
type fakeRepo struct {
	mu      sync.Mutex
	records map[int]models.PlayerRecord
	listErr error
}

func newFakeRepo(records ...models.PlayerRecord) *fakeRepo {
	r := &fakeRepo{records: make(map[int]models.PlayerRecord)}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

func (r *fakeRepo) GetByID(_ context.Context, id int) (*models.PlayerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return &rec, nil
}

func (r *fakeRepo) ListIDs(_ context.Context) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeRepo) GetAllJoined(_ context.Context) ([]models.PlayerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	records := make([]models.PlayerRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}
	return records, nil
}

func (r *fakeRepo) UpsertRecord(_ context.Context, rec *models.PlayerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = *rec
	return nil
}

func (r *fakeRepo) ConfirmPlayedToday(_ context.Context, id int, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	rec.HasPlayedToday = true
	rec.LastUpdate = now
	r.records[id] = rec
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.records, id)
	return nil
}

// fakeAdder accepts every name without touching any backend.
type fakeAdder struct {
	mu    sync.Mutex
	added []string
}

func (a *fakeAdder) TrackPlayer(_ context.Context, identifier string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.added = append(a.added, identifier)
	return nil
}
