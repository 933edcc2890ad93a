package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mirokatsu/osu-streak-tracker/models"
	"github.com/mirokatsu/osu-streak-tracker/repositories"
)

// fakeRepo is an in-memory PlayerRepository for service tests.
type fakeRepo struct {
	mu      sync.Mutex
	records map[int]models.PlayerRecord
	listErr error
	upserts int
}

func newFakeRepo(records ...models.PlayerRecord) *fakeRepo {
	repo := &fakeRepo{records: make(map[int]models.PlayerRecord)}
	for _, rec := range records {
		repo.records[rec.ID] = rec
	}
	return repo
}

func (f *fakeRepo) GetByID(_ context.Context, id int) (*models.PlayerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return &rec, nil
}

func (f *fakeRepo) ListIDs(_ context.Context) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]int, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (f *fakeRepo) GetAllJoined(_ context.Context) ([]models.PlayerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	records := make([]models.PlayerRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, f.records[id])
	}
	return records, nil
}

func (f *fakeRepo) UpsertRecord(_ context.Context, rec *models.PlayerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = *rec
	f.upserts++
	return nil
}

func (f *fakeRepo) ConfirmPlayedToday(_ context.Context, id int, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	rec.HasPlayedToday = true
	rec.LastUpdate = now
	f.records[id] = rec
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRepo) snapshot() map[int]models.PlayerRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]models.PlayerRecord, len(f.records))
	for id, rec := range f.records {
		out[id] = rec
	}
	return out
}

// fakeStats serves canned snapshots keyed by identifier.
type fakeStats struct {
	snapshots map[string]models.StatsSnapshot
	errs      map[string]error
}

func (f *fakeStats) GetUser(_ context.Context, identifier string) (*models.StatsSnapshot, error) {
	if err, ok := f.errs[identifier]; ok {
		return nil, err
	}
	snap, ok := f.snapshots[identifier]
	if !ok {
		return nil, errFakeNotFound
	}
	return &snap, nil
}

// fakeScraper returns a fixed leaderboard.
type fakeScraper struct {
	players []models.ScrapedPlayer
}

func (f *fakeScraper) PlayersWhoPlayedToday(_ context.Context, _ time.Time) []models.ScrapedPlayer {
	return f.players
}
