package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/mirokatsu/osu-streak-tracker/models"
	"github.com/mirokatsu/osu-streak-tracker/repositories"
)

// PlayerAdder is the piece of the update service the tracker worker needs.
type PlayerAdder interface {
	TrackPlayer(ctx context.Context, identifier string) error
}

// RemoveResult reports one id of a removal request.
type RemoveResult struct {
	ID      int    `json:"osu_id"`
	Removed bool   `json:"removed"`
	Error   string `json:"error,omitempty"`
}

// TrackerService is the mutable registry of tracked players. Additions are
// queued and drained by a single worker, since each one costs an upstream
// lookup; removals are synchronous. Queue state is guarded by one mutex
// shared with the worker loop.
type TrackerService struct {
	adder  PlayerAdder
	repo   repositories.PlayerRepository
	logger *slog.Logger

	mu         sync.Mutex
	queue      []string
	processing bool
	wake       chan struct{}
}

func NewTrackerService(adder PlayerAdder, repo repositories.PlayerRepository, logger *slog.Logger) *TrackerService {
	return &TrackerService{
		adder:  adder,
		repo:   repo,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// QueueAdd enqueues player names for the drain worker, skipping names that
// are already waiting. It returns the number actually enqueued; callers get
// "accepted", not "completed".
func (t *TrackerService) QueueAdd(names []string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	queued := 0
	for _, name := range names {
		if name == "" || t.isQueuedLocked(name) {
			continue
		}
		t.queue = append(t.queue, name)
		queued++
	}

	if queued > 0 {
		select {
		case t.wake <- struct{}{}:
		default: // worker already has a pending wakeup
		}
	}
	return queued
}

func (t *TrackerService) isQueuedLocked(name string) bool {
	for _, queued := range t.queue {
		if queued == name {
			return true
		}
	}
	return false
}

// Status returns a copy of the pending queue and the busy flag.
func (t *TrackerService) Status() models.QueueStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.QueueStatus{
		Queue:      append([]string(nil), t.queue...),
		Processing: t.processing,
	}
}

// Run is the drain worker loop. It sleeps until woken by QueueAdd and exits
// when ctx is canceled.
func (t *TrackerService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.wake:
			t.drain(ctx)
		}
	}
}

func (t *TrackerService) drain(ctx context.Context) {
	t.mu.Lock()
	t.processing = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.processing = false
		t.mu.Unlock()
	}()

	for {
		t.mu.Lock()
		if len(t.queue) == 0 {
			t.mu.Unlock()
			return
		}
		name := t.queue[0]
		t.mu.Unlock()

		t.logger.Info("adding tracked player", slog.String("name", name))
		if err := t.adder.TrackPlayer(ctx, name); err != nil {
			t.logger.Error("failed to add tracked player",
				slog.String("name", name), slog.Any("error", err))
		}

		// Pop after processing so Status keeps showing the name while it
		// is being looked up.
		t.mu.Lock()
		t.queue = t.queue[1:]
		t.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
	}
}

// Remove untracks players by id, synchronously, reporting per-id outcome.
func (t *TrackerService) Remove(ctx context.Context, ids []int) []RemoveResult {
	results := make([]RemoveResult, 0, len(ids))
	for _, id := range ids {
		res := RemoveResult{ID: id, Removed: true}
		if err := t.repo.Delete(ctx, id); err != nil {
			res.Removed = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// SeedFromFile enqueues the names listed in a JSON file. The file must hold
// an array; strings and numbers are accepted (ids work as identifiers too).
// Any other shape aborts the whole seeding with ErrMalformedTrackedList and
// no partial effect.
func (t *TrackerService) SeedFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tracked player list: %w", err)
	}

	var entries []any
	if err := json.Unmarshal(data, &entries); err != nil {
		return ErrMalformedTrackedList
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			names = append(names, v)
		case float64:
			names = append(names, strconv.Itoa(int(v)))
		default:
			return ErrMalformedTrackedList
		}
	}

	queued := t.QueueAdd(names)
	t.logger.Info("seeded tracked players from file",
		slog.String("path", path), slog.Int("queued", queued))
	return nil
}
