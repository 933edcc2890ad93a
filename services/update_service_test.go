package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mirokatsu/osu-streak-tracker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errFakeNotFound    = errors.New("fake: user not found")
	errFakeUnavailable = errors.New("fake: upstream unavailable")
)

var updateNow = time.Date(2024, 9, 23, 18, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUpdateService(repo *fakeRepo, stats *fakeStats, scraper *fakeScraper) *UpdateService {
	streakers := NewStreakerService(repo)
	streakers.now = func() time.Time { return updateNow }
	svc := NewUpdateService(repo, stats, scraper, streakers, nil, discardLogger())
	svc.now = func() time.Time { return updateNow }
	return svc
}

func TestRunReconcilePassSkipsFailingPlayers(t *testing.T) {
	prior := models.PlayerRecord{
		ID:            1,
		Name:          "steady",
		CurrentStreak: 4,
		LastUpdate:    updateNow.Add(-30 * time.Minute),
	}
	broken := models.PlayerRecord{
		ID:            2,
		Name:          "flaky",
		CurrentStreak: 9,
		LastUpdate:    updateNow.Add(-30 * time.Minute),
	}
	repo := newFakeRepo(prior, broken)

	stats := &fakeStats{
		snapshots: map[string]models.StatsSnapshot{
			"1": {ID: 1, Username: "steady", DailyStreakCurrent: 5},
		},
		errs: map[string]error{
			"2": errFakeUnavailable,
		},
	}

	svc := newTestUpdateService(repo, stats, &fakeScraper{})
	err := svc.RunReconcilePass(context.Background())
	require.NoError(t, err, "a single player's failure must not abort the batch")

	records := repo.snapshot()
	assert.Equal(t, 5, records[1].CurrentStreak)
	assert.Equal(t, 4, records[1].PreviousDailyStreak, "streak change remembers the prior value")
	// The failing player's record is untouched, no partial write.
	assert.Equal(t, broken, records[2])
}

func TestRunReconcilePassAbortsWhenListingFails(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("connection refused")

	svc := newTestUpdateService(repo, &fakeStats{}, &fakeScraper{})
	err := svc.RunReconcilePass(context.Background())
	assert.Error(t, err)
}

func TestTrackPlayerInsertsNewAndSkipsTracked(t *testing.T) {
	repo := newFakeRepo()
	stats := &fakeStats{
		snapshots: map[string]models.StatsSnapshot{
			"Cookiezi": {ID: 124493, Username: "Cookiezi", DailyStreakCurrent: 3},
		},
	}

	svc := newTestUpdateService(repo, stats, &fakeScraper{})

	require.NoError(t, svc.TrackPlayer(context.Background(), "Cookiezi"))
	assert.Equal(t, 1, repo.upserts)

	rec := repo.snapshot()[124493]
	assert.Equal(t, "Cookiezi", rec.Name)
	assert.Equal(t, 3, rec.PreviousDailyStreak, "first tracking has no history")

	// Tracking again is a no-op, not a rewrite.
	require.NoError(t, svc.TrackPlayer(context.Background(), "Cookiezi"))
	assert.Equal(t, 1, repo.upserts)
}

func TestTrackPlayerPropagatesLookupFailure(t *testing.T) {
	repo := newFakeRepo()
	stats := &fakeStats{errs: map[string]error{"ghost": errFakeNotFound}}

	svc := newTestUpdateService(repo, stats, &fakeScraper{})
	err := svc.TrackPlayer(context.Background(), "ghost")
	assert.ErrorIs(t, err, errFakeNotFound)
}

func TestRunScrapePassConfirmsOnlyTrackedPlayers(t *testing.T) {
	tracked := models.PlayerRecord{
		ID:            1,
		Name:          "tracked",
		CurrentStreak: 7,
		FullStreaker:  true,
		LastUpdate:    updateNow.Add(-2 * time.Hour),
	}
	repo := newFakeRepo(tracked)

	scraper := &fakeScraper{players: []models.ScrapedPlayer{
		{ID: 1, Name: "tracked"},
		{ID: 999, Name: "stranger"}, // untracked ids are tolerated silently
	}}

	svc := newTestUpdateService(repo, &fakeStats{}, scraper)
	require.NoError(t, svc.RunScrapePass(context.Background()))

	rec := repo.snapshot()[1]
	assert.True(t, rec.HasPlayedToday)
	assert.Equal(t, updateNow, rec.LastUpdate)
	// The scrape carries no streak data; everything else stays put.
	assert.Equal(t, 7, rec.CurrentStreak)
	assert.True(t, rec.FullStreaker)

	_, exists := repo.snapshot()[999]
	assert.False(t, exists, "scrape confirmation never creates records")
}

func TestRunScrapePassIsIdempotent(t *testing.T) {
	repo := newFakeRepo(models.PlayerRecord{ID: 1, Name: "tracked", CurrentStreak: 2})
	scraper := &fakeScraper{players: []models.ScrapedPlayer{{ID: 1, Name: "tracked"}}}

	svc := newTestUpdateService(repo, &fakeStats{}, scraper)

	require.NoError(t, svc.RunScrapePass(context.Background()))
	after := repo.snapshot()

	require.NoError(t, svc.RunScrapePass(context.Background()))
	assert.Equal(t, after, repo.snapshot(), "confirming twice in a cycle equals confirming once")
}

func TestRunReconcilePassPublishesSnapshot(t *testing.T) {
	repo := newFakeRepo(models.PlayerRecord{ID: 1, Name: "solo", CurrentStreak: 3})
	stats := &fakeStats{snapshots: map[string]models.StatsSnapshot{
		"1": {ID: 1, Username: "solo", DailyStreakCurrent: 3},
	}}

	publisher := &capturePublisher{}
	streakers := NewStreakerService(repo)
	streakers.now = func() time.Time { return updateNow }
	svc := NewUpdateService(repo, stats, &fakeScraper{}, streakers, publisher, discardLogger())
	svc.now = func() time.Time { return updateNow }

	require.NoError(t, svc.RunReconcilePass(context.Background()))
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "solo", publisher.published[0][0].Name)
}

type capturePublisher struct {
	published [][]models.DailyStreaker
}

func (c *capturePublisher) PublishDailyStreakers(_ context.Context, rows []models.DailyStreaker) error {
	c.published = append(c.published, rows)
	return nil
}
