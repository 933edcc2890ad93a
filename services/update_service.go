package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mirokatsu/osu-streak-tracker/models"
	"github.com/mirokatsu/osu-streak-tracker/repositories"
	"github.com/mirokatsu/osu-streak-tracker/streak"
)

// StatsSource is the authoritative per-player stats API.
type StatsSource interface {
	GetUser(ctx context.Context, identifier string) (*models.StatsSnapshot, error)
}

// LeaderboardScraper yields today's daily-challenge leaderboard, best effort.
type LeaderboardScraper interface {
	PlayersWhoPlayedToday(ctx context.Context, now time.Time) []models.ScrapedPlayer
}

// SnapshotPublisher exports the presentation view after a reconcile pass.
type SnapshotPublisher interface {
	PublishDailyStreakers(ctx context.Context, rows []models.DailyStreaker) error
}

// UpdateService runs the two recurring passes over the tracked-player set.
// The passes share one mutex: the record store has a single writer role, so a
// reconcile pass and a scrape pass never interleave.
type UpdateService struct {
	repo      repositories.PlayerRepository
	stats     StatsSource
	scraper   LeaderboardScraper
	streakers *StreakerService
	publisher SnapshotPublisher // nil disables publishing
	logger    *slog.Logger

	passMu sync.Mutex
	now    func() time.Time
}

func NewUpdateService(
	repo repositories.PlayerRepository,
	stats StatsSource,
	scraper LeaderboardScraper,
	streakers *StreakerService,
	publisher SnapshotPublisher,
	logger *slog.Logger,
) *UpdateService {
	return &UpdateService{
		repo:      repo,
		stats:     stats,
		scraper:   scraper,
		streakers: streakers,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// RunReconcilePass polls the stats API for every tracked player and writes
// the reconciled record. Players are processed one at a time; a failing
// player is logged and skipped, never aborting the batch. Only a failure to
// list the tracked set aborts the whole cycle.
func (s *UpdateService) RunReconcilePass(ctx context.Context) error {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked players: %w", err)
	}

	s.logger.Info("reconcile pass started", slog.Int("players", len(ids)))

	for _, id := range ids {
		if err := s.reconcilePlayer(ctx, strconv.Itoa(id)); err != nil {
			s.logger.Error("skipping player this cycle",
				slog.Int("osu_id", id), slog.Any("error", err))
		}
	}

	s.publishSnapshot(ctx)
	return nil
}

// reconcilePlayer fetches one snapshot and persists the reconciled record.
// Nothing is written when the upstream call fails.
func (s *UpdateService) reconcilePlayer(ctx context.Context, identifier string) error {
	snap, err := s.stats.GetUser(ctx, identifier)
	if err != nil {
		return err
	}

	prior, err := s.repo.GetByID(ctx, snap.ID)
	if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
		return err
	}

	rec := streak.Reconcile(prior, *snap, s.now())
	if err := s.repo.UpsertRecord(ctx, &rec); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// TrackPlayer starts tracking one player by name or id. Already-tracked
// players are left untouched; the half-hourly pass keeps them fresh.
func (s *UpdateService) TrackPlayer(ctx context.Context, identifier string) error {
	snap, err := s.stats.GetUser(ctx, identifier)
	if err != nil {
		return err
	}

	_, err = s.repo.GetByID(ctx, snap.ID)
	if err == nil {
		return nil // already tracked
	}
	if !errors.Is(err, repositories.ErrPlayerNotFound) {
		return err
	}

	rec := streak.Reconcile(nil, *snap, s.now())
	if err := s.repo.UpsertRecord(ctx, &rec); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}

	s.logger.Info("now tracking player",
		slog.Int("osu_id", rec.ID), slog.String("name", rec.Name))
	return nil
}

// RunScrapePass confirms played-today for everyone on the public leaderboard.
// Streak counts and tier flags are not touched: the scrape has no streak
// data, only presence evidence. Unknown ids are skipped silently.
func (s *UpdateService) RunScrapePass(ctx context.Context) error {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	now := s.now()
	players := s.scraper.PlayersWhoPlayedToday(ctx, now)

	confirmed := 0
	for _, p := range players {
		err := s.repo.ConfirmPlayedToday(ctx, p.ID, now)
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, repositories.ErrPlayerNotFound):
			// Not a tracked player; the scrape sees the whole public
			// leaderboard.
		default:
			s.logger.Error("failed to confirm played-today",
				slog.Int("osu_id", p.ID), slog.Any("error", err))
		}
	}

	s.logger.Info("scrape pass finished",
		slog.Int("scraped", len(players)), slog.Int("confirmed", confirmed))
	return nil
}

func (s *UpdateService) publishSnapshot(ctx context.Context) {
	if s.publisher == nil {
		return
	}

	rows, err := s.streakers.ListDailyStreakers(ctx, SortByName)
	if err != nil {
		s.logger.Error("failed to build snapshot for publishing", slog.Any("error", err))
		return
	}
	if err := s.publisher.PublishDailyStreakers(ctx, rows); err != nil {
		s.logger.Error("failed to publish snapshot", slog.Any("error", err))
		return
	}
	s.logger.Info("published daily-streakers snapshot", slog.Int("rows", len(rows)))
}
