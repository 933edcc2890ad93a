package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mirokatsu/osu-streak-tracker/models"
	"github.com/mirokatsu/osu-streak-tracker/repositories"
	"github.com/mirokatsu/osu-streak-tracker/streak"
)

// Supported sort keys for the presentation read path.
const (
	SortByName    = "name"
	SortByRank    = "rank"
	SortByCurrent = "current"
	SortByBest    = "best"
	SortByPlayed  = "played"
)

// StreakerService is the presentation read path: the stored records joined
// with their freshly computed tier-change signal.
type StreakerService struct {
	repo repositories.PlayerRepository
	now  func() time.Time
}

func NewStreakerService(repo repositories.PlayerRepository) *StreakerService {
	return &StreakerService{repo: repo, now: time.Now}
}

// ListDailyStreakers returns every tracked player's record with its
// tier-change value, ordered by sortKey. Unknown sort keys fall back to the
// name ordering.
func (s *StreakerService) ListDailyStreakers(ctx context.Context, sortKey string) ([]models.DailyStreaker, error) {
	records, err := s.repo.GetAllJoined(ctx)
	if err != nil {
		return nil, err
	}

	daysElapsed := streak.DaysSinceEpoch(s.now())

	rows := make([]models.DailyStreaker, 0, len(records))
	for _, rec := range records {
		rows = append(rows, models.DailyStreaker{
			PlayerRecord: rec,
			TierChange:   streak.ClassifyTierChange(rec, daysElapsed),
		})
	}

	sortStreakers(rows, sortKey)
	return rows, nil
}

// sortStreakers orders rows in place. Numeric keys break ties by
// case-insensitive name ascending.
func sortStreakers(rows []models.DailyStreaker, sortKey string) {
	nameLess := func(a, b models.DailyStreaker) bool {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch sortKey {
		case SortByRank:
			// Unranked players (rank zero) sort last.
			if a.RankStandard != b.RankStandard {
				if a.RankStandard == 0 {
					return false
				}
				if b.RankStandard == 0 {
					return true
				}
				return a.RankStandard < b.RankStandard
			}
		case SortByCurrent:
			if a.CurrentStreak != b.CurrentStreak {
				return a.CurrentStreak > b.CurrentStreak
			}
		case SortByBest:
			if a.BestDailyStreak != b.BestDailyStreak {
				return a.BestDailyStreak > b.BestDailyStreak
			}
		case SortByPlayed:
			if a.HasPlayedToday != b.HasPlayedToday {
				return a.HasPlayedToday
			}
		}
		return nameLess(a, b)
	})
}
