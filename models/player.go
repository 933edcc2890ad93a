package models

import "time"

// PlayerRecord is the stored state for one tracked player, joined from the
// players and streak_tracker tables.
type PlayerRecord struct {
	ID                  int       `json:"osu_id"`
	Name                string    `json:"name"`
	RankStandard        int       `json:"rank_standard"`
	TotalParticipation  int       `json:"total_participation"`
	CurrentStreak       int       `json:"current_streak"`
	BestDailyStreak     int       `json:"best_daily_streak"`
	PreviousDailyStreak int       `json:"previous_daily_streak"`
	HasPlayedToday      bool      `json:"has_played_today"`
	FullStreaker        bool      `json:"full_streaker"`
	IsStreaking         bool      `json:"is_streaking"`
	LastUpdate          time.Time `json:"last_update"`
}

// StatsSnapshot is one upstream poll's worth of a player's stats, taken as a
// point-in-time fact. LastActivity is nil when the player has never played
// the daily challenge.
type StatsSnapshot struct {
	ID                 int
	Username           string
	GlobalRank         int
	Playcount          int
	DailyStreakCurrent int
	DailyStreakBest    int
	LastActivity       *time.Time
}

// ScrapedPlayer is one row of today's public daily-challenge leaderboard.
type ScrapedPlayer struct {
	ID   int
	Name string
}

// DailyStreaker is a presentation row: the stored record plus the tier-change
// signal computed fresh on every read.
type DailyStreaker struct {
	PlayerRecord
	TierChange int `json:"tier_change"`
}

// QueueStatus reports the add-tracked-players queue.
type QueueStatus struct {
	Queue      []string `json:"queue"`
	Processing bool     `json:"processing"`
}
