// Package streak holds the reconciliation rules for daily-challenge streak
// tracking: how a stored player record evolves when a fresh upstream stats
// snapshot arrives, and how notable tier transitions are classified for
// presentation. The package is pure; persistence and transport live elsewhere.
package streak

import (
	"time"

	"github.com/mirokatsu/osu-streak-tracker/models"
)

// Epoch is the program inception date (UTC midnight). A player whose current
// streak has kept pace with every day since Epoch is a "full streaker".
var Epoch = time.Date(2024, time.July, 25, 0, 0, 0, 0, time.UTC)

// DaysSinceEpoch returns the number of whole UTC days elapsed since Epoch.
func DaysSinceEpoch(now time.Time) int {
	return int(now.UTC().Sub(Epoch) / (24 * time.Hour))
}

// SameUTCDay reports whether a and b fall on the same UTC calendar date.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// utcMidnight truncates t to its UTC calendar date.
func utcMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Reconcile computes the next stored record for a player given the prior
// stored record (nil for first-time tracking) and a fresh upstream snapshot.
//
// The streak counts themselves are upstream-authoritative and copied through;
// what is derived locally is the previous-streak memory and the tier flags:
//
//   - full_streaker compares the streak against days elapsed since Epoch. A
//     player whose streak equals today's day count but who has not played yet
//     today is still full: the flag looks backward at whether yesterday's
//     chain was completed, with grace until the day rolls over.
//   - previous_daily_streak remembers the streak value immediately before the
//     most recent change, so the presentation layer can show what was lost or
//     gained. It is cleared back to zero once a full day has passed with the
//     player still at zero, so a "just broke their streak" marker does not
//     linger forever.
func Reconcile(prior *models.PlayerRecord, snap models.StatsSnapshot, now time.Time) models.PlayerRecord {
	playedToday := snap.LastActivity != nil && SameUTCDay(*snap.LastActivity, now)
	daysElapsed := DaysSinceEpoch(now)

	rec := models.PlayerRecord{
		ID:                 snap.ID,
		Name:               snap.Username,
		RankStandard:       snap.GlobalRank,
		TotalParticipation: snap.Playcount,
		CurrentStreak:      snap.DailyStreakCurrent,
		BestDailyStreak:    snap.DailyStreakBest,
		HasPlayedToday:     playedToday,
		FullStreaker:       snap.DailyStreakCurrent >= daysElapsed,
		IsStreaking:        snap.DailyStreakCurrent >= 2,
		LastUpdate:         now.UTC(),
	}

	switch {
	case prior == nil:
		// No history yet.
		rec.PreviousDailyStreak = snap.DailyStreakCurrent
	case snap.DailyStreakCurrent == prior.CurrentStreak:
		rec.PreviousDailyStreak = prior.PreviousDailyStreak
		if snap.DailyStreakCurrent == 0 && utcMidnight(prior.LastUpdate).Before(utcMidnight(now)) {
			// First poll of a new calendar day with the player still at
			// zero: the stale break marker is cleared.
			rec.PreviousDailyStreak = 0
		}
	default:
		// The streak moved (up or down to zero); remember what it was
		// right before the change.
		rec.PreviousDailyStreak = prior.CurrentStreak
	}

	return rec
}
