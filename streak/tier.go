package streak

import "github.com/mirokatsu/osu-streak-tracker/models"

// Tier-change signals rendered by the frontend as up/down arrows.
const (
	TierFellOffFull      = -3 // was one day away from full, and it ended
	TierLostMajorStreak  = -2 // lost a streak of thirty days or more
	TierLostCasualStreak = -1 // lost casual-streaker status
	TierNoChange         = 0
	TierBecameCasual     = 1 // just reached a streak of two
)

// ClassifyTierChange derives the tier-change signal for one record. It is
// recomputed on every read, never stored.
//
// The branches are ordered worst case first. The three loss cases all require
// a current streak of zero and partition on previous_daily_streak, and the
// gain case requires a current streak of at least two, so each record matches
// at most one branch; the ordering makes that auditable rather than breaking
// actual ties.
func ClassifyTierChange(rec models.PlayerRecord, daysElapsed int) int {
	switch {
	case rec.CurrentStreak == 0 && rec.PreviousDailyStreak == daysElapsed-1 && !rec.FullStreaker:
		return TierFellOffFull
	case rec.CurrentStreak == 0 && rec.PreviousDailyStreak >= 30:
		return TierLostMajorStreak
	case rec.CurrentStreak == 0 && rec.PreviousDailyStreak >= 2:
		return TierLostCasualStreak
	case rec.PreviousDailyStreak < 2 && rec.IsStreaking:
		return TierBecameCasual
	}
	return TierNoChange
}
