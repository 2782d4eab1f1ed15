package models

import "time"

// StreakRecord is the single persisted record of a user's abstinence streak.
// CurrentStreak and LastCheckDate are derived on every read; the remaining fields
// only change through initialization and the recovery operations.
type StreakRecord struct {
	ID              string    `json:"id"`
	QuitDate        time.Time `json:"quit_date"`  // anchor elapsed days are measured from
	StartDate       time.Time `json:"start_date"` // first-ever anchor, never mutated
	CurrentStreak   int       `json:"current_streak"`
	LongestStreak   int       `json:"longest_streak"`
	TotalRelapses   int       `json:"total_relapses"`
	GracePeriodUsed bool      `json:"grace_period_used"`
	LastCheckDate   time.Time `json:"last_check_date"`
}

// GracePeriodAvailable reports whether the one-time forgiveness can still be used.
func (r StreakRecord) GracePeriodAvailable() bool {
	return !r.GracePeriodUsed
}
