package streak

import (
	"time"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
)

// DaysBetween returns the whole days elapsed from from to to, never negative.
func DaysBetween(from, to time.Time) int {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int(d / constants.Day)
}

// Recompute derives the current streak at now and raises the longest streak to match.
// It does not modify its argument.
func Recompute(record models.StreakRecord, now time.Time) models.StreakRecord {
	days := DaysBetween(record.QuitDate, now)
	record.CurrentStreak = days
	record.LongestStreak = max(record.LongestStreak, days)
	record.LastCheckDate = now
	return record
}

// NextMilestone returns the first threshold above current and the days left to reach it.
// ok is false once every threshold has been passed.
func NextMilestone(current int, thresholds []int) (threshold, remaining int, ok bool) {
	for _, t := range thresholds {
		if t > current {
			return t, t - current, true
		}
	}
	return 0, 0, false
}
