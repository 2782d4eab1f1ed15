package streak

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
)

// RecoveryAction is the user's choice in the recovery dialog.
type RecoveryAction = constants.RecoveryAction

// RecoveryActions lists the available recovery actions in display order.
var RecoveryActions = []RecoveryAction{constants.RecoveryHardRestart, constants.RecoveryGracePeriod}

// ParseRecoveryAction accepts a recovery action name, case-insensitively.
func ParseRecoveryAction(s string) (RecoveryAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(constants.RecoveryHardRestart), "restart", "relapse":
		return constants.RecoveryHardRestart, nil
	case string(constants.RecoveryGracePeriod), "grace":
		return constants.RecoveryGracePeriod, nil
	default:
		return "", fmt.Errorf("unknown recovery action %q (expected %s or %s)", s, constants.RecoveryHardRestart, constants.RecoveryGracePeriod)
	}
}

// NewRecord returns the record created by initialization.
func NewRecord(id string, quitDate time.Time) models.StreakRecord {
	return models.StreakRecord{
		ID:            id,
		QuitDate:      quitDate,
		StartDate:     quitDate,
		LastCheckDate: quitDate,
	}
}

// Relapse applies a hard restart: the anchor moves to now, the current streak drops to
// zero and the grace period becomes available again. StartDate and LongestStreak are kept.
func Relapse(record models.StreakRecord, now time.Time) models.StreakRecord {
	record.QuitDate = now
	record.CurrentStreak = 0
	record.TotalRelapses++
	record.GracePeriodUsed = false
	record.LastCheckDate = now
	return record
}

// UseGracePeriod consumes the one-time grace period. The streak itself is unchanged.
func UseGracePeriod(record models.StreakRecord, now time.Time) (models.StreakRecord, error) {
	if record.GracePeriodUsed {
		return record, ErrGracePeriodAlreadyUsed
	}
	record.GracePeriodUsed = true
	record.LastCheckDate = now
	return record, nil
}
