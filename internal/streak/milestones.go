package streak

import (
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
)

// DefaultThresholds returns a copy of the built-in milestone list.
func DefaultThresholds() []int {
	return slices.Clone(constants.DefaultMilestones)
}

// ValidateThresholds checks that a threshold list is non-empty, positive and strictly ascending.
func ValidateThresholds(thresholds []int) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("milestone thresholds cannot be empty")
	}
	for i, t := range thresholds {
		if t <= 0 {
			return fmt.Errorf("milestone threshold must be positive, got %d", t)
		}
		if i > 0 && t <= thresholds[i-1] {
			return fmt.Errorf("milestone thresholds must be strictly ascending: %d follows %d", t, thresholds[i-1])
		}
	}
	return nil
}

// DetectNew returns, in ascending order, every threshold reached by current that the
// ledger does not hold yet. thresholds must be ascending. The ledger is not modified.
func DetectNew(current int, ledger models.MilestoneLedger, thresholds []int, now time.Time) []models.Milestone {
	var achieved []models.Milestone
	for _, t := range thresholds {
		if t > current {
			break
		}
		if ledger.Has(t) {
			continue
		}
		achieved = append(achieved, models.Milestone{
			Type:       constants.MilestoneTypeStreak,
			Value:      t,
			AchievedAt: now,
		})
	}
	return achieved
}
