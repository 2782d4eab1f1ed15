package validation

import (
	"fmt"
	"time"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingQuitDate     ConflictType = "missing_quit_date"
	ConflictFutureQuitDate      ConflictType = "future_quit_date"
	ConflictStartAfterQuit      ConflictType = "start_after_quit"
	ConflictFutureCheck         ConflictType = "future_last_check"
	ConflictOrphanLedger        ConflictType = "orphan_ledger"
	ConflictFutureMilestone     ConflictType = "future_milestone"
	ConflictMilestoneOutOfRange ConflictType = "milestone_out_of_range"
	ConflictUnknownMilestone    ConflictType = "unknown_milestone_type"
)

// Conflict represents an inconsistency found in stored streak data
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Milestone values or field names involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

// Validator checks stored streak data against the invariants the engine maintains.
// A small clock skew is tolerated so a record written a moment ago by another
// machine is not flagged.
type Validator struct {
	now  time.Time
	skew time.Duration
}

// New creates a Validator that judges "future" relative to now
func New(now time.Time) *Validator {
	return &Validator{now: now, skew: time.Minute}
}

func (v *Validator) inFuture(t time.Time) bool {
	return t.After(v.now.Add(v.skew))
}

// ValidateRecord checks a streak record
func (v *Validator) ValidateRecord(record models.StreakRecord) ValidationResult {
	var result ValidationResult

	if record.QuitDate.IsZero() {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictMissingQuitDate,
			Description: "record has no quit date",
			Items:       []string{"quit_date"},
		})
		return result
	}

	if v.inFuture(record.QuitDate) {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictFutureQuitDate,
			Description: fmt.Sprintf("quit date %s is in the future", formatDate(record.QuitDate)),
			Items:       []string{"quit_date"},
		})
	}

	if record.StartDate.After(record.QuitDate) {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type: ConflictStartAfterQuit,
			Description: fmt.Sprintf("first quit date %s is after the current quit date %s",
				formatDate(record.StartDate), formatDate(record.QuitDate)),
			Items: []string{"start_date", "quit_date"},
		})
	}

	if v.inFuture(record.LastCheckDate) {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictFutureCheck,
			Description: fmt.Sprintf("last check %s is in the future", record.LastCheckDate.Format(time.RFC3339)),
			Items:       []string{"last_check_date"},
		})
	}

	return result
}

// ValidateLedger checks the milestone ledger. hasRecord reports whether a streak
// record exists alongside it.
func (v *Validator) ValidateLedger(ledger models.MilestoneLedger, hasRecord bool, longestStreak int) ValidationResult {
	var result ValidationResult

	if !hasRecord {
		if ledger.Len() > 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictOrphanLedger,
				Description: fmt.Sprintf("found %d milestones without a streak record", ledger.Len()),
			})
		}
		return result
	}

	for _, m := range ledger.Milestones {
		value := fmt.Sprintf("%d", m.Value)
		if m.Type != constants.MilestoneTypeStreak {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownMilestone,
				Description: fmt.Sprintf("milestone %d has unknown type %q", m.Value, m.Type),
				Items:       []string{value},
			})
		}
		if v.inFuture(m.AchievedAt) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictFutureMilestone,
				Description: fmt.Sprintf("milestone %d was achieved in the future (%s)", m.Value, formatDate(m.AchievedAt)),
				Items:       []string{value},
			})
		}
		// A milestone can only be awarded once the streak reached it
		if m.Value > longestStreak {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMilestoneOutOfRange,
				Description: fmt.Sprintf("milestone %d exceeds the longest streak of %d days", m.Value, longestStreak),
				Items:       []string{value},
			})
		}
	}

	return result
}

// formatDate formats a time as YYYY-MM-DD
func formatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}
