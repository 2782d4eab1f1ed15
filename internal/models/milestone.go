package models

import (
	"sort"
	"time"

	"github.com/julianstephens/abstain/internal/constants"
)

// Milestone is an achievement awarded the first time the streak reaches a threshold.
type Milestone struct {
	Type       constants.MilestoneType `json:"type"`
	Value      int                     `json:"value"` // threshold in days
	AchievedAt time.Time               `json:"achieved_at"`
}

// MilestoneLedger is the append-only set of awarded milestones, kept in ascending
// threshold order. A threshold appears at most once.
type MilestoneLedger struct {
	Milestones []Milestone `json:"milestones"`
}

// Has reports whether the threshold has already been awarded.
func (l MilestoneLedger) Has(value int) bool {
	i := sort.Search(len(l.Milestones), func(i int) bool {
		return l.Milestones[i].Value >= value
	})
	return i < len(l.Milestones) && l.Milestones[i].Value == value
}

// Add records a milestone. It returns false and leaves the ledger untouched when the
// threshold is already present.
func (l *MilestoneLedger) Add(m Milestone) bool {
	i := sort.Search(len(l.Milestones), func(i int) bool {
		return l.Milestones[i].Value >= m.Value
	})
	if i < len(l.Milestones) && l.Milestones[i].Value == m.Value {
		return false
	}
	l.Milestones = append(l.Milestones, Milestone{})
	copy(l.Milestones[i+1:], l.Milestones[i:])
	l.Milestones[i] = m
	return true
}

// Values returns the awarded thresholds in ascending order.
func (l MilestoneLedger) Values() []int {
	values := make([]int, 0, len(l.Milestones))
	for _, m := range l.Milestones {
		values = append(values, m.Value)
	}
	return values
}

// Len returns the number of awarded milestones.
func (l MilestoneLedger) Len() int {
	return len(l.Milestones)
}
