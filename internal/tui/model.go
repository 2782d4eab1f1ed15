package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
	"github.com/julianstephens/abstain/internal/streak"
)

// refreshInterval is how often the dashboard re-reads the streak while open
const refreshInterval = time.Minute

type sessionState int

const (
	stateDashboard sessionState = iota
	stateRecovery
)

type statusMsg struct {
	record models.StreakRecord
	err    error
}

type milestonesMsg struct {
	milestones []models.Milestone
	err        error
}

type recoveredMsg struct {
	action constants.RecoveryAction
	record models.StreakRecord
	err    error
}

type tickMsg time.Time

// LockFunc takes the cross-process lock and returns its release.
type LockFunc func() (func(), error)

type Model struct {
	engine *streak.Engine
	loc    *time.Location
	now    func() time.Time
	lock   LockFunc

	state    sessionState
	keys     KeyMap
	help     help.Model
	progress progress.Model

	record      models.StreakRecord
	initialized bool
	loaded      bool
	celebration []models.Milestone
	message     string
	err         error

	form *huh.Form
	// recoveryChoice is bound to the recovery form; a pointer so copies of Model share it
	recoveryChoice *constants.RecoveryAction
	// submitting is set from form completion until the recovery result arrives
	submitting bool

	quitting bool
	width    int
}

func NewModel(engine *streak.Engine, loc *time.Location, now func() time.Time) Model {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return Model{
		engine:         engine,
		loc:            loc,
		now:            now,
		state:          stateDashboard,
		keys:           DefaultKeyMap(),
		help:           help.New(),
		progress:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		recoveryChoice: new(constants.RecoveryAction),
	}
}

// WithLock makes every engine call run under lock. A nil lock runs them unlocked.
func (m Model) WithLock(lock LockFunc) Model {
	m.lock = lock
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadStatus(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// locked runs fn while holding the lock, so a stale record never overwrites a
// write from another process.
func locked(lock LockFunc, fn func() error) error {
	if lock == nil {
		return fn()
	}
	release, err := lock()
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (m Model) loadStatus() tea.Cmd {
	engine, lock, now := m.engine, m.lock, m.now()
	return func() tea.Msg {
		var record models.StreakRecord
		err := locked(lock, func() (err error) {
			record, err = engine.GetStatus(context.Background(), now)
			return err
		})
		return statusMsg{record: record, err: err}
	}
}

func (m Model) checkMilestones() tea.Cmd {
	engine, lock, now := m.engine, m.lock, m.now()
	return func() tea.Msg {
		var milestones []models.Milestone
		err := locked(lock, func() (err error) {
			milestones, err = engine.CheckMilestones(context.Background(), now)
			return err
		})
		return milestonesMsg{milestones: milestones, err: err}
	}
}

func (m Model) recover(action constants.RecoveryAction) tea.Cmd {
	engine, lock, now := m.engine, m.lock, m.now()
	return func() tea.Msg {
		var record models.StreakRecord
		err := locked(lock, func() (err error) {
			record, err = engine.Recover(context.Background(), action, now)
			return err
		})
		return recoveredMsg{action: action, record: record, err: err}
	}
}
