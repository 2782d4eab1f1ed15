package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/streak"
	"github.com/julianstephens/abstain/internal/utils"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-24, 10), 60)
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadStatus(), tick())

	case statusMsg:
		m.loaded = true
		m.applyStatus(msg)
		return m, nil

	case milestonesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.celebration = msg.milestones
		if len(msg.milestones) == 0 {
			m.message = "No new milestones yet. Keep going."
		} else {
			m.message = ""
		}
		return m, m.loadStatus()

	case recoveredMsg:
		m.state = stateDashboard
		m.form = nil
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.record = msg.record
		m.celebration = nil
		switch msg.action {
		case constants.RecoveryGracePeriod:
			m.message = "Grace period used. Your streak continues."
		default:
			m.message = fmt.Sprintf("Streak restarted on %s. Your milestones are kept.", utils.FormatDate(msg.record.QuitDate, m.loc))
		}
		return m, nil
	}

	if m.state == stateRecovery {
		return m.updateRecovery(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleDashboardKeys(msg)
	}
	return m, nil
}

func (m *Model) applyStatus(msg statusMsg) {
	switch {
	case errors.Is(msg.err, streak.ErrNotFound):
		m.initialized = false
		m.err = nil
	case msg.err != nil:
		m.err = msg.err
	default:
		m.initialized = true
		m.err = nil
		m.record = msg.record
	}
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadStatus()
	case key.Matches(msg, m.keys.Dismiss):
		m.celebration = nil
		m.message = ""
		return m, nil
	}

	if !m.initialized || m.submitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Check):
		return m, m.checkMilestones()
	case key.Matches(msg, m.keys.Recover):
		return m, m.openRecovery()
	}
	return m, nil
}

func (m *Model) openRecovery() tea.Cmd {
	*m.recoveryChoice = constants.RecoveryHardRestart
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[constants.RecoveryAction]().
				Title("What happened?").
				Description("Be honest with yourself. Either choice keeps your milestones.").
				Options(cli.RecoveryOptions(m.record.GracePeriodAvailable())...).
				Value(m.recoveryChoice),
		),
	).WithShowHelp(false)
	m.state = stateRecovery
	m.celebration = nil
	m.message = ""
	return m.form.Init()
}

func (m Model) updateRecovery(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = stateDashboard
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		// Leave the dialog before dispatching so further keys cannot submit again
		m.state = stateDashboard
		m.form = nil
		m.submitting = true
		m.message = "Saving..."
		return m, m.recover(*m.recoveryChoice)
	case huh.StateAborted:
		m.state = stateDashboard
		m.form = nil
		return m, nil
	}
	return m, cmd
}
