package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/abstain/internal/streak"
	"github.com/julianstephens/abstain/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case stateRecovery:
		content = m.form.View()
	default:
		content = m.viewDashboard()
	}

	ui := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("abstain"),
		"",
		content,
		"",
		m.help.View(m.keys),
	)
	return docStyle.Render(ui)
}

func (m Model) viewDashboard() string {
	var sections []string

	if m.err != nil {
		sections = append(sections, dangerStyle.Render("Error: "+m.err.Error()))
	}

	switch {
	case !m.loaded:
		sections = append(sections, "Loading...")
	case !m.initialized:
		sections = append(sections, warningStyle.Render("No streak yet. Run 'abstain init' to start one."))
	default:
		if banner := m.viewCelebration(); banner != "" {
			sections = append(sections, banner)
		}
		sections = append(sections, m.viewStats(), m.viewNextMilestone())
	}

	if m.message != "" {
		sections = append(sections, warningStyle.Render(m.message))
	}

	return strings.Join(sections, "\n\n")
}

func (m Model) viewStats() string {
	grace := "available"
	if m.record.GracePeriodUsed {
		grace = "used"
	}

	rows := []struct{ label, value string }{
		{"Current streak", utils.FormatDays(m.record.CurrentStreak)},
		{"Longest streak", utils.FormatDays(m.record.LongestStreak)},
		{"Quit date", utils.FormatDate(m.record.QuitDate, m.loc)},
		{"Relapses", fmt.Sprintf("%d", m.record.TotalRelapses)},
		{"Grace period", grace},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r.label)+valueStyle.Render(r.value))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewNextMilestone() string {
	threshold, remaining, ok := streak.NextMilestone(m.record.CurrentStreak, m.engine.Thresholds())
	if !ok {
		return valueStyle.Render("Every milestone reached. Incredible.")
	}

	percent := float64(m.record.CurrentStreak) / float64(threshold)
	return fmt.Sprintf("%s%s (%s to go)\n%s",
		labelStyle.Render("Next milestone"),
		valueStyle.Render(utils.FormatDays(threshold)),
		utils.FormatDays(remaining),
		m.progress.ViewAs(percent),
	)
}

func (m Model) viewCelebration() string {
	if len(m.celebration) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.celebration))
	for _, ms := range m.celebration {
		lines = append(lines, fmt.Sprintf("🎉 Milestone reached: %s!", utils.FormatDays(ms.Value)))
	}
	return celebrationStyle.Render(strings.Join(lines, "\n"))
}
