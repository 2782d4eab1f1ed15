package cli

import (
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/abstain/internal/constants"
)

// Prompter asks the interactive questions some commands need
type Prompter interface {
	Confirm(title, description string) (bool, error)
	ChooseRecovery(graceAvailable bool) (constants.RecoveryAction, error)
}

// FormPrompter asks questions with terminal forms
type FormPrompter struct{}

func (FormPrompter) Confirm(title, description string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).WithTheme(huh.ThemeBase())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func (FormPrompter) ChooseRecovery(graceAvailable bool) (constants.RecoveryAction, error) {
	choice := constants.RecoveryHardRestart
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[constants.RecoveryAction]().
				Title("What happened?").
				Description("Be honest with yourself. Either choice keeps your milestones.").
				Options(RecoveryOptions(graceAvailable)...).
				Value(&choice),
		),
	).WithTheme(huh.ThemeBase())

	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

// RecoveryOptions lists the recovery dialog choices. The grace period is offered
// only while it is still available.
func RecoveryOptions(graceAvailable bool) []huh.Option[constants.RecoveryAction] {
	options := []huh.Option[constants.RecoveryAction]{
		huh.NewOption("I slipped: restart my streak from now", constants.RecoveryHardRestart),
	}
	if graceAvailable {
		options = append(options, huh.NewOption("One-time slip: use my grace period and keep the streak", constants.RecoveryGracePeriod))
	}
	return options
}
