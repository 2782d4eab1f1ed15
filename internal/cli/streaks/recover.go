package streaks

import (
	"time"

	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
	"github.com/julianstephens/abstain/internal/streak"
	"github.com/julianstephens/abstain/internal/utils"
)

type RelapseCmd struct{}

func (c *RelapseCmd) Run(ctx *cli.Context) error {
	return recoverWith(ctx, constants.RecoveryHardRestart)
}

type GraceCmd struct{}

func (c *GraceCmd) Run(ctx *cli.Context) error {
	return recoverWith(ctx, constants.RecoveryGracePeriod)
}

type RecoverCmd struct {
	Action string `arg:"" optional:"" help:"hard-restart or grace-period. Prompts when omitted."`
}

func (c *RecoverCmd) Run(ctx *cli.Context) error {
	if c.Action != "" {
		action, err := streak.ParseRecoveryAction(c.Action)
		if err != nil {
			return err
		}
		return recoverWith(ctx, action)
	}

	engine, err := ctx.Engine()
	if err != nil {
		return err
	}
	// The lock is not held while the dialog waits for the user
	release, err := ctx.Lock()
	if err != nil {
		return err
	}
	record, err := engine.GetStatus(ctx.Context(), ctx.CurrentTime())
	release()
	if err != nil {
		return err
	}

	action, err := ctx.Prompter().ChooseRecovery(record.GracePeriodAvailable())
	if err != nil {
		return err
	}
	return recoverWith(ctx, action)
}

func recoverWith(ctx *cli.Context, action constants.RecoveryAction) error {
	engine, err := ctx.Engine()
	if err != nil {
		return err
	}
	loc, err := ctx.Location()
	if err != nil {
		return err
	}

	release, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer release()

	if action == constants.RecoveryHardRestart {
		ctx.PerformAutomaticBackup()
	}

	record, err := engine.Recover(ctx.Context(), action, ctx.CurrentTime())
	if err != nil {
		return err
	}

	printRecovery(ctx, action, record, loc)
	return nil
}

func printRecovery(ctx *cli.Context, action constants.RecoveryAction, record models.StreakRecord, loc *time.Location) {
	switch action {
	case constants.RecoveryGracePeriod:
		ctx.Printf("✓ Grace period used. Your streak of %s continues.\n", utils.FormatDays(record.CurrentStreak))
		ctx.Println("  This was your one-time grace period.")
	default:
		ctx.Printf("✓ Streak restarted on %s. Your milestones are kept.\n", utils.FormatDate(record.QuitDate, loc))
		ctx.Printf("  Longest streak so far: %s\n", utils.FormatDays(record.LongestStreak))
		ctx.Printf("  Total relapses: %d\n", record.TotalRelapses)
	}
}
