package system

import (
	"github.com/julianstephens/abstain/internal/cli"
)

type ResetCmd struct {
	Yes bool `help:"Skip the confirmation prompt." short:"y"`
}

func (c *ResetCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		confirmed, err := ctx.Prompter().Confirm(
			"Erase your streak and milestone history?",
			"A backup is taken first when using SQLite storage.",
		)
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Reset cancelled.")
			return nil
		}
	}

	release, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer release()

	ctx.PerformAutomaticBackup()

	engine, err := ctx.Engine()
	if err != nil {
		return err
	}
	if err := engine.Reset(ctx.Context()); err != nil {
		return err
	}

	ctx.Println("✓ Streak and milestone history erased. Run 'abstain init' to start again.")
	return nil
}
