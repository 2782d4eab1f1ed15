package streaks

import (
	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/utils"
)

type MilestonesCmd struct {
	History bool `help:"Show every milestone achieved so far instead of checking for new ones."`
}

func (c *MilestonesCmd) Run(ctx *cli.Context) error {
	engine, err := ctx.Engine()
	if err != nil {
		return err
	}
	loc, err := ctx.Location()
	if err != nil {
		return err
	}

	if c.History {
		ledger, err := engine.Ledger(ctx.Context())
		if err != nil {
			return err
		}
		if ledger.Len() == 0 {
			ctx.Println("No milestones achieved yet.")
			return nil
		}
		ctx.Printf("Milestones achieved (%d):\n", ledger.Len())
		for _, m := range ledger.Milestones {
			ctx.Printf("  %-10s  %s\n", utils.FormatDays(m.Value), utils.FormatDate(m.AchievedAt, loc))
		}
		return nil
	}

	release, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer release()

	milestones, err := engine.CheckMilestones(ctx.Context(), ctx.CurrentTime())
	if err != nil {
		return err
	}

	if len(milestones) == 0 {
		ctx.Println("No new milestones. Keep going!")
		return nil
	}
	for _, m := range milestones {
		ctx.Printf("🎉 Milestone reached: %s!\n", utils.FormatDays(m.Value))
	}
	return nil
}
