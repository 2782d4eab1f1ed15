package streaks

import (
	"time"

	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/models"
	"github.com/julianstephens/abstain/internal/streak"
	"github.com/julianstephens/abstain/internal/utils"
)

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	engine, err := ctx.Engine()
	if err != nil {
		return err
	}
	loc, err := ctx.Location()
	if err != nil {
		return err
	}

	// Status may persist the recomputed streak, so it writes under the lock
	release, err := ctx.Lock()
	if err != nil {
		return err
	}
	record, err := engine.GetStatus(ctx.Context(), ctx.CurrentTime())
	release()
	if err != nil {
		return err
	}

	printRecord(ctx, record, loc)

	if threshold, remaining, ok := streak.NextMilestone(record.CurrentStreak, engine.Thresholds()); ok {
		ctx.Printf("  Next milestone:  %s (%s to go)\n", utils.FormatDays(threshold), utils.FormatDays(remaining))
	} else {
		ctx.Println("  Next milestone:  every milestone reached")
	}
	return nil
}

func printRecord(ctx *cli.Context, record models.StreakRecord, loc *time.Location) {
	grace := "available"
	if record.GracePeriodUsed {
		grace = "used"
	}

	ctx.Println("Streak Status:")
	ctx.Printf("  Current streak:  %s\n", utils.FormatDays(record.CurrentStreak))
	ctx.Printf("  Longest streak:  %s\n", utils.FormatDays(record.LongestStreak))
	ctx.Printf("  Quit date:       %s\n", utils.FormatDate(record.QuitDate, loc))
	ctx.Printf("  First quit:      %s\n", utils.FormatDate(record.StartDate, loc))
	ctx.Printf("  Relapses:        %d\n", record.TotalRelapses)
	ctx.Printf("  Grace period:    %s\n", grace)
}
