package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/streak"
	"github.com/julianstephens/abstain/internal/utils"
)

type InitCmd struct {
	QuitDate string `help:"Date you quit (YYYY-MM-DD or RFC3339). Defaults to now." xor:"start"`
	DaysAgo  *int   `help:"Quit this many days ago." xor:"start"`
	Force    bool   `help:"Back up and discard any existing streak before initializing."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	// Initialize storage; idempotent for an existing database
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized abstain storage at: %s\n", ctx.Store.GetConfigPath())

	release, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer release()

	loc, err := ctx.Location()
	if err != nil {
		return err
	}
	now := ctx.CurrentTime()

	quitDate, err := c.resolveQuitDate(loc, now)
	if err != nil {
		return err
	}

	engine, err := ctx.Engine()
	if err != nil {
		return err
	}

	if c.Force {
		ctx.PerformAutomaticBackup()
		if err := engine.Reset(ctx.Context()); err != nil {
			return fmt.Errorf("failed to discard existing streak: %w", err)
		}
	}

	record, err := engine.Initialize(ctx.Context(), quitDate)
	if err != nil {
		if errors.Is(err, streak.ErrAlreadyInitialized) {
			return fmt.Errorf("%w; use --force to start over", err)
		}
		return err
	}

	ctx.Printf("✓ Streak started on %s\n", utils.FormatDate(record.QuitDate, loc))
	return nil
}

func (c *InitCmd) resolveQuitDate(loc *time.Location, now time.Time) (time.Time, error) {
	switch {
	case c.QuitDate != "":
		return utils.ParseQuitDate(c.QuitDate, loc, now)
	case c.DaysAgo != nil:
		if *c.DaysAgo < 0 {
			return time.Time{}, fmt.Errorf("--days-ago must not be negative")
		}
		return utils.DaysAgo(now, *c.DaysAgo), nil
	default:
		return now, nil
	}
}
