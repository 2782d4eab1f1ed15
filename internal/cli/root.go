package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/abstain/internal/backup"
	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/lock"
	"github.com/julianstephens/abstain/internal/logger"
	"github.com/julianstephens/abstain/internal/models"
	"github.com/julianstephens/abstain/internal/storage"
	"github.com/julianstephens/abstain/internal/streak"
	"github.com/julianstephens/abstain/internal/utils"
)

type Context struct {
	// Ctx bounds storage calls and lock waits; nil means context.Background()
	Ctx       context.Context
	Store     storage.Provider
	Config    string // raw --config value
	ConfigDir string
	Timezone  string // --timezone override; empty uses the saved setting

	// Now returns the current instant; tests pin it
	Now func() time.Time
	// Out receives command output; nil means stdout
	Out io.Writer
	// Prompt asks the user interactive questions; nil uses terminal forms
	Prompt Prompter

	engine *streak.Engine
}

func (c *Context) Context() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

func (c *Context) CurrentTime() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) Writer() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Writer(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Writer(), args...)
}

func (c *Context) Prompter() Prompter {
	if c.Prompt != nil {
		return c.Prompt
	}
	return FormPrompter{}
}

// Settings returns the saved settings, or defaults when none are stored
func (c *Context) Settings() (models.Settings, error) {
	return storage.LoadSettings(c.Context(), c.Store)
}

// Location resolves the display timezone: the --timezone flag, then the saved setting
func (c *Context) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		settings, err := c.Settings()
		if err != nil {
			return nil, err
		}
		tz = settings.Timezone
	}
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// Engine builds the streak engine over the loaded store using the saved milestone thresholds
func (c *Context) Engine() (*streak.Engine, error) {
	if c.engine != nil {
		return c.engine, nil
	}
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	adapter := storage.WithTimeout(c.Store, constants.DefaultAdapterTimeout)
	engine, err := streak.New(adapter, streak.WithThresholds(settings.Milestones))
	if err != nil {
		return nil, err
	}
	c.engine = engine
	return engine, nil
}

// ResetEngine drops the cached engine so the next call picks up changed settings
func (c *Context) ResetEngine() {
	c.engine = nil
}

// Lock takes the cross-process lock for any command that writes streak data,
// waiting up to constants.LockWait for another process to finish. The returned
// function releases it.
func (c *Context) Lock() (func(), error) {
	return LockDir(c.Context(), c.ConfigDir)
}

// LockDir takes the cross-process lock in dir. An empty dir is a no-op.
func LockDir(ctx context.Context, dir string) (func(), error) {
	if dir == "" {
		return func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, constants.LockWait)
	defer cancel()

	l, err := lock.AcquireWait(ctx, dir, constants.LockRetryInterval)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := l.Release(); err != nil {
			logger.Warn("Failed to release lock", "error", err)
		}
	}, nil
}

// PerformAutomaticBackup snapshots the SQLite database and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*storage.SQLiteStore); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}
