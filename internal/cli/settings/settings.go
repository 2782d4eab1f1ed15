package settings

import (
	"fmt"

	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
	"github.com/julianstephens/abstain/internal/storage"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Milestones *string `help:"Comma-separated milestone thresholds in days, e.g. 1,3,7,30."`
	Timezone   *string `help:"IANA timezone used to display dates, or 'Local'."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		ctx.Println("Current Settings:")
		ctx.Printf("  Milestones:  %s\n", models.FormatMilestones(settings.Milestones))
		ctx.Printf("  Timezone:    %s\n", settings.Timezone)
		return nil
	}

	updated := false
	if c.Milestones != nil {
		if err := models.ApplySetting(&settings, constants.SettingMilestones, *c.Milestones); err != nil {
			return err
		}
		updated = true
	}
	if c.Timezone != nil {
		if err := models.ApplySetting(&settings, constants.SettingTimezone, *c.Timezone); err != nil {
			return err
		}
		updated = true
	}

	if !updated {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	release, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer release()

	if err := storage.SaveSettings(ctx.Context(), ctx.Store, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.ResetEngine()
	ctx.Println("Settings updated successfully.")
	return nil
}
