package system

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/models"
)

// Export is the document written by the export command
type Export struct {
	ExportedAt time.Time           `json:"exported_at" yaml:"exported_at"`
	Record     ExportRecord        `json:"record" yaml:"record"`
	Milestones []ExportedMilestone `json:"milestones" yaml:"milestones"`
	Settings   ExportSettings      `json:"settings" yaml:"settings"`
}

type ExportRecord struct {
	ID              string    `json:"id" yaml:"id"`
	QuitDate        time.Time `json:"quit_date" yaml:"quit_date"`
	StartDate       time.Time `json:"start_date" yaml:"start_date"`
	CurrentStreak   int       `json:"current_streak" yaml:"current_streak"`
	LongestStreak   int       `json:"longest_streak" yaml:"longest_streak"`
	TotalRelapses   int       `json:"total_relapses" yaml:"total_relapses"`
	GracePeriodUsed bool      `json:"grace_period_used" yaml:"grace_period_used"`
	LastCheckDate   time.Time `json:"last_check_date" yaml:"last_check_date"`
}

type ExportedMilestone struct {
	Type       string    `json:"type" yaml:"type"`
	Value      int       `json:"value" yaml:"value"`
	AchievedAt time.Time `json:"achieved_at" yaml:"achieved_at"`
}

type ExportSettings struct {
	Milestones []int  `json:"milestones" yaml:"milestones,flow"`
	Timezone   string `json:"timezone" yaml:"timezone"`
}

type ExportCmd struct {
	Format string `help:"Output format." enum:"json,yaml" default:"json" short:"f"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	engine, err := ctx.Engine()
	if err != nil {
		return err
	}
	now := ctx.CurrentTime()

	release, err := ctx.Lock()
	if err != nil {
		return err
	}
	// Exporting reads the recomputed status like any other read
	record, err := engine.GetStatus(ctx.Context(), now)
	if err != nil {
		release()
		return err
	}
	ledger, err := engine.Ledger(ctx.Context())
	release()
	if err != nil {
		return err
	}
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	doc := buildExport(record, ledger, settings, now)

	var data []byte
	switch c.Format {
	case "yaml":
		data, err = yaml.Marshal(doc)
	default:
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	_, err = ctx.Writer().Write(data)
	return err
}

func buildExport(record models.StreakRecord, ledger models.MilestoneLedger, settings models.Settings, now time.Time) Export {
	milestones := make([]ExportedMilestone, 0, len(ledger.Milestones))
	for _, m := range ledger.Milestones {
		milestones = append(milestones, ExportedMilestone{
			Type:       string(m.Type),
			Value:      m.Value,
			AchievedAt: m.AchievedAt,
		})
	}

	return Export{
		ExportedAt: now,
		Record: ExportRecord{
			ID:              record.ID,
			QuitDate:        record.QuitDate,
			StartDate:       record.StartDate,
			CurrentStreak:   record.CurrentStreak,
			LongestStreak:   record.LongestStreak,
			TotalRelapses:   record.TotalRelapses,
			GracePeriodUsed: record.GracePeriodUsed,
			LastCheckDate:   record.LastCheckDate,
		},
		Milestones: milestones,
		Settings: ExportSettings{
			Milestones: settings.Milestones,
			Timezone:   settings.Timezone,
		},
	}
}
