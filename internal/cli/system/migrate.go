package system

import (
	"fmt"

	"github.com/julianstephens/abstain/internal/cli"
	"github.com/julianstephens/abstain/internal/migration"
)

// migrator is implemented by the SQL-backed stores
type migrator interface {
	Migrator() (*migration.Runner, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	sqlStore, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("migrate command only supports SQLite and PostgreSQL storage")
	}

	runner, err := sqlStore.Migrator()
	if err != nil {
		return fmt.Errorf("failed to open migration runner: %w", err)
	}

	pending, err := runner.Pending()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	for _, m := range pending {
		ctx.Printf("Applying migration %03d_%s\n", m.Version, m.Name)
	}

	count, err := runner.ApplyMigrations()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}

	return nil
}
