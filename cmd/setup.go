package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writeln(ui.Success("Config written to %s", r.configPath))
	r.writePlain("Next steps:\n")
	r.writePlain("1. Add your Spotify client_id and client_secret (https://developer.spotify.com/dashboard)\n")
	r.writePlain("2. Run 'nowplaying auth spotify'\n")
	r.writePlain("3. Add Bluesky and/or Mastodon credentials, then run 'nowplaying post --dry-run'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openDB()
	if err != nil {
		return err
	}

	version, applied, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}
	mode, err := shared.JournalMode(db)
	if err != nil {
		return err
	}

	r.logger.Info("setup complete", "path", r.config.Database.Path, "version", version, "journal_mode", mode)
	r.writeln(ui.Success("Database ready at %s", r.config.Database.Path))
	r.writePlain("  Schema version: %d (%d migrations applied)\n", version, applied)
	r.writePlain("  Journal mode: %s\n", mode)

	statuses, err := shared.MigrationStatuses(db)
	if err != nil {
		return err
	}
	for _, m := range statuses {
		if m.Applied() {
			r.writePlain("  %04d_%s applied %s\n", m.Version, m.Name, m.AppliedAt.Format(time.DateTime))
		} else {
			r.writePlain("  %04d_%s pending\n", m.Version, m.Name)
		}
	}
	return nil
}

// SetupRollback reverts the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}

	before, _, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}
	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	r.logger.Warn("migration rolled back", "version", before)
	return r.writeln(ui.Success("Rolled back migration %04d", before))
}
