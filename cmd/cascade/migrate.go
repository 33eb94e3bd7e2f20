package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/expense-cascade/internal/cli"
	"github.com/Veraticus/expense-cascade/internal/kvstore"
	"github.com/Veraticus/expense-cascade/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every command migrates on open; this command exists to do it explicitly
and to report the schema version with --status.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	store, err := openStore(settings)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	latest := storage.ExpectedSchemaVersion
	if settings.Database.Backend == "bolt" {
		latest = kvstore.ExpectedSchemaVersion
	}

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	out := cmd.OutOrStdout()
	if status {
		content := fmt.Sprintf("Backend:  %s\nPath:     %s\nCurrent:  %d\nLatest:   %d",
			settings.Database.Backend, store.Path(), current, latest)
		fmt.Fprintln(out, cli.RenderBox("Migration Status", content))
		return nil
	}

	slog.Info("Running database migrations",
		"backend", settings.Database.Backend,
		"database", store.Path(),
		"from", current)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", latest)))
	return nil
}
