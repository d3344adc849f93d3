package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftbase/swiftbase/internal/database"
	"github.com/swiftbase/swiftbase/internal/database/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration commands",
	Long: `Database migration commands for SwiftBase's system tables.

SwiftBase's schema is fixed (collections/documents/users/sessions/files/
audit log); migrations only cover additions to those system tables, not
user-defined collection schemas, which live in _sb_collections rows.

Examples:
  swiftbase migrate status    Show applied/pending migrations
  swiftbase migrate apply     Apply pending migrations
  swiftbase migrate rollback  Roll back the most recently applied migration`,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE:  runMigrateStatus,
}

var migrateApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply pending migrations",
	RunE:  runMigrateApply,
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the most recently applied migration",
	RunE:  runMigrateRollback,
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateApplyCmd)
	migrateCmd.AddCommand(migrateRollbackCmd)

	rootCmd.AddCommand(migrateCmd)
}

func openMigrationDB() (*database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return database.Open(&cfg.Database)
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := openMigrationDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	applied, err := migrations.GetApplied(context.Background(), db.DB)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}

	appliedVersions := make(map[int]bool, len(applied))
	for _, m := range applied {
		appliedVersions[m.Version] = true
	}

	fmt.Println("Applied migrations:")
	for _, m := range applied {
		fmt.Printf("  ✓ %d - %s (applied %s)\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}

	fmt.Println()
	pending := 0
	for _, m := range migrations.All {
		if !appliedVersions[m.Version] {
			fmt.Printf("  ○ %d - %s\n", m.Version, m.Name)
			pending++
		}
	}
	if pending == 0 {
		fmt.Println("No pending migrations.")
	}

	return nil
}

func runMigrateApply(cmd *cobra.Command, args []string) error {
	// database.Open already runs migrations.Run on every startup; this
	// subcommand exists for operators who want migrations applied
	// without starting the HTTP server.
	db, err := openMigrationDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	fmt.Println("✓ Migrations applied.")
	return nil
}

func runMigrateRollback(cmd *cobra.Command, args []string) error {
	db, err := openMigrationDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrations.Rollback(context.Background(), db.DB); err != nil {
		return fmt.Errorf("rolling back: %w", err)
	}

	fmt.Println("✓ Rolled back the most recent migration.")
	return nil
}
