// Command meetctl runs maintenance tasks against the meetdesk database:
// migrations, YAML seeding, staff accounts and roster exports.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"meetdesk/internal/adapters/storage"
	"meetdesk/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the settings shared by every subcommand.
type cli struct {
	cfg     config.Config
	dbPath  string
	verbose bool
	now     func() time.Time
	newID   func() string
}

func newRootCmd() *cobra.Command {
	c := &cli{now: time.Now, newID: uuid.NewString}

	root := &cobra.Command{
		Use:           "meetctl",
		Short:         "Administer a meetdesk database",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			if c.dbPath == "" {
				c.dbPath = cfg.DBPath
			}
			level := cfg.LogLevel
			if c.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "SQLite database path (default: MEETDESK_DB_PATH)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newMigrateCmd(c),
		newSeedCmd(c),
		newStaffCmd(c),
		newRosterCmd(c),
	)
	return root
}

// openDB opens the configured database and brings its schema up to date.
func (c *cli) openDB() (*sql.DB, error) {
	db, err := storage.Open(c.dbPath)
	if err != nil {
		return nil, err
	}
	if err := storage.MigrateDB(db, c.dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply every pending migration to the database.

A file database is copied to <path>.v<N>.bak before an upgrade runs.
Running migrate on an up-to-date database changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", c.dbPath, v)
			return nil
		},
	}
}

func withTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
