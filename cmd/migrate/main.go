package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Rrens/nlsql/internal/config"
	"github.com/Rrens/nlsql/internal/repository/migration"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply schema migrations to the export database",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "migrations", "directory holding *.up.sql and *.down.sql files")

	urls := func() (string, string, error) {
		cfg, err := config.Load()
		if err != nil {
			return "", "", fmt.Errorf("failed to load config: %w", err)
		}
		dbURL, err := cfg.Database.MigrateURL()
		if err != nil {
			return "", "", err
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", "", err
		}
		return dbURL, "file://" + filepath.ToSlash(abs), nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, srcURL, err := urls()
			if err != nil {
				return err
			}
			return migration.Up(dbURL, srcURL)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, srcURL, err := urls()
			if err != nil {
				return err
			}
			return migration.Down(dbURL, srcURL, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back; 0 rolls back all")
	root.AddCommand(down)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, srcURL, err := urls()
			if err != nil {
				return err
			}
			version, dirty, err := migration.Version(dbURL, srcURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return root
}
