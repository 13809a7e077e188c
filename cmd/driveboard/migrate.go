package main

import (
	"io/fs"

	"github.com/spf13/cobra"

	migrations "github.com/driveboard/driveboard/db"
	"github.com/driveboard/driveboard/internal/db"
	"github.com/driveboard/driveboard/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|version|force N]",
	Short: "Run database migrations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
		if err != nil {
			return err
		}
		return db.RunMigrate(logger.L, cfg.Postgres, migrationsFS, args[0], args[1:])
	},
}
