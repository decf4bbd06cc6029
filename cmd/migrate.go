package cmd

import (
	"fmt"

	"github.com/emundo/emubot/botengine/repository"
	"github.com/emundo/emubot/core/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the pseudonym table in the configured database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := database.NewDatabase(cfg.Database, cfg.App.Debug)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := repository.NewPseudonymGormRepository(db).Init(cmd.Context()); err != nil {
			return fmt.Errorf("failed to migrate pseudonym table: %w", err)
		}
		logrus.Infof("[MIGRATION] Pseudonym table ready (%s: %s)", cfg.Database.Driver, cfg.Database.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
