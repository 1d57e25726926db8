package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"etherfund_news/internal/db"
	"etherfund_news/internal/logger"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the archive tables",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errors.New("database dsn is not configured")
			}

			database, err := db.NewDB(c.Context, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(c.Context); err != nil {
				return err
			}
			logger.Log.Info("Archive schema is up to date")
			return nil
		},
	}
}
