package main

import (
	"fmt"

	"estate-backend/internal/infrastructure/database"

	"github.com/urfave/cli"
)

func runMigrate(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	if m.config.DatabaseURL == "" {
		return fmt.Errorf("no database configured for env %q", m.config.Env)
	}
	db, err := database.Open(m.config.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "migrated ledgers (%s)\n", m.config.Env)
	return nil
}
