package main

import (
	"github.com/urfave/cli/v2"

	"storefront/pkg/infrastructure/repository"
)

func runMigrate(ctx *cli.Context) error {
	c, err := parseEnv()
	if err != nil {
		return err
	}
	setupLogging(c)

	db, err := repository.Open(c.DBDriver, c.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if steps := ctx.Int("down"); steps > 0 {
		return repository.Rollback(db, steps)
	}
	return repository.Migrate(db)
}
