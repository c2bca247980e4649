package main

import (
	"fmt"
	"os"

	"estate-backend/internal/config"
	"estate-backend/internal/pkg/logger"

	"github.com/urfave/cli"
)

type metadata struct {
	config *config.Config
}

func main() {
	app := cli.NewApp()
	app.Name = "estatectl"
	app.Usage = "administer the estate ledgers"
	app.HideVersion = true
	app.Metadata = map[string]interface{}{}

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Commands = []cli.Command{
		{
			Name:   "migrate",
			Usage:  "create or update every ledger table",
			Action: runMigrate,
		},
		{
			Name:      "token",
			Usage:     "mint a caller token signed with JWT_SECRET",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "account, a",
					Value: "",
					Usage: "*caller `ADDRESS`",
				},
				cli.DurationFlag{
					Name:  "ttl, t",
					Value: 0,
					Usage: " token lifetime `DURATION` (default 24h)",
				},
			},
			Action: runToken,
		},
		{
			Name:  "events",
			Usage: "print the event log in sequence order",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "ledger, l",
					Value: "",
					Usage: " only events of `LEDGER` [property|marketplace|escrow|shares|funds]",
				},
				cli.StringFlag{
					Name:  "subject, s",
					Value: "",
					Usage: " only events about `ID`",
				},
				cli.Int64Flag{
					Name:  "after",
					Value: 0,
					Usage: " start after sequence `SEQ`",
				},
				cli.IntFlag{
					Name:  "limit, n",
					Value: 100,
					Usage: " maximum events to print `COUNT`",
				},
			},
			Action: runEvents,
		},
		{
			Name:  "republish",
			Usage: "send stored events to the configured sinks again",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "ledger, l",
					Value: "",
					Usage: " only events of `LEDGER`",
				},
				cli.Int64Flag{
					Name:  "after",
					Value: 0,
					Usage: " start after sequence `SEQ`",
				},
				cli.IntFlag{
					Name:  "limit, n",
					Value: 1000,
					Usage: " maximum events to send `COUNT`",
				},
			},
			Action: runRepublish,
		},
	}

	app.Before = func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.Setup(cfg.IsProduction())
		c.App.Metadata["config"] = &metadata{config: cfg}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}
