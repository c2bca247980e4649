package main

import (
	"context"
	"encoding/json"
	"fmt"

	"estate-backend/internal/application/ledgerevents"
	"estate-backend/internal/domain"
	"estate-backend/internal/infrastructure/database"
	"estate-backend/internal/infrastructure/events"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"
)

func openEvents(m *metadata) (*ledgerevents.Service, error) {
	if m.config.DatabaseURL == "" {
		return nil, fmt.Errorf("no database configured for env %q", m.config.Env)
	}
	db, err := database.Open(m.config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &ledgerevents.Service{DB: db}, nil
}

func runEvents(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	svc, err := openEvents(m)
	if err != nil {
		return err
	}

	evts, err := svc.ListEvents(context.Background(), ledgerevents.Filter{
		Ledger:  domain.Ledger(c.String("ledger")),
		Subject: c.String("subject"),
		After:   c.Int64("after"),
		Limit:   c.Int("limit"),
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	for i := range evts {
		if err := enc.Encode(&evts[i]); err != nil {
			return err
		}
	}
	return nil
}

func runRepublish(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	svc, err := openEvents(m)
	if err != nil {
		return err
	}

	var rdb redis.UniversalClient
	if m.config.RedisURL != "" {
		opt, err := redis.ParseURL(m.config.RedisURL)
		if err != nil {
			return err
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}
	sinks, err := events.Sinks(rdb, m.config.AMQPURL, m.config.AMQPExchange)
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		return fmt.Errorf("no event sinks configured (set REDIS_URL or AMQP_URL)")
	}
	for _, s := range sinks {
		if a, ok := s.(*events.AMQPPublisher); ok {
			defer a.Close()
		}
	}

	n, err := svc.Republish(context.Background(), sinks, ledgerevents.Filter{
		Ledger: domain.Ledger(c.String("ledger")),
		After:  c.Int64("after"),
		Limit:  c.Int("limit"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "republished %d events\n", n)
	return nil
}
