package main

import (
	"fmt"

	"estate-backend/internal/auth"
	"estate-backend/internal/domain"

	"github.com/urfave/cli"
)

func runToken(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	raw := c.String("account")
	if raw == "" {
		return fmt.Errorf("--account is required")
	}
	account, err := domain.ParseAccount(raw)
	if err != nil {
		return err
	}
	ttl := c.Duration("ttl")
	if ttl <= 0 {
		ttl = auth.DefaultTTL
	}

	token, err := auth.NewTokens(m.config.JWTSecret, m.config.JWTIssuer).Issue(account, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}
