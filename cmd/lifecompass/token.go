package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lifecompass/finance-bfa-go/internal/config"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"github.com/google/subcommands"
)

// tokenCmd issues an access token for the /v1/users routes using JWT_SECRET.
type tokenCmd struct {
	out  io.Writer
	user string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a development access token" }
func (*tokenCmd) Usage() string {
	return `lifecompass token -user <userId>

  Signs a token with JWT_SECRET, JWT_ISSUER and JWT_ACCESS_TTL from the
  environment (or .env).
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "user ID to put in the token subject")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET is not set")
		return subcommands.ExitFailure
	}
	if c.user == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	token, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL).IssueAccessToken(c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error issuing token: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.out, token)
	return subcommands.ExitSuccess
}
