package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"lakeside/internal/auth/token"
	"lakeside/pkg/config"
	"lakeside/pkg/model"

	"github.com/urfave/cli/v2"
)

const ToolName = "tokens"

func main() {
	cfg := config.Load(ToolName)

	codec, err := token.NewCodec([]byte(cfg.JWTSecret))
	if err != nil {
		cfg.Log.Fatal("Failed to build token codec", "error", err)
	}

	tool := newApp(codec, cfg.TokenTTL, os.Stdout)
	if err := tool.Run(os.Args); err != nil {
		cfg.Log.Fatal("tokens command failed", "error", err)
	}
}

func newApp(codec *token.Codec, defaultTTL time.Duration, out io.Writer) *cli.App {
	return &cli.App{
		Name:   ToolName,
		Usage:  "issue and inspect bearer tokens for the booking API",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "sign a token for a subject and role",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "principal subject, e.g. a guest id", Required: true},
					&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Usage: "guest, staff or admin", Value: string(model.RoleGuest)},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: defaultTTL},
				},
				Action: func(c *cli.Context) error {
					role, ok := model.ParseRole(c.String("role"))
					if !ok {
						return cli.Exit(fmt.Sprintf("unknown role %q", c.String("role")), 2)
					}
					raw, err := codec.Issue(c.String("subject"), role, c.Duration("ttl"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintln(c.App.Writer, raw)
					return nil
				},
			},
			{
				Name:      "verify",
				Usage:     "check a token and print its principal",
				ArgsUsage: "<token>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one token is required", 2)
					}
					v, err := codec.Verify(c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintf(c.App.Writer, "subject=%s role=%s expires=%s\n", v.Subject, v.Role, v.ExpiresAt.UTC().Format(time.RFC3339))
					return nil
				},
			},
		},
	}
}
