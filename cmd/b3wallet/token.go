package main

import (
	"fmt"

	"github.com/thanhpk/randstr"
	"github.com/urfave/cli/v2"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/infrastructure/roles"
)

var gentoken = cli.Command{
	Name:  "gentoken",
	Usage: "generate a random caller token to add to the static role table",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "size",
			Usage: "the size in bytes of the token",
			Value: 32,
		},
	},
	Action: genTokenAction,
}

var issuetoken = cli.Command{
	Name:  "issuetoken",
	Usage: "issue a caller token signed with the daemon token secret",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "secret",
			Usage:    "the token secret of the daemon",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "subject",
			Usage:    "the caller the token is issued to",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "role",
			Usage: "the role granted by the token: signer or admin",
			Value: domain.RoleSigner.String(),
		},
		&cli.DurationFlag{
			Name:  "ttl",
			Usage: "the validity of the token, 0 for no expiry",
		},
	},
	Action: issueTokenAction,
}

func genTokenAction(ctx *cli.Context) error {
	size := ctx.Int("size")
	if size < 16 {
		return fmt.Errorf("token size must be at least 16 bytes")
	}
	return printJSON(ctx.App.Writer, map[string]string{"token": randstr.Hex(size)})
}

func issueTokenAction(ctx *cli.Context) error {
	role, err := domain.ParseRole(ctx.String("role"))
	if err != nil {
		return err
	}
	issuer, err := roles.NewIssuer([]byte(ctx.String("secret")))
	if err != nil {
		return err
	}
	token, err := issuer.Issue(ctx.String("subject"), role, ctx.Duration("ttl"))
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, map[string]string{"token": token})
}
