package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/b3pay/b3walletd/internal/core/domain"
)

var ownerFlag = &cli.StringFlag{
	Name:  "owner",
	Usage: "the hex encoded principal owning the wallet",
}

var identifier = cli.Command{
	Name:  "identifier",
	Usage: "compute or verify an account identifier",
	Flags: []cli.Flag{
		ownerFlag,
		envFlag,
		nonceFlag,
		&cli.StringFlag{
			Name:  "verify",
			Usage: "an account identifier to verify instead of computing one",
		},
	},
	Action: identifierAction,
}

func identifierAction(ctx *cli.Context) error {
	if text := ctx.String("verify"); text != "" {
		id, err := domain.ParseAccountIdentifier(text)
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, map[string]interface{}{
			"identifier":     id.String(),
			"valid_checksum": id.VerifyChecksum(),
		})
	}

	owner, err := parseOwner(ctx)
	if err != nil {
		return err
	}
	sub, err := parseSubaccount(ctx)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, map[string]interface{}{
		"id":         sub.ID(),
		"identifier": domain.NewAccountIdentifier(owner, sub).String(),
	})
}

func parseOwner(ctx *cli.Context) ([]byte, error) {
	owner, err := hex.DecodeString(ctx.String(ownerFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("owner must be hex encoded")
	}
	if len(owner) <= 0 {
		return nil, domain.ErrInvalidOwner
	}
	return owner, nil
}
