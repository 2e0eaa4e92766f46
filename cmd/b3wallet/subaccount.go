package main

import (
	"encoding/hex"

	"github.com/urfave/cli/v2"

	"github.com/b3pay/b3walletd/internal/core/domain"
)

var envFlag = &cli.StringFlag{
	Name:  "env",
	Usage: "the environment of the subaccount: production, staging or development",
	Value: domain.Production.String(),
}

var nonceFlag = &cli.Uint64Flag{
	Name:  "nonce",
	Usage: "the nonce of the subaccount in its environment",
}

var subaccount = cli.Command{
	Name:   "subaccount",
	Usage:  "show the derivation data of a subaccount",
	Flags:  []cli.Flag{envFlag, nonceFlag},
	Action: subaccountAction,
}

func subaccountAction(ctx *cli.Context) error {
	sub, err := parseSubaccount(ctx)
	if err != nil {
		return err
	}

	path := make([]string, 0, 1)
	for _, p := range sub.DerivationPath() {
		path = append(path, hex.EncodeToString(p))
	}
	return printJSON(ctx.App.Writer, map[string]interface{}{
		"id":              sub.ID(),
		"name":            sub.Name(),
		"environment":     sub.Environment().String(),
		"nonce":           sub.Nonce(),
		"subaccount":      sub.String(),
		"derivation_path": path,
		"key_id":          sub.KeyConfig().KeyID,
	})
}

func parseSubaccount(ctx *cli.Context) (domain.Subaccount, error) {
	env, err := domain.ParseEnvironment(ctx.String(envFlag.Name))
	if err != nil {
		return domain.Subaccount{}, err
	}
	return domain.NewSubaccount(env, ctx.Uint64(nonceFlag.Name)), nil
}
