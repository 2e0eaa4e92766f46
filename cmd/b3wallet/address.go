package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/pkg/txbuilder"
)

var address = cli.Command{
	Name:  "address",
	Usage: "derive the address of a subaccount on a chain",
	Flags: []cli.Flag{
		ownerFlag,
		envFlag,
		nonceFlag,
		&cli.StringFlag{
			Name:  "pubkey",
			Usage: "the hex encoded compressed ecdsa public key of the subaccount, required by bitcoin and evm chains",
		},
		&cli.StringFlag{
			Name:     "chains",
			Usage:    "comma separated chain kinds, ie. native,bitcoin:mainnet,evm:1,wrapped-bitcoin:mainnet,token:<id>",
			Required: true,
		},
	},
	Action: addressAction,
}

var contractAddress = cli.Command{
	Name:  "contract-address",
	Usage: "compute the address of a contract deployed by an evm account",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "sender",
			Usage:    "the evm address of the deployer",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:  "nonce",
			Usage: "the nonce of the deployment transaction",
		},
	},
	Action: contractAddressAction,
}

func addressAction(ctx *cli.Context) error {
	owner, err := parseOwner(ctx)
	if err != nil {
		return err
	}
	sub, err := parseSubaccount(ctx)
	if err != nil {
		return err
	}

	keys := domain.NewPublicKeys(owner, sub)
	if pubkey := ctx.String("pubkey"); pubkey != "" {
		key, err := hex.DecodeString(pubkey)
		if err != nil {
			return fmt.Errorf("pubkey must be hex encoded")
		}
		if _, err := keys.SetEcdsa(key); err != nil {
			return err
		}
	}

	addresses := make(map[string]string)
	for _, c := range strings.Split(ctx.String("chains"), ",") {
		kind, err := domain.ParseChainKind(c)
		if err != nil {
			return err
		}
		addr, err := keys.GenerateAddress(kind)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		addresses[kind.String()] = addr
	}
	return printJSON(ctx.App.Writer, map[string]interface{}{
		"id":        sub.ID(),
		"addresses": addresses,
	})
}

func contractAddressAction(ctx *cli.Context) error {
	addr, err := txbuilder.ContractAddress(ctx.String("sender"), ctx.Uint64("nonce"))
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, map[string]string{"contract_address": addr})
}
