package httpinterface

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/b3pay/b3walletd/internal/core/application"
	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
)

type restoreAccountRequest struct {
	Environment domain.Environment `json:"environment"`
	Nonce       uint64             `json:"nonce"`
}

type metadataRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type signMessageRequest struct {
	Digest string `json:"digest"`
}

type signEvmTransactionRequest struct {
	ChainID uint64 `json:"chain_id"`
	RawTx   string `json:"raw_tx"`
}

type bridgeReceiveRequest struct {
	Chain  domain.ChainKind `json:"chain"`
	Amount uint64           `json:"amount"`
}

type bridgeSendRequest struct {
	Chain       domain.ChainKind `json:"chain"`
	Destination string           `json:"destination"`
	Amount      uint64           `json:"amount"`
}

type bridgeSettleRequest struct {
	Chain     domain.ChainKind `json:"chain"`
	Direction string           `json:"direction"`
}

type submitRequest struct {
	Operation domain.Operation `json:"operation"`
	Role      string           `json:"role,omitempty"`
	Deadline  int64            `json:"deadline,omitempty"`
}

type utxoResponse struct {
	Txid        string `json:"txid"`
	Vout        uint32 `json:"vout"`
	Value       uint64 `json:"value"`
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height,omitempty"`
}

type signedTransactionResponse struct {
	RawTx string `json:"raw_tx"`
	Hash  string `json:"hash"`
}

func toUtxoResponses(utxos []ports.Utxo) []utxoResponse {
	list := make([]utxoResponse, 0, len(utxos))
	for _, u := range utxos {
		r := utxoResponse{
			Txid:  u.GetTxid(),
			Vout:  u.GetIndex(),
			Value: u.GetValue(),
		}
		if status := u.GetStatus(); status != nil {
			r.Confirmed = status.IsConfirmed()
			r.BlockHeight = status.GetBlockHeight()
		}
		list = append(list, r)
	}
	return list
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %w", application.ErrInvalidArgument, err)
	}
	return nil
}

func parseChainParam(c *fiber.Ctx) (domain.ChainKind, error) {
	return domain.ParseChainKind(c.Params("chain"))
}

func parseRequestID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid request id", application.ErrInvalidArgument)
	}
	return id, nil
}

func parseHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: %s must be hex encoded", application.ErrInvalidArgument, field,
		)
	}
	return b, nil
}
