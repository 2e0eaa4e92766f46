package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/b3pay/b3walletd/internal/core/ports"
)

type service struct {
	client  *ethclient.Client
	chainID uint64
}

// NewService dials the JSON-RPC endpoint of an EVM chain and makes sure it
// serves the expected chain id.
func NewService(
	ctx context.Context, rpcURL string, chainID uint64,
) (ports.ChainBackend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	if id.Uint64() != chainID {
		client.Close()
		return nil, fmt.Errorf(
			"rpc serves chain id %d, expected %d", id.Uint64(), chainID,
		)
	}
	return &service{client, chainID}, nil
}

func (s *service) Balance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid evm address %s", address)
	}
	return s.client.BalanceAt(ctx, common.HexToAddress(address), nil)
}

// FeeRate returns the suggested gas price in wei.
func (s *service) FeeRate(ctx context.Context) (uint64, error) {
	price, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return 0, err
	}
	if !price.IsUint64() {
		return 0, fmt.Errorf("gas price overflows uint64")
	}
	return price.Uint64(), nil
}

func (s *service) SubmitTransfer(ctx context.Context, rawTx []byte) (string, error) {
	tx := &types.Transaction{}
	if err := tx.UnmarshalBinary(rawTx); err != nil {
		return "", err
	}
	if cid := tx.ChainId(); cid != nil && cid.Sign() > 0 && cid.Uint64() != s.chainID {
		return "", fmt.Errorf("transaction is for chain id %d", cid.Uint64())
	}
	if err := s.client.SendTransaction(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

func (s *service) Utxos(context.Context, string) ([]ports.Utxo, error) {
	return nil, ports.ErrUtxosNotSupported
}
