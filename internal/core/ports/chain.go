package ports

import (
	"context"
	"errors"
	"math/big"

	"github.com/b3pay/b3walletd/internal/core/domain"
)

// ChainBackend gives access to a chain for balance, fee and submission
// queries. Amounts are in the chain's base unit.
type ChainBackend interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	// FeeRate returns the sat/vbyte rate for Bitcoin chains, the gas price in
	// wei for EVM chains.
	FeeRate(ctx context.Context) (uint64, error)
	// SubmitTransfer broadcasts a signed transaction and returns its id.
	SubmitTransfer(ctx context.Context, rawTx []byte) (string, error)
	// Utxos is supported by UTXO-based chains only.
	Utxos(ctx context.Context, address string) ([]Utxo, error)
}

// ErrBackendNotFound is returned by a ChainRegistry for chain kinds without
// a configured backend.
var ErrBackendNotFound = errors.New("no backend configured for chain")

// ErrUtxosNotSupported is returned by account-based backends.
var ErrUtxosNotSupported = errors.New("utxos are supported only by bitcoin chains")

// ChainRegistry resolves the backend of a chain kind.
type ChainRegistry interface {
	Backend(kind domain.ChainKind) (ChainBackend, error)
}

// UtxoKey identifies an unspent output of a Bitcoin chain.
type UtxoKey interface {
	GetTxid() string
	GetIndex() uint32
}

// UtxoStatus tells whether the transaction owning an output is mined.
type UtxoStatus interface {
	IsConfirmed() bool
	GetBlockHeight() uint64
	GetBlockHash() string
}

// Utxo is an unspent output with its value in satoshis.
type Utxo interface {
	UtxoKey
	GetValue() uint64
	GetStatus() UtxoStatus
}
