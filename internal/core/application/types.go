package application

import (
	"fmt"
	"math/big"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/pkg/txbuilder"
)

// Balance is the balance of an account on a bound chain, both in base unit
// and in whole coins.
type Balance struct {
	Chain   domain.ChainKind `json:"chain"`
	Address string           `json:"address"`
	Amount  *big.Int         `json:"amount"`
	Value   decimal.Decimal  `json:"value"`
}

func newBalance(kind domain.ChainKind, address string, amount *big.Int) Balance {
	return Balance{
		Chain:   kind,
		Address: address,
		Amount:  amount,
		Value:   decimal.NewFromBigInt(amount, -kind.Decimals()),
	}
}

// PendingTransfersView is the read-only view of the pending transfers of a
// bridge chain.
type PendingTransfersView struct {
	Chain   domain.ChainKind `json:"chain"`
	Receive []string         `json:"receive"`
	Send    []string         `json:"send"`
}

// BridgeInArgs ...
type BridgeInArgs struct {
	AccountID string
	Chain     domain.ChainKind
	Amount    uint64
}

func (a BridgeInArgs) validate() error {
	if !a.Chain.IsBridge() {
		return domain.ErrBridgeNotInitialized
	}
	return invalidArgument(validation.ValidateStruct(
		&a,
		validation.Field(&a.AccountID, validation.Required),
		validation.Field(&a.Amount, validation.Required),
	))
}

// BridgeOutArgs ...
type BridgeOutArgs struct {
	AccountID   string
	Chain       domain.ChainKind
	Destination string
	Amount      uint64
}

func (a BridgeOutArgs) validate() error {
	if !a.Chain.IsBridge() {
		return domain.ErrBridgeNotInitialized
	}
	return invalidArgument(validation.ValidateStruct(
		&a,
		validation.Field(&a.AccountID, validation.Required),
		validation.Field(&a.Destination, validation.Required),
		validation.Field(&a.Amount, validation.Required),
	))
}

// SignMessageArgs ...
type SignMessageArgs struct {
	AccountID string
	Digest    []byte
}

func (a SignMessageArgs) validate() error {
	if err := validation.ValidateStruct(
		&a,
		validation.Field(&a.AccountID, validation.Required),
	); err != nil {
		return invalidArgument(err)
	}
	if len(a.Digest) != txbuilder.DigestLength {
		return txbuilder.ErrInvalidMessageLength
	}
	return nil
}

// SignEvmTransactionArgs ...
type SignEvmTransactionArgs struct {
	AccountID string
	ChainID   uint64
	RawTx     []byte
}

func (a SignEvmTransactionArgs) validate() error {
	return invalidArgument(validation.ValidateStruct(
		&a,
		validation.Field(&a.AccountID, validation.Required),
		validation.Field(&a.RawTx, validation.Required),
	))
}

func invalidArgument(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}
