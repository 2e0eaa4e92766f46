package txbuilder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// EvmTxArgs are the fields of an unsigned EVM transaction. A nil
// MaxPriorityFeePerGas builds a legacy EIP-155 transaction using
// MaxFeePerGas as gas price, otherwise an EIP-1559 one. A nil To builds a
// contract deployment.
type EvmTxArgs struct {
	ChainID              uint64
	Nonce                uint64
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	To                   *common.Address
	Value                *big.Int
	Data                 []byte
}

// EvmTransaction is an unsigned EVM transaction bound to a chain id.
type EvmTransaction struct {
	tx      *types.Transaction
	chainID *big.Int
	signer  types.Signer
}

// SignedTransaction is the result of embedding a signature into a
// transaction.
type SignedTransaction struct {
	Raw  []byte
	Hash string
}

// NewEvmTransaction ...
func NewEvmTransaction(args EvmTxArgs) (*EvmTransaction, error) {
	if args.MaxFeePerGas == nil {
		return nil, fmt.Errorf("%w: missing fee", ErrInvalidTransaction)
	}
	value := args.Value
	if value == nil {
		value = new(big.Int)
	}
	chainID := new(big.Int).SetUint64(args.ChainID)

	var inner types.TxData
	if args.MaxPriorityFeePerGas == nil {
		inner = &types.LegacyTx{
			Nonce:    args.Nonce,
			GasPrice: new(big.Int).Set(args.MaxFeePerGas),
			Gas:      args.GasLimit,
			To:       args.To,
			Value:    new(big.Int).Set(value),
			Data:     args.Data,
		}
	} else {
		inner = &types.DynamicFeeTx{
			ChainID:    chainID,
			Nonce:      args.Nonce,
			GasTipCap:  new(big.Int).Set(args.MaxPriorityFeePerGas),
			GasFeeCap:  new(big.Int).Set(args.MaxFeePerGas),
			Gas:        args.GasLimit,
			To:         args.To,
			Value:      new(big.Int).Set(value),
			Data:       args.Data,
			AccessList: types.AccessList{},
		}
	}
	return newEvmTransaction(types.NewTx(inner), chainID), nil
}

// legacyUnsignedTx is the 6-field RLP form some wallets produce for
// unsigned legacy transactions.
type legacyUnsignedTx struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
}

// ParseEvmTransaction decodes an unsigned raw transaction, either typed
// (EIP-2718) or legacy, to be signed for chainID.
func ParseEvmTransaction(raw []byte, chainID uint64) (*EvmTransaction, error) {
	if len(raw) <= 0 {
		return nil, ErrInvalidTransaction
	}
	id := new(big.Int).SetUint64(chainID)

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		legacy := legacyUnsignedTx{}
		if err := rlp.DecodeBytes(raw, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    legacy.Nonce,
			GasPrice: legacy.GasPrice,
			Gas:      legacy.Gas,
			To:       legacy.To,
			Value:    legacy.Value,
			Data:     legacy.Data,
		})
	}
	if tx.Type() != types.LegacyTxType && tx.ChainId().Cmp(id) != 0 {
		return nil, ErrChainIDMismatch
	}
	return newEvmTransaction(tx, id), nil
}

func newEvmTransaction(tx *types.Transaction, chainID *big.Int) *EvmTransaction {
	return &EvmTransaction{
		tx:      tx,
		chainID: chainID,
		signer:  types.LatestSignerForChainID(chainID),
	}
}

// Digest returns the 32-byte hash to sign.
func (t *EvmTransaction) Digest() []byte {
	return t.signer.Hash(t.tx).Bytes()
}

// Nonce ...
func (t *EvmTransaction) Nonce() uint64 {
	return t.tx.Nonce()
}

// ChainID ...
func (t *EvmTransaction) ChainID() uint64 {
	return t.chainID.Uint64()
}

// IsDeployment returns whether the transaction has no recipient.
func (t *EvmTransaction) IsDeployment() bool {
	return t.tx.To() == nil
}

// IsDynamicFee ...
func (t *EvmTransaction) IsDynamicFee() bool {
	return t.tx.Type() == types.DynamicFeeTxType
}

// Sign normalizes the oracle signature for the transaction digest and
// embeds it, returning the raw signed transaction and its hash.
func (t *EvmTransaction) Sign(signature, pubkey []byte) (*SignedTransaction, error) {
	sig, err := NormalizeSignature(t.Digest(), signature, pubkey)
	if err != nil {
		return nil, err
	}
	signed, err := t.tx.WithSignature(t.signer, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{
		Raw:  raw,
		Hash: signed.Hash().Hex(),
	}, nil
}

// ContractAddress returns the address of the contract deployed by sender
// with the given account nonce.
func ContractAddress(sender string, nonce uint64) (string, error) {
	if !common.IsHexAddress(sender) {
		return "", ErrInvalidSender
	}
	addr := crypto.CreateAddress(common.HexToAddress(sender), nonce)
	return "0x" + common.Bytes2Hex(addr.Bytes()), nil
}
