package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OperationKind is the discriminant of an Operation.
type OperationKind int

const (
	OperationUnknown OperationKind = iota
	OperationCreateAccount
	OperationRenameAccount
	OperationHideAccount
	OperationUnhideAccount
	OperationRemoveAccount
	OperationBindChain
	OperationUnbindChain
	OperationUpdateSettings
	OperationEvmDeployContract
	OperationEvmTransfer
	OperationNativeTransfer
)

var operationMethods = map[OperationKind]string{
	OperationCreateAccount:     "create_account",
	OperationRenameAccount:     "rename_account",
	OperationHideAccount:       "hide_account",
	OperationUnhideAccount:     "unhide_account",
	OperationRemoveAccount:     "remove_account",
	OperationBindChain:         "bind_chain",
	OperationUnbindChain:       "unbind_chain",
	OperationUpdateSettings:    "update_settings",
	OperationEvmDeployContract: "evm_deploy_contract",
	OperationEvmTransfer:       "evm_transfer",
	OperationNativeTransfer:    "native_transfer",
}

func (k OperationKind) String() string {
	if m, ok := operationMethods[k]; ok {
		return m
	}
	return "unknown"
}

// CreateAccountArgs ...
type CreateAccountArgs struct {
	Environment Environment `json:"environment"`
	Name        string      `json:"name,omitempty"`
}

// RenameAccountArgs ...
type RenameAccountArgs struct {
	AccountID string `json:"account_id"`
	NewName   string `json:"new_name"`
}

// AccountArgs is the payload of operations that only target an account.
type AccountArgs struct {
	AccountID string `json:"account_id"`
}

// ChainArgs ...
type ChainArgs struct {
	AccountID string    `json:"account_id"`
	Chain     ChainKind `json:"chain"`
}

// UpdateSettingsArgs ...
type UpdateSettingsArgs struct {
	Metadata map[string]string `json:"metadata"`
}

// EvmFeeArgs are the fee fields of an EVM transaction. A nil
// MaxPriorityFeePerGas selects a legacy transaction priced with
// MaxFeePerGas as gas price.
type EvmFeeArgs struct {
	Nonce                uint64   `json:"nonce"`
	GasLimit             uint64   `json:"gas_limit"`
	MaxFeePerGas         *big.Int `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *big.Int `json:"max_priority_fee_per_gas,omitempty"`
}

// EvmDeployContractArgs ...
type EvmDeployContractArgs struct {
	EvmFeeArgs
	AccountID string        `json:"account_id"`
	ChainID   uint64        `json:"chain_id"`
	Value     *big.Int      `json:"value,omitempty"`
	Bytecode  hexutil.Bytes `json:"bytecode"`
}

// EvmTransferArgs ...
type EvmTransferArgs struct {
	EvmFeeArgs
	AccountID string        `json:"account_id"`
	ChainID   uint64        `json:"chain_id"`
	To        string        `json:"to"`
	Value     *big.Int      `json:"value"`
	Data      hexutil.Bytes `json:"data,omitempty"`
}

// NativeTransferArgs ...
type NativeTransferArgs struct {
	AccountID string `json:"account_id"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
	Fee       uint64 `json:"fee"`
	Memo      uint64 `json:"memo,omitempty"`
}

// Operation is the privileged operation carried by a request. Exactly one
// field must be set.
type Operation struct {
	CreateAccount     *CreateAccountArgs     `json:"create_account,omitempty"`
	RenameAccount     *RenameAccountArgs     `json:"rename_account,omitempty"`
	HideAccount       *AccountArgs           `json:"hide_account,omitempty"`
	UnhideAccount     *AccountArgs           `json:"unhide_account,omitempty"`
	RemoveAccount     *AccountArgs           `json:"remove_account,omitempty"`
	BindChain         *ChainArgs             `json:"bind_chain,omitempty"`
	UnbindChain       *ChainArgs             `json:"unbind_chain,omitempty"`
	UpdateSettings    *UpdateSettingsArgs    `json:"update_settings,omitempty"`
	EvmDeployContract *EvmDeployContractArgs `json:"evm_deploy_contract,omitempty"`
	EvmTransfer       *EvmTransferArgs       `json:"evm_transfer,omitempty"`
	NativeTransfer    *NativeTransferArgs    `json:"native_transfer,omitempty"`
}

// Kind returns the kind of the set field, or OperationUnknown if none or
// more than one is set.
func (o Operation) Kind() OperationKind {
	kinds := make([]OperationKind, 0, 1)
	if o.CreateAccount != nil {
		kinds = append(kinds, OperationCreateAccount)
	}
	if o.RenameAccount != nil {
		kinds = append(kinds, OperationRenameAccount)
	}
	if o.HideAccount != nil {
		kinds = append(kinds, OperationHideAccount)
	}
	if o.UnhideAccount != nil {
		kinds = append(kinds, OperationUnhideAccount)
	}
	if o.RemoveAccount != nil {
		kinds = append(kinds, OperationRemoveAccount)
	}
	if o.BindChain != nil {
		kinds = append(kinds, OperationBindChain)
	}
	if o.UnbindChain != nil {
		kinds = append(kinds, OperationUnbindChain)
	}
	if o.UpdateSettings != nil {
		kinds = append(kinds, OperationUpdateSettings)
	}
	if o.EvmDeployContract != nil {
		kinds = append(kinds, OperationEvmDeployContract)
	}
	if o.EvmTransfer != nil {
		kinds = append(kinds, OperationEvmTransfer)
	}
	if o.NativeTransfer != nil {
		kinds = append(kinds, OperationNativeTransfer)
	}
	if len(kinds) != 1 {
		return OperationUnknown
	}
	return kinds[0]
}

// MethodName ...
func (o Operation) MethodName() string {
	return o.Kind().String()
}

// MinimumRole returns the least role that can be required to execute the
// operation. Account cosmetics only need a signer.
func (o Operation) MinimumRole() Role {
	switch o.Kind() {
	case OperationRenameAccount, OperationHideAccount, OperationUnhideAccount:
		return RoleSigner
	default:
		return RoleAdmin
	}
}

// AccountID returns the id of the account targeted by the operation, if
// any.
func (o Operation) AccountID() string {
	switch o.Kind() {
	case OperationRenameAccount:
		return o.RenameAccount.AccountID
	case OperationHideAccount:
		return o.HideAccount.AccountID
	case OperationUnhideAccount:
		return o.UnhideAccount.AccountID
	case OperationRemoveAccount:
		return o.RemoveAccount.AccountID
	case OperationBindChain:
		return o.BindChain.AccountID
	case OperationUnbindChain:
		return o.UnbindChain.AccountID
	case OperationEvmDeployContract:
		return o.EvmDeployContract.AccountID
	case OperationEvmTransfer:
		return o.EvmTransfer.AccountID
	case OperationNativeTransfer:
		return o.NativeTransfer.AccountID
	default:
		return ""
	}
}

// Validate performs the checks that do not depend on the wallet state.
func (o Operation) Validate() error {
	kind := o.Kind()
	if kind == OperationUnknown {
		return fmt.Errorf("%w: exactly one operation must be set", ErrInvalidOperation)
	}
	if kind != OperationCreateAccount && kind != OperationUpdateSettings {
		if strings.TrimSpace(o.AccountID()) == "" {
			return fmt.Errorf("%w: missing account id", ErrInvalidOperation)
		}
	}

	switch kind {
	case OperationCreateAccount:
		if !o.CreateAccount.Environment.IsValid() {
			return ErrUnknownEnvironment
		}
	case OperationRenameAccount:
		if strings.TrimSpace(o.RenameAccount.NewName) == "" {
			return ErrInvalidAccountName
		}
	case OperationBindChain:
		return o.BindChain.Chain.Validate()
	case OperationUnbindChain:
		return o.UnbindChain.Chain.Validate()
	case OperationUpdateSettings:
		for k := range o.UpdateSettings.Metadata {
			if k == "" {
				return ErrInvalidMetadataKey
			}
		}
	case OperationEvmDeployContract:
		args := o.EvmDeployContract
		if len(args.Bytecode) <= 0 {
			return fmt.Errorf("%w: missing contract bytecode", ErrInvalidOperation)
		}
		if err := validateAmount(args.Value, true); err != nil {
			return err
		}
		return args.EvmFeeArgs.validate()
	case OperationEvmTransfer:
		args := o.EvmTransfer
		if !common.IsHexAddress(args.To) {
			return fmt.Errorf("%w: invalid recipient %q", ErrInvalidOperation, args.To)
		}
		if err := validateAmount(args.Value, false); err != nil {
			return err
		}
		return args.EvmFeeArgs.validate()
	case OperationNativeTransfer:
		args := o.NativeTransfer
		if _, err := ParseAccountIdentifier(args.To); err != nil {
			return err
		}
		if args.Amount == 0 {
			return fmt.Errorf("%w: amount must be positive", ErrInvalidOperation)
		}
	}
	return nil
}

func (f EvmFeeArgs) validate() error {
	if f.GasLimit == 0 {
		return fmt.Errorf("%w: gas limit must be positive", ErrInvalidOperation)
	}
	if f.MaxFeePerGas == nil || f.MaxFeePerGas.Sign() < 0 {
		return fmt.Errorf("%w: invalid max fee per gas", ErrInvalidOperation)
	}
	if f.MaxPriorityFeePerGas != nil {
		if f.MaxPriorityFeePerGas.Sign() < 0 || f.MaxPriorityFeePerGas.Cmp(f.MaxFeePerGas) > 0 {
			return fmt.Errorf("%w: invalid max priority fee per gas", ErrInvalidOperation)
		}
	}
	return nil
}

func validateAmount(v *big.Int, optional bool) error {
	if v == nil {
		if optional {
			return nil
		}
		return fmt.Errorf("%w: missing value", ErrInvalidOperation)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%w: value must not be negative", ErrInvalidOperation)
	}
	return nil
}

// ExecutionResult is the outcome of a completed request. Only the fields
// relevant to the operation are set.
type ExecutionResult struct {
	Method          string     `json:"method"`
	AccountID       string     `json:"account_id,omitempty"`
	Chain           *ChainKind `json:"chain,omitempty"`
	Address         string     `json:"address,omitempty"`
	SignedTx        string     `json:"signed_tx,omitempty"`
	TxHash          string     `json:"tx_hash,omitempty"`
	ContractAddress string     `json:"contract_address,omitempty"`
	Message         string     `json:"message,omitempty"`
}
