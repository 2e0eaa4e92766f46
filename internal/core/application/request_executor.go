package application

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/pkg/txbuilder"
)

// requestExecutor dispatches the operation of a claimed request to the
// wallet.
type requestExecutor struct {
	wallet *walletService
	clock  clock.Clock
}

func (e *requestExecutor) execute(
	ctx context.Context, op domain.Operation,
) (*domain.ExecutionResult, error) {
	result := &domain.ExecutionResult{
		Method:    op.MethodName(),
		AccountID: op.AccountID(),
	}

	var err error
	switch op.Kind() {
	case domain.OperationCreateAccount:
		var view *domain.AccountView
		view, err = e.wallet.CreateAccount(
			ctx, op.CreateAccount.Environment, op.CreateAccount.Name,
		)
		if err == nil {
			result.AccountID = view.ID
			result.Address = view.Identifier
		}
	case domain.OperationRenameAccount:
		err = e.wallet.RenameAccount(
			ctx, op.RenameAccount.AccountID, op.RenameAccount.NewName,
		)
	case domain.OperationHideAccount:
		err = e.wallet.HideAccount(ctx, op.HideAccount.AccountID)
	case domain.OperationUnhideAccount:
		err = e.wallet.UnhideAccount(ctx, op.UnhideAccount.AccountID)
	case domain.OperationRemoveAccount:
		err = e.wallet.RemoveAccount(ctx, op.RemoveAccount.AccountID)
	case domain.OperationBindChain:
		kind := op.BindChain.Chain
		var binding *domain.ChainBinding
		binding, err = e.wallet.BindChain(ctx, op.BindChain.AccountID, kind)
		if err == nil {
			result.Chain = &kind
			result.Address = binding.Address
		}
	case domain.OperationUnbindChain:
		kind := op.UnbindChain.Chain
		err = e.wallet.UnbindChain(ctx, op.UnbindChain.AccountID, kind)
		result.Chain = &kind
	case domain.OperationUpdateSettings:
		err = e.wallet.UpdateSettings(ctx, op.UpdateSettings.Metadata)
	case domain.OperationEvmDeployContract:
		err = e.evmDeployContract(ctx, op.EvmDeployContract, result)
	case domain.OperationEvmTransfer:
		err = e.evmTransfer(ctx, op.EvmTransfer, result)
	case domain.OperationNativeTransfer:
		err = e.nativeTransfer(ctx, op.NativeTransfer, result)
	default:
		err = domain.ErrInvalidOperation
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *requestExecutor) evmDeployContract(
	ctx context.Context, args *domain.EvmDeployContractArgs,
	result *domain.ExecutionResult,
) error {
	kind := domain.EVM(args.ChainID)
	account, key, err := e.wallet.signingAccount(ctx, args.AccountID)
	if err != nil {
		return err
	}
	binding, err := account.Ledger.EvmBinding(args.ChainID)
	if err != nil {
		return err
	}

	tx, err := txbuilder.NewEvmTransaction(
		evmTxArgs(args.ChainID, args.EvmFeeArgs, nil, args.Value, args.Bytecode),
	)
	if err != nil {
		return err
	}
	contract, err := txbuilder.ContractAddress(binding.Address, args.Nonce)
	if err != nil {
		return err
	}

	signed, err := e.wallet.signEvmTransaction(ctx, account.Subaccount(), key, tx)
	if err != nil {
		return err
	}
	if err := e.submit(ctx, kind, signed, result); err != nil {
		return err
	}
	result.Chain = &kind
	result.Address = binding.Address
	result.ContractAddress = contract
	return nil
}

func (e *requestExecutor) evmTransfer(
	ctx context.Context, args *domain.EvmTransferArgs,
	result *domain.ExecutionResult,
) error {
	kind := domain.EVM(args.ChainID)
	account, key, err := e.wallet.signingAccount(ctx, args.AccountID)
	if err != nil {
		return err
	}
	binding, err := account.Ledger.EvmBinding(args.ChainID)
	if err != nil {
		return err
	}

	to := common.HexToAddress(args.To)
	tx, err := txbuilder.NewEvmTransaction(
		evmTxArgs(args.ChainID, args.EvmFeeArgs, &to, args.Value, args.Data),
	)
	if err != nil {
		return err
	}

	signed, err := e.wallet.signEvmTransaction(ctx, account.Subaccount(), key, tx)
	if err != nil {
		return err
	}
	if err := e.submit(ctx, kind, signed, result); err != nil {
		return err
	}
	result.Chain = &kind
	result.Address = binding.Address
	return nil
}

func (e *requestExecutor) nativeTransfer(
	ctx context.Context, args *domain.NativeTransferArgs,
	result *domain.ExecutionResult,
) error {
	kind := domain.NativeLedger()
	to, err := domain.ParseAccountIdentifier(args.To)
	if err != nil {
		return err
	}
	account, key, err := e.wallet.signingAccount(ctx, args.AccountID)
	if err != nil {
		return err
	}

	tx := txbuilder.NativeTransfer{
		From:      account.Ledger.PublicKeys.Identifier,
		To:        to,
		Amount:    args.Amount,
		Fee:       args.Fee,
		Memo:      args.Memo,
		CreatedAt: uint64(e.clock.Now().UnixNano()),
	}
	if err := tx.Validate(); err != nil {
		return err
	}

	sig, err := e.wallet.sign(ctx, account.Subaccount(), tx.Digest())
	if err != nil {
		return err
	}
	signed, err := tx.Sign(sig, key)
	if err != nil {
		return err
	}
	if err := e.submit(ctx, kind, signed, result); err != nil {
		return err
	}
	result.Chain = &kind
	result.Address = account.Ledger.PublicKeys.Identifier.String()
	return nil
}

// submit records the signed transaction in the result and broadcasts it
// when a backend is available for kind.
func (e *requestExecutor) submit(
	ctx context.Context, kind domain.ChainKind,
	signed *txbuilder.SignedTransaction, result *domain.ExecutionResult,
) error {
	result.SignedTx = hex.EncodeToString(signed.Raw)
	result.TxHash = signed.Hash

	txid, err := e.wallet.submit(ctx, kind, signed.Raw)
	if err != nil {
		return err
	}
	if txid != "" {
		result.Message = fmt.Sprintf("submitted as %s", txid)
	}
	return nil
}

func evmTxArgs(
	chainID uint64, fee domain.EvmFeeArgs, to *common.Address,
	value *big.Int, data []byte,
) txbuilder.EvmTxArgs {
	return txbuilder.EvmTxArgs{
		ChainID:              chainID,
		Nonce:                fee.Nonce,
		GasLimit:             fee.GasLimit,
		MaxFeePerGas:         fee.MaxFeePerGas,
		MaxPriorityFeePerGas: fee.MaxPriorityFeePerGas,
		To:                   to,
		Value:                value,
		Data:                 data,
	}
}
