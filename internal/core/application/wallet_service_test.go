package application_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/b3pay/b3walletd/internal/core/application"
	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/pkg/txbuilder"
)

func TestAccountManagement(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cfg.WalletService()

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, "default", accounts[0].ID)
	require.Equal(t, "Default", accounts[0].Name)

	staging, err := svc.CreateAccount(ctx, domain.Staging, "")
	require.NoError(t, err)
	require.Equal(t, "staging_account_0", staging.ID)

	prod, err := svc.CreateAccount(ctx, domain.Production, "treasury")
	require.NoError(t, err)
	require.Equal(t, "account_1", prod.ID)
	require.Equal(t, "treasury", prod.Name)

	_, err = svc.CreateAccount(ctx, domain.Environment(0x12), "")
	require.ErrorIs(t, err, domain.ErrUnknownEnvironment)

	restored, err := svc.RestoreAccount(ctx, domain.Development, 5)
	require.NoError(t, err)
	require.Equal(t, "development_account_5", restored.ID)
	_, err = svc.RestoreAccount(ctx, domain.Development, 5)
	require.ErrorIs(t, err, domain.ErrAccountAlreadyExists)

	next, err := svc.CreateAccount(ctx, domain.Development, "")
	require.NoError(t, err)
	require.Equal(t, "development_account_6", next.ID)

	require.NoError(t, svc.RenameAccount(ctx, staging.ID, "ops"))
	require.ErrorIs(t, svc.RenameAccount(ctx, staging.ID, " "), domain.ErrInvalidAccountName)
	require.NoError(t, svc.HideAccount(ctx, staging.ID))
	require.NoError(t, svc.AddAccountMetadata(ctx, staging.ID, "team", "payments"))

	account, err := svc.GetAccount(ctx, staging.ID)
	require.NoError(t, err)
	require.Equal(t, "ops", account.Name)
	require.True(t, account.Hidden)
	require.Equal(t, "payments", account.Metadata["team"])

	require.NoError(t, svc.UnhideAccount(ctx, staging.ID))
	require.NoError(t, svc.RemoveAccountMetadata(ctx, staging.ID, "team"))
	account, err = svc.GetAccount(ctx, staging.ID)
	require.NoError(t, err)
	require.False(t, account.Hidden)
	require.Empty(t, account.Metadata)

	require.ErrorIs(t, svc.RemoveAccount(ctx, "default"), domain.ErrCannotRemoveDefaultAccount)
	require.NoError(t, svc.RemoveAccount(ctx, staging.ID))
	_, err = svc.GetAccount(ctx, staging.ID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.ErrorIs(t, svc.HideAccount(ctx, staging.ID), domain.ErrAccountNotFound)

	require.NoError(t, svc.UpdateSettings(ctx, map[string]string{"region": "eu"}))
	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, "eu", settings.Metadata["region"])

	require.NoError(t, svc.Reset(ctx))
	accounts, err = svc.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestEcdsaPublicKey(t *testing.T) {
	t.Run("acquired_once", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.cfg.WalletService()

		keys := make(chan []byte, 10)
		wg := &sync.WaitGroup{}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key, err := svc.EcdsaPublicKey(ctx, "default")
				require.NoError(t, err)
				keys <- key
			}()
		}
		wg.Wait()
		close(keys)

		var first []byte
		for key := range keys {
			require.Len(t, key, domain.CompressedPubKeyLength)
			if first == nil {
				first = key
			}
			require.Equal(t, first, key)
		}
		require.Equal(t, 1, env.signer.publicKeyCalls())

		addresses, err := svc.GetAddresses(ctx, "default")
		require.NoError(t, err)
		evmAddress, err := domain.EvmAddress(first)
		require.NoError(t, err)
		require.Equal(t, evmAddress, addresses[domain.EVM(0)])
		require.NotEmpty(t, addresses[domain.Bitcoin(domain.Mainnet)])
		require.NotEmpty(t, addresses[domain.NativeLedger()])
	})

	t.Run("canceled_caller", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.cfg.WalletService()
		gate := make(chan struct{})
		env.signer.hold(gate)

		callerCtx, cancel := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() {
			_, err := svc.EcdsaPublicKey(callerCtx, "default")
			errCh <- err
		}()
		require.Eventually(t, func() bool {
			return env.signer.publicKeyCalls() == 1
		}, time.Second, 5*time.Millisecond)

		keyCh := make(chan []byte, 1)
		go func() {
			key, err := svc.EcdsaPublicKey(ctx, "default")
			if err != nil {
				key = nil
			}
			keyCh <- key
		}()

		cancel()
		require.ErrorIs(t, <-errCh, context.Canceled)

		close(gate)
		key := <-keyCh
		require.Len(t, key, domain.CompressedPubKeyLength)

		stored, err := svc.EcdsaPublicKey(ctx, "default")
		require.NoError(t, err)
		require.Equal(t, key, stored)
		require.Equal(t, 1, env.signer.publicKeyCalls())
	})

	t.Run("signer_failure", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.cfg.WalletService()
		errUnreachable := errors.New("unreachable")
		env.signer.fail(errUnreachable)

		_, err := svc.EcdsaPublicKey(ctx, "default")
		require.ErrorIs(t, err, application.ErrSignerFailure)
		require.ErrorIs(t, err, errUnreachable)

		_, err = svc.BindChain(ctx, "default", domain.EVM(1))
		require.ErrorIs(t, err, application.ErrSignerFailure)

		account, err := svc.GetAccount(ctx, "default")
		require.NoError(t, err)
		require.NotContains(t, account.Chains, domain.EVM(1))

		env.signer.fail(nil)
		_, err = svc.EcdsaPublicKey(ctx, "default")
		require.NoError(t, err)
	})

	t.Run("unknown_account", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.cfg.WalletService().EcdsaPublicKey(ctx, "account_9")
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
		require.Zero(t, env.signer.publicKeyCalls())
	})
}

func TestBindChain(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cfg.WalletService()

	binding, err := svc.BindChain(ctx, "default", domain.WrappedBitcoin(domain.Mainnet))
	require.NoError(t, err)
	require.Zero(t, env.signer.publicKeyCalls())

	account, err := svc.GetAccount(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, account.Identifier, binding.Address)

	binding, err = svc.BindChain(ctx, "default", domain.EVM(137))
	require.NoError(t, err)
	require.Equal(t, 1, env.signer.publicKeyCalls())
	key, err := svc.EcdsaPublicKey(ctx, "default")
	require.NoError(t, err)
	evmAddress, err := domain.EvmAddress(key)
	require.NoError(t, err)
	require.Equal(t, evmAddress, binding.Address)

	binding, err = svc.BindChain(ctx, "default", domain.Bitcoin(domain.Testnet))
	require.NoError(t, err)
	btcAddress, err := domain.BitcoinAddress(key, domain.Testnet)
	require.NoError(t, err)
	require.Equal(t, btcAddress, binding.Address)
	require.Equal(t, 1, env.signer.publicKeyCalls())

	_, err = svc.BindChain(ctx, "default", domain.GenericToken(""))
	require.Error(t, err)

	account, err = svc.GetAccount(ctx, "default")
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.ChainKind{
		domain.NativeLedger(),
		domain.WrappedBitcoin(domain.Mainnet),
		domain.EVM(137),
		domain.Bitcoin(domain.Testnet),
	}, account.Chains)

	require.NoError(t, svc.UnbindChain(ctx, "default", domain.EVM(137)))
	require.ErrorIs(t, svc.UnbindChain(ctx, "default", domain.EVM(137)), domain.ErrChainNotFound)
}

func TestBalances(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cfg.WalletService()

	_, err := svc.GetBalance(ctx, "default", domain.EVM(1))
	require.ErrorIs(t, err, domain.ErrChainNotBound)

	binding, err := svc.BindChain(ctx, "default", domain.EVM(1))
	require.NoError(t, err)
	_, err = svc.BindChain(ctx, "default", domain.Bitcoin(domain.Regtest))
	require.NoError(t, err)

	_, err = svc.GetBalance(ctx, "default", domain.EVM(1))
	require.ErrorIs(t, err, application.ErrChainBackendNotFound)

	evmBackend := &mockChainBackend{}
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	evmBackend.On("Balance", binding.Address).Return(wei, nil)
	evmBackend.On("FeeRate").Return(uint64(30_000_000_000), nil)
	env.chains[domain.EVM(1)] = evmBackend

	balance, err := svc.GetBalance(ctx, "default", domain.EVM(1))
	require.NoError(t, err)
	require.Equal(t, wei, balance.Amount)
	require.Equal(t, "1.5", balance.Value.String())

	rate, err := svc.GetFeeRate(ctx, domain.EVM(1))
	require.NoError(t, err)
	require.Equal(t, uint64(30_000_000_000), rate)

	// Bound chains without a backend are skipped.
	balances, err := svc.GetBalances(ctx, "default")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	require.Equal(t, domain.EVM(1), balances[0].Chain)

	btcBackend := &mockChainBackend{}
	btcBackend.On("Balance", mock.Anything).Return(nil, errors.New("timeout"))
	env.chains[domain.Bitcoin(domain.Regtest)] = btcBackend

	_, err = svc.GetBalances(ctx, "default")
	require.ErrorIs(t, err, application.ErrChainBackendFailure)
}

func TestUtxos(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cfg.WalletService()

	_, err := svc.GetUtxos(ctx, "default", domain.Regtest)
	require.ErrorIs(t, err, domain.ErrChainNotBound)

	binding, err := svc.BindChain(ctx, "default", domain.Bitcoin(domain.Regtest))
	require.NoError(t, err)

	backend := &mockChainBackend{}
	backend.On("Utxos", binding.Address).Return([]ports.Utxo{
		mockUtxo{txid: "aa", index: 1, value: 1000},
	}, nil)
	env.chains[domain.Bitcoin(domain.Regtest)] = backend

	utxos, err := svc.GetUtxos(ctx, "default", domain.Regtest)
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	require.Equal(t, uint64(1000), utxos[0].GetValue())
}

func TestSignMessage(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cfg.WalletService()
	digest := chainhash.HashB([]byte("hello"))

	_, err := svc.SignMessage(ctx, application.SignMessageArgs{
		AccountID: "default",
		Digest:    []byte("short"),
	})
	require.ErrorIs(t, err, txbuilder.ErrInvalidMessageLength)

	_, err = svc.SignMessage(ctx, application.SignMessageArgs{Digest: digest})
	require.ErrorIs(t, err, application.ErrInvalidArgument)

	sig, err := svc.SignMessage(ctx, application.SignMessageArgs{
		AccountID: "default",
		Digest:    digest,
	})
	require.NoError(t, err)
	require.Len(t, sig, txbuilder.SignatureLength)

	compact := append([]byte{27 + 4 + sig[64]}, sig[:64]...)
	pubkey, _, err := ecdsa.RecoverCompact(compact, digest)
	require.NoError(t, err)
	key, err := svc.EcdsaPublicKey(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, key, pubkey.SerializeCompressed())
}

func TestSignEvmTransaction(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cfg.WalletService()

	to := common.HexToAddress("0x2b5ad5c4795c026514f8317c7a215e218dccd6cf")
	unsigned, err := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(5),
		Nonce:     3,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(20_000_000_000),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
	}).MarshalBinary()
	require.NoError(t, err)

	args := application.SignEvmTransactionArgs{
		AccountID: "default",
		ChainID:   5,
		RawTx:     unsigned,
	}
	_, err = svc.SignEvmTransaction(ctx, args)
	require.ErrorIs(t, err, domain.ErrChainIDNotInitialized)

	binding, err := svc.BindChain(ctx, "default", domain.EVM(5))
	require.NoError(t, err)

	signed, err := svc.SignEvmTransaction(ctx, args)
	require.NoError(t, err)

	tx := &types.Transaction{}
	require.NoError(t, tx.UnmarshalBinary(signed.Raw))
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(5)), tx)
	require.NoError(t, err)
	require.Equal(t, binding.Address, "0x"+common.Bytes2Hex(sender.Bytes()))
	require.Equal(t, tx.Hash().Hex(), signed.Hash)

	_, err = svc.BindChain(ctx, "default", domain.EVM(1))
	require.NoError(t, err)
	args.ChainID = 1
	_, err = svc.SignEvmTransaction(ctx, args)
	require.ErrorIs(t, err, txbuilder.ErrChainIDMismatch)
}
