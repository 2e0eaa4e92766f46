package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/pkg/txbuilder"
)

type WalletService interface {
	// Init loads the stored wallet, creating it with the default account
	// on first run.
	Init(ctx context.Context) error
	ListAccounts(ctx context.Context) ([]domain.AccountView, error)
	GetAccount(ctx context.Context, accountID string) (*domain.AccountView, error)
	CreateAccount(
		ctx context.Context, env domain.Environment, name string,
	) (*domain.AccountView, error)
	RestoreAccount(
		ctx context.Context, env domain.Environment, nonce uint64,
	) (*domain.AccountView, error)
	RenameAccount(ctx context.Context, accountID, name string) error
	HideAccount(ctx context.Context, accountID string) error
	UnhideAccount(ctx context.Context, accountID string) error
	RemoveAccount(ctx context.Context, accountID string) error
	AddAccountMetadata(ctx context.Context, accountID, key, value string) error
	RemoveAccountMetadata(ctx context.Context, accountID, key string) error
	GetSettings(ctx context.Context) (*domain.WalletSettings, error)
	UpdateSettings(ctx context.Context, metadata map[string]string) error

	// EcdsaPublicKey returns the public key of the account, acquiring it
	// from the signing oracle the first time.
	EcdsaPublicKey(ctx context.Context, accountID string) ([]byte, error)
	BindChain(
		ctx context.Context, accountID string, kind domain.ChainKind,
	) (*domain.ChainBinding, error)
	UnbindChain(ctx context.Context, accountID string, kind domain.ChainKind) error
	GetAddresses(
		ctx context.Context, accountID string,
	) (map[domain.ChainKind]string, error)

	GetBalance(
		ctx context.Context, accountID string, kind domain.ChainKind,
	) (*Balance, error)
	GetBalances(ctx context.Context, accountID string) ([]Balance, error)
	GetUtxos(
		ctx context.Context, accountID string, network domain.BitcoinNetwork,
	) ([]ports.Utxo, error)
	GetFeeRate(ctx context.Context, kind domain.ChainKind) (uint64, error)

	SignMessage(ctx context.Context, args SignMessageArgs) ([]byte, error)
	SignEvmTransaction(
		ctx context.Context, args SignEvmTransactionArgs,
	) (*txbuilder.SignedTransaction, error)

	Reset(ctx context.Context) error
}

type walletService struct {
	owner      []byte
	repository domain.WalletRepository
	signer     ports.Signer
	chains     ports.ChainRegistry

	keyRequests singleflight.Group
}

func NewWalletService(
	owner []byte,
	repository domain.WalletRepository,
	signer ports.Signer,
	chains ports.ChainRegistry,
) (WalletService, error) {
	return newWalletService(owner, repository, signer, chains)
}

func newWalletService(
	owner []byte,
	repository domain.WalletRepository,
	signer ports.Signer,
	chains ports.ChainRegistry,
) (*walletService, error) {
	if len(owner) <= 0 {
		return nil, domain.ErrInvalidOwner
	}
	if repository == nil {
		return nil, fmt.Errorf("missing wallet repository")
	}
	if signer == nil {
		return nil, fmt.Errorf("missing signer")
	}
	return &walletService{
		owner:      owner,
		repository: repository,
		signer:     signer,
		chains:     chains,
	}, nil
}

func (w *walletService) Init(ctx context.Context) error {
	wallet, err := w.repository.GetOrCreateWallet(ctx, w.owner)
	if err != nil {
		return err
	}
	log.Debugf("wallet loaded with %d accounts", len(wallet.Accounts))
	return nil
}

func (w *walletService) ListAccounts(ctx context.Context) ([]domain.AccountView, error) {
	wallet, err := w.repository.GetWallet(ctx)
	if err != nil {
		return nil, err
	}
	return wallet.AccountViews(), nil
}

func (w *walletService) GetAccount(
	ctx context.Context, accountID string,
) (*domain.AccountView, error) {
	account, err := w.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	view := account.View()
	return &view, nil
}

func (w *walletService) CreateAccount(
	ctx context.Context, env domain.Environment, name string,
) (*domain.AccountView, error) {
	if !env.IsValid() {
		return nil, domain.ErrUnknownEnvironment
	}

	var view domain.AccountView
	if err := w.repository.UpdateWallet(
		ctx,
		func(wallet *domain.Wallet) (*domain.Wallet, error) {
			account := wallet.CreateAccount(env, name)
			view = account.View()
			return wallet, nil
		},
	); err != nil {
		return nil, err
	}

	log.WithField("account", view.ID).Info("account created")
	return &view, nil
}

func (w *walletService) RestoreAccount(
	ctx context.Context, env domain.Environment, nonce uint64,
) (*domain.AccountView, error) {
	var view domain.AccountView
	if err := w.repository.UpdateWallet(
		ctx,
		func(wallet *domain.Wallet) (*domain.Wallet, error) {
			account, err := wallet.RestoreAccount(env, nonce)
			if err != nil {
				return nil, err
			}
			view = account.View()
			return wallet, nil
		},
	); err != nil {
		return nil, err
	}

	log.WithField("account", view.ID).Info("account restored")
	return &view, nil
}

func (w *walletService) RenameAccount(
	ctx context.Context, accountID, name string,
) error {
	return w.updateAccount(ctx, accountID, func(a *domain.WalletAccount) error {
		return a.Rename(name)
	})
}

func (w *walletService) HideAccount(ctx context.Context, accountID string) error {
	return w.updateAccount(ctx, accountID, func(a *domain.WalletAccount) error {
		a.Hide()
		return nil
	})
}

func (w *walletService) UnhideAccount(ctx context.Context, accountID string) error {
	return w.updateAccount(ctx, accountID, func(a *domain.WalletAccount) error {
		a.Unhide()
		return nil
	})
}

func (w *walletService) RemoveAccount(ctx context.Context, accountID string) error {
	if err := w.repository.UpdateWallet(
		ctx,
		func(wallet *domain.Wallet) (*domain.Wallet, error) {
			if err := wallet.RemoveAccount(accountID); err != nil {
				return nil, err
			}
			return wallet, nil
		},
	); err != nil {
		return err
	}

	log.WithField("account", accountID).Info("account removed")
	return nil
}

func (w *walletService) AddAccountMetadata(
	ctx context.Context, accountID, key, value string,
) error {
	return w.updateAccount(ctx, accountID, func(a *domain.WalletAccount) error {
		return a.AddMetadata(key, value)
	})
}

func (w *walletService) RemoveAccountMetadata(
	ctx context.Context, accountID, key string,
) error {
	return w.updateAccount(ctx, accountID, func(a *domain.WalletAccount) error {
		a.RemoveMetadata(key)
		return nil
	})
}

func (w *walletService) GetSettings(ctx context.Context) (*domain.WalletSettings, error) {
	wallet, err := w.repository.GetWallet(ctx)
	if err != nil {
		return nil, err
	}
	return &wallet.Settings, nil
}

func (w *walletService) UpdateSettings(
	ctx context.Context, metadata map[string]string,
) error {
	return w.repository.UpdateWallet(
		ctx,
		func(wallet *domain.Wallet) (*domain.Wallet, error) {
			if err := wallet.UpdateSettings(metadata); err != nil {
				return nil, err
			}
			return wallet, nil
		},
	)
}

func (w *walletService) EcdsaPublicKey(
	ctx context.Context, accountID string,
) ([]byte, error) {
	account, err := w.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if key, err := account.Ledger.PublicKeys.Ecdsa(); err == nil {
		return key, nil
	}

	sub := account.Subaccount()
	// Concurrent acquisitions for the same subaccount share one oracle call.
	// The shared call outlives the cancellation of whichever caller started
	// it, every caller still stops waiting on its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	resCh := w.keyRequests.DoChan(sub.String(), func() (interface{}, error) {
		return w.acquirePublicKey(flightCtx, accountID, sub)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]byte{}, res.Val.([]byte)...), nil
	}
}

func (w *walletService) acquirePublicKey(
	ctx context.Context, accountID string, sub domain.Subaccount,
) ([]byte, error) {
	// A previous flight may have completed in the meantime.
	account, err := w.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if key, err := account.Ledger.PublicKeys.Ecdsa(); err == nil {
		return key, nil
	}

	key, err := w.signer.PublicKey(ctx, sub.DerivationPath(), sub.KeyConfig().KeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignerFailure, err)
	}
	if _, err := domain.ParseEcdsaPublicKey(key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignerFailure, err)
	}

	var storedKey []byte
	if err := w.repository.UpdateWallet(
		ctx,
		func(wallet *domain.Wallet) (*domain.Wallet, error) {
			account, err := wallet.Account(accountID)
			if err != nil {
				return nil, err
			}
			keys := &account.Ledger.PublicKeys
			if _, err := keys.SetEcdsa(key); err != nil {
				if !errors.Is(err, domain.ErrPublicKeyAlreadySet) {
					return nil, err
				}
				// Another writer won, keep its key.
				storedKey, _ = keys.Ecdsa()
				return nil, err
			}
			storedKey = key
			return wallet, nil
		},
	); err != nil && !errors.Is(err, domain.ErrPublicKeyAlreadySet) {
		return nil, err
	}

	log.WithField("account", accountID).Debug("ecdsa public key set")
	return storedKey, nil
}

func (w *walletService) BindChain(
	ctx context.Context, accountID string, kind domain.ChainKind,
) (*domain.ChainBinding, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if kind.RequiresPublicKey() {
		if _, err := w.EcdsaPublicKey(ctx, accountID); err != nil {
			return nil, err
		}
	}

	var binding *domain.ChainBinding
	if err := w.updateAccount(ctx, accountID, func(a *domain.WalletAccount) error {
		b, err := a.Ledger.BindChain(kind)
		if err != nil {
			return err
		}
		binding = b.Clone()
		return nil
	}); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"account": accountID,
		"chain":   kind.String(),
	}).Info("chain bound")
	return binding, nil
}

func (w *walletService) UnbindChain(
	ctx context.Context, accountID string, kind domain.ChainKind,
) error {
	return w.updateAccount(ctx, accountID, func(a *domain.WalletAccount) error {
		return a.Ledger.RemoveBinding(kind)
	})
}

func (w *walletService) GetAddresses(
	ctx context.Context, accountID string,
) (map[domain.ChainKind]string, error) {
	account, err := w.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Ledger.PublicKeys.AddressMap(), nil
}

func (w *walletService) GetBalance(
	ctx context.Context, accountID string, kind domain.ChainKind,
) (*Balance, error) {
	account, err := w.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	binding, err := account.Ledger.Binding(kind)
	if err != nil {
		return nil, err
	}
	balance, err := w.balance(ctx, kind, binding.Address)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (w *walletService) GetBalances(
	ctx context.Context, accountID string,
) ([]Balance, error) {
	account, err := w.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	kinds := make([]domain.ChainKind, 0)
	for _, kind := range account.Ledger.BoundChains() {
		if _, err := w.backend(kind); err == nil {
			kinds = append(kinds, kind)
		}
	}

	balances := make([]Balance, len(kinds))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		i, kind := i, kind
		address := account.Ledger.Chains[kind].Address
		eg.Go(func() error {
			balance, err := w.balance(egCtx, kind, address)
			if err != nil {
				return err
			}
			balances[i] = balance
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return balances, nil
}

func (w *walletService) GetUtxos(
	ctx context.Context, accountID string, network domain.BitcoinNetwork,
) ([]ports.Utxo, error) {
	kind := domain.Bitcoin(network)
	account, err := w.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	binding, err := account.Ledger.Binding(kind)
	if err != nil {
		return nil, err
	}
	backend, err := w.backend(kind)
	if err != nil {
		return nil, err
	}

	utxos, err := backend.Utxos(ctx, binding.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChainBackendFailure, err)
	}
	return utxos, nil
}

func (w *walletService) GetFeeRate(
	ctx context.Context, kind domain.ChainKind,
) (uint64, error) {
	backend, err := w.backend(kind)
	if err != nil {
		return 0, err
	}
	rate, err := backend.FeeRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrChainBackendFailure, err)
	}
	return rate, nil
}

func (w *walletService) SignMessage(
	ctx context.Context, args SignMessageArgs,
) ([]byte, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	account, key, err := w.signingAccount(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}

	sig, err := w.sign(ctx, account.Subaccount(), args.Digest)
	if err != nil {
		return nil, err
	}
	return txbuilder.NormalizeSignature(args.Digest, sig, key)
}

func (w *walletService) SignEvmTransaction(
	ctx context.Context, args SignEvmTransactionArgs,
) (*txbuilder.SignedTransaction, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	account, key, err := w.signingAccount(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	if _, err := account.Ledger.EvmBinding(args.ChainID); err != nil {
		return nil, err
	}

	tx, err := txbuilder.ParseEvmTransaction(args.RawTx, args.ChainID)
	if err != nil {
		return nil, err
	}
	return w.signEvmTransaction(ctx, account.Subaccount(), key, tx)
}

func (w *walletService) Reset(ctx context.Context) error {
	if err := w.repository.UpdateWallet(
		ctx,
		func(wallet *domain.Wallet) (*domain.Wallet, error) {
			wallet.Reset()
			return wallet, nil
		},
	); err != nil {
		return err
	}

	log.Warn("wallet reset")
	return nil
}

func (w *walletService) updateAccount(
	ctx context.Context, accountID string,
	updateFn func(a *domain.WalletAccount) error,
) error {
	return w.repository.UpdateWallet(
		ctx,
		func(wallet *domain.Wallet) (*domain.Wallet, error) {
			account, err := wallet.Account(accountID)
			if err != nil {
				return nil, err
			}
			if err := updateFn(account); err != nil {
				return nil, err
			}
			return wallet, nil
		},
	)
}

// signingAccount returns the account together with its public key,
// acquiring the key if not yet set.
func (w *walletService) signingAccount(
	ctx context.Context, accountID string,
) (*domain.WalletAccount, []byte, error) {
	key, err := w.EcdsaPublicKey(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	account, err := w.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	return account, key, nil
}

func (w *walletService) sign(
	ctx context.Context, sub domain.Subaccount, digest []byte,
) ([]byte, error) {
	if len(digest) != txbuilder.DigestLength {
		return nil, txbuilder.ErrInvalidMessageLength
	}
	sig, err := w.signer.Sign(ctx, digest, sub.DerivationPath(), sub.KeyConfig().KeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignerFailure, err)
	}
	return sig, nil
}

func (w *walletService) signEvmTransaction(
	ctx context.Context, sub domain.Subaccount, key []byte,
	tx *txbuilder.EvmTransaction,
) (*txbuilder.SignedTransaction, error) {
	sig, err := w.sign(ctx, sub, tx.Digest())
	if err != nil {
		return nil, err
	}
	return tx.Sign(sig, key)
}

func (w *walletService) backend(kind domain.ChainKind) (ports.ChainBackend, error) {
	if w.chains == nil {
		return nil, ErrChainBackendNotFound
	}
	return w.chains.Backend(kind)
}

func (w *walletService) balance(
	ctx context.Context, kind domain.ChainKind, address string,
) (Balance, error) {
	backend, err := w.backend(kind)
	if err != nil {
		return Balance{}, err
	}
	amount, err := backend.Balance(ctx, address)
	if err != nil {
		return Balance{}, fmt.Errorf("%w: %w", ErrChainBackendFailure, err)
	}
	if amount == nil {
		amount = new(big.Int)
	}
	return newBalance(kind, address, amount), nil
}

// submit broadcasts the signed transaction if a backend is configured for
// kind. An empty id is returned otherwise.
func (w *walletService) submit(
	ctx context.Context, kind domain.ChainKind, raw []byte,
) (string, error) {
	backend, err := w.backend(kind)
	if err != nil {
		if errors.Is(err, ErrChainBackendNotFound) {
			return "", nil
		}
		return "", err
	}
	txid, err := backend.SubmitTransfer(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrChainBackendFailure, err)
	}
	return txid, nil
}
