package inmemory

import (
	"context"

	"github.com/b3pay/b3walletd/internal/core/domain"
)

type walletRepositoryImpl struct {
	store *walletInmemoryStore
}

// NewWalletRepositoryImpl returns a new inmemory WalletRepository
// implementation. Wallets are copied in and out of the store so that callers
// never share state with it.
func NewWalletRepositoryImpl(store *walletInmemoryStore) domain.WalletRepository {
	return &walletRepositoryImpl{store}
}

func (r *walletRepositoryImpl) GetOrCreateWallet(
	_ context.Context, owner []byte,
) (*domain.Wallet, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.wallet != nil {
		return r.store.wallet.Clone(), nil
	}

	wallet, err := domain.NewWallet(owner)
	if err != nil {
		return nil, err
	}
	r.store.wallet = wallet
	return wallet.Clone(), nil
}

func (r *walletRepositoryImpl) GetWallet(_ context.Context) (*domain.Wallet, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	if r.store.wallet == nil {
		return nil, domain.ErrWalletNotInitialized
	}
	return r.store.wallet.Clone(), nil
}

func (r *walletRepositoryImpl) GetAccount(
	_ context.Context, accountID string,
) (*domain.WalletAccount, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	if r.store.wallet == nil {
		return nil, domain.ErrWalletNotInitialized
	}
	account, err := r.store.wallet.Account(accountID)
	if err != nil {
		return nil, err
	}
	return account.Clone(), nil
}

func (r *walletRepositoryImpl) UpdateWallet(
	_ context.Context,
	updateFn func(w *domain.Wallet) (*domain.Wallet, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.wallet == nil {
		return domain.ErrWalletNotInitialized
	}

	updatedWallet, err := updateFn(r.store.wallet.Clone())
	if err != nil {
		return err
	}
	r.store.wallet = updatedWallet.Clone()
	return nil
}

func (r *walletRepositoryImpl) SaveWallet(
	_ context.Context, wallet *domain.Wallet,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.wallet = wallet.Clone()
	return nil
}
