package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const walletKey = "wallet"

type walletRepositoryImpl struct {
	store  *badgerhold.Store
	locker *sync.Mutex
}

// NewWalletRepositoryImpl initialize a badger implementation of the
// domain.WalletRepository
func NewWalletRepositoryImpl(
	store *badgerhold.Store, locker *sync.Mutex,
) domain.WalletRepository {
	return &walletRepositoryImpl{store, locker}
}

func (r *walletRepositoryImpl) GetOrCreateWallet(
	_ context.Context, owner []byte,
) (*domain.Wallet, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	wallet, err := r.getWallet()
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrWalletNotInitialized) {
		return nil, err
	}

	wallet, err = domain.NewWallet(owner)
	if err != nil {
		return nil, err
	}
	if err := r.store.Insert(walletKey, *wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepositoryImpl) GetWallet(_ context.Context) (*domain.Wallet, error) {
	return r.getWallet()
}

func (r *walletRepositoryImpl) GetAccount(
	_ context.Context, accountID string,
) (*domain.WalletAccount, error) {
	wallet, err := r.getWallet()
	if err != nil {
		return nil, err
	}
	return wallet.Account(accountID)
}

func (r *walletRepositoryImpl) UpdateWallet(
	_ context.Context,
	updateFn func(w *domain.Wallet) (*domain.Wallet, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	wallet, err := r.getWallet()
	if err != nil {
		return err
	}

	updatedWallet, err := updateFn(wallet)
	if err != nil {
		return err
	}

	return r.store.Update(walletKey, *updatedWallet)
}

func (r *walletRepositoryImpl) SaveWallet(
	_ context.Context, wallet *domain.Wallet,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	return r.store.Upsert(walletKey, *wallet)
}

func (r *walletRepositoryImpl) getWallet() (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.store.Get(walletKey, &wallet); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrWalletNotInitialized
		}
		return nil, fmt.Errorf("decoding stored wallet: %w", err)
	}
	return &wallet, nil
}
