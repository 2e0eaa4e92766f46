package db_test

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

var pubkey, _ = hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")

func TestWalletRepositoryImplementations(t *testing.T) {
	repoManagers := createRepoManagers(t)

	for i := range repoManagers {
		repoManager := repoManagers[i]

		t.Run(repoManager.Name, func(t *testing.T) {
			repo := repoManager.WalletRepository()
			ctx := context.Background()
			owner := randomOwner()

			t.Run("uninitialized", func(t *testing.T) {
				_, err := repo.GetWallet(ctx)
				require.ErrorIs(t, err, domain.ErrWalletNotInitialized)

				err = repo.UpdateWallet(ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
					return w, nil
				})
				require.ErrorIs(t, err, domain.ErrWalletNotInitialized)
			})

			t.Run("get_or_create", func(t *testing.T) {
				wallet, err := repo.GetOrCreateWallet(ctx, owner)
				require.NoError(t, err)
				require.Len(t, wallet.Accounts, 1)

				again, err := repo.GetOrCreateWallet(ctx, randomOwner())
				require.NoError(t, err)
				require.Equal(t, owner, again.Owner)
			})

			t.Run("update", func(t *testing.T) {
				err := repo.UpdateWallet(ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
					account := w.CreateAccount(domain.Staging, "ops")
					if _, err := account.Ledger.PublicKeys.SetEcdsa(pubkey); err != nil {
						return nil, err
					}
					binding, err := account.Ledger.BindChain(domain.WrappedBitcoin(domain.Mainnet))
					if err != nil {
						return nil, err
					}
					if _, err := binding.Pending.AddReceive("tx-1"); err != nil {
						return nil, err
					}
					if _, err := account.Ledger.BindChain(domain.EVM(1)); err != nil {
						return nil, err
					}
					return w, account.AddMetadata("team", "payments")
				})
				require.NoError(t, err)

				account, err := repo.GetAccount(ctx, "staging_account_0")
				require.NoError(t, err)
				require.Equal(t, "ops", account.Name)
				require.Equal(t, "payments", account.Metadata["team"])
				require.Equal(t, pubkey, account.Ledger.PublicKeys.EcdsaKey)
				require.True(t, account.Ledger.IsBound(domain.EVM(1)))

				binding, err := account.Ledger.BridgeBinding(domain.WrappedBitcoin(domain.Mainnet))
				require.NoError(t, err)
				require.Equal(t, []string{"tx-1"}, binding.Pending.Receive)

				wallet, err := repo.GetWallet(ctx)
				require.NoError(t, err)
				require.Equal(t, uint64(1), wallet.Counters.Get(domain.Staging))
			})

			t.Run("update_rollback", func(t *testing.T) {
				err := repo.UpdateWallet(ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
					w.CreateAccount(domain.Development, "")
					return nil, errors.New("boom")
				})
				require.Error(t, err)

				_, err = repo.GetAccount(ctx, "development_account_0")
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
			})

			t.Run("returned_copies_are_detached", func(t *testing.T) {
				wallet, err := repo.GetWallet(ctx)
				require.NoError(t, err)
				wallet.CreateAccount(domain.Production, "")

				_, err = repo.GetAccount(ctx, "account_1")
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
			})

			t.Run("save", func(t *testing.T) {
				wallet, err := domain.NewWallet(owner)
				require.NoError(t, err)
				require.NoError(t, repo.SaveWallet(ctx, wallet))

				stored, err := repo.GetWallet(ctx)
				require.NoError(t, err)
				require.Len(t, stored.Accounts, 1)
				_, err = repo.GetAccount(ctx, "staging_account_0")
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
			})
		})
	}
}
