package domain_test

import (
	"testing"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T) *domain.Wallet {
	w, err := domain.NewWallet(anonymousOwner)
	require.NoError(t, err)
	return w
}

func TestNewWallet(t *testing.T) {
	w := newTestWallet(t)
	require.Len(t, w.Accounts, 1)

	account, err := w.Account("default")
	require.NoError(t, err)
	require.Equal(t, "Default", account.Name)
	require.True(t, account.Subaccount().IsDefault())
	require.Equal(t, uint64(1), w.Counters.Get(domain.Production))

	_, err = domain.NewWallet(nil)
	require.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestWalletCreateAccount(t *testing.T) {
	w := newTestWallet(t)

	account := w.CreateAccount(domain.Production, "")
	require.Equal(t, "account_1", account.ID)
	require.Equal(t, "Account 2", account.Name)

	account = w.CreateAccount(domain.Staging, "ops")
	require.Equal(t, "staging_account_0", account.ID)
	require.Equal(t, "ops", account.Name)
	require.Equal(t, domain.Staging, account.Environment())

	account = w.CreateAccount(domain.Staging, "")
	require.Equal(t, "staging_account_1", account.ID)

	views := w.AccountViews()
	require.Len(t, views, 4)
	require.Equal(t, "default", views[0].ID)
	require.Equal(t, "account_1", views[1].ID)
	require.Equal(t, "staging_account_0", views[2].ID)
	require.Equal(t, "staging_account_1", views[3].ID)
}

func TestWalletRestoreAccount(t *testing.T) {
	w := newTestWallet(t)

	account, err := w.RestoreAccount(domain.Development, 5)
	require.NoError(t, err)
	require.Equal(t, "development_account_5", account.ID)
	require.Equal(t, uint64(6), w.Counters.Get(domain.Development))

	_, err = w.RestoreAccount(domain.Development, 5)
	require.ErrorIs(t, err, domain.ErrAccountAlreadyExists)

	_, err = w.RestoreAccount(domain.Production, 0)
	require.ErrorIs(t, err, domain.ErrAccountAlreadyExists)

	next := w.CreateAccount(domain.Development, "")
	require.Equal(t, "development_account_6", next.ID)
}

func TestWalletRemoveAccount(t *testing.T) {
	w := newTestWallet(t)
	account := w.CreateAccount(domain.Production, "")

	require.ErrorIs(t, w.RemoveAccount("default"), domain.ErrCannotRemoveDefaultAccount)
	require.ErrorIs(t, w.RemoveAccount("account_9"), domain.ErrAccountNotFound)
	require.NoError(t, w.RemoveAccount(account.ID))

	_, err := w.Account(account.ID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	// Nonces are never reused.
	require.Equal(t, "account_2", w.CreateAccount(domain.Production, "").ID)
}

func TestWalletAccountCosmetics(t *testing.T) {
	w := newTestWallet(t)
	account, err := w.Account("default")
	require.NoError(t, err)

	require.ErrorIs(t, account.Rename("  "), domain.ErrInvalidAccountName)
	require.NoError(t, account.Rename("Main"))
	require.Equal(t, "Main", account.Name)

	account.Hide()
	require.True(t, account.View().Hidden)
	account.Unhide()
	require.False(t, account.View().Hidden)

	require.ErrorIs(t, account.AddMetadata("", "v"), domain.ErrInvalidMetadataKey)
	require.NoError(t, account.AddMetadata("color", "blue"))
	require.Equal(t, "blue", account.View().Metadata["color"])
	account.RemoveMetadata("color")
	require.Empty(t, account.Metadata)
}

func TestWalletSettingsAndReset(t *testing.T) {
	w := newTestWallet(t)

	require.NoError(t, w.UpdateSettings(map[string]string{"theme": "dark", "lang": "en"}))
	require.NoError(t, w.UpdateSettings(map[string]string{"lang": ""}))
	require.Equal(t, map[string]string{"theme": "dark"}, w.Settings.Metadata)
	require.ErrorIs(t, w.UpdateSettings(map[string]string{"": "x"}), domain.ErrInvalidMetadataKey)

	w.CreateAccount(domain.Staging, "")
	clone := w.Clone()
	w.Reset()

	require.Len(t, w.Accounts, 1)
	require.Equal(t, uint64(0), w.Counters.Get(domain.Staging))
	require.Len(t, clone.Accounts, 2)
	require.Equal(t, uint64(1), clone.Counters.Get(domain.Staging))
}
