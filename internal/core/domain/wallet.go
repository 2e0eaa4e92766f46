package domain

import (
	"fmt"
	"sort"
)

// AccountsNonce holds, for every environment, the nonce of the next
// subaccount to create.
type AccountsNonce struct {
	Production  uint64 `json:"production"`
	Staging     uint64 `json:"staging"`
	Development uint64 `json:"development"`
}

// Get ...
func (n *AccountsNonce) Get(env Environment) uint64 {
	return *n.counter(env)
}

// Next returns the current nonce of env and increments the counter.
func (n *AccountsNonce) Next(env Environment) uint64 {
	c := n.counter(env)
	nonce := *c
	*c++
	return nonce
}

// Observe makes sure the counter of env is past the given nonce.
func (n *AccountsNonce) Observe(env Environment, nonce uint64) {
	c := n.counter(env)
	if nonce >= *c {
		*c = nonce + 1
	}
}

func (n *AccountsNonce) counter(env Environment) *uint64 {
	switch env {
	case Production:
		return &n.Production
	case Staging:
		return &n.Staging
	case Development:
		return &n.Development
	default:
		panic(fmt.Sprintf("unknown environment tag 0x%02x", uint8(env)))
	}
}

// WalletSettings ...
type WalletSettings struct {
	Metadata map[string]string `json:"metadata"`
}

// Wallet is the aggregate root: the accounts of the owner together with the
// subaccount counters and settings.
type Wallet struct {
	Owner    []byte                    `json:"owner"`
	Accounts map[string]*WalletAccount `json:"accounts"`
	Counters AccountsNonce             `json:"counters"`
	Settings WalletSettings            `json:"settings"`
}

// NewWallet returns a wallet of owner holding only the default account.
func NewWallet(owner []byte) (*Wallet, error) {
	if len(owner) <= 0 {
		return nil, ErrInvalidOwner
	}
	w := &Wallet{
		Owner:    append([]byte{}, owner...),
		Settings: WalletSettings{Metadata: make(map[string]string)},
	}
	w.init()
	return w, nil
}

func (w *Wallet) init() {
	w.Accounts = make(map[string]*WalletAccount)
	w.Counters = AccountsNonce{}
	sub := w.NewSubaccount(Production)
	w.Accounts[sub.ID()] = NewWalletAccount(w.Owner, sub, "")
}

// NewSubaccount returns the next subaccount of env, advancing its counter.
func (w *Wallet) NewSubaccount(env Environment) Subaccount {
	return NewSubaccount(env, w.Counters.Next(env))
}

// CreateAccount creates a new account in env with the given name, or the
// default name if empty.
func (w *Wallet) CreateAccount(env Environment, name string) *WalletAccount {
	sub := w.NewSubaccount(env)
	account := NewWalletAccount(w.Owner, sub, name)
	w.Accounts[account.ID] = account
	return account
}

// RestoreAccount recreates the account of the given subaccount.
func (w *Wallet) RestoreAccount(env Environment, nonce uint64) (*WalletAccount, error) {
	if !env.IsValid() {
		return nil, ErrUnknownEnvironment
	}
	sub := NewSubaccount(env, nonce)
	if _, ok := w.Accounts[sub.ID()]; ok {
		return nil, ErrAccountAlreadyExists
	}
	w.Counters.Observe(env, nonce)
	account := NewWalletAccount(w.Owner, sub, "")
	w.Accounts[account.ID] = account
	return account, nil
}

// Account returns the account with the given id.
func (w *Wallet) Account(id string) (*WalletAccount, error) {
	account, ok := w.Accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// RemoveAccount removes an account. The default account cannot be removed.
func (w *Wallet) RemoveAccount(id string) error {
	account, ok := w.Accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if account.Subaccount().IsDefault() {
		return ErrCannotRemoveDefaultAccount
	}
	delete(w.Accounts, id)
	return nil
}

// AccountViews returns the summaries of all accounts, ordered by
// environment and nonce.
func (w *Wallet) AccountViews() []AccountView {
	accounts := w.SortedAccounts()
	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, a.View())
	}
	return views
}

// SortedAccounts returns the accounts ordered by environment and nonce.
func (w *Wallet) SortedAccounts() []*WalletAccount {
	accounts := make([]*WalletAccount, 0, len(w.Accounts))
	for _, a := range w.Accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		si, sj := accounts[i].Subaccount(), accounts[j].Subaccount()
		if si[0] != sj[0] {
			return si[0] < sj[0]
		}
		return si.Nonce() < sj.Nonce()
	})
	return accounts
}

// UpdateSettings merges metadata into the wallet settings. Empty values
// remove the key.
func (w *Wallet) UpdateSettings(metadata map[string]string) error {
	if w.Settings.Metadata == nil {
		w.Settings.Metadata = make(map[string]string)
	}
	for k := range metadata {
		if k == "" {
			return ErrInvalidMetadataKey
		}
	}
	for k, v := range metadata {
		if v == "" {
			delete(w.Settings.Metadata, k)
			continue
		}
		w.Settings.Metadata[k] = v
	}
	return nil
}

// Reset drops every account and counter and recreates the default account.
func (w *Wallet) Reset() {
	w.init()
}

// Clone returns a deep copy of the wallet.
func (w *Wallet) Clone() *Wallet {
	clone := &Wallet{
		Owner:    append([]byte{}, w.Owner...),
		Accounts: make(map[string]*WalletAccount, len(w.Accounts)),
		Counters: w.Counters,
		Settings: WalletSettings{Metadata: copyMetadata(w.Settings.Metadata)},
	}
	for id, a := range w.Accounts {
		clone.Accounts[id] = a.Clone()
	}
	return clone
}
