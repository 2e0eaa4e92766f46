package domain

import "strings"

// WalletAccount is a named signing identity of the wallet.
type WalletAccount struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Hidden   bool              `json:"hidden"`
	Metadata map[string]string `json:"metadata"`
	Ledger   *Ledger           `json:"ledger"`
}

// NewWalletAccount returns the account of the given subaccount of owner, with
// the default name unless one is given.
func NewWalletAccount(owner []byte, subaccount Subaccount, name string) *WalletAccount {
	if strings.TrimSpace(name) == "" {
		name = subaccount.Name()
	}
	return &WalletAccount{
		ID:       subaccount.ID(),
		Name:     name,
		Metadata: make(map[string]string),
		Ledger:   NewLedger(owner, subaccount),
	}
}

// Subaccount ...
func (a *WalletAccount) Subaccount() Subaccount {
	return a.Ledger.Subaccount
}

// Environment ...
func (a *WalletAccount) Environment() Environment {
	return a.Ledger.Subaccount.Environment()
}

// Rename ...
func (a *WalletAccount) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidAccountName
	}
	a.Name = name
	return nil
}

// Hide ...
func (a *WalletAccount) Hide() {
	a.Hidden = true
}

// Unhide ...
func (a *WalletAccount) Unhide() {
	a.Hidden = false
}

// AddMetadata ...
func (a *WalletAccount) AddMetadata(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidMetadataKey
	}
	if a.Metadata == nil {
		a.Metadata = make(map[string]string)
	}
	a.Metadata[key] = value
	return nil
}

// RemoveMetadata ...
func (a *WalletAccount) RemoveMetadata(key string) {
	delete(a.Metadata, key)
}

// View returns the read-only summary of the account.
func (a *WalletAccount) View() AccountView {
	return AccountView{
		ID:          a.ID,
		Name:        a.Name,
		Hidden:      a.Hidden,
		Environment: a.Environment(),
		Metadata:    copyMetadata(a.Metadata),
		Identifier:  a.Ledger.PublicKeys.Identifier.String(),
		Addresses:   a.Ledger.PublicKeys.AddressMap(),
		Chains:      a.Ledger.BoundChains(),
	}
}

// Clone ...
func (a *WalletAccount) Clone() *WalletAccount {
	return &WalletAccount{
		ID:       a.ID,
		Name:     a.Name,
		Hidden:   a.Hidden,
		Metadata: copyMetadata(a.Metadata),
		Ledger:   a.Ledger.Clone(),
	}
}

// AccountView is the summary of an account returned to readers.
type AccountView struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Hidden      bool                 `json:"hidden"`
	Environment Environment          `json:"environment"`
	Metadata    map[string]string    `json:"metadata"`
	Identifier  string               `json:"identifier"`
	Addresses   map[ChainKind]string `json:"addresses"`
	Chains      []ChainKind          `json:"chains"`
}

func copyMetadata(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
