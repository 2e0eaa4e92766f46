package domain

// ChainBinding is the state of a chain bound to an account.
type ChainBinding struct {
	Address string           `json:"address"`
	Pending PendingTransfers `json:"pending"`
}

// Clone ...
func (b *ChainBinding) Clone() *ChainBinding {
	return &ChainBinding{
		Address: b.Address,
		Pending: b.Pending.Clone(),
	}
}

// Ledger is the per-account chain state: public keys and chain bindings.
type Ledger struct {
	Subaccount Subaccount                  `json:"subaccount"`
	PublicKeys PublicKeys                  `json:"public_keys"`
	Chains     map[ChainKind]*ChainBinding `json:"chains"`
}

// NewLedger returns the ledger of a subaccount of owner, bound to the native
// ledger only.
func NewLedger(owner []byte, subaccount Subaccount) *Ledger {
	keys := NewPublicKeys(owner, subaccount)
	return &Ledger{
		Subaccount: subaccount,
		PublicKeys: keys,
		Chains: map[ChainKind]*ChainBinding{
			NativeLedger(): {Address: keys.Identifier.String()},
		},
	}
}

// BindChain derives the address for kind and binds it. Re-binding an
// already bound chain keeps its pending transfers.
func (l *Ledger) BindChain(kind ChainKind) (*ChainBinding, error) {
	address, err := l.PublicKeys.GenerateAddress(kind)
	if err != nil {
		return nil, err
	}
	if l.Chains == nil {
		l.Chains = make(map[ChainKind]*ChainBinding)
	}
	if l.PublicKeys.Addresses == nil {
		l.PublicKeys.Addresses = make(map[ChainKind]string)
	}

	l.PublicKeys.Addresses[kind] = address
	if binding, ok := l.Chains[kind]; ok {
		binding.Address = address
		return binding, nil
	}
	binding := &ChainBinding{Address: address}
	l.Chains[kind] = binding
	return binding, nil
}

// RemoveBinding unbinds kind from the ledger.
func (l *Ledger) RemoveBinding(kind ChainKind) error {
	if _, ok := l.Chains[kind]; !ok {
		return ErrChainNotFound
	}
	delete(l.Chains, kind)
	return nil
}

// Binding returns the binding of kind.
func (l *Ledger) Binding(kind ChainKind) (*ChainBinding, error) {
	binding, ok := l.Chains[kind]
	if !ok {
		return nil, ErrChainNotBound
	}
	return binding, nil
}

// BridgeBinding returns the binding of a bridge chain.
func (l *Ledger) BridgeBinding(kind ChainKind) (*ChainBinding, error) {
	if !kind.IsBridge() {
		return nil, ErrBridgeNotInitialized
	}
	binding, ok := l.Chains[kind]
	if !ok {
		return nil, ErrBridgeNotInitialized
	}
	return binding, nil
}

// EvmBinding returns the binding of the given EVM chain id.
func (l *Ledger) EvmBinding(chainID uint64) (*ChainBinding, error) {
	binding, ok := l.Chains[EVM(chainID)]
	if !ok {
		return nil, ErrChainIDNotInitialized
	}
	return binding, nil
}

// IsBound ...
func (l *Ledger) IsBound(kind ChainKind) bool {
	_, ok := l.Chains[kind]
	return ok
}

// BoundChains returns the kinds bound to the ledger sorted by text form.
func (l *Ledger) BoundChains() []ChainKind {
	kinds := make([]ChainKind, 0, len(l.Chains))
	for k := range l.Chains {
		kinds = append(kinds, k)
	}
	sortChainKinds(kinds)
	return kinds
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	clone := &Ledger{
		Subaccount: l.Subaccount,
		PublicKeys: l.PublicKeys.Clone(),
		Chains:     make(map[ChainKind]*ChainBinding, len(l.Chains)),
	}
	for k, b := range l.Chains {
		clone.Chains[k] = b.Clone()
	}
	return clone
}
