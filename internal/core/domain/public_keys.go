package domain

import (
	"bytes"
)

// PublicKeys holds the set-once ECDSA key of a ledger, its account
// identifier and the addresses derived so far.
type PublicKeys struct {
	EcdsaKey   []byte               `json:"ecdsa,omitempty"`
	Identifier AccountIdentifier    `json:"identifier"`
	Addresses  map[ChainKind]string `json:"addresses"`
}

// NewPublicKeys returns the key set of a subaccount of owner. The native
// ledger address is known from the start.
func NewPublicKeys(owner []byte, subaccount Subaccount) PublicKeys {
	id := NewAccountIdentifier(owner, subaccount)
	return PublicKeys{
		Identifier: id,
		Addresses: map[ChainKind]string{
			NativeLedger(): id.String(),
		},
	}
}

// IsEcdsaSet ...
func (p *PublicKeys) IsEcdsaSet() bool {
	return len(p.EcdsaKey) > 0
}

// Ecdsa returns a copy of the ECDSA public key.
func (p *PublicKeys) Ecdsa() ([]byte, error) {
	if !p.IsEcdsaSet() {
		return nil, ErrMissingPublicKey
	}
	return append([]byte{}, p.EcdsaKey...), nil
}

// SetEcdsa sets the ECDSA key once and derives the EVM (chain id 0) and
// Bitcoin mainnet addresses from it. The resulting address map is returned.
func (p *PublicKeys) SetEcdsa(key []byte) (map[ChainKind]string, error) {
	if p.IsEcdsaSet() {
		return nil, ErrPublicKeyAlreadySet
	}
	if _, err := ParseEcdsaPublicKey(key); err != nil {
		return nil, err
	}

	evmAddr, err := EvmAddress(key)
	if err != nil {
		return nil, err
	}
	btcAddr, err := BitcoinAddress(key, Mainnet)
	if err != nil {
		return nil, err
	}

	p.EcdsaKey = append([]byte{}, key...)
	if p.Addresses == nil {
		p.Addresses = make(map[ChainKind]string)
	}
	p.Addresses[EVM(0)] = evmAddr
	p.Addresses[Bitcoin(Mainnet)] = btcAddr

	return p.AddressMap(), nil
}

// SameEcdsa returns whether key equals the already set ECDSA key.
func (p *PublicKeys) SameEcdsa(key []byte) bool {
	return p.IsEcdsaSet() && bytes.Equal(p.EcdsaKey, key)
}

// GenerateAddress derives the address of the given chain kind. Kinds that do
// not depend on the ECDSA key use the account identifier.
func (p *PublicKeys) GenerateAddress(kind ChainKind) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}
	switch kind.Family {
	case BitcoinFamily:
		key, err := p.Ecdsa()
		if err != nil {
			return "", err
		}
		return BitcoinAddress(key, kind.Network)
	case EVMFamily:
		key, err := p.Ecdsa()
		if err != nil {
			return "", err
		}
		return EvmAddress(key)
	default:
		return p.Identifier.String(), nil
	}
}

// AddressMap returns a copy of the cached addresses.
func (p *PublicKeys) AddressMap() map[ChainKind]string {
	addresses := make(map[ChainKind]string, len(p.Addresses))
	for k, v := range p.Addresses {
		addresses[k] = v
	}
	return addresses
}

// Clone ...
func (p PublicKeys) Clone() PublicKeys {
	clone := p
	if p.EcdsaKey != nil {
		clone.EcdsaKey = append([]byte{}, p.EcdsaKey...)
	}
	clone.Addresses = p.AddressMap()
	return clone
}
