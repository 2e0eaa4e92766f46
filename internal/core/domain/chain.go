package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ChainFamily is the discriminant of a ChainKind.
type ChainFamily uint8

const (
	NativeLedgerFamily ChainFamily = iota
	BitcoinFamily
	EVMFamily
	WrappedBitcoinFamily
	GenericTokenFamily
	NamedTokenFamily
)

var familyTags = map[ChainFamily]string{
	NativeLedgerFamily:   "native",
	BitcoinFamily:        "bitcoin",
	EVMFamily:            "evm",
	WrappedBitcoinFamily: "wrapped-bitcoin",
	GenericTokenFamily:   "token",
	NamedTokenFamily:     "named-token",
}

func (f ChainFamily) String() string {
	if tag, ok := familyTags[f]; ok {
		return tag
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

// BitcoinNetwork selects the Bitcoin network of Bitcoin and wrapped Bitcoin
// chains.
type BitcoinNetwork uint8

const (
	Mainnet BitcoinNetwork = iota
	Testnet
	Regtest
)

func (n BitcoinNetwork) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	default:
		return fmt.Sprintf("network(%d)", uint8(n))
	}
}

// ParseBitcoinNetwork ...
func ParseBitcoinNetwork(s string) (BitcoinNetwork, error) {
	switch strings.ToLower(s) {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	case "regtest":
		return Regtest, nil
	default:
		return 0, fmt.Errorf("%w: unknown bitcoin network %q", ErrUnknownChainKind, s)
	}
}

// ChainKind identifies a chain an account can be bound to. Only the fields
// relevant to the Family are set, so that ChainKind can be compared and used
// as map key.
type ChainKind struct {
	Family  ChainFamily
	Network BitcoinNetwork
	ChainID uint64
	Token   string
}

// NativeLedger returns the kind of the platform's native ledger.
func NativeLedger() ChainKind {
	return ChainKind{Family: NativeLedgerFamily}
}

// Bitcoin ...
func Bitcoin(network BitcoinNetwork) ChainKind {
	return ChainKind{Family: BitcoinFamily, Network: network}
}

// EVM ...
func EVM(chainID uint64) ChainKind {
	return ChainKind{Family: EVMFamily, ChainID: chainID}
}

// WrappedBitcoin returns the kind of the wrapped Bitcoin ledger bridged with
// the given Bitcoin network.
func WrappedBitcoin(network BitcoinNetwork) ChainKind {
	return ChainKind{Family: WrappedBitcoinFamily, Network: network}
}

// GenericToken returns the kind of a token ledger identified by its
// canister/contract id.
func GenericToken(id string) ChainKind {
	return ChainKind{Family: GenericTokenFamily, Token: id}
}

// NamedToken ...
func NamedToken(token string) ChainKind {
	return ChainKind{Family: NamedTokenFamily, Token: token}
}

// RequiresPublicKey returns whether addresses of this kind are derived from
// the ECDSA public key.
func (k ChainKind) RequiresPublicKey() bool {
	return k.Family == BitcoinFamily || k.Family == EVMFamily
}

// IsBridge returns whether the kind supports bridge-in/bridge-out transfers.
func (k ChainKind) IsBridge() bool {
	return k.Family == WrappedBitcoinFamily
}

// Validate ...
func (k ChainKind) Validate() error {
	switch k.Family {
	case NativeLedgerFamily:
		return nil
	case BitcoinFamily, WrappedBitcoinFamily:
		if k.Network > Regtest {
			return fmt.Errorf("%w: unknown bitcoin network", ErrUnknownChainKind)
		}
		return nil
	case EVMFamily:
		return nil
	case GenericTokenFamily, NamedTokenFamily:
		if len(strings.TrimSpace(k.Token)) <= 0 {
			return fmt.Errorf("%w: missing token id", ErrUnknownChainKind)
		}
		return nil
	default:
		return ErrUnknownChainKind
	}
}

func (k ChainKind) String() string {
	switch k.Family {
	case NativeLedgerFamily:
		return k.Family.String()
	case BitcoinFamily, WrappedBitcoinFamily:
		return k.Family.String() + ":" + k.Network.String()
	case EVMFamily:
		return k.Family.String() + ":" + strconv.FormatUint(k.ChainID, 10)
	default:
		return k.Family.String() + ":" + k.Token
	}
}

// ParseChainKind parses the textual form of a chain kind, ie. native,
// bitcoin:mainnet, evm:1, wrapped-bitcoin:testnet, token:<id>,
// named-token:<name>.
func ParseChainKind(s string) (ChainKind, error) {
	tag, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")

	var kind ChainKind
	switch tag {
	case "native":
		if hasArg {
			return kind, fmt.Errorf("%w: %q", ErrUnknownChainKind, s)
		}
		return NativeLedger(), nil
	case "bitcoin", "wrapped-bitcoin":
		network, err := ParseBitcoinNetwork(arg)
		if err != nil {
			return kind, err
		}
		if tag == "bitcoin" {
			return Bitcoin(network), nil
		}
		return WrappedBitcoin(network), nil
	case "evm":
		chainID, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return kind, fmt.Errorf("%w: invalid evm chain id %q", ErrUnknownChainKind, arg)
		}
		return EVM(chainID), nil
	case "token", "named-token":
		kind = GenericToken(arg)
		if tag == "named-token" {
			kind = NamedToken(arg)
		}
		if err := kind.Validate(); err != nil {
			return ChainKind{}, err
		}
		return kind, nil
	default:
		return kind, fmt.Errorf("%w: %q", ErrUnknownChainKind, s)
	}
}

// MarshalText implements encoding.TextMarshaler, it allows ChainKind to be
// used as JSON map key.
func (k ChainKind) MarshalText() ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ChainKind) UnmarshalText(text []byte) error {
	kind, err := ParseChainKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func sortChainKinds(kinds []ChainKind) {
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].String() < kinds[j].String()
	})
}

// Decimals returns the number of decimals of the chain's base unit. Token
// ledgers are assumed to use 8 decimals.
func (k ChainKind) Decimals() int32 {
	if k.Family == EVMFamily {
		return 18
	}
	return 8
}
