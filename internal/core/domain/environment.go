package domain

import (
	"fmt"
	"strings"
)

// Environment is the deployment tier a subaccount belongs to. Its value is the
// tag stored in the first byte of the subaccount.
type Environment uint8

const (
	Production  Environment = 0x00
	Staging     Environment = 0xAA
	Development Environment = 0xFF
)

// KeyConfig is the signing-key configuration selected by an environment.
type KeyConfig struct {
	KeyID      string
	SignCycles uint64
}

var keyConfigs = map[Environment]KeyConfig{
	Production:  {KeyID: "key_1", SignCycles: 26_153_846_153},
	Staging:     {KeyID: "test_key_1", SignCycles: 10_000_000_000},
	Development: {KeyID: "dfx_test_key", SignCycles: 0},
}

// ParseEnvironment parses the textual form of an environment. An empty string
// selects Production.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "production", "prod":
		return Production, nil
	case "staging", "stag":
		return Staging, nil
	case "development", "dev":
		return Development, nil
	default:
		return 0, ErrUnknownEnvironment
	}
}

// IsValid returns whether e is one of the known environments.
func (e Environment) IsValid() bool {
	_, ok := keyConfigs[e]
	return ok
}

// KeyConfig returns the signing key id and fee budget for the environment.
// Panics for unknown environments.
func (e Environment) KeyConfig() KeyConfig {
	cfg, ok := keyConfigs[e]
	if !ok {
		panic(fmt.Sprintf("unknown environment tag 0x%02x", uint8(e)))
	}
	return cfg
}

func (e Environment) String() string {
	switch e {
	case Production:
		return "production"
	case Staging:
		return "staging"
	case Development:
		return "development"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(e))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Environment) MarshalText() ([]byte, error) {
	if !e.IsValid() {
		return nil, ErrUnknownEnvironment
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Environment) UnmarshalText(text []byte) error {
	env, err := ParseEnvironment(string(text))
	if err != nil {
		return err
	}
	*e = env
	return nil
}

// idPrefix and namePrefix are used to build the human identifiers of the
// subaccounts of the environment.
func (e Environment) idPrefix() string {
	switch e {
	case Staging:
		return "staging_account"
	case Development:
		return "development_account"
	default:
		return "account"
	}
}

func (e Environment) namePrefix() string {
	switch e {
	case Staging:
		return "Staging Account"
	case Development:
		return "Development Account"
	default:
		return "Account"
	}
}
