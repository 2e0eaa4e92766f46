package domain

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	// SubaccountLength is the size in bytes of a Subaccount.
	SubaccountLength = 32

	nonceOffset = SubaccountLength - 8
)

// Subaccount identifies one signing identity under the wallet owner.
// Byte 0 holds the Environment tag, bytes 1..32 the big-endian nonce.
type Subaccount [SubaccountLength]byte

// DefaultSubaccount is the subaccount of (Production, 0).
var DefaultSubaccount = Subaccount{}

// NewSubaccount returns the subaccount for the given environment and nonce.
func NewSubaccount(env Environment, nonce uint64) Subaccount {
	var s Subaccount
	s[0] = byte(env)
	binary.BigEndian.PutUint64(s[nonceOffset:], nonce)
	return s
}

// ParseSubaccount decodes the hex representation of a subaccount and
// validates it.
func ParseSubaccount(text string) (Subaccount, error) {
	var s Subaccount
	buf, err := hex.DecodeString(text)
	if err != nil || len(buf) != SubaccountLength {
		return s, ErrInvalidSubaccount
	}
	copy(s[:], buf)
	if err := s.Validate(); err != nil {
		return Subaccount{}, err
	}
	return s, nil
}

// Validate makes sure the environment tag is known and the nonce fits an
// uint64.
func (s Subaccount) Validate() error {
	if !Environment(s[0]).IsValid() {
		return ErrInvalidSubaccount
	}
	if !bytes.Equal(s[1:nonceOffset], make([]byte, nonceOffset-1)) {
		return ErrInvalidSubaccount
	}
	return nil
}

// Environment returns the environment the subaccount belongs to. Panics if
// the tag is unknown, which can happen only for corrupted data.
func (s Subaccount) Environment() Environment {
	env := Environment(s[0])
	if !env.IsValid() {
		panic(fmt.Sprintf("subaccount %x: unknown environment tag", s[:]))
	}
	return env
}

// Nonce returns the nonce encoded in the subaccount.
func (s Subaccount) Nonce() uint64 {
	return binary.BigEndian.Uint64(s[nonceOffset:])
}

// IsDefault returns whether s is the (Production, 0) subaccount.
func (s Subaccount) IsDefault() bool {
	return s == DefaultSubaccount
}

// ID returns the human identifier of the subaccount, ie. default,
// account_1, staging_account_3.
func (s Subaccount) ID() string {
	if s.IsDefault() {
		return "default"
	}
	return fmt.Sprintf("%s_%d", s.Environment().idPrefix(), s.Nonce())
}

// Name returns the default display name of the subaccount.
func (s Subaccount) Name() string {
	if s.IsDefault() {
		return "Default"
	}
	return fmt.Sprintf("%s %d", s.Environment().namePrefix(), s.Nonce()+1)
}

// DerivationPath returns the path handed to the signing oracle.
func (s Subaccount) DerivationPath() [][]byte {
	path := make([]byte, SubaccountLength)
	copy(path, s[:])
	return [][]byte{path}
}

// KeyConfig returns the signing key configuration of the subaccount's
// environment.
func (s Subaccount) KeyConfig() KeyConfig {
	return s.Environment().KeyConfig()
}

func (s Subaccount) String() string {
	return hex.EncodeToString(s[:])
}

// MarshalText implements encoding.TextMarshaler.
func (s Subaccount) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Subaccount) UnmarshalText(text []byte) error {
	sub, err := ParseSubaccount(string(text))
	if err != nil {
		return err
	}
	*s = sub
	return nil
}
