package domain

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Role is the authorization level of a caller.
type Role uint8

const (
	// RoleNone is the role of unknown callers, it satisfies nothing.
	RoleNone Role = iota
	RoleSigner
	RoleAdmin
)

// ParseRole ...
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signer":
		return RoleSigner, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleNone, ErrInvalidRole
	}
}

// IsValid returns whether r is Signer or Admin.
func (r Role) IsValid() bool {
	return r == RoleSigner || r == RoleAdmin
}

// Satisfies returns whether r is allowed to act where required is needed.
// Admin satisfies Signer.
func (r Role) Satisfies(required Role) bool {
	return r.IsValid() && r >= required
}

func (r Role) String() string {
	switch r {
	case RoleSigner:
		return "signer"
	case RoleAdmin:
		return "admin"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	if string(text) == "none" {
		*r = RoleNone
		return nil
	}
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// CallerID returns the identity recorded for a caller holding role and
// authenticated with credential. The credential itself is never recorded,
// only a truncated SHA-256 of it.
func CallerID(role Role, credential string) string {
	hash := chainhash.HashB([]byte(credential))
	return role.String() + ":" + hex.EncodeToString(hash[:8])
}
