package ports

import (
	"context"

	"github.com/b3pay/b3walletd/internal/core/domain"
)

// BridgeOracle converts a native asset into its wrapped representation on
// the given bridge chain and back. Every accepted operation is identified by
// an opaque handle.
type BridgeOracle interface {
	InitiateBridgeIn(
		ctx context.Context, kind domain.ChainKind,
		account domain.AccountIdentifier, amount uint64,
	) (string, error)
	InitiateBridgeOut(
		ctx context.Context, kind domain.ChainKind,
		account domain.AccountIdentifier, destination string, amount uint64,
	) (string, error)
	// PollConfirmed returns the subset of handles confirmed so far.
	PollConfirmed(
		ctx context.Context, kind domain.ChainKind,
		account domain.AccountIdentifier, handles []string,
	) ([]string, error)
}

// RoleAuthority maps a caller to its role. Unknown callers get RoleNone.
type RoleAuthority interface {
	RoleOf(ctx context.Context, caller string) domain.Role
}
