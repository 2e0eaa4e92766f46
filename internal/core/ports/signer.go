package ports

import "context"

// Signer is the threshold-ECDSA signing oracle. Keys are identified by the
// derivation path of a subaccount and the key id of its environment.
type Signer interface {
	// PublicKey returns the 33-byte compressed public key at path.
	PublicKey(ctx context.Context, path [][]byte, keyID string) ([]byte, error)
	// Sign returns the 64-byte [R || S] signature of the 32-byte digest.
	Sign(
		ctx context.Context, digest []byte, path [][]byte, keyID string,
	) ([]byte, error)
}
