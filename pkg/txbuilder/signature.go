package txbuilder

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

const (
	// DigestLength is the size of the hashes handed to the signing oracle.
	DigestLength = 32
	// SignatureLength is the size of a normalized [R || S || V] signature.
	SignatureLength = 65

	compactMagicCompressed = 27 + 4
)

var (
	// ErrInvalidMessageLength is returned when the digest to sign is not 32
	// bytes long.
	ErrInvalidMessageLength = errors.New("message digest must be 32 bytes long")
	// ErrInvalidSignature is returned when a signature cannot be normalized
	// to a low-s recoverable form for the expected public key.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInvalidPublicKey ...
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrChainIDMismatch ...
	ErrChainIDMismatch = errors.New("transaction chain id does not match")
	// ErrInvalidTransaction ...
	ErrInvalidTransaction = errors.New("invalid raw transaction")
	// ErrInvalidSender ...
	ErrInvalidSender = errors.New("invalid sender address")
)

// NormalizeSignature turns the 64-byte [R || S] (or 65-byte [R || S || V])
// signature returned by the signing oracle into [R || S || V] with S in the
// lower half of the curve order and V in {0, 1}, such that it recovers
// pubkey from digest.
func NormalizeSignature(digest, signature, pubkey []byte) ([]byte, error) {
	if len(digest) != DigestLength {
		return nil, ErrInvalidMessageLength
	}
	if len(signature) != 64 && len(signature) != SignatureLength {
		return nil, ErrInvalidSignature
	}
	expectedKey, err := btcec.ParsePubKey(pubkey)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow || r.IsZero() {
		return nil, ErrInvalidSignature
	}
	if overflow := s.SetByteSlice(signature[32:64]); overflow || s.IsZero() {
		return nil, ErrInvalidSignature
	}
	if s.IsOverHalfOrder() {
		s.Negate()
	}

	rBytes, sBytes := r.Bytes(), s.Bytes()
	compact := make([]byte, 65)
	copy(compact[1:33], rBytes[:])
	copy(compact[33:], sBytes[:])

	for recID := byte(0); recID < 2; recID++ {
		compact[0] = compactMagicCompressed + recID
		recovered, _, err := ecdsa.RecoverCompact(compact, digest)
		if err != nil || !recovered.IsEqual(expectedKey) {
			continue
		}

		normalized := make([]byte, SignatureLength)
		copy(normalized, compact[1:])
		normalized[64] = recID
		return normalized, nil
	}
	return nil, ErrInvalidSignature
}
