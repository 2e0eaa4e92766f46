package local

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/b3pay/b3walletd/internal/core/ports"
)

// MinSecretLength is the minimum length of the master secret.
const MinSecretLength = 32

var (
	// ErrShortSecret ...
	ErrShortSecret = fmt.Errorf(
		"master secret must be at least %d bytes", MinSecretLength,
	)
	// ErrInvalidDigest ...
	ErrInvalidDigest = errors.New("digest must be 32 bytes")
)

// signer is a development signing oracle. Child keys are deterministically
// derived from the master secret, the key id and the derivation path.
type signer struct {
	secret []byte
}

func NewSigner(secret []byte) (ports.Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrShortSecret
	}
	return &signer{append([]byte{}, secret...)}, nil
}

func (s *signer) PublicKey(
	_ context.Context, path [][]byte, keyID string,
) ([]byte, error) {
	_, pubkey := s.deriveKey(path, keyID)
	return pubkey.SerializeCompressed(), nil
}

// Sign returns the 64-byte [R || S] signature of digest. The recovery
// header of the compact signature is dropped like the remote oracle does.
func (s *signer) Sign(
	_ context.Context, digest []byte, path [][]byte, keyID string,
) ([]byte, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidDigest
	}
	prvkey, _ := s.deriveKey(path, keyID)
	sig, err := ecdsa.SignCompact(prvkey, digest, true)
	if err != nil {
		return nil, err
	}
	return sig[1:], nil
}

func (s *signer) deriveKey(
	path [][]byte, keyID string,
) (*btcec.PrivateKey, *btcec.PublicKey) {
	buf := make([]byte, 0, len(s.secret)+len(keyID)+64)
	buf = append(buf, s.secret...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(keyID)))
	buf = append(buf, keyID...)
	for _, p := range path {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(p)))
		buf = append(buf, p...)
	}
	return btcec.PrivKeyFromBytes(chainhash.HashB(buf))
}
