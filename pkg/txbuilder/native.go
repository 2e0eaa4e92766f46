package txbuilder

import (
	"encoding/binary"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const nativeTransferDomain = "\x0Fb3-native-xfer"

// ErrInvalidAmount ...
var ErrInvalidAmount = errors.New("transfer amount must be positive")

// NativeTransfer is a transfer on the platform's native ledger between two
// 32-byte account identifiers. CreatedAt is expressed in unix nanoseconds.
type NativeTransfer struct {
	From      [32]byte
	To        [32]byte
	Amount    uint64
	Fee       uint64
	Memo      uint64
	CreatedAt uint64
}

// Validate ...
func (t NativeTransfer) Validate() error {
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Serialize returns the canonical encoding of the unsigned transfer:
// domain tag, from, to, then amount, fee, memo and creation time as
// big-endian uint64.
func (t NativeTransfer) Serialize() []byte {
	buf := make([]byte, 0, len(nativeTransferDomain)+2*32+4*8)
	buf = append(buf, nativeTransferDomain...)
	buf = append(buf, t.From[:]...)
	buf = append(buf, t.To[:]...)
	buf = binary.BigEndian.AppendUint64(buf, t.Amount)
	buf = binary.BigEndian.AppendUint64(buf, t.Fee)
	buf = binary.BigEndian.AppendUint64(buf, t.Memo)
	buf = binary.BigEndian.AppendUint64(buf, t.CreatedAt)
	return buf
}

// Digest returns the SHA-256 of the canonical encoding.
func (t NativeTransfer) Digest() []byte {
	return chainhash.HashB(t.Serialize())
}

// Sign embeds the normalized signature and the signer public key into the
// transfer encoding.
func (t NativeTransfer) Sign(signature, pubkey []byte) (*SignedTransaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	sig, err := NormalizeSignature(t.Digest(), signature, pubkey)
	if err != nil {
		return nil, err
	}

	raw := t.Serialize()
	raw = append(raw, byte(len(pubkey)))
	raw = append(raw, pubkey...)
	raw = append(raw, sig...)

	return &SignedTransaction{
		Raw:  raw,
		Hash: hex.EncodeToString(chainhash.HashB(raw)),
	}, nil
}
