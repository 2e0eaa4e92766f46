package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
)

const (
	// AccountIdentifierLength is the size in bytes of an AccountIdentifier.
	AccountIdentifierLength = 32

	accountIdentifierDomain = "\x0Aaccount-id"
)

// AccountIdentifier is the checksummed identifier of an (owner, subaccount)
// pair: crc32(hash) || hash, where hash is a 224-bit domain separated digest.
type AccountIdentifier [AccountIdentifierLength]byte

// NewAccountIdentifier computes the identifier of the given subaccount of
// owner.
func NewAccountIdentifier(owner []byte, subaccount Subaccount) AccountIdentifier {
	hasher := sha256.New224()
	hasher.Write([]byte(accountIdentifierDomain))
	hasher.Write(owner)
	hasher.Write(subaccount[:])
	hash := hasher.Sum(nil)

	var id AccountIdentifier
	binary.BigEndian.PutUint32(id[:4], crc32.ChecksumIEEE(hash))
	copy(id[4:], hash)
	return id
}

// ParseAccountIdentifier decodes the textual form of an identifier. Only
// 64 lowercase hex characters are accepted.
func ParseAccountIdentifier(text string) (AccountIdentifier, error) {
	var id AccountIdentifier
	if len(text) != 2*AccountIdentifierLength {
		return id, ErrInvalidAddress
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return id, ErrInvalidAddress
		}
	}
	if _, err := hex.Decode(id[:], []byte(text)); err != nil {
		return AccountIdentifier{}, ErrInvalidAddress
	}
	return id, nil
}

// VerifyChecksum returns whether the 4-byte prefix matches the crc32 of the
// hash part.
func (a AccountIdentifier) VerifyChecksum() bool {
	return binary.BigEndian.Uint32(a[:4]) == crc32.ChecksumIEEE(a[4:])
}

// IsZero returns whether the identifier is unset.
func (a AccountIdentifier) IsZero() bool {
	return a == AccountIdentifier{}
}

func (a AccountIdentifier) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a AccountIdentifier) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountIdentifier) UnmarshalText(text []byte) error {
	id, err := ParseAccountIdentifier(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}
