package domain

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"
)

// CompressedPubKeyLength is the size of a SEC1 compressed secp256k1 key.
const CompressedPubKeyLength = btcec.PubKeyBytesLenCompressed

// ParseEcdsaPublicKey makes sure the given key is a 33-byte compressed point
// of the secp256k1 curve.
func ParseEcdsaPublicKey(key []byte) (*btcec.PublicKey, error) {
	if len(key) != CompressedPubKeyLength {
		return nil, ErrInvalidKeyLength
	}
	pubkey, err := btcec.ParsePubKey(key)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return pubkey, nil
}

// EvmAddress returns the Ethereum-family address of the given compressed
// public key as 0x-prefixed lowercase hex. The same address is valid on every
// EVM chain.
func EvmAddress(key []byte) (string, error) {
	if _, err := ParseEcdsaPublicKey(key); err != nil {
		return "", err
	}
	pubkey, err := crypto.DecompressPubkey(key)
	if err != nil {
		return "", ErrInvalidPublicKey
	}
	addr := crypto.PubkeyToAddress(*pubkey)
	return "0x" + hex.EncodeToString(addr.Bytes()), nil
}

// BitcoinAddress returns the base58check pay-to-pubkey-hash style address of
// the given compressed public key, hashed with RIPEMD-160.
func BitcoinAddress(key []byte, network BitcoinNetwork) (string, error) {
	if _, err := ParseEcdsaPublicKey(key); err != nil {
		return "", err
	}
	hasher := ripemd160.New()
	hasher.Write(key)
	return base58.CheckEncode(hasher.Sum(nil), bitcoinParams(network).PubKeyHashAddrID), nil
}

func bitcoinParams(network BitcoinNetwork) *chaincfg.Params {
	switch network {
	case Testnet:
		return &chaincfg.TestNet3Params
	case Regtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}
