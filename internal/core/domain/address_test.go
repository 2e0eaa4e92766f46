package domain_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ripemd160"
)

var (
	// compressed public keys of the secret keys 1 and 2.
	pubkey1, _ = hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	pubkey2, _ = hex.DecodeString("02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5")
)

func TestEvmAddress(t *testing.T) {
	tests := []struct {
		pubkey   []byte
		expected string
	}{
		{pubkey1, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"},
		{pubkey2, "0x2b5ad5c4795c026514f8317c7a215e218dccd6cf"},
	}

	for _, tt := range tests {
		addr, err := domain.EvmAddress(tt.pubkey)
		require.NoError(t, err)
		require.Equal(t, tt.expected, addr)
		require.Len(t, addr, 42)
		require.Equal(t, strings.ToLower(addr), addr)

		again, err := domain.EvmAddress(tt.pubkey)
		require.NoError(t, err)
		require.Equal(t, addr, again)
	}
}

func TestBitcoinAddress(t *testing.T) {
	mainnet, err := domain.BitcoinAddress(pubkey1, domain.Mainnet)
	require.NoError(t, err)
	require.Equal(t, "1MaqquWfQY23CRmfvoFsTkFTqkoAvwCMMi", mainnet)

	testnet, err := domain.BitcoinAddress(pubkey1, domain.Testnet)
	require.NoError(t, err)
	require.Equal(t, "n26o8xbeDZTHyYFHeNEFHfTnhkPsvqNaWN", testnet)

	regtest, err := domain.BitcoinAddress(pubkey1, domain.Regtest)
	require.NoError(t, err)
	require.Equal(t, testnet, regtest)
	require.NotEqual(t, mainnet, testnet)

	hasher := ripemd160.New()
	hasher.Write(pubkey1)
	expectedHash := hasher.Sum(nil)

	for addr, version := range map[string]byte{mainnet: 0x00, testnet: 0x6f} {
		payload, ver, err := base58.CheckDecode(addr)
		require.NoError(t, err)
		require.Equal(t, version, ver)
		require.Equal(t, expectedHash, payload)
	}
}

func TestFailingAddressDerivation(t *testing.T) {
	notOnCurve := append([]byte{0x02}, make([]byte, 32)...)
	notOnCurve[32] = 0x07

	tests := []struct {
		name        string
		pubkey      []byte
		expectedErr error
	}{
		{"short_key", pubkey1[:32], domain.ErrInvalidKeyLength},
		{"long_key", append(append([]byte{}, pubkey1...), 0x00), domain.ErrInvalidKeyLength},
		{"uncompressed_prefix", append([]byte{0x04}, pubkey1[1:]...), domain.ErrInvalidPublicKey},
		{"not_on_curve", notOnCurve, domain.ErrInvalidPublicKey},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.EvmAddress(tt.pubkey)
			require.ErrorIs(t, err, tt.expectedErr)
			_, err = domain.BitcoinAddress(tt.pubkey, domain.Mainnet)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestPublicKeysSetEcdsa(t *testing.T) {
	keys := domain.NewPublicKeys(anonymousOwner, domain.DefaultSubaccount)
	require.False(t, keys.IsEcdsaSet())

	_, err := keys.Ecdsa()
	require.ErrorIs(t, err, domain.ErrMissingPublicKey)
	_, err = keys.GenerateAddress(domain.Bitcoin(domain.Mainnet))
	require.ErrorIs(t, err, domain.ErrMissingPublicKey)
	_, err = keys.GenerateAddress(domain.EVM(1))
	require.ErrorIs(t, err, domain.ErrMissingPublicKey)

	_, err = keys.SetEcdsa(make([]byte, 32))
	require.ErrorIs(t, err, domain.ErrInvalidKeyLength)
	_, err = keys.SetEcdsa(make([]byte, 34))
	require.ErrorIs(t, err, domain.ErrInvalidKeyLength)
	require.False(t, keys.IsEcdsaSet())

	addresses, err := keys.SetEcdsa(pubkey1)
	require.NoError(t, err)
	require.Equal(t, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", addresses[domain.EVM(0)])
	require.Equal(t, "1MaqquWfQY23CRmfvoFsTkFTqkoAvwCMMi", addresses[domain.Bitcoin(domain.Mainnet)])
	require.Equal(t, keys.Identifier.String(), addresses[domain.NativeLedger()])

	_, err = keys.SetEcdsa(pubkey2)
	require.ErrorIs(t, err, domain.ErrPublicKeyAlreadySet)
	_, err = keys.SetEcdsa(pubkey1)
	require.ErrorIs(t, err, domain.ErrPublicKeyAlreadySet)

	key, err := keys.Ecdsa()
	require.NoError(t, err)
	require.Equal(t, pubkey1, key)

	evm, err := keys.GenerateAddress(domain.EVM(137))
	require.NoError(t, err)
	require.Equal(t, addresses[domain.EVM(0)], evm)
}

func TestPublicKeysGenerateAddressWithoutKey(t *testing.T) {
	keys := domain.NewPublicKeys(anonymousOwner, domain.DefaultSubaccount)

	kinds := []domain.ChainKind{
		domain.NativeLedger(),
		domain.WrappedBitcoin(domain.Mainnet),
		domain.GenericToken("mxzaz-hqaaa-aaaar-qaada-cai"),
		domain.NamedToken("ckETH"),
	}
	for _, kind := range kinds {
		addr, err := keys.GenerateAddress(kind)
		require.NoError(t, err)
		require.Equal(t, keys.Identifier.String(), addr)
	}
}
