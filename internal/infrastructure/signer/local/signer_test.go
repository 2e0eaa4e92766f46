package local_test

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/infrastructure/signer/local"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestNewSigner(t *testing.T) {
	_, err := local.NewSigner([]byte("short"))
	require.ErrorIs(t, err, local.ErrShortSecret)

	_, err = local.NewSigner(secret)
	require.NoError(t, err)
}

func TestPublicKey(t *testing.T) {
	ctx := context.Background()
	signer, err := local.NewSigner(secret)
	require.NoError(t, err)

	sub := domain.DefaultSubaccount
	keyID := sub.KeyConfig().KeyID

	key, err := signer.PublicKey(ctx, sub.DerivationPath(), keyID)
	require.NoError(t, err)
	require.Len(t, key, domain.CompressedPubKeyLength)

	again, err := signer.PublicKey(ctx, sub.DerivationPath(), keyID)
	require.NoError(t, err)
	require.Equal(t, key, again)

	other := domain.NewSubaccount(domain.Staging, 0)
	otherKey, err := signer.PublicKey(ctx, other.DerivationPath(), other.KeyConfig().KeyID)
	require.NoError(t, err)
	require.NotEqual(t, key, otherKey)

	otherSigner, err := local.NewSigner(append([]byte{0x01}, secret...))
	require.NoError(t, err)
	otherKey, err = otherSigner.PublicKey(ctx, sub.DerivationPath(), keyID)
	require.NoError(t, err)
	require.NotEqual(t, key, otherKey)
}

func TestSign(t *testing.T) {
	ctx := context.Background()
	signer, err := local.NewSigner(secret)
	require.NoError(t, err)

	sub := domain.NewSubaccount(domain.Development, 3)
	path, keyID := sub.DerivationPath(), sub.KeyConfig().KeyID
	digest := chainhash.HashB([]byte("message"))

	sig, err := signer.Sign(ctx, digest, path, keyID)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	key, err := signer.PublicKey(ctx, path, keyID)
	require.NoError(t, err)
	pubkey, err := btcec.ParsePubKey(key)
	require.NoError(t, err)

	var r, s btcec.ModNScalar
	r.SetByteSlice(sig[:32])
	s.SetByteSlice(sig[32:])
	require.True(t, ecdsa.NewSignature(&r, &s).Verify(digest, pubkey))

	_, err = signer.Sign(ctx, []byte("short"), path, keyID)
	require.ErrorIs(t, err, local.ErrInvalidDigest)
}
