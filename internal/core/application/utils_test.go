package application_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"

	"github.com/b3pay/b3walletd/internal/core/application"
	"github.com/b3pay/b3walletd/internal/core/domain"
)

const (
	adminToken  = "admin"
	signerToken = "signer"
)

var (
	ctx       = context.Background()
	startTime = time.Unix(1_700_000_000, 0)
)

type testEnv struct {
	cfg    *application.Config
	signer *mockSigner
	chains mockChainRegistry
	bridge *mockBridgeOracle
	clock  *clock.TestClock
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		signer: newMockSigner(),
		chains: mockChainRegistry{},
		bridge: &mockBridgeOracle{},
		clock:  clock.NewTestClock(startTime),
	}
	env.cfg = &application.Config{
		Owner:  randomBytes(29),
		DBType: application.DBInMemory,
		Signer: env.signer,
		Chains: env.chains,
		Bridge: env.bridge,
		Roles:  mockRoles{adminToken: domain.RoleAdmin, signerToken: domain.RoleSigner},
		Clock:  env.clock,
	}
	require.NoError(t, env.cfg.Validate())
	require.NoError(t, env.cfg.WalletService().Init(ctx))
	return env
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	// nolint
	rand.Read(b)
	return b
}
