package db_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	dbbadger "github.com/b3pay/b3walletd/internal/infrastructure/storage/db/badger"
	"github.com/b3pay/b3walletd/internal/infrastructure/storage/db/inmemory"
	"github.com/stretchr/testify/require"
)

type repoManager struct {
	ports.RepoManager
	Name string
}

// createRepoManagers returns a fresh repo manager for every implementation,
// the on-disk badger one included.
func createRepoManagers(t *testing.T) []repoManager {
	badgerRepoManager, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)
	inMemoryBadgerRepoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		badgerRepoManager.Close()
		inMemoryBadgerRepoManager.Close()
	})

	return []repoManager{
		{Name: "badger", RepoManager: badgerRepoManager},
		{Name: "badger_inmemory", RepoManager: inMemoryBadgerRepoManager},
		{Name: "inmemory", RepoManager: inmemory.NewRepoManager()},
	}
}

func randomOwner() []byte {
	return randomBytes(29)
}

func makeRenameRequest(accountID string) *domain.Request {
	req, _ := domain.NewRequest(
		domain.Operation{
			RenameAccount: &domain.RenameAccountArgs{
				AccountID: accountID, NewName: "renamed",
			},
		},
		domain.RoleSigner, "alice", randomTimestamp(), 0,
	)
	return req
}

func makeEvmTransferRequest() *domain.Request {
	req, _ := domain.NewRequest(
		domain.Operation{
			EvmTransfer: &domain.EvmTransferArgs{
				AccountID: "default",
				ChainID:   1,
				To:        "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf",
				Value:     big.NewInt(1_000_000_000_000_000_000),
				EvmFeeArgs: domain.EvmFeeArgs{
					Nonce:                2,
					GasLimit:             21000,
					MaxFeePerGas:         big.NewInt(30_000_000_000),
					MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
				},
			},
		},
		domain.RoleAdmin, "alice", randomTimestamp(), 0,
	)
	return req
}

func randomTimestamp() int64 {
	return int64(randomIntInRange(1000000000, 1662688000))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}

func randomIntInRange(min, max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(int(n.Int64())) + min
}
