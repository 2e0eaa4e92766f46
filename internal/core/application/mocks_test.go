package application_test

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/internal/infrastructure/signer/local"
)

// **** Signer ****

// mockSigner wraps a deterministic local signer, counting the key
// acquisitions and optionally failing every call. Key acquisitions can be
// held until a gate is closed.
type mockSigner struct {
	signer      ports.Signer
	pubkeyCalls int32
	signCalls   int32
	failWith    error
	gate        chan struct{}
	failLocker  sync.RWMutex
}

func newMockSigner() *mockSigner {
	signer, _ := local.NewSigner([]byte("b3walletd application test secret!"))
	return &mockSigner{signer: signer}
}

func (m *mockSigner) fail(err error) {
	m.failLocker.Lock()
	defer m.failLocker.Unlock()
	m.failWith = err
}

func (m *mockSigner) hold(gate chan struct{}) {
	m.failLocker.Lock()
	defer m.failLocker.Unlock()
	m.gate = gate
}

func (m *mockSigner) err() error {
	m.failLocker.RLock()
	defer m.failLocker.RUnlock()
	return m.failWith
}

func (m *mockSigner) PublicKey(
	ctx context.Context, path [][]byte, keyID string,
) ([]byte, error) {
	atomic.AddInt32(&m.pubkeyCalls, 1)
	m.failLocker.RLock()
	gate := m.gate
	m.failLocker.RUnlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := m.err(); err != nil {
		return nil, err
	}
	return m.signer.PublicKey(ctx, path, keyID)
}

func (m *mockSigner) Sign(
	ctx context.Context, digest []byte, path [][]byte, keyID string,
) ([]byte, error) {
	atomic.AddInt32(&m.signCalls, 1)
	if err := m.err(); err != nil {
		return nil, err
	}
	return m.signer.Sign(ctx, digest, path, keyID)
}

func (m *mockSigner) publicKeyCalls() int {
	return int(atomic.LoadInt32(&m.pubkeyCalls))
}

// **** Chain backends ****

type mockChainBackend struct {
	mock.Mock
}

func (m *mockChainBackend) Balance(
	ctx context.Context, address string,
) (*big.Int, error) {
	args := m.Called(address)

	var res *big.Int
	if a := args.Get(0); a != nil {
		res = a.(*big.Int)
	}
	return res, args.Error(1)
}

func (m *mockChainBackend) FeeRate(ctx context.Context) (uint64, error) {
	args := m.Called()

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockChainBackend) SubmitTransfer(
	ctx context.Context, rawTx []byte,
) (string, error) {
	args := m.Called(rawTx)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockChainBackend) Utxos(
	ctx context.Context, address string,
) ([]ports.Utxo, error) {
	args := m.Called(address)

	var res []ports.Utxo
	if a := args.Get(0); a != nil {
		res = a.([]ports.Utxo)
	}
	return res, args.Error(1)
}

type mockChainRegistry map[domain.ChainKind]ports.ChainBackend

func (m mockChainRegistry) Backend(kind domain.ChainKind) (ports.ChainBackend, error) {
	backend, ok := m[kind]
	if !ok {
		return nil, ports.ErrBackendNotFound
	}
	return backend, nil
}

// **** Bridge ****

type mockBridgeOracle struct {
	mock.Mock
}

func (m *mockBridgeOracle) InitiateBridgeIn(
	ctx context.Context, kind domain.ChainKind,
	account domain.AccountIdentifier, amount uint64,
) (string, error) {
	args := m.Called(kind, account, amount)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockBridgeOracle) InitiateBridgeOut(
	ctx context.Context, kind domain.ChainKind,
	account domain.AccountIdentifier, destination string, amount uint64,
) (string, error) {
	args := m.Called(kind, account, destination, amount)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockBridgeOracle) PollConfirmed(
	ctx context.Context, kind domain.ChainKind,
	account domain.AccountIdentifier, handles []string,
) ([]string, error) {
	args := m.Called(kind, account, handles)

	var res []string
	if a := args.Get(0); a != nil {
		res = a.([]string)
	}
	return res, args.Error(1)
}

// **** Roles ****

type mockRoles map[string]domain.Role

func (m mockRoles) RoleOf(_ context.Context, caller string) domain.Role {
	return m[caller]
}

// **** Utxo ****

type mockUtxo struct {
	txid  string
	index uint32
	value uint64
}

func (u mockUtxo) GetTxid() string             { return u.txid }
func (u mockUtxo) GetIndex() uint32            { return u.index }
func (u mockUtxo) GetValue() uint64            { return u.value }
func (u mockUtxo) GetStatus() ports.UtxoStatus { return nil }
