package inmemory

import (
	"sync"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
)

type walletInmemoryStore struct {
	wallet *domain.Wallet
	locker *sync.RWMutex
}

type requestInmemoryStore struct {
	requests map[uint64]*domain.Request
	nextID   uint64
	locker   *sync.RWMutex
}

type RepoManager struct {
	walletRepository  domain.WalletRepository
	requestRepository domain.RequestRepository
}

func NewRepoManager() ports.RepoManager {
	walletStore := &walletInmemoryStore{
		locker: &sync.RWMutex{},
	}
	requestStore := &requestInmemoryStore{
		requests: map[uint64]*domain.Request{},
		nextID:   1,
		locker:   &sync.RWMutex{},
	}

	return &RepoManager{
		walletRepository:  NewWalletRepositoryImpl(walletStore),
		requestRepository: NewRequestRepositoryImpl(requestStore),
	}
}

func (d *RepoManager) WalletRepository() domain.WalletRepository {
	return d.walletRepository
}

func (d *RepoManager) RequestRepository() domain.RequestRepository {
	return d.requestRepository
}

func (d *RepoManager) Close() {}
