package inmemory

import (
	"context"
	"sort"

	"github.com/b3pay/b3walletd/internal/core/domain"
)

type requestRepositoryImpl struct {
	store *requestInmemoryStore
}

// NewRequestRepositoryImpl returns a new inmemory RequestRepository
// implementation.
func NewRequestRepositoryImpl(store *requestInmemoryStore) domain.RequestRepository {
	return &requestRepositoryImpl{store}
}

func (r *requestRepositoryImpl) AddRequest(
	_ context.Context, req *domain.Request,
) (uint64, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	id := r.store.nextID
	r.store.nextID++

	req.ID = id
	r.store.requests[id] = req.Clone()
	return id, nil
}

func (r *requestRepositoryImpl) GetRequest(
	_ context.Context, id uint64,
) (*domain.Request, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	req, ok := r.store.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return req.Clone(), nil
}

func (r *requestRepositoryImpl) UpdateRequest(
	_ context.Context, id uint64,
	updateFn func(r *domain.Request) (*domain.Request, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	req, ok := r.store.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}

	updatedReq, err := updateFn(req.Clone())
	if err != nil {
		return err
	}
	updatedReq.ID = id
	r.store.requests[id] = updatedReq.Clone()
	return nil
}

func (r *requestRepositoryImpl) DeleteRequest(_ context.Context, id uint64) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.requests[id]; !ok {
		return domain.ErrRequestNotFound
	}
	delete(r.store.requests, id)
	return nil
}

func (r *requestRepositoryImpl) ListRequestsByStatus(
	_ context.Context, statuses ...domain.RequestStatus,
) ([]*domain.Request, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	wanted := make(map[domain.RequestStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	reqs := make([]*domain.Request, 0)
	for _, req := range r.store.requests {
		if wanted[req.Status] {
			reqs = append(reqs, req.Clone())
		}
	}
	sortRequests(reqs)
	return reqs, nil
}

func (r *requestRepositoryImpl) ListAllRequests(
	_ context.Context,
) ([]*domain.Request, uint64, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	reqs := make([]*domain.Request, 0, len(r.store.requests))
	for _, req := range r.store.requests {
		reqs = append(reqs, req.Clone())
	}
	sortRequests(reqs)
	return reqs, r.store.nextID, nil
}

func (r *requestRepositoryImpl) RestoreRequests(
	_ context.Context, reqs []*domain.Request, nextID uint64,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	requests := make(map[uint64]*domain.Request, len(reqs))
	for _, req := range reqs {
		if req.ID >= nextID {
			nextID = req.ID + 1
		}
		requests[req.ID] = req.Clone()
	}
	if nextID == 0 {
		nextID = 1
	}
	r.store.requests = requests
	r.store.nextID = nextID
	return nil
}

func sortRequests(reqs []*domain.Request) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].ID < reqs[j].ID
	})
}
