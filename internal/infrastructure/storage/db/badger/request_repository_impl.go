package dbbadger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

const requestCounterKey = "next_request_id"

type requestCounter struct {
	NextID uint64
}

type requestRepositoryImpl struct {
	store  *badgerhold.Store
	locker *sync.Mutex
}

// NewRequestRepositoryImpl initialize a badger implementation of the
// domain.RequestRepository
func NewRequestRepositoryImpl(
	store *badgerhold.Store, locker *sync.Mutex,
) domain.RequestRepository {
	return &requestRepositoryImpl{store, locker}
}

func (r *requestRepositoryImpl) AddRequest(
	_ context.Context, req *domain.Request,
) (uint64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	var id uint64
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		counter, err := r.getCounter(tx)
		if err != nil {
			return err
		}

		id = counter.NextID
		stored := *req
		stored.ID = id
		if err := r.store.TxInsert(tx, id, stored); err != nil {
			return err
		}

		counter.NextID++
		return r.store.TxUpsert(tx, requestCounterKey, *counter)
	})
	if err != nil {
		return 0, err
	}

	req.ID = id
	return id, nil
}

func (r *requestRepositoryImpl) GetRequest(
	_ context.Context, id uint64,
) (*domain.Request, error) {
	return r.getRequest(nil, id)
}

func (r *requestRepositoryImpl) UpdateRequest(
	_ context.Context, id uint64,
	updateFn func(r *domain.Request) (*domain.Request, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	return r.store.Badger().Update(func(tx *badger.Txn) error {
		req, err := r.getRequest(tx, id)
		if err != nil {
			return err
		}

		updatedReq, err := updateFn(req)
		if err != nil {
			return err
		}
		updatedReq.ID = id
		return r.store.TxUpdate(tx, id, *updatedReq)
	})
}

func (r *requestRepositoryImpl) DeleteRequest(_ context.Context, id uint64) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	err := r.store.Delete(id, domain.Request{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return domain.ErrRequestNotFound
	}
	return err
}

func (r *requestRepositoryImpl) ListRequestsByStatus(
	_ context.Context, statuses ...domain.RequestStatus,
) ([]*domain.Request, error) {
	values := make([]interface{}, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, s)
	}
	query := badgerhold.Where("Status").In(values...)

	return r.findRequests(query)
}

func (r *requestRepositoryImpl) ListAllRequests(
	_ context.Context,
) ([]*domain.Request, uint64, error) {
	reqs, err := r.findRequests(&badgerhold.Query{})
	if err != nil {
		return nil, 0, err
	}

	var counter *requestCounter
	if err := r.store.Badger().View(func(tx *badger.Txn) error {
		counter, err = r.getCounter(tx)
		return err
	}); err != nil {
		return nil, 0, err
	}
	return reqs, counter.NextID, nil
}

func (r *requestRepositoryImpl) RestoreRequests(
	_ context.Context, reqs []*domain.Request, nextID uint64,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	return r.store.Badger().Update(func(tx *badger.Txn) error {
		if err := r.store.TxDeleteMatching(
			tx, domain.Request{}, &badgerhold.Query{},
		); err != nil {
			return err
		}
		for _, req := range reqs {
			if req.ID >= nextID {
				nextID = req.ID + 1
			}
			if err := r.store.TxUpsert(tx, req.ID, *req); err != nil {
				return err
			}
		}
		if nextID == 0 {
			nextID = 1
		}
		return r.store.TxUpsert(tx, requestCounterKey, requestCounter{nextID})
	})
}

func (r *requestRepositoryImpl) getCounter(tx *badger.Txn) (*requestCounter, error) {
	counter := requestCounter{}
	if err := r.store.TxGet(tx, requestCounterKey, &counter); err != nil {
		if !errors.Is(err, badgerhold.ErrNotFound) {
			return nil, err
		}
		counter.NextID = 1
	}
	return &counter, nil
}

func (r *requestRepositoryImpl) getRequest(
	tx *badger.Txn, id uint64,
) (*domain.Request, error) {
	var req domain.Request
	var err error
	if tx != nil {
		err = r.store.TxGet(tx, id, &req)
	} else {
		err = r.store.Get(id, &req)
	}
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *requestRepositoryImpl) findRequests(
	query *badgerhold.Query,
) ([]*domain.Request, error) {
	var reqs []domain.Request
	if err := r.store.Find(&reqs, query); err != nil {
		return nil, err
	}

	res := make([]*domain.Request, 0, len(reqs))
	for i := range reqs {
		res = append(res, &reqs[i])
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ID < res[j].ID
	})
	return res, nil
}
