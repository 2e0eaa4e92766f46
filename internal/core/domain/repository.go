package domain

import "context"

// WalletRepository is the abstraction for the storage of the wallet
// aggregate.
type WalletRepository interface {
	// GetOrCreateWallet returns the stored wallet, creating one for owner
	// with the default account if none exists.
	GetOrCreateWallet(ctx context.Context, owner []byte) (*Wallet, error)
	// GetWallet returns ErrWalletNotInitialized if no wallet is stored.
	GetWallet(ctx context.Context) (*Wallet, error)
	// GetAccount returns a copy of the account with the given id.
	GetAccount(ctx context.Context, accountID string) (*WalletAccount, error)
	// UpdateWallet applies updateFn to the stored wallet and persists the
	// result atomically. Nothing is written if updateFn fails.
	UpdateWallet(
		ctx context.Context, updateFn func(w *Wallet) (*Wallet, error),
	) error
	// SaveWallet overwrites the stored wallet.
	SaveWallet(ctx context.Context, wallet *Wallet) error
}

// RequestRepository is the abstraction for the storage of requests.
type RequestRepository interface {
	// AddRequest assigns the next id to req and stores it.
	AddRequest(ctx context.Context, req *Request) (uint64, error)
	GetRequest(ctx context.Context, id uint64) (*Request, error)
	// UpdateRequest applies updateFn to the stored request atomically.
	UpdateRequest(
		ctx context.Context, id uint64,
		updateFn func(r *Request) (*Request, error),
	) error
	DeleteRequest(ctx context.Context, id uint64) error
	// ListRequestsByStatus returns the requests with any of the given
	// statuses ordered by id.
	ListRequestsByStatus(
		ctx context.Context, statuses ...RequestStatus,
	) ([]*Request, error)
	// ListAllRequests returns all requests ordered by id, together with the
	// next id to assign.
	ListAllRequests(ctx context.Context) ([]*Request, uint64, error)
	// RestoreRequests replaces the stored requests and id counter.
	RestoreRequests(ctx context.Context, reqs []*Request, nextID uint64) error
}
