package application

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
)

// Snapshot is the whole persistent state of the service.
type Snapshot struct {
	Wallet        *domain.Wallet    `json:"wallet"`
	Requests      []*domain.Request `json:"requests"`
	NextRequestID uint64            `json:"next_request_id"`
}

func (s Snapshot) validate() error {
	if s.Wallet == nil || len(s.Wallet.Owner) <= 0 {
		return fmt.Errorf("%w: missing wallet", ErrInvalidSnapshot)
	}
	if s.NextRequestID == 0 {
		return fmt.Errorf("%w: request ids start from 1", ErrInvalidSnapshot)
	}
	for _, r := range s.Requests {
		if r == nil || r.ID == 0 || r.ID >= s.NextRequestID {
			return fmt.Errorf(
				"%w: request id out of range [1, %d)",
				ErrInvalidSnapshot, s.NextRequestID,
			)
		}
	}
	return nil
}

// SnapshotService exports and imports the persistent state as JSON, used
// across upgrades.
type SnapshotService interface {
	Save(ctx context.Context) ([]byte, error)
	Restore(ctx context.Context, data []byte) error
}

type snapshotService struct {
	repoManager ports.RepoManager
}

func NewSnapshotService(repoManager ports.RepoManager) (SnapshotService, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	return &snapshotService{repoManager}, nil
}

func (s *snapshotService) Save(ctx context.Context) ([]byte, error) {
	wallet, err := s.repoManager.WalletRepository().GetWallet(ctx)
	if err != nil {
		return nil, err
	}
	requests, nextID, err := s.repoManager.RequestRepository().ListAllRequests(ctx)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Snapshot{
		Wallet:        wallet,
		Requests:      requests,
		NextRequestID: nextID,
	})
}

func (s *snapshotService) Restore(ctx context.Context, data []byte) error {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := snapshot.validate(); err != nil {
		return err
	}

	if err := s.repoManager.WalletRepository().SaveWallet(
		ctx, snapshot.Wallet,
	); err != nil {
		return err
	}
	if err := s.repoManager.RequestRepository().RestoreRequests(
		ctx, snapshot.Requests, snapshot.NextRequestID,
	); err != nil {
		return err
	}

	log.Infof(
		"restored snapshot with %d accounts and %d requests",
		len(snapshot.Wallet.Accounts), len(snapshot.Requests),
	)
	return nil
}
