package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
)

// RequestService is the approval workflow of privileged operations. An
// operation is first submitted as a pending request and later executed by
// a caller holding the required role.
type RequestService interface {
	Submit(
		ctx context.Context, caller string, op domain.Operation,
		requiredRole domain.Role, deadline int64,
	) (uint64, error)
	// Execute runs a pending request. The returned request is in its final
	// status. If the operation fails, its error is returned together with
	// the failed request.
	Execute(ctx context.Context, caller string, id uint64) (*domain.Request, error)
	GetRequest(ctx context.Context, id uint64) (*domain.Request, error)
	ListPending(ctx context.Context) ([]*domain.Request, error)
	ListProcessed(ctx context.Context) ([]*domain.Request, error)
	RoleOf(ctx context.Context, caller string) domain.Role
	// RecoverInterrupted fails the requests left in Executing by a previous
	// run and returns how many were found.
	RecoverInterrupted(ctx context.Context) (int, error)
}

type requestService struct {
	wallet   *walletService
	requests domain.RequestRepository
	roles    ports.RoleAuthority
	clock    clock.Clock
	executor *requestExecutor
}

func NewRequestService(
	owner []byte,
	repoManager ports.RepoManager,
	signer ports.Signer,
	chains ports.ChainRegistry,
	roles ports.RoleAuthority,
	clk clock.Clock,
) (RequestService, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	wallet, err := newWalletService(
		owner, repoManager.WalletRepository(), signer, chains,
	)
	if err != nil {
		return nil, err
	}
	return newRequestService(wallet, repoManager.RequestRepository(), roles, clk)
}

func newRequestService(
	wallet *walletService,
	requests domain.RequestRepository,
	roles ports.RoleAuthority,
	clk clock.Clock,
) (*requestService, error) {
	if requests == nil {
		return nil, fmt.Errorf("missing request repository")
	}
	if roles == nil {
		return nil, fmt.Errorf("missing role authority")
	}
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &requestService{
		wallet:   wallet,
		requests: requests,
		roles:    roles,
		clock:    clk,
		executor: &requestExecutor{wallet, clk},
	}, nil
}

func (s *requestService) Submit(
	ctx context.Context, caller string, op domain.Operation,
	requiredRole domain.Role, deadline int64,
) (uint64, error) {
	role := s.roles.RoleOf(ctx, caller)
	if !role.IsValid() {
		return 0, domain.ErrForbidden
	}

	req, err := domain.NewRequest(
		op, requiredRole, domain.CallerID(role, caller),
		s.clock.Now().Unix(), deadline,
	)
	if err != nil {
		return 0, err
	}
	if err := s.validateState(ctx, op); err != nil {
		return 0, err
	}

	id, err := s.requests.AddRequest(ctx, req)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"id":     id,
		"method": op.MethodName(),
		"role":   req.Role.String(),
	}).Info("request submitted")
	return id, nil
}

func (s *requestService) Execute(
	ctx context.Context, caller string, id uint64,
) (*domain.Request, error) {
	role := s.roles.RoleOf(ctx, caller)
	executor := domain.CallerID(role, caller)
	now := s.clock.Now().Unix()

	var req *domain.Request
	if err := s.requests.UpdateRequest(
		ctx, id,
		func(r *domain.Request) (*domain.Request, error) {
			if err := r.StartExecution(role, executor, now); err != nil {
				return nil, err
			}
			req = r
			return r, nil
		},
	); err != nil {
		if errors.Is(err, domain.ErrRequestExpired) {
			s.evict(ctx, id)
		}
		return nil, err
	}

	result, opErr := s.executor.execute(ctx, req.Operation)

	var final *domain.Request
	if err := s.requests.UpdateRequest(
		ctx, id,
		func(r *domain.Request) (*domain.Request, error) {
			executedAt := s.clock.Now().Unix()
			if opErr != nil {
				if err := r.Fail(opErr, executedAt); err != nil {
					return nil, err
				}
			} else {
				if err := r.Complete(*result, executedAt); err != nil {
					return nil, err
				}
			}
			final = r.Clone()
			return r, nil
		},
	); err != nil {
		return nil, err
	}

	entry := log.WithFields(log.Fields{
		"id":       id,
		"method":   req.Operation.MethodName(),
		"executor": executor,
	})
	if opErr != nil {
		entry.WithError(opErr).Warn("request failed")
		return final, opErr
	}
	entry.Info("request completed")
	return final, nil
}

func (s *requestService) GetRequest(
	ctx context.Context, id uint64,
) (*domain.Request, error) {
	return s.requests.GetRequest(ctx, id)
}

func (s *requestService) ListPending(ctx context.Context) ([]*domain.Request, error) {
	return s.requests.ListRequestsByStatus(ctx, domain.RequestStatusPending)
}

func (s *requestService) ListProcessed(ctx context.Context) ([]*domain.Request, error) {
	return s.requests.ListRequestsByStatus(
		ctx, domain.RequestStatusCompleted, domain.RequestStatusFailed,
	)
}

func (s *requestService) RoleOf(ctx context.Context, caller string) domain.Role {
	return s.roles.RoleOf(ctx, caller)
}

func (s *requestService) RecoverInterrupted(ctx context.Context) (int, error) {
	executing, err := s.requests.ListRequestsByStatus(
		ctx, domain.RequestStatusExecuting,
	)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range executing {
		if err := s.requests.UpdateRequest(
			ctx, r.ID,
			func(r *domain.Request) (*domain.Request, error) {
				if !r.Interrupt(s.clock.Now().Unix()) {
					return nil, domain.ErrRequestAlreadyExecuted
				}
				return r, nil
			},
		); err != nil {
			if errors.Is(err, domain.ErrRequestAlreadyExecuted) {
				continue
			}
			return count, fmt.Errorf("failed to recover request %d: %w", r.ID, err)
		}
		log.WithField("id", r.ID).Warn("interrupted request marked as failed")
		count++
	}
	return count, nil
}

// validateState checks the preconditions of op that depend on the current
// wallet state.
func (s *requestService) validateState(
	ctx context.Context, op domain.Operation,
) error {
	accountID := op.AccountID()
	if accountID == "" {
		return nil
	}
	account, err := s.wallet.repository.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	switch op.Kind() {
	case domain.OperationRemoveAccount:
		if account.Subaccount().IsDefault() {
			return domain.ErrCannotRemoveDefaultAccount
		}
	case domain.OperationUnbindChain:
		if !account.Ledger.IsBound(op.UnbindChain.Chain) {
			return domain.ErrChainNotFound
		}
	case domain.OperationEvmDeployContract:
		_, err = account.Ledger.EvmBinding(op.EvmDeployContract.ChainID)
	case domain.OperationEvmTransfer:
		_, err = account.Ledger.EvmBinding(op.EvmTransfer.ChainID)
	}
	return err
}

// evict drops an expired request. Failures are only logged.
func (s *requestService) evict(ctx context.Context, id uint64) {
	if err := s.requests.DeleteRequest(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrRequestNotFound) {
			log.WithError(err).Warnf("failed to evict expired request %d", id)
		}
		return
	}
	log.Debugf("expired request %d evicted", id)
}
