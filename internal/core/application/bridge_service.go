package application

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
)

// BridgeService tracks the in-flight conversions between the native asset
// and its wrapped representation on bridge chains.
type BridgeService interface {
	InitiateReceive(ctx context.Context, args BridgeInArgs) (string, error)
	InitiateSend(ctx context.Context, args BridgeOutArgs) (string, error)
	// SettleReceive asks the bridge oracle which pending receives are
	// confirmed and removes them, returning the settled handles.
	SettleReceive(
		ctx context.Context, accountID string, kind domain.ChainKind,
	) ([]string, error)
	SettleSend(
		ctx context.Context, accountID string, kind domain.ChainKind,
	) ([]string, error)
	// ClearPendingReceive drops a pending receive without asking the oracle.
	// Clearing an unknown handle is a no-op.
	ClearPendingReceive(
		ctx context.Context, accountID string, kind domain.ChainKind, handle string,
	) error
	ClearPendingSend(
		ctx context.Context, accountID string, kind domain.ChainKind, handle string,
	) error
	ListPending(
		ctx context.Context, accountID string,
	) ([]PendingTransfersView, error)
}

type bridgeService struct {
	repository domain.WalletRepository
	oracle     ports.BridgeOracle
}

func NewBridgeService(
	repository domain.WalletRepository, oracle ports.BridgeOracle,
) (BridgeService, error) {
	if repository == nil {
		return nil, fmt.Errorf("missing wallet repository")
	}
	if oracle == nil {
		return nil, fmt.Errorf("missing bridge oracle")
	}
	return &bridgeService{repository, oracle}, nil
}

func (b *bridgeService) InitiateReceive(
	ctx context.Context, args BridgeInArgs,
) (string, error) {
	if err := args.validate(); err != nil {
		return "", err
	}
	account, err := b.bridgeAccount(ctx, args.AccountID, args.Chain)
	if err != nil {
		return "", err
	}

	handle, err := b.oracle.InitiateBridgeIn(
		ctx, args.Chain, account.Ledger.PublicKeys.Identifier, args.Amount,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBridgeFailure, err)
	}

	if err := b.recordHandle(
		ctx, args.AccountID, args.Chain, handle,
		func(p *domain.PendingTransfers) error {
			_, err := p.AddReceive(handle)
			return err
		},
	); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"account": args.AccountID,
		"chain":   args.Chain.String(),
		"handle":  handle,
	}).Info("bridge receive initiated")
	return handle, nil
}

func (b *bridgeService) InitiateSend(
	ctx context.Context, args BridgeOutArgs,
) (string, error) {
	if err := args.validate(); err != nil {
		return "", err
	}
	account, err := b.bridgeAccount(ctx, args.AccountID, args.Chain)
	if err != nil {
		return "", err
	}

	handle, err := b.oracle.InitiateBridgeOut(
		ctx, args.Chain, account.Ledger.PublicKeys.Identifier,
		args.Destination, args.Amount,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBridgeFailure, err)
	}

	if err := b.recordHandle(
		ctx, args.AccountID, args.Chain, handle,
		func(p *domain.PendingTransfers) error {
			_, err := p.AddSend(handle)
			return err
		},
	); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"account": args.AccountID,
		"chain":   args.Chain.String(),
		"handle":  handle,
	}).Info("bridge send initiated")
	return handle, nil
}

func (b *bridgeService) SettleReceive(
	ctx context.Context, accountID string, kind domain.ChainKind,
) ([]string, error) {
	return b.settle(ctx, accountID, kind, true)
}

func (b *bridgeService) SettleSend(
	ctx context.Context, accountID string, kind domain.ChainKind,
) ([]string, error) {
	return b.settle(ctx, accountID, kind, false)
}

func (b *bridgeService) ClearPendingReceive(
	ctx context.Context, accountID string, kind domain.ChainKind, handle string,
) error {
	return b.updateBinding(
		ctx, accountID, kind,
		func(p *domain.PendingTransfers) error {
			p.RemoveReceive(handle)
			return nil
		},
	)
}

func (b *bridgeService) ClearPendingSend(
	ctx context.Context, accountID string, kind domain.ChainKind, handle string,
) error {
	return b.updateBinding(
		ctx, accountID, kind,
		func(p *domain.PendingTransfers) error {
			p.RemoveSend(handle)
			return nil
		},
	)
}

func (b *bridgeService) ListPending(
	ctx context.Context, accountID string,
) ([]PendingTransfersView, error) {
	account, err := b.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	views := make([]PendingTransfersView, 0)
	for _, kind := range account.Ledger.BoundChains() {
		if !kind.IsBridge() {
			continue
		}
		pending := account.Ledger.Chains[kind].Pending.Clone()
		views = append(views, PendingTransfersView{
			Chain:   kind,
			Receive: pending.Receive,
			Send:    pending.Send,
		})
	}
	return views, nil
}

func (b *bridgeService) settle(
	ctx context.Context, accountID string, kind domain.ChainKind, receive bool,
) ([]string, error) {
	account, err := b.bridgeAccount(ctx, accountID, kind)
	if err != nil {
		return nil, err
	}
	binding := account.Ledger.Chains[kind]
	handles := binding.Pending.Send
	if receive {
		handles = binding.Pending.Receive
	}
	if len(handles) <= 0 {
		return []string{}, nil
	}

	confirmed, err := b.oracle.PollConfirmed(
		ctx, kind, account.Ledger.PublicKeys.Identifier, handles,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBridgeFailure, err)
	}

	var settled []string
	if err := b.updateBinding(
		ctx, accountID, kind,
		func(p *domain.PendingTransfers) error {
			if receive {
				settled = p.SettleReceive(confirmed)
			} else {
				settled = p.SettleSend(confirmed)
			}
			return nil
		},
	); err != nil {
		return nil, err
	}

	if len(settled) > 0 {
		log.WithFields(log.Fields{
			"account": accountID,
			"chain":   kind.String(),
			"settled": len(settled),
		}).Info("bridge transfers settled")
	}
	return settled, nil
}

func (b *bridgeService) bridgeAccount(
	ctx context.Context, accountID string, kind domain.ChainKind,
) (*domain.WalletAccount, error) {
	account, err := b.repository.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if _, err := account.Ledger.BridgeBinding(kind); err != nil {
		return nil, err
	}
	return account, nil
}

// recordHandle adds the handle returned by the oracle to the pending list
// of a binding that must still exist.
func (b *bridgeService) recordHandle(
	ctx context.Context, accountID string, kind domain.ChainKind,
	handle string, addFn func(p *domain.PendingTransfers) error,
) error {
	err := b.repository.UpdateWallet(
		ctx,
		func(w *domain.Wallet) (*domain.Wallet, error) {
			account, err := w.Account(accountID)
			if err != nil {
				return nil, err
			}
			if !account.Ledger.IsBound(kind) {
				return nil, domain.ErrChainNotBound
			}
			binding, err := account.Ledger.BridgeBinding(kind)
			if err != nil {
				return nil, err
			}
			if err := addFn(&binding.Pending); err != nil {
				return nil, err
			}
			return w, nil
		},
	)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"account": accountID,
			"chain":   kind.String(),
			"handle":  handle,
		}).Error("bridge transfer accepted by oracle but not recorded")
		return fmt.Errorf("handle %s not recorded: %w", handle, err)
	}
	return nil
}

func (b *bridgeService) updateBinding(
	ctx context.Context, accountID string, kind domain.ChainKind,
	updateFn func(p *domain.PendingTransfers) error,
) error {
	return b.repository.UpdateWallet(
		ctx,
		func(w *domain.Wallet) (*domain.Wallet, error) {
			account, err := w.Account(accountID)
			if err != nil {
				return nil, err
			}
			binding, err := account.Ledger.BridgeBinding(kind)
			if err != nil {
				return nil, err
			}
			if err := updateFn(&binding.Pending); err != nil {
				return nil, err
			}
			return w, nil
		},
	)
}
