package ports

import (
	"github.com/b3pay/b3walletd/internal/core/domain"
)

// RepoManager interface defines the methods for accessing the wallet and
// request repositories.
type RepoManager interface {
	WalletRepository() domain.WalletRepository
	RequestRepository() domain.RequestRepository

	Close()
}
