package application

import (
	"fmt"

	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/core/ports"
	dbbadger "github.com/b3pay/b3walletd/internal/infrastructure/storage/db/badger"
	"github.com/b3pay/b3walletd/internal/infrastructure/storage/db/inmemory"
)

const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

type Config struct {
	Owner    []byte
	DBType   string
	DBConfig interface{}

	Signer ports.Signer
	Chains ports.ChainRegistry
	Bridge ports.BridgeOracle
	Roles  ports.RoleAuthority
	Clock  clock.Clock

	repo     ports.RepoManager
	wallet   *walletService
	bridge   BridgeService
	request  RequestService
	snapshot SnapshotService
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("db type %q not supported", c.DBType)
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.walletService(); err != nil {
		return err
	}
	if _, err := c.requestService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) WalletService() WalletService {
	svc, _ := c.walletService()
	return svc
}

// BridgeService returns nil if no bridge oracle is configured.
func (c *Config) BridgeService() BridgeService {
	svc, _ := c.bridgeService()
	return svc
}

func (c *Config) RequestService() RequestService {
	svc, _ := c.requestService()
	return svc
}

func (c *Config) SnapshotService() SnapshotService {
	svc, _ := c.snapshotService()
	return svc
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case DBInMemory:
			c.repo = inmemory.NewRepoManager()
		default:
			return nil, fmt.Errorf("db type %q not supported", c.DBType)
		}
	}
	return c.repo, nil
}

func (c *Config) walletService() (*walletService, error) {
	if c.wallet == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		if c.Signer == nil {
			return nil, fmt.Errorf("%w: missing signer", ErrServiceUnavailable)
		}
		wallet, err := newWalletService(
			c.Owner, repo.WalletRepository(), c.Signer, c.Chains,
		)
		if err != nil {
			return nil, err
		}
		c.wallet = wallet
	}
	return c.wallet, nil
}

func (c *Config) bridgeService() (BridgeService, error) {
	if c.bridge == nil {
		if c.Bridge == nil {
			return nil, fmt.Errorf("%w: missing bridge oracle", ErrServiceUnavailable)
		}
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		bridge, err := NewBridgeService(repo.WalletRepository(), c.Bridge)
		if err != nil {
			return nil, err
		}
		c.bridge = bridge
	}
	return c.bridge, nil
}

func (c *Config) requestService() (RequestService, error) {
	if c.request == nil {
		wallet, err := c.walletService()
		if err != nil {
			return nil, err
		}
		repo, _ := c.repoManager()
		request, err := newRequestService(
			wallet, repo.RequestRepository(), c.Roles, c.Clock,
		)
		if err != nil {
			return nil, err
		}
		c.request = request
	}
	return c.request, nil
}

func (c *Config) snapshotService() (SnapshotService, error) {
	if c.snapshot == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		snapshot, err := NewSnapshotService(repo)
		if err != nil {
			return nil, err
		}
		c.snapshot = snapshot
	}
	return c.snapshot, nil
}
