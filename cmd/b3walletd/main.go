package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/config"
	"github.com/b3pay/b3walletd/internal/core/application"
	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/internal/infrastructure/bridge/minter"
	"github.com/b3pay/b3walletd/internal/infrastructure/chain"
	"github.com/b3pay/b3walletd/internal/infrastructure/chain/esplora"
	"github.com/b3pay/b3walletd/internal/infrastructure/chain/evm"
	"github.com/b3pay/b3walletd/internal/infrastructure/roles"
	"github.com/b3pay/b3walletd/internal/infrastructure/signer/local"
	"github.com/b3pay/b3walletd/internal/infrastructure/signer/remote"
	httpinterface "github.com/b3pay/b3walletd/internal/interfaces/http"
	"github.com/b3pay/b3walletd/pkg/stats"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to init config")
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	datadir := config.GetDatadir()
	timeout := config.GetSeconds(config.RequestTimeoutKey)

	signer, err := newSigner(timeout)
	if err != nil {
		log.WithError(err).Fatal("failed to init signer")
	}
	chains, err := newChainRegistry(ctx, timeout)
	if err != nil {
		log.WithError(err).Fatal("failed to init chain backends")
	}
	bridge, err := newBridgeOracle(timeout)
	if err != nil {
		log.WithError(err).Fatal("failed to init bridge oracle")
	}
	authority, err := newRoleAuthority()
	if err != nil {
		log.WithError(err).Fatal("failed to init role authority")
	}

	appConfig := &application.Config{
		Owner:    config.GetOwner(),
		DBType:   config.GetString(config.DBTypeKey),
		DBConfig: filepath.Join(datadir, config.DbLocation),
		Signer:   signer,
		Chains:   chains,
		Bridge:   bridge,
		Roles:    authority,
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	defer appConfig.RepoManager().Close()

	snapshotPath := filepath.Join(datadir, config.SnapshotFile)
	if err := restoreSnapshot(ctx, appConfig.SnapshotService(), snapshotPath); err != nil {
		log.WithError(err).Fatal("failed to restore snapshot")
	}
	if err := appConfig.WalletService().Init(ctx); err != nil {
		log.WithError(err).Fatal("failed to init wallet")
	}
	if count, err := appConfig.RequestService().RecoverInterrupted(ctx); err != nil {
		log.WithError(err).Fatal("failed to recover interrupted requests")
	} else if count > 0 {
		log.Warnf("%d requests were interrupted by the previous shutdown", count)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := stats.NewMetrics(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register metrics")
	}
	if config.GetBool(config.EnableProfilerKey) {
		interval := config.GetSeconds(config.StatsIntervalKey)
		stats.EnableMemoryStatistics(
			ctx, interval, reg, filepath.Join(datadir, config.ProfilerLocation),
		)
	}

	var cache *redis.Client
	if addr := config.GetString(config.RedisAddrKey); addr != "" {
		cache = redis.NewClient(&redis.Options{Addr: addr})
		if err := cache.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer cache.Close()
	}

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Port:           config.GetInt(config.HTTPListeningPortKey),
		WalletSvc:      appConfig.WalletService(),
		RequestSvc:     appConfig.RequestService(),
		SnapshotSvc:    appConfig.SnapshotService(),
		BridgeSvc:      appConfig.BridgeService(),
		Roles:          authority,
		Cache:          cache,
		IdempotencyTTL: config.GetSeconds(config.IdempotencyTTLKey),
		Metrics:        metrics,
		Gatherer:       reg,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init http interface")
	}

	log.Info("starting daemon")
	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	<-sigChan

	log.Info("shutting down daemon")
	svc.Stop()
	if err := saveSnapshot(ctx, appConfig.SnapshotService(), snapshotPath); err != nil {
		log.WithError(err).Warn("failed to save snapshot")
	}
	cancel()
	log.Info("exiting")
}

func newSigner(timeout time.Duration) (ports.Signer, error) {
	if url := config.GetString(config.SignerURLKey); url != "" {
		return remote.NewSigner(
			url, []byte(config.GetString(config.SignerAuthSecretKey)), timeout,
		)
	}
	log.Warn("using local development signer, do not use in production")
	return local.NewSigner([]byte(config.GetString(config.LocalSignerSecretKey)))
}

func newChainRegistry(
	ctx context.Context, timeout time.Duration,
) (ports.ChainRegistry, error) {
	registry := chain.NewRegistry()
	network := config.GetBitcoinNetwork()

	if url := config.GetString(config.EsploraURLKey); url != "" {
		backend, err := esplora.NewService(
			ctx, url, config.GetInt(config.EsploraRPSKey), timeout,
		)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(domain.Bitcoin(network), backend); err != nil {
			return nil, err
		}
	}

	if url := config.GetString(config.EvmRPCURLKey); url != "" {
		chainID := config.GetUint64(config.EvmChainIDKey)
		backend, err := evm.NewService(ctx, url, chainID)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(domain.EVM(chainID), backend); err != nil {
			return nil, err
		}
	}

	for _, kind := range registry.Kinds() {
		log.Infof("chain backend configured for %s", kind)
	}
	return registry, nil
}

func newBridgeOracle(timeout time.Duration) (ports.BridgeOracle, error) {
	url := config.GetString(config.MinterURLKey)
	if url == "" {
		log.Info("minter not configured, bridge operations are disabled")
		return nil, nil
	}
	return minter.NewService(
		url, []byte(config.GetString(config.MinterAuthSecretKey)), timeout,
	)
}

func newRoleAuthority() (ports.RoleAuthority, error) {
	authorities := make([]ports.RoleAuthority, 0, 2)

	admins := config.GetStringSlice(config.AdminTokensKey)
	signers := config.GetStringSlice(config.SignerTokensKey)
	if len(admins) > 0 || len(signers) > 0 {
		static, err := roles.NewStatic(admins, signers)
		if err != nil {
			return nil, err
		}
		authorities = append(authorities, static)
	}

	if secret := config.GetString(config.TokenSecretKey); secret != "" {
		issuer, err := roles.NewIssuer([]byte(secret))
		if err != nil {
			return nil, err
		}
		authorities = append(authorities, issuer.Authority())
	}
	return roles.Chain(authorities...), nil
}

// restoreSnapshot imports the snapshot left by the previous run, if any, and
// removes it.
func restoreSnapshot(
	ctx context.Context, svc application.SnapshotService, path string,
) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := svc.Restore(ctx, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("restored state from snapshot %s", path)
	return os.Remove(path)
}

// saveSnapshot exports the state on shutdown so that the next run can start
// from it even with a volatile db.
func saveSnapshot(
	ctx context.Context, svc application.SnapshotService, path string,
) error {
	if config.GetString(config.DBTypeKey) != application.DBInMemory {
		return nil
	}
	data, err := svc.Save(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	log.Infof("saved state to snapshot %s", path)
	return nil
}
