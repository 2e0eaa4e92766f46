package httpinterface

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/core/application"
	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	interfaces "github.com/b3pay/b3walletd/internal/interfaces"
	"github.com/b3pay/b3walletd/pkg/stats"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Port int

	WalletSvc   application.WalletService
	RequestSvc  application.RequestService
	SnapshotSvc application.SnapshotService
	// BridgeSvc is optional, bridge routes reply 503 if not set.
	BridgeSvc application.BridgeService
	Roles     ports.RoleAuthority

	// Cache enables idempotent request submission if set.
	Cache          *redis.Client
	IdempotencyTTL time.Duration

	Metrics  *stats.Metrics
	Gatherer prometheus.Gatherer
}

func (o ServiceOpts) validate() error {
	if o.WalletSvc == nil {
		return fmt.Errorf("missing wallet service")
	}
	if o.RequestSvc == nil {
		return fmt.Errorf("missing request service")
	}
	if o.SnapshotSvc == nil {
		return fmt.Errorf("missing snapshot service")
	}
	if o.Roles == nil {
		return fmt.Errorf("missing role authority")
	}
	if o.Cache != nil && o.IdempotencyTTL <= 0 {
		return fmt.Errorf("idempotency ttl must be positive")
	}
	return nil
}

type service struct {
	opts ServiceOpts
	app  *fiber.App
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	app, err := NewApp(opts)
	if err != nil {
		return nil, err
	}
	return &service{opts, app}, nil
}

func (s *service) Start() error {
	addr := fmt.Sprintf(":%d", s.opts.Port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
	}
	log.Infof("http interface is listening on %s", addr)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http interface")
		return
	}
	log.Info("stopped http interface")
}

// NewApp returns the fiber app serving the wallet api.
func NewApp(opts ServiceOpts) (*fiber.App, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.NewRegistry()
	}
	if opts.Metrics == nil {
		reg := prometheus.NewRegistry()
		metrics, err := stats.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		opts.Metrics = metrics
	}

	// Request values are stored beyond the handler, they must not alias
	// fasthttp's reused buffers.
	app := fiber.New(fiber.Config{
		AppName:               "b3walletd",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          errorHandler,
	})
	app.Use(requestID(), accessLogger(opts.Metrics))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}),
	))

	h := &handler{
		wallet:   opts.WalletSvc,
		requests: opts.RequestSvc,
		snapshot: opts.SnapshotSvc,
		bridge:   opts.BridgeSvc,
		metrics:  opts.Metrics,
	}

	v1 := app.Group("/v1", authenticate(opts.Roles))

	anyone := requireRole(domain.RoleNone)
	signer := requireRole(domain.RoleSigner)
	admin := requireRole(domain.RoleAdmin)

	v1.Get("/accounts", anyone, h.listAccounts)
	v1.Post("/accounts/restore", admin, h.restoreAccount)
	v1.Get("/accounts/:id", anyone, h.getAccount)
	v1.Get("/accounts/:id/public-key", signer, h.getPublicKey)
	v1.Get("/accounts/:id/addresses", anyone, h.getAddresses)
	v1.Get("/accounts/:id/balances", anyone, h.getBalances)
	v1.Get("/accounts/:id/balances/:chain", anyone, h.getBalance)
	v1.Get("/accounts/:id/utxos", anyone, h.getUtxos)
	v1.Post("/accounts/:id/metadata", admin, h.addAccountMetadata)
	v1.Delete("/accounts/:id/metadata/:key", admin, h.removeAccountMetadata)
	v1.Post("/accounts/:id/sign-message", signer, h.signMessage)
	v1.Post("/accounts/:id/sign-evm-transaction", signer, h.signEvmTransaction)

	v1.Get("/accounts/:id/pending", anyone, h.listPending)
	v1.Post("/accounts/:id/bridge/receive", signer, h.bridgeReceive)
	v1.Post("/accounts/:id/bridge/send", signer, h.bridgeSend)
	v1.Post("/accounts/:id/bridge/settle", signer, h.bridgeSettle)
	v1.Delete("/accounts/:id/bridge/:chain/:direction/:handle", admin, h.bridgeClear)

	v1.Get("/fee-rate/:chain", anyone, h.getFeeRate)
	v1.Get("/settings", anyone, h.getSettings)

	submit := []fiber.Handler{anyone}
	if opts.Cache != nil {
		submit = append(submit, idempotency(opts.Cache, opts.IdempotencyTTL))
	}
	v1.Post("/requests", append(submit, h.submitRequest)...)
	v1.Get("/requests", anyone, h.listRequests)
	v1.Get("/requests/:id", anyone, h.getRequest)
	v1.Post("/requests/:id/execute", anyone, h.executeRequest)

	v1.Get("/snapshot", admin, h.saveSnapshot)
	v1.Post("/snapshot", admin, h.restoreSnapshot)
	v1.Post("/reset", admin, h.reset)

	return app, nil
}
