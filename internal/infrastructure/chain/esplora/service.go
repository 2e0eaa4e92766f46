package esplora

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/pkg/circuitbreaker"
	"github.com/b3pay/b3walletd/pkg/util"
)

const (
	// DefaultRequestsPerSecond ...
	DefaultRequestsPerSecond = 10
	// feeTarget is the confirmation target, in blocks, of the fee estimation.
	feeTarget = "6"
	// minFeeRate is returned if the explorer has no estimation.
	minFeeRate = 1
)

type esplora struct {
	apiURL  string
	client  *util.Client
	limiter ratelimit.Limiter
	cb      *gobreaker.CircuitBreaker
}

// NewService returns a new esplora service as a ports.ChainBackend
// interface. Requests are paced to requestsPerSecond.
func NewService(
	ctx context.Context, apiURL string, requestsPerSecond int,
	timeout time.Duration,
) (ports.ChainBackend, error) {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	service := &esplora{
		apiURL:  strings.TrimSuffix(apiURL, "/"),
		client:  util.NewClient(timeout),
		limiter: ratelimit.New(requestsPerSecond),
		cb:      circuitbreaker.NewCircuitBreaker("esplora"),
	}

	if err := service.healthCheck(ctx); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return service, nil
}

func (e *esplora) Balance(ctx context.Context, address string) (*big.Int, error) {
	var info addressInfo
	url := fmt.Sprintf("%s/address/%s", e.apiURL, address)
	if err := e.getJSON(ctx, url, &info); err != nil {
		return nil, err
	}
	return big.NewInt(info.balance()), nil
}

func (e *esplora) FeeRate(ctx context.Context) (uint64, error) {
	estimates := make(map[string]float64)
	url := fmt.Sprintf("%s/fee-estimates", e.apiURL)
	if err := e.getJSON(ctx, url, &estimates); err != nil {
		return 0, err
	}
	rate, ok := estimates[feeTarget]
	if !ok || rate < minFeeRate {
		return minFeeRate, nil
	}
	return uint64(math.Ceil(rate)), nil
}

func (e *esplora) SubmitTransfer(ctx context.Context, rawTx []byte) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	res, err := e.call(func() (interface{}, error) {
		status, resp, err := e.client.NewHTTPRequest(
			ctx, http.MethodPost, url, hex.EncodeToString(rawTx), nil,
		)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, &util.HTTPError{StatusCode: status, Body: resp}
		}
		return strings.TrimSpace(resp), nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (e *esplora) Utxos(ctx context.Context, address string) ([]ports.Utxo, error) {
	var unspents []utxo
	url := fmt.Sprintf("%s/address/%s/utxo", e.apiURL, address)
	if err := e.getJSON(ctx, url, &unspents); err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %w", err)
	}

	utxos := make([]ports.Utxo, 0, len(unspents))
	for _, u := range unspents {
		utxos = append(utxos, u)
	}
	return utxos, nil
}

func (e *esplora) healthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	status, resp, err := e.client.NewHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &util.HTTPError{StatusCode: status, Body: resp}
	}
	return nil
}

func (e *esplora) getJSON(ctx context.Context, url string, out interface{}) error {
	_, err := e.call(func() (interface{}, error) {
		return nil, e.client.GetJSON(ctx, url, out)
	})
	return err
}

// call paces the request and runs it through the circuit breaker.
func (e *esplora) call(req func() (interface{}, error)) (interface{}, error) {
	e.limiter.Take()
	return e.cb.Execute(req)
}
