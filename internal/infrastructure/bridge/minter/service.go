package minter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/pkg/circuitbreaker"
	"github.com/b3pay/b3walletd/pkg/util"
)

type bridgeInRequest struct {
	Chain   domain.ChainKind         `json:"chain"`
	Account domain.AccountIdentifier `json:"account"`
	Amount  uint64                   `json:"amount"`
}

type bridgeOutRequest struct {
	Chain       domain.ChainKind         `json:"chain"`
	Account     domain.AccountIdentifier `json:"account"`
	Destination string                   `json:"destination"`
	Amount      uint64                   `json:"amount"`
}

type handleResponse struct {
	Handle string `json:"handle"`
}

type confirmedRequest struct {
	Chain   domain.ChainKind         `json:"chain"`
	Account domain.AccountIdentifier `json:"account"`
	Handles []string                 `json:"handles"`
}

type confirmedResponse struct {
	Confirmed []string `json:"confirmed"`
}

// service is the client of the minter, the bridge oracle converting the
// native asset into its wrapped representation.
type service struct {
	baseURL string
	client  *util.Client
	cb      *gobreaker.CircuitBreaker
}

func NewService(
	baseURL string, authSecret []byte, timeout time.Duration,
) (ports.BridgeOracle, error) {
	if len(baseURL) <= 0 {
		return nil, fmt.Errorf("missing minter url")
	}
	client := util.NewClient(timeout)
	if len(authSecret) > 0 {
		client = client.WithAuthSecret(authSecret)
	}
	return &service{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		cb:      circuitbreaker.NewCircuitBreaker("minter"),
	}, nil
}

func (s *service) InitiateBridgeIn(
	ctx context.Context, kind domain.ChainKind,
	account domain.AccountIdentifier, amount uint64,
) (string, error) {
	return s.initiate(ctx, "/v1/bridge-in", bridgeInRequest{
		Chain:   kind,
		Account: account,
		Amount:  amount,
	})
}

func (s *service) InitiateBridgeOut(
	ctx context.Context, kind domain.ChainKind,
	account domain.AccountIdentifier, destination string, amount uint64,
) (string, error) {
	return s.initiate(ctx, "/v1/bridge-out", bridgeOutRequest{
		Chain:       kind,
		Account:     account,
		Destination: destination,
		Amount:      amount,
	})
}

func (s *service) PollConfirmed(
	ctx context.Context, kind domain.ChainKind,
	account domain.AccountIdentifier, handles []string,
) ([]string, error) {
	req := confirmedRequest{Chain: kind, Account: account, Handles: handles}
	res, err := s.cb.Execute(func() (interface{}, error) {
		var resp confirmedResponse
		if err := s.client.PostJSON(
			ctx, s.baseURL+"/v1/confirmed", req, &resp,
		); err != nil {
			return nil, err
		}
		return resp.Confirmed, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]string), nil
}

func (s *service) initiate(
	ctx context.Context, path string, req interface{},
) (string, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		var resp handleResponse
		if err := s.client.PostJSON(ctx, s.baseURL+path, req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Handle) <= 0 {
			return nil, fmt.Errorf("minter returned an empty handle")
		}
		return resp.Handle, nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}
