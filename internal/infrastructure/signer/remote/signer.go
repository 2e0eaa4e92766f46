package remote

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/pkg/circuitbreaker"
	"github.com/b3pay/b3walletd/pkg/util"
)

type publicKeyRequest struct {
	KeyID string   `json:"key_id"`
	Path  []string `json:"derivation_path"`
}

type publicKeyResponse struct {
	PublicKey string `json:"public_key"`
}

type signRequest struct {
	KeyID  string   `json:"key_id"`
	Path   []string `json:"derivation_path"`
	Digest string   `json:"message_hash"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

// signer is the client of the threshold-ECDSA signing oracle. Calls go
// through a circuit breaker so that a down oracle fails fast.
type signer struct {
	baseURL string
	client  *util.Client
	cb      *gobreaker.CircuitBreaker
}

func NewSigner(
	baseURL string, authSecret []byte, timeout time.Duration,
) (ports.Signer, error) {
	if len(baseURL) <= 0 {
		return nil, fmt.Errorf("missing signer url")
	}
	client := util.NewClient(timeout)
	if len(authSecret) > 0 {
		client = client.WithAuthSecret(authSecret)
	}
	return &signer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		cb:      circuitbreaker.NewCircuitBreaker("signer"),
	}, nil
}

func (s *signer) PublicKey(
	ctx context.Context, path [][]byte, keyID string,
) ([]byte, error) {
	req := publicKeyRequest{KeyID: keyID, Path: encodePath(path)}
	res, err := s.cb.Execute(func() (interface{}, error) {
		var resp publicKeyResponse
		if err := s.client.PostJSON(
			ctx, s.baseURL+"/v1/public-key", req, &resp,
		); err != nil {
			return nil, err
		}
		return hex.DecodeString(resp.PublicKey)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (s *signer) Sign(
	ctx context.Context, digest []byte, path [][]byte, keyID string,
) ([]byte, error) {
	req := signRequest{
		KeyID:  keyID,
		Path:   encodePath(path),
		Digest: hex.EncodeToString(digest),
	}
	res, err := s.cb.Execute(func() (interface{}, error) {
		var resp signResponse
		if err := s.client.PostJSON(
			ctx, s.baseURL+"/v1/sign", req, &resp,
		); err != nil {
			return nil, err
		}
		return hex.DecodeString(resp.Signature)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func encodePath(path [][]byte) []string {
	encoded := make([]string, 0, len(path))
	for _, p := range path {
		encoded = append(encoded, hex.EncodeToString(p))
	}
	return encoded
}
