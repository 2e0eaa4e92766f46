package minter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/infrastructure/bridge/minter"
)

var (
	kind    = domain.WrappedBitcoin(domain.Mainnet)
	account = domain.NewAccountIdentifier([]byte{0x04}, domain.DefaultSubaccount)
)

func TestMinter(t *testing.T) {
	ctx := context.Background()
	server := newTestMinter(t)

	_, err := minter.NewService("", nil, 0)
	require.Error(t, err)

	svc, err := minter.NewService(server.URL, []byte("secret"), 5*time.Second)
	require.NoError(t, err)

	handle, err := svc.InitiateBridgeIn(ctx, kind, account, 1000)
	require.NoError(t, err)
	require.Equal(t, "in-1000", handle)

	_, err = svc.InitiateBridgeIn(ctx, kind, account, 0)
	require.Error(t, err)

	handle, err = svc.InitiateBridgeOut(ctx, kind, account, "bc1qdest", 500)
	require.NoError(t, err)
	require.Equal(t, "out-bc1qdest", handle)

	confirmed, err := svc.PollConfirmed(ctx, kind, account, []string{"in-1000", "out-bc1qdest"})
	require.NoError(t, err)
	require.Equal(t, []string{"in-1000"}, confirmed)
}

func newTestMinter(t *testing.T) *httptest.Server {
	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		//nolint
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/bridge-in", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Chain   domain.ChainKind         `json:"chain"`
			Account domain.AccountIdentifier `json:"account"`
			Amount  uint64                   `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
			req.Chain != kind || req.Account != account {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Amount == 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, map[string]string{"handle": "in-1000"})
	})
	mux.HandleFunc("/v1/bridge-out", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Destination string `json:"destination"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]string{"handle": "out-" + req.Destination})
	})
	mux.HandleFunc("/v1/confirmed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Handles []string `json:"handles"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		confirmed := make([]string, 0)
		for _, h := range req.Handles {
			if h[:3] == "in-" {
				confirmed = append(confirmed, h)
			}
		}
		writeJSON(w, map[string][]string{"confirmed": confirmed})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}
