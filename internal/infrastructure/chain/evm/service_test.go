package evm_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/internal/infrastructure/chain/evm"
)

const address = "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func TestService(t *testing.T) {
	ctx := context.Background()
	server := newTestNode(t)

	_, err := evm.NewService(ctx, server.URL, 5)
	require.Error(t, err)

	svc, err := evm.NewService(ctx, server.URL, 1)
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, address)
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", balance.String())

	_, err = svc.Balance(ctx, "not-an-address")
	require.Error(t, err)

	rate, err := svc.FeeRate(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(25_000_000_000), rate)

	_, err = svc.Utxos(ctx, address)
	require.ErrorIs(t, err, ports.ErrUtxosNotSupported)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	to := common.HexToAddress(address)
	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(25_000_000_000),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1),
	}), types.NewEIP155Signer(big.NewInt(1)), key)
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	txid, err := svc.SubmitTransfer(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, tx.Hash().Hex(), txid)

	_, err = svc.SubmitTransfer(ctx, []byte{0x01})
	require.Error(t, err)
}

func newTestNode(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var result interface{}
		switch req.Method {
		case "eth_chainId":
			result = "0x1"
		case "eth_getBalance":
			result = "0xde0b6b3a7640000"
		case "eth_gasPrice":
			result = "0x5d21dba00"
		case "eth_sendRawTransaction":
			result = common.Hash{}.Hex()
		default:
			w.Header().Set("Content-Type", "application/json")
			//nolint
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(server.Close)
	return server
}
