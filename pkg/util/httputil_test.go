package util_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"

	"github.com/b3pay/b3walletd/pkg/util"
)

func TestClient(t *testing.T) {
	secret := []byte("shared secret")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			//nolint
			json.NewEncoder(w).Encode(body)
		case "/auth":
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			_, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			//nolint
			w.Write([]byte(`{"ok":"yes"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			//nolint
			w.Write([]byte("not found"))
		}
	}))
	t.Cleanup(server.Close)

	ctx := context.Background()
	client := util.NewClient(5 * time.Second)

	var out map[string]string
	err := client.PostJSON(ctx, server.URL+"/echo", map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	require.Equal(t, "b", out["a"])

	err = client.GetJSON(ctx, server.URL+"/missing", &out)
	var httpErr *util.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	require.Equal(t, "not found", httpErr.Body)

	err = client.GetJSON(ctx, server.URL+"/auth", &out)
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)

	client = util.NewClient(0).WithAuthSecret(secret)
	err = client.GetJSON(ctx, server.URL+"/auth", &out)
	require.NoError(t, err)
	require.Equal(t, "yes", out["ok"])

	_, _, err = client.NewHTTPRequest(ctx, "LIST", server.URL, "", nil)
	require.Error(t, err)
}
