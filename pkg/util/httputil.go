package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// DefaultTimeout ...
const DefaultTimeout = 30 * time.Second

// HTTPError is returned when the server replies with a non 2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Client is a thin HTTP client for the JSON APIs of the external oracles.
// If an auth secret is set, every request carries a short lived HS256
// bearer token signed with it.
type Client struct {
	client *http.Client
	secret []byte
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{client: &http.Client{Timeout: timeout}}
}

// WithAuthSecret ...
func (c *Client) WithAuthSecret(secret []byte) *Client {
	c.secret = append([]byte{}, secret...)
	return c
}

// NewHTTPRequest function builds http call
// @param method <string>: http method
// @param url <string>: URL http to call
// @return <int>, <string>, error
func (c *Client) NewHTTPRequest(
	ctx context.Context, method, url, bodyString string, header map[string]string,
) (int, string, error) {
	switch method {
	case http.MethodGet, http.MethodDelete:
		return c.do(ctx, method, url, nil, header)
	case http.MethodPost:
		return c.do(ctx, method, url, strings.NewReader(bodyString), header)
	default:
		return 0, "", fmt.Errorf("verb not supported %s", method)
	}
}

// GetJSON decodes the JSON response of a GET request into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	status, resp, err := c.NewHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return err
	}
	return decodeResponse(status, resp, out)
}

// PostJSON sends in as JSON body and decodes the response into out, if not
// nil.
func (c *Client) PostJSON(
	ctx context.Context, url string, in, out interface{},
) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	header := map[string]string{"Content-Type": "application/json"}
	status, resp, err := c.NewHTTPRequest(
		ctx, http.MethodPost, url, string(body), header,
	)
	if err != nil {
		return err
	}
	return decodeResponse(status, resp, out)
}

func (c *Client) do(
	ctx context.Context, method, url string, body io.Reader,
	header map[string]string,
) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, "", err
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}
	if len(c.secret) > 0 {
		token, err := c.authToken()
		if err != nil {
			return 0, "", err
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	rs, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse response body: %w", err)
	}
	return rs.StatusCode, string(bodyBytes), nil
}

func (c *Client) authToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Minute).Unix(),
	})
	return token.SignedString(c.secret)
}

func decodeResponse(status int, resp string, out interface{}) error {
	if status < 200 || status > 299 {
		return &HTTPError{StatusCode: status, Body: resp}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(bytes.NewBufferString(resp)).Decode(out)
}
