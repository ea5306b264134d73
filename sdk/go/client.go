package redopssdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the fixed per-request receive timeout.
const DefaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token for outbound requests and receives
// tokens refreshed by the server.
type TokenSource interface {
	Token() string
	SetToken(token string)
}

// Client is a minimal redops HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Tokens     TokenSource
	// OnUnauthorized runs whenever an authenticated request comes back 401.
	OnUnauthorized func()
	Logger         *slog.Logger
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: DefaultTimeout,
	}
}

// encodedBody is sent as is instead of being JSON encoded.
type encodedBody struct {
	contentType string
	data        io.Reader
}

type requestOptions struct {
	// anonymous requests carry no bearer token, ignore refreshed tokens and
	// skip the 401 hook.
	anonymous bool
}

// Do performs one request against the API and decodes the JSON response into
// out. It returns the response headers on success.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, out any) (http.Header, error) {
	return c.do(ctx, method, endpoint, body, out, requestOptions{})
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any, opts requestOptions) (http.Header, error) {
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var reader io.Reader
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case encodedBody:
		reader, contentType = b.data, b.contentType
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
		reader = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if !opts.anonymous && c.Tokens != nil {
		if token := c.Tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, c.transportError(method, url, err)
	}
	defer resp.Body.Close()
	c.logger().Debug("api request", "method", method, "path", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))

	if !opts.anonymous && c.Tokens != nil {
		if token := StripBearer(resp.Header.Get("Authorization")); token != "" {
			c.Tokens.SetToken(token)
		}
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b), Message: errorMessage(b)}
		if resp.StatusCode == http.StatusUnauthorized && !opts.anonymous && c.OnUnauthorized != nil {
			c.logger().Warn("request unauthorized; clearing session", "method", method, "path", endpoint)
			c.OnUnauthorized()
		}
		return resp.Header, apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.Header, fmt.Errorf("decode %s %s: %w", method, endpoint, err)
		}
	}
	return resp.Header, nil
}

func (c *Client) transportError(method, url string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &TimeoutError{Method: method, URL: url, After: c.timeout(), Err: err}
	}
	return &NetworkError{Method: method, URL: url, Err: err}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.timeout()}
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// StripBearer removes an optional "Bearer " scheme prefix.
func StripBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return envelope.Message
}

func resourcePath(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}
