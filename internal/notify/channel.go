// Package notify receives server-pushed notifications over a reconnecting
// websocket and keeps them in a local log.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"redops/internal/domain"
)

type ConnState int

const (
	Closed ConnState = iota
	Connecting
	Open
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Open:
		return "OPEN"
	default:
		return "CLOSED"
	}
}

const (
	DefaultMaxReconnects  = 5
	DefaultReconnectDelay = time.Second
)

var (
	ErrReconnectsExhausted = errors.New("notification channel: reconnect attempts exhausted")
	ErrNotOpen             = errors.New("notification channel: not open")
)

// Conn is the subset of *websocket.Conn the channel uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

func (d WebsocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

type Config struct {
	URL            string
	MaxReconnects  int
	ReconnectDelay time.Duration
	// Header returns handshake headers, typically the bearer token.
	Header func() http.Header
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Channel is a best-effort push connection. After a drop it reconnects with
// a linear backoff and gives up after MaxReconnects consecutive attempts.
type Channel struct {
	cfg    Config
	dialer Dialer
	log    *Log
	logger *slog.Logger
	after  func(time.Duration) <-chan time.Time
	now    func() time.Time

	mu    sync.Mutex
	state ConnState
	conn  Conn
}

type ChannelOption func(*Channel)

func WithDialer(d Dialer) ChannelOption {
	return func(c *Channel) { c.dialer = d }
}

func WithChannelLogger(l *slog.Logger) ChannelOption {
	return func(c *Channel) { c.logger = l }
}

func NewChannel(cfg Config, log *Log, opts ...ChannelOption) *Channel {
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = DefaultMaxReconnects
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	c := &Channel{
		cfg:    cfg,
		dialer: WebsocketDialer{},
		log:    log,
		logger: slog.Default(),
		after:  time.After,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Channel) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s ConnState, conn Conn) {
	c.mu.Lock()
	c.state = s
	c.conn = conn
	c.mu.Unlock()
}

// Send writes v as JSON when the channel is open.
func (c *Channel) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Open || c.conn == nil {
		return ErrNotOpen
	}
	return c.conn.WriteJSON(v)
}

// Run connects and keeps reading until ctx is done or reconnects are
// exhausted. It always returns a non-nil error.
func (c *Channel) Run(ctx context.Context) error {
	attempt := 0
	for {
		c.setState(Connecting, nil)
		var header http.Header
		if c.cfg.Header != nil {
			header = c.cfg.Header()
		}
		conn, err := c.dialer.Dial(ctx, c.cfg.URL, header)
		if err != nil {
			c.logger.Warn("notification channel dial failed", "url", c.cfg.URL, "attempt", attempt, "error", err)
		} else {
			attempt = 0
			c.setState(Open, conn)
			c.logger.Info("notification channel open", "url", c.cfg.URL)
			c.read(ctx, conn)
			_ = conn.Close()
		}
		c.setState(Closed, nil)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= c.cfg.MaxReconnects {
			c.logger.Error("notification channel giving up", "attempts", attempt)
			return ErrReconnectsExhausted
		}
		attempt++
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.after(c.cfg.ReconnectDelay * time.Duration(attempt)):
		}
	}
}

func (c *Channel) read(ctx context.Context, conn Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Info("notification channel closed", "error", err)
			}
			return
		}
		c.handle(data)
	}
}

// handle decodes one frame. Malformed frames and unknown types are dropped.
func (c *Channel) handle(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Warn("dropping malformed frame", "error", err)
		return
	}
	if f.Type != "notification" {
		c.logger.Debug("dropping frame", "type", f.Type)
		return
	}
	var n domain.Notification
	if err := json.Unmarshal(f.Payload, &n); err != nil {
		c.logger.Warn("dropping malformed notification", "error", err)
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = c.now().UTC()
	}
	if n.Type == "" {
		n.Type = domain.SeverityInfo
	}
	c.log.Push(n)
}
