// Package relay implements transport.Transport over a WebSocket
// connection to a relay server, authenticating with a bearer JWT.
// Grounded on engineapi/client.RPCClient (engineapi/client/client.go —
// see DESIGN.md, C9): lazy dial on first use, a mutex-guarded connection
// handle, and a JWT loaded once from a secret file and attached as a
// bearer token on every request.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"

	"github.com/opchan/core/transport"
)

// Config is a relay connection's configuration.
type Config struct {
	Endpoint       string // ws:// or wss:// URL
	JWTSecretFile  string // file holding the bearer token's HMAC secret; trimmed contents used as raw bytes
	DialTimeout    time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig mirrors engineapi/client's DefaultConfig shape: a local
// endpoint and sensible local timeouts.
var DefaultConfig = Config{
	Endpoint:       "ws://127.0.0.1:9797/relay",
	DialTimeout:    5 * time.Second,
	RequestTimeout: 5 * time.Second,
}

// Client implements transport.Transport over one relay connection.
// Reconnection is lazy: a failed read marks the connection not-ready and
// the next Send re-dials.
type Client struct {
	cfg Config

	mu        sync.Mutex
	conn      *websocket.Conn
	writeMu   sync.Mutex
	jwtSecret []byte
	ready     bool

	receiveMu sync.Mutex
	receive   []transport.ReceiveFunc
	healthMu  sync.Mutex
	health    []transport.HealthFunc
	syncMu    sync.Mutex
	syncCbs   []transport.SyncFunc
}

// New constructs a Client. It does not dial until the first Send or
// Connect call.
func New(cfg Config) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig.DialTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig.RequestTimeout
	}
	return &Client{cfg: cfg}
}

// Connect dials eagerly; callers may also let Send dial lazily.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.ensureConn(ctx)
	return err
}

// Close tears down the active connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.ready = false
	return err
}

func (c *Client) ensureConn(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}

	endpoint := strings.TrimSpace(c.cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("relay: endpoint is empty")
	}

	header, err := c.authHeader()
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("relay: dial %q: %w", endpoint, err)
	}

	c.conn = conn
	c.ready = true
	go c.readLoop(conn)
	c.notifyHealth(true)
	return conn, nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.ready = false
			}
			c.mu.Unlock()
			c.notifyHealth(false)
			return
		}
		c.notifyReceive(raw)
	}
}

// Send writes raw to the relay, dialing first if necessary.
func (c *Client) Send(ctx context.Context, raw []byte) error {
	conn, err := c.ensureConn(ctx)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.RequestTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, raw)
}

// SendWithStatus is Send plus a synchronous delivery-status callback.
func (c *Client) SendWithStatus(ctx context.Context, raw []byte, statusCb transport.StatusFunc) error {
	err := c.Send(ctx, raw)
	if statusCb != nil {
		statusCb(transport.SendStatus{Delivered: err == nil, Err: err})
	}
	return err
}

func (c *Client) OnReceive(fn transport.ReceiveFunc) func() {
	c.receiveMu.Lock()
	defer c.receiveMu.Unlock()
	c.receive = append(c.receive, fn)
	idx := len(c.receive) - 1
	return func() {
		c.receiveMu.Lock()
		defer c.receiveMu.Unlock()
		if idx < len(c.receive) {
			c.receive[idx] = nil
		}
	}
}

func (c *Client) OnHealth(fn transport.HealthFunc) func() {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()
	c.health = append(c.health, fn)
	idx := len(c.health) - 1
	return func() {
		c.healthMu.Lock()
		defer c.healthMu.Unlock()
		if idx < len(c.health) {
			c.health[idx] = nil
		}
	}
}

func (c *Client) OnSync(fn transport.SyncFunc) func() {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	c.syncCbs = append(c.syncCbs, fn)
	idx := len(c.syncCbs) - 1
	return func() {
		c.syncMu.Lock()
		defer c.syncMu.Unlock()
		if idx < len(c.syncCbs) {
			c.syncCbs[idx] = nil
		}
	}
}

// IsReady reports whether the current connection (if any) is live.
func (c *Client) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Client) notifyReceive(raw []byte) {
	c.receiveMu.Lock()
	listeners := append([]transport.ReceiveFunc(nil), c.receive...)
	c.receiveMu.Unlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(raw)
		}
	}
}

func (c *Client) notifyHealth(healthy bool) {
	c.healthMu.Lock()
	listeners := append([]transport.HealthFunc(nil), c.health...)
	c.healthMu.Unlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(healthy)
		}
	}
}

// authHeader builds the bearer-JWT Authorization header used to
// authenticate with the relay, mirroring engineapi/client's
// applyAuthHeader/loadJWTSecret pair.
func (c *Client) authHeader() (http.Header, error) {
	if strings.TrimSpace(c.cfg.JWTSecretFile) == "" {
		return nil, nil
	}
	secret, err := c.loadJWTSecret()
	if err != nil {
		return nil, err
	}
	token, err := signJWT(secret)
	if err != nil {
		return nil, err
	}
	return http.Header{"Authorization": {"Bearer " + token}}, nil
}

func (c *Client) loadJWTSecret() ([]byte, error) {
	if len(c.jwtSecret) > 0 {
		return c.jwtSecret, nil
	}
	path := strings.TrimSpace(c.cfg.JWTSecretFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("relay: read jwt secret %q: %w", path, err)
	}
	c.jwtSecret = []byte(strings.TrimSpace(string(data)))
	return c.jwtSecret, nil
}

func signJWT(secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("relay: sign jwt: %w", err)
	}
	return signed, nil
}
