package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Reconnection parameters
	initialReconnectDelay  = 1 * time.Second
	maxReconnectDelay      = 30 * time.Second
	reconnectBackoffFactor = 2

	// WebSocket parameters
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// ErrStop is returned by a handler to end the watch without reconnecting.
var ErrStop = errors.New("stop watching")

// Update is one message from the game stream. Data is left raw; its shape
// depends on Type.
type Update struct {
	GameID string          `json:"gameId"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

// Handler is called for each update
type Handler func(update Update) error

// Client follows a running game's WebSocket stream and reconnects with
// backoff when the connection drops.
type Client struct {
	url            string
	handler        Handler
	logger         zerolog.Logger
	dialer         *websocket.Dialer
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	baseDelay      time.Duration
	reconnectDelay time.Duration

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	err       error
}

// Option configures the client
type Option func(*Client)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDialer sets the WebSocket dialer
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithInitialReconnectDelay sets the initial reconnect delay
func WithInitialReconnectDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.reconnectDelay = delay
	}
}

// NewClient creates a client for the stream at url, e.g.
// ws://localhost:8080/api/game/ws.
func NewClient(url string, handler Handler, opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		url:            url,
		handler:        handler,
		logger:         zerolog.Nop(),
		dialer:         websocket.DefaultDialer,
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		reconnectDelay: initialReconnectDelay,
	}

	for _, opt := range opts {
		opt(client)
	}
	client.baseDelay = client.reconnectDelay

	return client
}

// Start begins following the stream
func (c *Client) Start() error {
	go c.run()
	return nil
}

// Stop gracefully shuts down the client
func (c *Client) Stop() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		c.connected = false
		return err
	}
	return nil
}

// Done is closed once the client has stopped, either through Stop or
// because the handler returned ErrStop or another error.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the handler error that ended the watch, if any.
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) run() {
	defer close(c.done)
	defer c.cancel()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		if err := c.connect(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to connect to game stream")
			c.handleReconnect()
			continue
		}

		err := c.listen()
		var herr *handlerError
		switch {
		case errors.As(err, &herr):
			if !errors.Is(herr.err, ErrStop) {
				c.mu.Lock()
				c.err = herr.err
				c.mu.Unlock()
			}
			c.closeConn()
			return
		case err != nil:
			c.logger.Error().Err(err).Msg("Error reading game stream")
			c.handleReconnect()
		}
	}
}

func (c *Client) connect() error {
	c.logger.Info().Str("url", c.url).Msg("Connecting to game stream")

	headers := http.Header{}
	headers.Set("User-Agent", "lvichess-watch/1.0")

	ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, headers)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.reconnectDelay = c.baseDelay
	c.mu.Unlock()

	c.logger.Info().Msg("Connected to game stream")
	return nil
}

type handlerError struct {
	err error
}

func (e *handlerError) Error() string {
	return e.err.Error()
}

func (c *Client) listen() error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return errors.New("not connected")
	}

	pingCtx, stopPing := context.WithCancel(c.ctx)
	defer stopPing()
	go c.pingLoop(pingCtx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("websocket read error: %w", err)
		}

		var update Update
		if err := json.Unmarshal(data, &update); err != nil {
			c.logger.Error().Err(err).Msg("Error decoding update")
			continue
		}
		if update.Type == "pong" {
			continue
		}

		if err := c.handler(update); err != nil {
			return &handlerError{err: err}
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
				c.logger.Error().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) handleReconnect() {
	c.closeConn()

	c.mu.Lock()
	// Get current delay before updating
	delay := c.reconnectDelay

	// Exponential backoff
	c.reconnectDelay = time.Duration(float64(c.reconnectDelay) * reconnectBackoffFactor)
	if c.reconnectDelay > maxReconnectDelay {
		c.reconnectDelay = maxReconnectDelay
	}
	c.mu.Unlock()

	c.logger.Info().Str("delay", delay.String()).Msg("Waiting before reconnect")

	select {
	case <-time.After(delay):
	case <-c.ctx.Done():
	}
}
