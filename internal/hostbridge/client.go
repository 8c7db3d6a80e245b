// Package hostbridge relays chart signals to and from a host process over
// a websocket.
package hostbridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/gorilla/websocket"

	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/options"
)

const sendBufferSize = 256

// MessageHandler processes one received message.
type MessageHandler func([]byte) error

// Client is a websocket connection with a buffered send queue.
//
// ReadPump and WritePump must each run in their own goroutine.
type Client struct {
	conn           *websocket.Conn
	send           chan []byte
	logger         *observability.CoreLogger
	messageHandler MessageHandler
	closeHandler   func()

	closeOnce sync.Once
	done      chan struct{}
}

// WithMessageHandler sets the handler for received messages.
func WithMessageHandler(h MessageHandler) options.Option[Client] {
	return func(c *Client) { c.messageHandler = h }
}

// WithCloseHandler sets a function called once the read side stops.
func WithCloseHandler(h func()) options.Option[Client] {
	return func(c *Client) { c.closeHandler = h }
}

// WithLogger sets the client's logger.
func WithLogger(l *observability.CoreLogger) options.Option[Client] {
	return func(c *Client) { c.logger = l }
}

// NewClient wraps an open connection.
func NewClient(conn *websocket.Conn, opts ...options.Option[Client]) *Client {
	c := &Client{
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		logger:         observability.NewNoOpLogger(),
		messageHandler: func([]byte) error { return nil },
		closeHandler:   func() {},
		done:           make(chan struct{}),
	}
	options.Apply(c, opts...)
	return c
}

// Dial connects to url, retrying with backoff until ctx is done.
func Dial(
	ctx context.Context,
	url string,
	header http.Header,
	logger *observability.CoreLogger,
) (*websocket.Conn, error) {
	if logger == nil {
		logger = observability.NewNoOpLogger()
	}
	var conn *websocket.Conn
	err := retry.Do(
		func() error {
			c, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(200*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("hostbridge: dial failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	return conn, err
}

// ReadPump delivers received messages to the message handler until the
// connection fails or closes.
func (c *Client) ReadPump() {
	defer func() {
		c.closeHandler()
		c.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure,
			) {
				c.logger.Warn("hostbridge: read failed", "error", err)
			}
			return
		}

		if err := c.messageHandler(message); err != nil {
			c.logger.Warn("hostbridge: bad message", "error", err)
		}
	}
}

// WritePump writes queued messages until the client is closed.
func (c *Client) WritePump() {
	defer c.Close()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("hostbridge: write failed", "error", err)
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			return
		}
	}
}

// Send queues a message. Messages are dropped if the queue is full or the
// client is closed.
func (c *Client) Send(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		c.logger.Warn("hostbridge: send queue full, dropping message")
		return false
	}
}

// Done is closed when the client closes.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close stops the pumps and closes the connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		// Give WritePump a moment to send the close frame.
		time.AfterFunc(100*time.Millisecond, func() { _ = c.conn.Close() })
	})
}
