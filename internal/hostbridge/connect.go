package hostbridge

import (
	"context"
	"net/http"
	"sync"

	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/signals"
)

// Connection is a running bridge to a host.
type Connection struct {
	client *Client
	bridge *Bridge

	// pumps tracks the read and write goroutines.
	pumps sync.WaitGroup
}

// Connect dials the host at url and relays signals between it and bus
// until Close is called or the host disconnects.
func Connect(
	ctx context.Context,
	url string,
	header http.Header,
	bus *signals.Bus,
	logger *observability.CoreLogger,
) (*Connection, error) {
	if logger == nil {
		logger = observability.NewNoOpLogger()
	}
	conn, err := Dial(ctx, url, header, logger)
	if err != nil {
		return nil, err
	}

	c := &Connection{}
	c.client = NewClient(conn,
		WithLogger(logger),
		WithMessageHandler(func(m []byte) error { return c.bridge.HandleMessage(m) }),
		WithCloseHandler(func() {
			logger.Info("hostbridge: host disconnected", "url", url)
		}),
	)
	c.bridge = NewBridge(bus, c.client, logger)

	c.pumps.Add(2)
	go func() {
		defer c.pumps.Done()
		c.client.WritePump()
	}()
	go func() {
		defer c.pumps.Done()
		c.client.ReadPump()
	}()
	return c, nil
}

// Done is closed once the connection stops.
func (c *Connection) Done() <-chan struct{} {
	return c.client.Done()
}

// Close stops relaying, closes the connection and waits for the pumps to
// exit. It is safe to call more than once.
func (c *Connection) Close() {
	c.bridge.Close()
	c.client.Close()
	c.pumps.Wait()
}
