package hostbridge

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"

	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/signals"
)

// Sender is the part of Client the bridge writes to.
type Sender interface {
	Send(message []byte) bool
}

// Bridge forwards local bus signals to the host and publishes the host's
// signals on the bus.
//
// Signals that came from the host are never sent back to it.
type Bridge struct {
	bus    *signals.Bus
	out    Sender
	logger *observability.CoreLogger

	// peerID marks host signals that carry no sender of their own.
	peerID string

	mu            sync.Mutex
	remoteSenders map[string]struct{}
	unsubscribe   func()
}

// NewBridge starts forwarding bus signals to out.
//
// Feed messages from the host to HandleMessage.
func NewBridge(
	bus *signals.Bus,
	out Sender,
	logger *observability.CoreLogger,
) *Bridge {
	if logger == nil {
		logger = observability.NewNoOpLogger()
	}
	b := &Bridge{
		bus:           bus,
		out:           out,
		logger:        logger,
		peerID:        "host-" + uuid.NewString(),
		remoteSenders: make(map[string]struct{}),
	}
	b.unsubscribe = bus.SubscribeAll(b.forward)
	return b
}

func (b *Bridge) isRemote(sender string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.remoteSenders[sender]
	return ok
}

func (b *Bridge) forward(s signals.Signal) {
	if s.Sender == b.peerID || b.isRemote(s.Sender) {
		return
	}

	data, err := json.Marshal(s)
	if err != nil {
		b.logger.CaptureError(fmt.Errorf("hostbridge: encode signal: %v", err))
		return
	}
	b.out.Send(data)
}

// HandleMessage decodes a host frame and publishes it on the bus.
func (b *Bridge) HandleMessage(data []byte) error {
	var s signals.Signal
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hostbridge: decode signal: %v", err)
	}
	if s.Name == "" {
		return fmt.Errorf("hostbridge: signal without name")
	}

	if s.Sender == "" {
		s.Sender = b.peerID
	} else {
		b.mu.Lock()
		b.remoteSenders[s.Sender] = struct{}{}
		b.mu.Unlock()
	}

	b.bus.Publish(s)
	return nil
}

// Close stops forwarding.
func (b *Bridge) Close() {
	b.unsubscribe()
}
