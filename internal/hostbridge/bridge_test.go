package hostbridge_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/internal/hostbridge"
	"github.com/traceviewer/tracechart/internal/observabilitytest"
	"github.com/traceviewer/tracechart/internal/signals"
)

type recordingSender struct {
	mu   sync.Mutex
	sent [][]byte
}

func (r *recordingSender) Send(m []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return true
}

func (r *recordingSender) messages() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.sent...)
}

func TestBridge_ForwardsLocalSignals(t *testing.T) {
	bus := signals.NewBus()
	out := &recordingSender{}
	b := hostbridge.NewBridge(bus, out, observabilitytest.NewTestLogger(t))
	defer b.Close()

	bus.Publish(signals.Signal{
		Name:    signals.ViewportChanged,
		Payload: signals.Payload{ExperimentID: "exp", TimeRange: &signals.Range{Start: 5, End: 9}},
		Sender:  "chart-1",
	})

	require.Len(t, out.messages(), 1)
	assert.JSONEq(t,
		`{"signal":"viewportChanged","payload":{"experimentId":"exp","timeRange":{"start":5,"end":9}},"sender":"chart-1"}`,
		string(out.messages()[0]))
}

func TestBridge_PublishesHostSignalsWithoutEcho(t *testing.T) {
	bus := signals.NewBus()
	out := &recordingSender{}
	b := hostbridge.NewBridge(bus, out, observabilitytest.NewTestLogger(t))
	defer b.Close()
	var received []signals.Signal
	bus.Subscribe(signals.SelectionChanged, func(s signals.Signal) {
		received = append(received, s)
	})

	require.NoError(t, b.HandleMessage([]byte(
		`{"signal":"selectionChanged","payload":{"experimentId":"exp"}}`)))
	require.NoError(t, b.HandleMessage([]byte(
		`{"signal":"selectionChanged","payload":{"experimentId":"exp"},"sender":"other-window"}`)))

	require.Len(t, received, 2)
	assert.NotEmpty(t, received[0].Sender)
	assert.Equal(t, "other-window", received[1].Sender)
	assert.Empty(t, out.messages())
}

func TestBridge_RejectsBadFrames(t *testing.T) {
	b := hostbridge.NewBridge(signals.NewBus(), &recordingSender{}, nil)
	defer b.Close()

	assert.Error(t, b.HandleMessage([]byte(`not json`)))
	assert.Error(t, b.HandleMessage([]byte(`{"payload":{}}`)))
}

func TestClient_RelaysOverWebsocket(t *testing.T) {
	fromChart := make(chan []byte, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"signal":"seriesToggled","payload":{"experimentId":"exp","seriesIds":[3]},"sender":"host"}`))
		_, msg, err := conn.ReadMessage()
		if err == nil {
			fromChart <- msg
		}
	}))
	defer server.Close()

	logger := observabilitytest.NewTestLogger(t)
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := hostbridge.Dial(context.Background(), url, nil, logger)
	require.NoError(t, err)

	bus := signals.NewBus()
	toggled := make(chan signals.Signal, 1)
	bus.Subscribe(signals.SeriesToggled, func(s signals.Signal) { toggled <- s })

	var bridge *hostbridge.Bridge
	client := hostbridge.NewClient(conn,
		hostbridge.WithLogger(logger),
		hostbridge.WithMessageHandler(func(m []byte) error { return bridge.HandleMessage(m) }),
	)
	bridge = hostbridge.NewBridge(bus, client, logger)
	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() {
		defer pumps.Done()
		client.WritePump()
	}()
	go func() {
		defer pumps.Done()
		client.ReadPump()
	}()
	defer func() {
		bridge.Close()
		client.Close()
		pumps.Wait()
	}()

	select {
	case s := <-toggled:
		assert.Equal(t, []int64{3}, s.Payload.SeriesIDs)
	case <-time.After(5 * time.Second):
		t.Fatal("host signal not published")
	}

	bus.Publish(signals.Signal{Name: signals.ViewportChanged, Sender: "chart"})

	select {
	case msg := <-fromChart:
		var s signals.Signal
		require.NoError(t, json.Unmarshal(msg, &s))
		assert.Equal(t, signals.ViewportChanged, s.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("chart signal not sent")
	}
}

func TestDial_GivesUpWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hostbridge.Dial(ctx, "ws://127.0.0.1:1/", nil, observabilitytest.NewTestLogger(t))

	assert.Error(t, err)
}

func TestConnect_PublishesHostSignals(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"signal":"viewportChanged","payload":{"experimentId":"exp","timeRange":{"start":1,"end":2}}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	bus := signals.NewBus()
	changed := make(chan signals.Signal, 1)
	bus.Subscribe(signals.ViewportChanged, func(s signals.Signal) { changed <- s })

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := hostbridge.Connect(context.Background(), url, nil, bus, observabilitytest.NewTestLogger(t))
	require.NoError(t, err)
	defer conn.Close()

	select {
	case s := <-changed:
		assert.Equal(t, "exp", s.Payload.ExperimentID)
		assert.NotEmpty(t, s.Sender)
	case <-time.After(5 * time.Second):
		t.Fatal("host signal not published")
	}
}

func TestConnection_CloseWaitsForPumps(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	logger, logs := observabilitytest.NewRecordingTestLogger(t)
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := hostbridge.Connect(context.Background(), url, nil, signals.NewBus(), logger)
	require.NoError(t, err)

	conn.Close()
	conn.Close()

	select {
	case <-conn.Done():
	default:
		t.Fatal("connection not done after Close")
	}
	assert.Contains(t, logs.String(), "hostbridge: host disconnected")
}
