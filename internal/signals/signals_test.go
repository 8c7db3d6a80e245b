package signals_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/traceviewer/tracechart/internal/signals"
)

func TestBus_DeliversByName(t *testing.T) {
	bus := signals.NewBus()
	var viewport, all []signals.Signal
	unsubscribe := bus.Subscribe(signals.ViewportChanged, func(s signals.Signal) {
		viewport = append(viewport, s)
	})
	bus.SubscribeAll(func(s signals.Signal) { all = append(all, s) })

	bus.Publish(signals.Signal{
		Name:    signals.ViewportChanged,
		Payload: signals.Payload{ExperimentID: "exp", TimeRange: &signals.Range{Start: 1, End: 2}},
	})
	bus.Publish(signals.Signal{Name: signals.SeriesToggled})
	unsubscribe()
	bus.Publish(signals.Signal{Name: signals.ViewportChanged})

	assert.Len(t, viewport, 1)
	assert.Equal(t, "exp", viewport[0].Payload.ExperimentID)
	assert.Len(t, all, 3)
}
