package colors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/traceviewer/tracechart/internal/colors"
)

func TestAllocator_FirstSeenWins(t *testing.T) {
	a := colors.NewAllocator([]string{"red", "green"})

	assert.Equal(t, "red", a.ColorFor("cpu0"))
	assert.Equal(t, "green", a.ColorFor("cpu1"))
	assert.Equal(t, "red", a.ColorFor("cpu0"))
	assert.Equal(t, "red", a.ColorFor("cpu2"), "wraps around the palette")
}

func TestAllocator_InstancesAreIndependent(t *testing.T) {
	a := colors.NewAllocator([]string{"red", "green"})
	b := colors.NewAllocator([]string{"red", "green"})

	a.ColorFor("x")

	assert.Equal(t, "red", b.ColorFor("y"))
}

func TestAllocator_Reset(t *testing.T) {
	a := colors.NewAllocator([]string{"red", "green"})
	a.ColorFor("x")
	a.ColorFor("y")

	a.Reset()

	assert.Equal(t, "red", a.ColorFor("y"))
}

func TestPalette_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, colors.Schemes[colors.DefaultScheme], colors.Palette("nope"))
	assert.Len(t, colors.Palette("ansi-15"), 15)
}
