// Package colors assigns stable palette colors to series names.
package colors

import "sync"

const DefaultScheme = "vibe-10"

// Schemes are the available palettes, keyed by name.
var Schemes = map[string][]string{
	"vibe-10": {
		"#E281FE", "#E78DE3", "#E993D5", "#ED9FBB", "#F0A5AD",
		"#F2AB9F", "#F6B784", "#F8BD78", "#FBC36B", "#FFCF4F",
	},
	"tableau-10": {
		"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
		"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
	},
	"ansi-15": {
		"4", "10", "5", "6", "3", "2", "13", "14", "11", "9", "12", "1", "7", "8", "15",
	},
}

// Palette returns the named palette, or the default one.
func Palette(scheme string) []string {
	if p, ok := Schemes[scheme]; ok {
		return p
	}
	return Schemes[DefaultScheme]
}

// Allocator maps series names to palette colors.
//
// The first time a name is seen it takes the next palette slot; it keeps
// that color for the allocator's lifetime, wrapping around the palette.
type Allocator struct {
	mu       sync.Mutex
	palette  []string
	assigned map[string]int
	next     int
}

// NewAllocator returns an Allocator over palette.
func NewAllocator(palette []string) *Allocator {
	if len(palette) == 0 {
		palette = Schemes[DefaultScheme]
	}
	return &Allocator{
		palette:  palette,
		assigned: make(map[string]int),
	}
}

// ColorFor returns the color of the named series.
func (a *Allocator) ColorFor(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx, ok := a.assigned[name]
	if !ok {
		idx = a.next
		a.assigned[name] = idx
		a.next++
	}
	return a.palette[idx%len(a.palette)]
}

// Reset forgets all assignments.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.assigned)
	a.next = 0
}
