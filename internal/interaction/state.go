package interaction

// Mode names the kind of the current State.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeSelecting
)

func (m Mode) String() string {
	switch m {
	case ModePanning:
		return "panning"
	case ModeSelecting:
		return "selecting"
	default:
		return "idle"
	}
}

// State is one of Idle, Panning or Selecting.
type State interface {
	Mode() Mode
}

// Idle is the resting state.
type Idle struct{}

func (Idle) Mode() Mode { return ModeIdle }

// Panning drags the view with the pointer.
type Panning struct {
	// Anchor is the time under the pointer when the drag started, plus the
	// view start, in fractional time units.
	Anchor float64

	// Resolution is pixels per time unit at the start of the drag.
	Resolution float64
}

func (Panning) Mode() Mode { return ModePanning }

// Selecting drags out a time range.
//
// A left-button selection updates the viewport selection as it moves; a
// right-button selection zooms the view to the range on release.
type Selecting struct {
	Button Button

	// AnchorTime is fixed at the pointer-down position.
	AnchorTime int64

	// CurrentTime follows the pointer.
	CurrentTime int64
}

func (Selecting) Mode() Mode { return ModeSelecting }

// Range returns the selected range with start <= end.
func (s Selecting) Range() (start, end int64) {
	return min(s.AnchorTime, s.CurrentTime), max(s.AnchorTime, s.CurrentTime)
}
