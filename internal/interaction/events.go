package interaction

// Button is a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "none"
	}
}

// Modifiers are the modifier keys held during an event.
type Modifiers struct {
	Ctrl  bool
	Shift bool
}

// PointerEvent is a pointer press, release or move.
//
// X is in surface coordinates; the plot starts at Geometry.Left.
type PointerEvent struct {
	X      float64
	Button Button
	Modifiers
}

// WheelEvent is a scroll.
type WheelEvent struct {
	X      float64
	DeltaX float64
	DeltaY float64
	Modifiers
}

// KeyEvent is a key press or release.
//
// Key uses DOM key names: "w", "ArrowUp", "Control", "Shift".
type KeyEvent struct {
	Key string
	Modifiers
}

const (
	KeyControl = "Control"
	KeyShift   = "Shift"
)

// Cursor is the pointer cursor the chart should show.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorGrabbing
	CursorColResize
	CursorCrosshair
)

// String returns the CSS cursor name.
func (c Cursor) String() string {
	switch c {
	case CursorGrabbing:
		return "grabbing"
	case CursorColResize:
		return "col-resize"
	case CursorCrosshair:
		return "crosshair"
	default:
		return "default"
	}
}
