package interaction

import "github.com/traceviewer/tracechart/internal/viewport"

// KeyBinding maps keys to a machine action.
//
// If Handler is nil, the binding is shown in help but not dispatched.
type KeyBinding struct {
	Keys        []string
	Description string
	Handler     func(*Machine)
}

// BindingCategory groups related key bindings for help display.
type BindingCategory struct {
	Name     string
	Bindings []KeyBinding
}

// KeyBindings returns the chart's keyboard and mouse bindings.
func KeyBindings() []BindingCategory {
	return []BindingCategory{
		{
			Name: "Zoom",
			Bindings: []KeyBinding{
				{
					Keys:        []string{"w", "i", "ArrowUp"},
					Description: "Zoom in",
					Handler:     func(m *Machine) { m.zoomKeyboard(true) },
				},
				{
					Keys:        []string{"s", "k", "ArrowDown"},
					Description: "Zoom out",
					Handler:     func(m *Machine) { m.zoomKeyboard(false) },
				},
			},
		},
		{
			Name: "Pan",
			Bindings: []KeyBinding{
				{
					Keys:        []string{"a", "j", "ArrowLeft"},
					Description: "Pan left",
					Handler:     func(m *Machine) { m.vp.PanBy(viewport.Left) },
				},
				{
					Keys:        []string{"d", "l", "ArrowRight"},
					Description: "Pan right",
					Handler:     func(m *Machine) { m.vp.PanBy(viewport.Right) },
				},
				{
					Keys:        []string{KeyControl},
					Description: "Hold to drag the view with the left button",
				},
			},
		},
		{
			Name: "Mouse",
			Bindings: []KeyBinding{
				{Keys: []string{"Left drag"}, Description: "Select a time range"},
				{Keys: []string{"Right drag"}, Description: "Zoom to a time range"},
				{Keys: []string{"Middle drag", "Ctrl+Left drag"}, Description: "Pan"},
				{Keys: []string{"Ctrl+Wheel"}, Description: "Zoom at pointer"},
				{Keys: []string{"Shift+Wheel"}, Description: "Pan"},
			},
		},
	}
}

func keyMap(categories []BindingCategory) map[string]KeyBinding {
	m := make(map[string]KeyBinding)
	for _, c := range categories {
		for _, b := range c.Bindings {
			if b.Handler == nil {
				continue
			}
			for _, k := range b.Keys {
				m[k] = b
			}
		}
	}
	return m
}
