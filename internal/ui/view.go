package ui

import tea "github.com/charmbracelet/bubbletea"

// View is a screen or modal. Update returns the View to keep in its slot, so a
// screen can replace itself.
type View interface {
	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
}

// textCapturer is implemented by views that can take typed text. While it
// reports true, printable keys skip single-key bindings.
type textCapturer interface {
	CapturesText() bool
}

// closer is implemented by views that hold subscriptions until popped.
type closer interface {
	Close()
}

// closeView releases v's resources if it holds any.
func closeView(v View) {
	if c, ok := v.(closer); ok {
		c.Close()
	}
}
