package ui

import tea "github.com/charmbracelet/bubbletea"

// Overlay is a modal view drawn over the current screen. Modals handle their
// own dismiss keys and report results with messages.
type Overlay struct {
	View View
}

// OverlayStack holds the open modals; only the top one receives keys.
type OverlayStack struct {
	Stack []Overlay
}

// Push opens o above any existing modal.
func (s *OverlayStack) Push(o Overlay) {
	s.Stack = append(s.Stack, o)
}

// Pop removes and returns the top overlay.
func (s *OverlayStack) Pop() (Overlay, bool) {
	top, ok := s.Peek()
	if ok {
		s.Stack = s.Stack[:len(s.Stack)-1]
	}
	return top, ok
}

// PopIf pops the top overlay only if match accepts its view. A result message
// from a modal that is no longer on top must not close an unrelated one.
func (s *OverlayStack) PopIf(match func(View) bool) bool {
	if top, ok := s.Peek(); ok && match(top.View) {
		s.Pop()
		return true
	}
	return false
}

// Peek returns the top overlay without removing it.
func (s *OverlayStack) Peek() (Overlay, bool) {
	if len(s.Stack) == 0 {
		return Overlay{}, false
	}
	return s.Stack[len(s.Stack)-1], true
}

// Clear closes every overlay, e.g. when the screen below is popped.
func (s *OverlayStack) Clear() {
	s.Stack = nil
}

// Len returns the number of open overlays.
func (s *OverlayStack) Len() int {
	return len(s.Stack)
}

// UpdateTop passes msg to the top overlay and stores the view it returns.
// ok is false when no overlay is open.
func (s *OverlayStack) UpdateTop(msg tea.Msg) (cmd tea.Cmd, ok bool) {
	if len(s.Stack) == 0 {
		return nil, false
	}
	top := &s.Stack[len(s.Stack)-1]
	top.View, cmd = top.View.Update(msg)
	return cmd, true
}
