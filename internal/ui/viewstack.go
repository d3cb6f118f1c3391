package ui

// ViewStack is the screen navigation stack. The bottom entry is the root screen.
type ViewStack struct {
	Stack []View
}

// Push puts v on top.
func (s *ViewStack) Push(v View) {
	s.Stack = append(s.Stack, v)
}

// Pop removes and returns the top view, or nil when empty.
func (s *ViewStack) Pop() View {
	top := s.Peek()
	if top != nil {
		s.Stack = s.Stack[:len(s.Stack)-1]
	}
	return top
}

// Peek returns the top view, or nil when empty.
func (s *ViewStack) Peek() View {
	if len(s.Stack) == 0 {
		return nil
	}
	return s.Stack[len(s.Stack)-1]
}

// SetTop replaces the top view with the one its Update returned.
func (s *ViewStack) SetTop(v View) {
	if len(s.Stack) > 0 {
		s.Stack[len(s.Stack)-1] = v
	}
}

// Len returns the number of screens on the stack.
func (s *ViewStack) Len() int {
	return len(s.Stack)
}
