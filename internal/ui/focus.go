package ui

// FocusManager tracks which form element is active and cycles through Order.
type FocusManager struct {
	Current string   // focus ID of the active element
	Order   []string // tab order; wraps at both ends
}

// Next moves focus forward and returns the new focus ID.
func (f *FocusManager) Next() string {
	return f.step(1)
}

// Prev moves focus backward and returns the new focus ID.
func (f *FocusManager) Prev() string {
	return f.step(-1)
}

// step moves by delta positions. An unknown Current behaves as if it sat just
// before the first element, so Next lands on Order[0].
func (f *FocusManager) step(delta int) string {
	n := len(f.Order)
	if n == 0 {
		return ""
	}
	idx := f.Index()
	if idx < 0 {
		if delta > 0 {
			idx = -1
		} else {
			idx = 0
		}
	}
	f.Current = f.Order[((idx+delta)%n+n)%n]
	return f.Current
}

// Index returns the position of Current in Order, or -1.
func (f *FocusManager) Index() int {
	for i, id := range f.Order {
		if id == f.Current {
			return i
		}
	}
	return -1
}

// SetFocus focuses id. Returns false and leaves focus alone if id is not in Order.
func (f *FocusManager) SetFocus(id string) bool {
	for _, o := range f.Order {
		if o == id {
			f.Current = id
			return true
		}
	}
	return false
}
