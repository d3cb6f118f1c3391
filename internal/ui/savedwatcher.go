package ui

// SavedWatcher turns the saved flag into a one-shot event. Observe reports
// true only on a false to true transition; repeated true values do nothing
// until the flag has been seen false again.
type SavedWatcher struct {
	prev bool
}

// Observe records v and reports whether it is a rising edge.
func (w *SavedWatcher) Observe(v bool) bool {
	rising := v && !w.prev
	w.prev = v
	return rising
}
