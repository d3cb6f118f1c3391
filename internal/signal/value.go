// Package signal provides an observable value with explicit subscriptions.
//
// A Value holds the latest state owned by a producer (for example a view-model)
// and notifies subscribers when it changes. Subscribers are called outside the
// lock, in registration order. Changes are delivered one at a time in the order
// they were stored, so the last value a subscriber hears is the value Get
// returns once Set calls quiesce.
package signal

import "sync"

// Observable is the read side of a Value.
type Observable[T any] interface {
	Get() T
	Subscribe(fn func(T)) (unsubscribe func())
}

// Value is a thread-safe observable value.
type Value[T any] struct {
	mu     sync.Mutex
	v      T
	equal  func(a, b T) bool
	subs   map[int]func(T)
	order  []int
	nextID int

	pending    []T  // stored changes not yet delivered, oldest first
	delivering bool // a Set call is draining pending
}

var _ Observable[int] = (*Value[int])(nil)

// New creates a Value holding initial. equal decides whether Set is a change;
// nil means every Set notifies.
func New[T any](initial T, equal func(a, b T) bool) *Value[T] {
	return &Value[T]{
		v:     initial,
		equal: equal,
		subs:  make(map[int]func(T)),
	}
}

// NewComparable creates a Value for comparable types using ==.
func NewComparable[T comparable](initial T) *Value[T] {
	return New(initial, func(a, b T) bool { return a == b })
}

// Get returns the current value.
func (s *Value[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

// Set stores v and notifies subscribers if it differs from the current value.
// Returns true if v was a change.
//
// If another Set is already delivering (on any goroutine, including a
// subscriber calling Set), v is queued behind it and delivered by that call
// before it returns.
func (s *Value[T]) Set(v T) bool {
	s.mu.Lock()
	if s.equal != nil && s.equal(s.v, v) {
		s.mu.Unlock()
		return false
	}
	s.v = v
	s.pending = append(s.pending, v)
	if s.delivering {
		s.mu.Unlock()
		return true
	}
	s.delivering = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		callbacks := s.snapshotLocked()
		s.mu.Unlock()
		for _, fn := range callbacks {
			fn(next)
		}
		s.mu.Lock()
	}
	s.pending = nil
	s.delivering = false
	s.mu.Unlock()
	return true
}

// Subscribe registers fn and returns a function that removes it.
// fn is not called with the current value; use Get for that.
func (s *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, o := range s.order {
				if o == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (s *Value[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Value[T]) snapshotLocked() []func(T) {
	out := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.subs[id])
	}
	return out
}
