package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"greenleaf/internal/profile"
)

// signalsReadyMsg tells a screen that signal changes are queued.
type signalsReadyMsg struct {
	screen uint64
}

// signalBridge subscribes to an editor's signals and hands their emissions
// to the event loop in order. Emissions are queued without bound, so a busy
// loop never drops a transition; the screen drains the queue from Update.
// After close, queued and late emissions are discarded and wait returns nil.
type signalBridge struct {
	screen uint64

	mu     sync.Mutex
	queue  []tea.Msg
	closed bool
	notify chan struct{}
	done   chan struct{}
	unsubs []func()
}

func newSignalBridge(screen uint64, ed ProfileEditor) *signalBridge {
	b := &signalBridge{
		screen: screen,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	b.unsubs = append(b.unsubs,
		ed.User().Subscribe(func(u *profile.Snapshot) {
			b.push(UserChangedMsg{Screen: screen, User: u})
		}),
		ed.IsLoading().Subscribe(func(v bool) {
			b.push(LoadingChangedMsg{Screen: screen, Loading: v})
		}),
		ed.Error().Subscribe(func(v string) {
			b.push(ErrorChangedMsg{Screen: screen, Message: v})
		}),
		ed.IsSaved().Subscribe(func(v bool) {
			b.push(SavedChangedMsg{Screen: screen, Saved: v})
		}),
	)
	return b
}

func (b *signalBridge) push(msg tea.Msg) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// wait returns a command that blocks until signals change.
func (b *signalBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.notify:
		case <-b.done:
			return nil
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			return nil
		}
		return signalsReadyMsg{screen: b.screen}
	}
}

// drain returns the queued changes in emission order.
func (b *signalBridge) drain() []tea.Msg {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	msgs := b.queue
	b.queue = nil
	return msgs
}

// close unsubscribes and releases any pending wait. Idempotent.
func (b *signalBridge) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.queue = nil
	unsubs := b.unsubs
	b.unsubs = nil
	close(b.done)
	b.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}
