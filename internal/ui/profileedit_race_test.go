package ui

import (
	"context"
	"sync"
	"testing"

	"greenleaf/internal/profile"
	"greenleaf/internal/signal"
	"greenleaf/internal/viewmodel"
)

// gatedRepo holds every Save until gate is closed.
type gatedRepo struct {
	mu    sync.Mutex
	snap  profile.Snapshot
	gate  chan struct{}
	saves int
}

func (r *gatedRepo) Fetch(context.Context) (profile.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap, nil
}

func (r *gatedRepo) Save(ctx context.Context, u profile.Update) (profile.Snapshot, error) {
	r.mu.Lock()
	r.saves++
	r.mu.Unlock()
	select {
	case <-r.gate:
	case <-ctx.Done():
		return profile.Snapshot{}, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = u.Apply(r.snap)
	return r.snap, nil
}

func (r *gatedRepo) saveCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func TestProfileEditView_RepeatedSaveBeforeSignalsArrive(t *testing.T) {
	repo := &gatedRepo{snap: *testSnapshot(), gate: make(chan struct{})}
	vm := viewmodel.NewEditProfile(repo)
	vm.LoadProfile()
	vm.Wait()

	v := NewProfileEditView(context.Background(), vm)
	v.Init()
	t.Cleanup(func() {
		v.Close()
		vm.Wait()
	})
	if v.State() != StateLoaded {
		t.Fatalf("expected Loaded, got %v", v.State())
	}

	// No signal delivery between these: the view has not seen loading=true yet.
	v.Update(SaveMsg{})
	v.Update(SaveMsg{})
	v.Update(keyMsg("x"))

	close(repo.gate)
	vm.Wait()

	if n := repo.saveCalls(); n != 1 {
		t.Errorf("repository Save called %d times, want 1", n)
	}
	if got := vm.User().Get().FirstName; got != "Ada" {
		t.Errorf("typing during a save reached the editor: first name %q", got)
	}
	if n := countNavigateBack(collect(pump(t, v))); n != 1 {
		t.Errorf("expected one exit after the save, got %d", n)
	}
}

// risingSaved flips to true while the view subscribes, before or after the
// subscription is registered.
type risingSaved struct {
	*signal.Value[bool]
	afterRegister bool
}

func (r risingSaved) Subscribe(fn func(bool)) func() {
	if !r.afterRegister {
		r.Value.Set(true)
		return r.Value.Subscribe(fn)
	}
	unsub := r.Value.Subscribe(fn)
	r.Value.Set(true)
	return unsub
}

type risingSavedEditor struct {
	*fakeEditor
	saved risingSaved
}

func (e risingSavedEditor) IsSaved() signal.Observable[bool] { return e.saved }

func TestProfileEditView_SavedRisingDuringSubscribeExitsOnce(t *testing.T) {
	for _, after := range []bool{false, true} {
		ed := newFakeEditor()
		ed.user.Set(testSnapshot())
		editor := risingSavedEditor{fakeEditor: ed, saved: risingSaved{Value: ed.saved, afterRegister: after}}
		v := NewProfileEditView(context.Background(), editor)

		msgs := collect(v.Init())
		msgs = append(msgs, collect(pump(t, v))...)
		if n := countNavigateBack(msgs); n != 1 {
			t.Errorf("afterRegister=%v: expected one exit, got %d", after, n)
		}
		v.Close()
	}
}
