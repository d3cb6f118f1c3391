package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"greenleaf/internal/profile"
	"greenleaf/internal/signal"
)

// fakeEditor records commands and mutates its signals the way the real
// view-model does, synchronously.
type fakeEditor struct {
	user    *signal.Value[*profile.Snapshot]
	loading *signal.Value[bool]
	err     *signal.Value[string]
	saved   *signal.Value[bool]

	calls  []string
	loads  int
	saves  []string
	ctxs   []context.Context
	closed bool
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{
		user:    signal.New[*profile.Snapshot](nil, nil),
		loading: signal.NewComparable(false),
		err:     signal.NewComparable(""),
		saved:   signal.NewComparable(false),
	}
}

func (f *fakeEditor) User() signal.Observable[*profile.Snapshot] { return f.user }
func (f *fakeEditor) IsLoading() signal.Observable[bool]         { return f.loading }
func (f *fakeEditor) Error() signal.Observable[string]           { return f.err }
func (f *fakeEditor) IsSaved() signal.Observable[bool]           { return f.saved }

func (f *fakeEditor) LoadProfile() {
	f.loads++
	f.err.Set("")
	f.loading.Set(true)
}

func (f *fakeEditor) edit(field, v string, apply func(s *profile.Snapshot)) {
	f.calls = append(f.calls, field+"="+v)
	if cur := f.user.Get(); cur != nil {
		next := *cur
		apply(&next)
		f.user.Set(&next)
	}
}

func (f *fakeEditor) UpdateFirstName(v string) {
	f.edit("first_name", v, func(s *profile.Snapshot) { s.FirstName = v })
}

func (f *fakeEditor) UpdateLastName(v string) {
	f.edit("last_name", v, func(s *profile.Snapshot) { s.LastName = v })
}

func (f *fakeEditor) UpdateBirthdate(v string) {
	f.edit("birthdate", v, func(s *profile.Snapshot) { s.Birthdate = v })
}

func (f *fakeEditor) UpdateGender(v string) {
	f.edit("gender", v, func(s *profile.Snapshot) { s.Gender = v })
}

func (f *fakeEditor) UpdatePhoneNumber(v string) {
	f.edit("phone", v, func(s *profile.Snapshot) { s.PhoneNumber = v })
}

func (f *fakeEditor) SaveProfile(ctx context.Context, pendingImage string) {
	f.saves = append(f.saves, pendingImage)
	f.ctxs = append(f.ctxs, ctx)
}

func (f *fakeEditor) Close() { f.closed = true }

func testSnapshot() *profile.Snapshot {
	return &profile.Snapshot{
		ID: 1, FirstName: "Ada", LastName: "Lovelace", Birthdate: "1990-12-10",
		Gender: "Female", Email: "ada@example.com", PhoneNumber: "5550100",
		ProfileImageRef: "http://localhost:8080/media/profile/ada.png",
	}
}

// newLoadedEditView returns an initialized view whose editor already holds a profile.
func newLoadedEditView(t *testing.T) (*ProfileEditView, *fakeEditor) {
	t.Helper()
	ed := newFakeEditor()
	ed.user.Set(testSnapshot())
	v := NewProfileEditView(context.Background(), ed)
	v.Init()
	t.Cleanup(v.Close)
	if v.State() != StateLoaded {
		t.Fatalf("expected Loaded, got %v", v.State())
	}
	return v, ed
}

// pump delivers the queued signal changes to the view, as the event loop would.
func pump(t *testing.T, v *ProfileEditView) tea.Cmd {
	t.Helper()
	_, cmd := v.Update(signalsReadyMsg{screen: v.ID()})
	return cmd
}

// collect runs cmd, expanding batches, and returns the messages produced
// promptly. Commands that block (signal waits, timers) are skipped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	got := make(chan tea.Msg, 1)
	go func() { got <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-got:
	case <-time.After(50 * time.Millisecond):
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func countNavigateBack(msgs []tea.Msg) int {
	n := 0
	for _, m := range msgs {
		if _, ok := m.(NavigateBackMsg); ok {
			n++
		}
	}
	return n
}

func TestProfileEditView_InitLoadsWhenEmpty(t *testing.T) {
	ed := newFakeEditor()
	v := NewProfileEditView(context.Background(), ed)
	defer v.Close()

	v.Init()
	if ed.loads != 1 {
		t.Fatalf("expected LoadProfile on init, got %d calls", ed.loads)
	}
	pump(t, v)
	if v.State() != StateLoading {
		t.Errorf("expected Loading, got %v", v.State())
	}
	if !strings.Contains(v.View(), "Loading") {
		t.Error("loading view should say Loading")
	}

	ed.user.Set(testSnapshot())
	ed.loading.Set(false)
	pump(t, v)
	if v.State() != StateLoaded {
		t.Errorf("expected Loaded, got %v", v.State())
	}
	if !strings.Contains(v.View(), "ada@example.com") {
		t.Error("loaded view should show the email")
	}
}

func TestProfileEditView_StatePrecedence(t *testing.T) {
	ed := newFakeEditor()
	v := NewProfileEditView(context.Background(), ed)
	defer v.Close()

	tests := []struct {
		loading bool
		err     string
		user    *profile.Snapshot
		want    ViewState
	}{
		{false, "", nil, StateLoading},
		{true, "", nil, StateLoading},
		{true, "boom", testSnapshot(), StateLoading},
		{false, "boom", testSnapshot(), StateError},
		{false, "boom", nil, StateError},
		{false, "", testSnapshot(), StateLoaded},
	}
	for _, tt := range tests {
		v.loading, v.errMsg, v.user = tt.loading, tt.err, tt.user
		if got := v.State(); got != tt.want {
			t.Errorf("State(loading=%v, err=%q, user=%v) = %v, want %v", tt.loading, tt.err, tt.user != nil, got, tt.want)
		}
	}
}

func TestProfileEditView_FieldEditsForwardExactValue(t *testing.T) {
	v, ed := newLoadedEditView(t)

	// First name is focused; the cursor sits after "Ada".
	v.Update(keyMsg("x"))
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	v.Update(keyMsg("1"))
	v.Update(tea.KeyMsg{Type: tea.KeyTab}) // gender
	v.Update(GenderSelectedMsg{Value: "Male"})
	v.Update(tea.KeyMsg{Type: tea.KeyTab}) // mobile
	v.Update(keyMsg("9"))

	want := []string{
		"first_name=Adax",
		"last_name=Lovelac",
		"birthdate=1990-12-1",
		"birthdate=1990-12-11",
		"gender=Male",
		"phone=55501009",
	}
	if fmt.Sprint(ed.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v\nwant    %v", ed.calls, want)
	}

	got := ed.user.Get()
	if got.Email != "ada@example.com" || got.ProfileImageRef != testSnapshot().ProfileImageRef {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestProfileEditView_NavigationKeysDoNotEdit(t *testing.T) {
	v, ed := newLoadedEditView(t)

	v.Update(tea.KeyMsg{Type: tea.KeyLeft})
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	v.Update(tea.KeyMsg{Type: tea.KeyEnd})

	if len(ed.calls) != 0 {
		t.Errorf("expected no update commands, got %v", ed.calls)
	}
}

func TestProfileEditView_ExternalUserChangeSyncsInputs(t *testing.T) {
	v, _ := newLoadedEditView(t)

	_, _ = v.Update(UserChangedMsg{Screen: v.ID(), User: &profile.Snapshot{FirstName: "Grace", LastName: "Hopper"}})
	if got := v.fields[0].input.Value(); got != "Grace" {
		t.Errorf("first name input = %q, want Grace", got)
	}

	_, _ = v.Update(UserChangedMsg{Screen: v.ID() + 1000, User: &profile.Snapshot{FirstName: "Other"}})
	if got := v.fields[0].input.Value(); got != "Grace" {
		t.Errorf("message for another screen changed input to %q", got)
	}
}

func TestProfileEditView_SavedExitFiresOnce(t *testing.T) {
	v, ed := newLoadedEditView(t)

	ed.saved.Set(true)
	if n := countNavigateBack(collect(pump(t, v))); n != 1 {
		t.Fatalf("expected one NavigateBackMsg on save, got %d", n)
	}

	// Re-renders and unrelated signal changes while saved stays true.
	_ = v.View()
	ed.user.Set(&profile.Snapshot{FirstName: "Again"})
	if n := countNavigateBack(collect(pump(t, v))); n != 0 {
		t.Errorf("exit re-fired on unrelated change: %d", n)
	}
	_, cmd := v.Update(SavedChangedMsg{Screen: v.ID(), Saved: true})
	if n := countNavigateBack(collect(cmd)); n != 0 {
		t.Errorf("exit re-fired on steady true: %d", n)
	}
}

func TestProfileEditView_SavedAlreadyTrueAtInitDoesNotExit(t *testing.T) {
	ed := newFakeEditor()
	ed.user.Set(testSnapshot())
	ed.saved.Set(true)
	v := NewProfileEditView(context.Background(), ed)
	defer v.Close()
	v.Init()

	_, cmd := v.Update(SavedChangedMsg{Screen: v.ID(), Saved: true})
	if n := countNavigateBack(collect(cmd)); n != 0 {
		t.Errorf("expected no exit for a flag that was already true, got %d", n)
	}
}

func TestProfileEditView_AvatarPrecedence(t *testing.T) {
	v, ed := newLoadedEditView(t)

	if got := v.Avatar(); got.Kind != AvatarRemote || got.Ref != testSnapshot().ProfileImageRef {
		t.Errorf("expected remote avatar, got %+v", got)
	}

	_, cmd := v.Update(PickImageMsg{})
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected ShowImagePickerMsg, got %v", msgs)
	}
	show, ok := msgs[0].(ShowImagePickerMsg)
	if !ok {
		t.Fatalf("expected ShowImagePickerMsg, got %T", msgs[0])
	}
	v.Update(ImagePickedMsg{RequestID: show.RequestID, Path: "/tmp/me.png"})
	if got := v.Avatar(); got.Kind != AvatarPending || got.Ref != "/tmp/me.png" {
		t.Errorf("expected pending avatar, got %+v", got)
	}

	// The remote image changing afterwards does not override the pending pick.
	snap := testSnapshot()
	snap.ProfileImageRef = "http://localhost:8080/media/profile/newer.png"
	ed.user.Set(snap)
	pump(t, v)
	if got := v.Avatar(); got.Kind != AvatarPending {
		t.Errorf("pending must win regardless of update order, got %+v", got)
	}

	blank := *snap
	blank.ProfileImageRef = ""
	ed2 := newFakeEditor()
	ed2.user.Set(&blank)
	empty := NewProfileEditView(context.Background(), ed2)
	defer empty.Close()
	empty.Init()
	if got := empty.Avatar(); got.Kind != AvatarPlaceholder {
		t.Errorf("expected placeholder, got %+v", got)
	}
	if !strings.Contains(empty.View(), "Tap to select photo") {
		t.Error("placeholder view should invite a photo pick")
	}
}

func TestProfileEditView_PickerCancelKeepsPending(t *testing.T) {
	v, _ := newLoadedEditView(t)

	show := collect(v.pickImage())[0].(ShowImagePickerMsg)
	v.Update(ImagePickedMsg{RequestID: show.RequestID, Path: "/tmp/a.png"})

	show = collect(v.pickImage())[0].(ShowImagePickerMsg)
	v.Update(ImagePickCanceledMsg{RequestID: show.RequestID})
	if v.PendingImage() != "/tmp/a.png" {
		t.Errorf("cancel changed pending image to %q", v.PendingImage())
	}
}

func TestProfileEditView_RetryFromError(t *testing.T) {
	ed := newFakeEditor()
	ed.err.Set("connection refused")
	v := NewProfileEditView(context.Background(), ed)
	defer v.Close()
	v.Init()
	if v.State() != StateError {
		t.Fatalf("expected Error, got %v", v.State())
	}
	loadsBefore := ed.loads
	if !strings.Contains(v.View(), "connection refused") || !strings.Contains(v.View(), "Retry") {
		t.Errorf("error view should show message and Retry:\n%s", v.View())
	}

	v.Update(RetryMsg{})
	if ed.loads != loadsBefore+1 {
		t.Fatalf("retry should reissue LoadProfile, loads=%d", ed.loads)
	}
	pump(t, v)
	if v.State() != StateLoading {
		t.Errorf("expected Loading after retry, got %v", v.State())
	}

	// Retry is only offered in Error.
	v.Update(RetryMsg{})
	if ed.loads != loadsBefore+1 {
		t.Errorf("retry while loading should do nothing, loads=%d", ed.loads)
	}
}

func TestProfileEditView_RetryKeyInError(t *testing.T) {
	ed := newFakeEditor()
	ed.err.Set("boom")
	v := NewProfileEditView(context.Background(), ed)
	defer v.Close()
	v.Init()
	before := ed.loads

	v.Update(keyMsg("enter"))
	if ed.loads != before+1 {
		t.Errorf("enter in Error should retry, loads=%d", ed.loads)
	}
}

func TestProfileEditView_SaveIgnoredWhileLoading(t *testing.T) {
	v, ed := newLoadedEditView(t)

	ed.loading.Set(true)
	pump(t, v)
	v.Update(SaveMsg{})
	if len(ed.saves) != 0 {
		t.Errorf("save while loading must be a no-op, got %v", ed.saves)
	}

	ed.loading.Set(false)
	pump(t, v)
	v.Update(SaveMsg{})
	if len(ed.saves) != 1 {
		t.Errorf("expected one save after loading finished, got %v", ed.saves)
	}
}

func TestProfileEditView_SaveBundlesPendingImage(t *testing.T) {
	ctx := context.WithValue(context.Background(), struct{}{}, "handle")
	ed := newFakeEditor()
	ed.user.Set(testSnapshot())
	v := NewProfileEditView(ctx, ed)
	defer v.Close()
	v.Init()

	v.Update(SaveMsg{})
	show := collect(v.pickImage())[0].(ShowImagePickerMsg)
	v.Update(ImagePickedMsg{RequestID: show.RequestID, Path: "/tmp/me.png"})
	v.Update(SaveMsg{})

	if fmt.Sprint(ed.saves) != fmt.Sprint([]string{"", "/tmp/me.png"}) {
		t.Errorf("saves = %q", ed.saves)
	}
	if ed.ctxs[1] != ctx {
		t.Error("SaveProfile should receive the view's context")
	}
}

func TestProfileEditView_EscWithPendingImageAsksFirst(t *testing.T) {
	v, _ := newLoadedEditView(t)

	if n := countNavigateBack(collect(func() tea.Cmd { _, c := v.Update(keyMsg("esc")); return c }())); n != 1 {
		t.Errorf("esc without pending image should navigate back, got %d", n)
	}

	show := collect(v.pickImage())[0].(ShowImagePickerMsg)
	v.Update(ImagePickedMsg{RequestID: show.RequestID, Path: "/tmp/me.png"})
	_, cmd := v.Update(keyMsg("esc"))
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected ConfirmDiscardMsg, got %v", msgs)
	}
	if m, ok := msgs[0].(ConfirmDiscardMsg); !ok || m.Path != "/tmp/me.png" {
		t.Errorf("expected ConfirmDiscardMsg for /tmp/me.png, got %#v", msgs[0])
	}
}

func TestProfileEditView_CloseDiscardsLateEvents(t *testing.T) {
	v, ed := newLoadedEditView(t)
	show := collect(v.pickImage())[0].(ShowImagePickerMsg)

	v.Close()
	if !ed.closed {
		t.Error("Close should close the editor")
	}
	if ed.user.Subscribers() != 0 {
		t.Errorf("expected signals unsubscribed, %d remain", ed.user.Subscribers())
	}

	ed.saved.Set(true)
	ed.user.Set(&profile.Snapshot{FirstName: "Late"})
	if msg := v.bridge.wait()(); msg != nil {
		t.Errorf("closed bridge delivered %T", msg)
	}
	if msgs := v.bridge.drain(); len(msgs) != 0 {
		t.Errorf("closed bridge queued %d changes", len(msgs))
	}
	_, cmd := v.Update(ImagePickedMsg{RequestID: show.RequestID, Path: "/tmp/late.png"})
	if cmd != nil || v.PendingImage() != "" {
		t.Errorf("late pick applied after Close: pending=%q", v.PendingImage())
	}
	_, cmd = v.Update(SavedChangedMsg{Screen: v.ID(), Saved: true})
	if cmd != nil {
		t.Error("closed view must not emit commands")
	}
	v.Close()
}
