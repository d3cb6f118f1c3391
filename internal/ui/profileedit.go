package ui

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"greenleaf/internal/profile"
	"greenleaf/internal/signal"
	"greenleaf/internal/ui/textutil"
)

// ProfileEditor is the collaborator behind the edit screen. It owns the
// profile state; the view renders its signals and sends commands back.
type ProfileEditor interface {
	User() signal.Observable[*profile.Snapshot]
	IsLoading() signal.Observable[bool]
	Error() signal.Observable[string]
	IsSaved() signal.Observable[bool]

	LoadProfile()
	UpdateFirstName(v string)
	UpdateLastName(v string)
	UpdateBirthdate(v string)
	UpdateGender(v string)
	UpdatePhoneNumber(v string)
	SaveProfile(ctx context.Context, pendingImage string)
	Close()
}

// ViewState is the state the edit screen renders.
type ViewState int

const (
	StateLoading ViewState = iota
	StateError
	StateLoaded
)

func (s ViewState) String() string {
	switch s {
	case StateError:
		return "Error"
	case StateLoaded:
		return "Loaded"
	default:
		return "Loading"
	}
}

// Focus IDs on the edit form, in tab order.
const (
	focusPhoto     = "photo"
	focusFirstName = "first_name"
	focusLastName  = "last_name"
	focusBirthdate = "birthdate"
	focusGender    = "gender"
	focusPhone     = "phone"
	focusSave      = "save"
)

const avatarWidth = 36

var screenIDs atomic.Uint64

// editField binds one text input to a snapshot field and its update command.
type editField struct {
	id     string
	label  string
	input  textinput.Model
	value  func(*profile.Snapshot) string
	update func(ProfileEditor, string)
}

// ProfileEditView is the profile edit screen.
type ProfileEditView struct {
	id     uint64
	ctx    context.Context
	editor ProfileEditor
	bridge *signalBridge

	user    *profile.Snapshot
	loading bool
	errMsg  string

	images  ImageSelection
	saved   SavedWatcher
	exited  bool
	closed  bool
	focus   FocusManager
	fields  []*editField
	spinner spinner.Model
}

// Ensure ProfileEditView implements View.
var _ View = (*ProfileEditView)(nil)

// NewProfileEditView creates the edit screen for editor. ctx is passed to
// SaveProfile.
func NewProfileEditView(ctx context.Context, editor ProfileEditor) *ProfileEditView {
	if ctx == nil {
		ctx = context.Background()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = Styles.Title

	v := &ProfileEditView{
		id:      screenIDs.Add(1),
		ctx:     ctx,
		editor:  editor,
		spinner: s,
		focus: FocusManager{
			Order: []string{focusPhoto, focusFirstName, focusLastName, focusBirthdate, focusGender, focusPhone, focusSave},
		},
	}
	v.fields = []*editField{
		newEditField(focusFirstName, "First Name", "",
			func(s *profile.Snapshot) string { return s.FirstName },
			ProfileEditor.UpdateFirstName),
		newEditField(focusLastName, "Last Name", "",
			func(s *profile.Snapshot) string { return s.LastName },
			ProfileEditor.UpdateLastName),
		newEditField(focusBirthdate, "Birth Date", "YYYY-MM-DD",
			func(s *profile.Snapshot) string { return s.Birthdate },
			ProfileEditor.UpdateBirthdate),
		newEditField(focusPhone, "Mobile", "+1 555 0100",
			func(s *profile.Snapshot) string { return s.PhoneNumber },
			ProfileEditor.UpdatePhoneNumber),
	}
	v.focus.Current = focusFirstName
	return v
}

func newEditField(id, label, placeholder string, value func(*profile.Snapshot) string, update func(ProfileEditor, string)) *editField {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = profile.MaxNameLength
	in.Width = 32
	return &editField{id: id, label: label, input: in, value: value, update: update}
}

// Screen implements screener.
func (v *ProfileEditView) Screen() Screen { return ScreenEditProfile }

// ID identifies this screen instance in signal messages.
func (v *ProfileEditView) ID() uint64 { return v.id }

// State derives the rendered state: loading wins over error, error over a
// loaded profile. With nothing yet, the screen shows Loading.
func (v *ProfileEditView) State() ViewState {
	switch {
	case v.loading:
		return StateLoading
	case v.errMsg != "":
		return StateError
	case v.user != nil:
		return StateLoaded
	}
	return StateLoading
}

// Avatar returns the avatar to render for the current slots.
func (v *ProfileEditView) Avatar() Avatar {
	remote := ""
	if v.user != nil {
		remote = v.user.ProfileImageRef
	}
	return AvatarSource(v.images.Pending(), remote)
}

// PendingImage returns the picked image that has not been saved yet.
func (v *ProfileEditView) PendingImage() string {
	return v.images.Pending()
}

// Focused returns the focus ID of the active form element.
func (v *ProfileEditView) Focused() string {
	return v.focus.Current
}

// CapturesText reports whether typed keys belong to a focused text field.
func (v *ProfileEditView) CapturesText() bool {
	return v.State() == StateLoaded && v.focusedField() != nil
}

// Init subscribes to the editor's signals and starts the first load if the
// editor has nothing to show yet.
func (v *ProfileEditView) Init() tea.Cmd {
	if v.closed {
		return nil
	}
	if v.bridge == nil {
		// The saved baseline is taken before subscribing and checked again
		// after, so a rise around the subscription is still an edge.
		v.saved.Observe(v.editor.IsSaved().Get())
		v.bridge = newSignalBridge(v.id, v.editor)
		v.user = v.editor.User().Get()
		v.loading = v.editor.IsLoading().Get()
		v.errMsg = v.editor.Error().Get()
		v.syncInputs()
	}
	var cmds []tea.Cmd
	if exit := v.observeSaved(v.editor.IsSaved().Get()); exit != nil {
		cmds = append(cmds, exit)
	}
	if v.user == nil && !v.loading && v.errMsg == "" {
		v.editor.LoadProfile()
	}
	cmds = append(cmds, v.bridge.wait(), v.spinner.Tick)
	if f := v.focusedField(); f != nil {
		cmds = append(cmds, f.input.Focus())
	}
	return tea.Batch(cmds...)
}

// Update implements View.
func (v *ProfileEditView) Update(msg tea.Msg) (View, tea.Cmd) {
	if v.closed {
		return v, nil
	}
	switch msg := msg.(type) {
	case signalsReadyMsg:
		if msg.screen != v.id || v.bridge == nil {
			return v, nil
		}
		var cmds []tea.Cmd
		for _, m := range v.bridge.drain() {
			cmds = append(cmds, v.applySignal(m))
		}
		if !v.closed {
			cmds = append(cmds, v.bridge.wait())
		}
		return v, tea.Batch(cmds...)
	case UserChangedMsg, LoadingChangedMsg, ErrorChangedMsg, SavedChangedMsg:
		return v, v.applySignal(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case SaveMsg:
		return v, v.save()
	case RetryMsg:
		return v, v.retry()
	case PickImageMsg:
		return v, v.pickImage()
	case ChooseGenderMsg:
		return v, v.chooseGender()
	case ImagePickedMsg:
		v.images.Resolve(msg.RequestID, msg.Path)
		return v, nil
	case ImagePickCanceledMsg:
		v.images.Resolve(msg.RequestID, "")
		return v, nil
	case GenderSelectedMsg:
		if v.State() == StateLoaded {
			v.editor.UpdateGender(msg.Value)
		}
		return v, nil
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}

	if f := v.focusedField(); f != nil {
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *ProfileEditView) applySignal(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case UserChangedMsg:
		if msg.Screen != v.id {
			return nil
		}
		v.user = msg.User
		v.syncInputs()
	case LoadingChangedMsg:
		if msg.Screen != v.id {
			return nil
		}
		v.loading = msg.Loading
	case ErrorChangedMsg:
		if msg.Screen != v.id {
			return nil
		}
		v.errMsg = msg.Message
	case SavedChangedMsg:
		if msg.Screen != v.id {
			return nil
		}
		return v.observeSaved(msg.Saved)
	}
	return nil
}

// observeSaved returns the exit command on the first false to true edge.
func (v *ProfileEditView) observeSaved(saved bool) tea.Cmd {
	if v.saved.Observe(saved) && !v.exited {
		v.exited = true
		return func() tea.Msg { return NavigateBackMsg{} }
	}
	return nil
}

// syncInputs copies snapshot values into inputs that differ, leaving the
// cursor alone in fields the user is typing into.
func (v *ProfileEditView) syncInputs() {
	if v.user == nil {
		return
	}
	for _, f := range v.fields {
		if want := f.value(v.user); f.input.Value() != want {
			f.input.SetValue(want)
		}
	}
}

func (v *ProfileEditView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		if pending := v.images.Pending(); pending != "" {
			return func() tea.Msg { return ConfirmDiscardMsg{Path: pending} }
		}
		return func() tea.Msg { return NavigateBackMsg{} }
	}

	switch v.State() {
	case StateError:
		switch msg.String() {
		case "enter", "r":
			return v.retry()
		}
		return nil
	case StateLoading:
		return nil
	}
	if v.busy() {
		return nil
	}

	switch msg.String() {
	case "tab", "down":
		v.focus.Next()
		return v.refocus()
	case "shift+tab", "up":
		v.focus.Prev()
		return v.refocus()
	case "enter":
		switch v.focus.Current {
		case focusPhoto:
			return v.pickImage()
		case focusGender:
			return v.chooseGender()
		case focusSave:
			return v.save()
		}
		v.focus.Next()
		return v.refocus()
	}

	f := v.focusedField()
	if f == nil {
		return nil
	}
	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if after := f.input.Value(); after != before {
		f.update(v.editor, after)
	}
	return cmd
}

func (v *ProfileEditView) refocus() tea.Cmd {
	var cmd tea.Cmd
	for _, f := range v.fields {
		if f.id == v.focus.Current {
			cmd = f.input.Focus()
		} else {
			f.input.Blur()
		}
	}
	return cmd
}

func (v *ProfileEditView) focusedField() *editField {
	for _, f := range v.fields {
		if f.id == v.focus.Current {
			return f
		}
	}
	return nil
}

// busy reports whether the editor has a request in flight. The loading signal
// reaches the view one event-loop turn after the request starts, so the
// editor's current value is read directly.
func (v *ProfileEditView) busy() bool {
	return v.loading || v.editor.IsLoading().Get()
}

// save sends the draft plus the pending image. It is a no-op while loading.
func (v *ProfileEditView) save() tea.Cmd {
	if v.closed || v.busy() {
		return nil
	}
	v.editor.SaveProfile(v.ctx, v.images.Pending())
	return nil
}

func (v *ProfileEditView) retry() tea.Cmd {
	if v.State() != StateError {
		return nil
	}
	v.editor.LoadProfile()
	return nil
}

func (v *ProfileEditView) pickImage() tea.Cmd {
	if v.State() != StateLoaded {
		return nil
	}
	id := v.images.Request()
	if id == 0 {
		return nil
	}
	return func() tea.Msg { return ShowImagePickerMsg{RequestID: id} }
}

func (v *ProfileEditView) chooseGender() tea.Cmd {
	if v.State() != StateLoaded {
		return nil
	}
	current := v.user.Gender
	return func() tea.Msg { return ShowGenderChooserMsg{Current: current} }
}

// Close tears the screen down: signals are unsubscribed, the pending image
// and any outstanding pick are dropped, and the editor is closed. Idempotent.
func (v *ProfileEditView) Close() {
	if v.closed {
		return
	}
	v.closed = true
	if v.bridge != nil {
		v.bridge.close()
	}
	v.images.Close()
	v.editor.Close()
}

// View implements View.
func (v *ProfileEditView) View() string {
	title := Styles.Title.Render("Edit Profile")
	var body string
	switch v.State() {
	case StateLoading:
		body = v.spinner.View() + " Loading profile…"
	case StateError:
		body = v.errorView()
	case StateLoaded:
		body = v.formView()
	}
	return Styles.Box.Render(title + "\n\n" + body)
}

func (v *ProfileEditView) errorView() string {
	msg := strings.TrimSpace(v.errMsg)
	if msg == "" {
		msg = "Unknown error"
	}
	return Styles.Error.Render(msg) + "\n\n" +
		Styles.ButtonOn.Render("Retry") + "\n\n" +
		Styles.Hint.Render("enter/r: retry  esc: back")
}

func (v *ProfileEditView) formView() string {
	var b strings.Builder
	b.WriteString(v.avatarView())
	b.WriteString("\n")
	b.WriteString(v.button(focusPhoto, "Set New Photo"))
	b.WriteString("\n\n")

	for _, id := range v.focus.Order {
		switch id {
		case focusGender:
			value := v.user.Gender
			if value == "" {
				value = Styles.Muted.Render("Select")
			}
			b.WriteString(v.label(id, "Gender") + value + "\n")
			b.WriteString(v.label("", "Email") + Styles.Muted.Render(v.user.Email) + "\n")
		case focusPhoto, focusSave:
		default:
			for _, f := range v.fields {
				if f.id == id {
					b.WriteString(v.label(id, f.label) + f.input.View() + "\n")
				}
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(v.button(focusSave, "Save"))
	b.WriteString("\n\n")
	b.WriteString(Styles.Hint.Render("tab: next  enter: choose  ctrl+s: save  esc: back"))
	return b.String()
}

func (v *ProfileEditView) avatarView() string {
	a := v.Avatar()
	var content string
	switch a.Kind {
	case AvatarPending:
		content = "▣ " + textutil.TruncateLeft(a.Ref, avatarWidth) + "\n" + Styles.Hint.Render("new, not saved")
	case AvatarRemote:
		content = "▣ " + textutil.TruncateLeft(a.Ref, avatarWidth)
	default:
		content = "◯\n" + Styles.Hint.Render("Tap to select photo")
	}
	return Styles.Avatar.Render(content)
}

func (v *ProfileEditView) label(id, text string) string {
	if id != "" && id == v.focus.Current {
		return Styles.Selected.Width(Styles.Label.GetWidth()).Render(text)
	}
	return Styles.Label.Render(text)
}

func (v *ProfileEditView) button(id, text string) string {
	if id == v.focus.Current {
		return Styles.ButtonOn.Render(text)
	}
	return Styles.Button.Render("[" + text + "]")
}
