package ui

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"greenleaf/internal/config"
)

// EditorFactory creates a fresh collaborator for each edit screen.
type EditorFactory func() ProfileEditor

// AppModel is the root model: a stack of screens with modal overlays on top.
type AppModel struct {
	Views         ViewStack
	Overlays      OverlayStack
	KeyHandler    *KeyHandler
	NewEditor     EditorFactory
	GenderOptions []string
	PickerDir     string

	ctx    context.Context
	logger *zap.Logger
	width  int
	height int
}

// AppOption configures an AppModel.
type AppOption func(*AppModel)

// WithGenderOptions sets the choices offered by the gender chooser.
func WithGenderOptions(options []string) AppOption {
	return func(a *AppModel) {
		if len(options) > 0 {
			a.GenderOptions = options
		}
	}
}

// WithPickerDir sets the directory the image picker opens in.
func WithPickerDir(dir string) AppOption {
	return func(a *AppModel) { a.PickerDir = dir }
}

// WithLogger sets the logger used for navigation events.
func WithLogger(l *zap.Logger) AppOption {
	return func(a *AppModel) {
		if l != nil {
			a.logger = l
		}
	}
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel creates the root model with root at the bottom of the stack.
func NewAppModel(ctx context.Context, root View, newEditor EditorFactory, opts ...AppOption) *AppModel {
	if ctx == nil {
		ctx = context.Background()
	}
	home, _ := os.UserHomeDir()
	a := &AppModel{
		KeyHandler:    NewKeyHandler(NewKeybindRegistry()),
		NewEditor:     newEditor,
		GenderOptions: config.DefaultGenderOptions,
		PickerDir:     home,
		ctx:           ctx,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	registerKeybinds(a.KeyHandler.Registry)
	if root != nil {
		a.Views.Push(root)
	}
	return a
}

func registerKeybinds(reg *KeybindRegistry) {
	msg := func(m tea.Msg) tea.Cmd { return func() tea.Msg { return m } }
	reg.BindWithDesc("ctrl+c", tea.Quit, "Quit")
	reg.BindWithDesc("SPC q", tea.Quit, "Quit")
	reg.BindForScreens("SPC e", msg(OpenEditorMsg{}), "Edit profile", ScreenProfile)
	reg.BindForScreens("ctrl+s", msg(SaveMsg{}), "Save", ScreenEditProfile)
	reg.BindForScreens("SPC s", msg(SaveMsg{}), "Save", ScreenEditProfile)
	reg.BindForScreens("SPC r", msg(RetryMsg{}), "Retry", ScreenEditProfile)
	reg.BindForScreens("SPC p", msg(PickImageMsg{}), "Set new photo", ScreenEditProfile)
	reg.BindForScreens("SPC g", msg(ChooseGenderMsg{}), "Gender", ScreenEditProfile)
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (a *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: a}
}

// Close tears down every screen still on the stack.
func (a *AppModel) Close() {
	for a.Views.Len() > 0 {
		closeView(a.Views.Pop())
	}
	a.Overlays.Clear()
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	if top := a.Views.Peek(); top != nil {
		return top.Init()
	}
	return nil
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
	case DismissModalMsg:
		a.Overlays.Pop()
		return a, nil
	case OpenEditorMsg:
		return a, a.openEditor()
	case NavigateBackMsg:
		return a, a.navigateBack()
	case ShowImagePickerMsg:
		return a, a.pushOverlay(NewImagePickerModal(msg.RequestID, a.PickerDir))
	case ShowGenderChooserMsg:
		return a, a.pushOverlay(NewGenderModal(a.GenderOptions, msg.Current))
	case ConfirmDiscardMsg:
		return a, a.pushOverlay(NewDiscardPhotoConfirmModal(msg.Path))
	case ImagePickedMsg, ImagePickCanceledMsg:
		a.Overlays.PopIf(func(v View) bool { _, ok := v.(*ImagePickerModal); return ok })
		return a, a.updateTop(msg)
	case GenderSelectedMsg:
		a.Overlays.PopIf(func(v View) bool { _, ok := v.(*GenderModal); return ok })
		return a, a.updateTop(msg)
	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	var cmds []tea.Cmd
	if cmd, ok := a.Overlays.UpdateTop(msg); ok {
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, a.updateTop(msg))
	return a, tea.Batch(cmds...)
}

func (a *appModelAdapter) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.Overlays.Len() > 0 {
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		cmd, _ := a.Overlays.UpdateTop(msg)
		return cmd
	}

	if a.KeyHandler != nil {
		handle := a.KeyHandler.Handle
		if tc, ok := a.Views.Peek().(textCapturer); ok && tc.CapturesText() {
			handle = a.KeyHandler.HandleText
		}
		if consumed, cmd := handle(msg, screenOf(a.Views.Peek())); consumed {
			return cmd
		}
	}
	return a.updateTop(msg)
}

func (a *appModelAdapter) updateTop(msg tea.Msg) tea.Cmd {
	top := a.Views.Peek()
	if top == nil {
		return nil
	}
	next, cmd := top.Update(msg)
	a.Views.SetTop(next)
	return cmd
}

func (a *appModelAdapter) pushOverlay(v View) tea.Cmd {
	a.Overlays.Push(Overlay{View: v})
	cmd := v.Init()
	if a.width > 0 {
		size := tea.WindowSizeMsg{Width: a.width, Height: a.height}
		return tea.Batch(cmd, func() tea.Msg { return size })
	}
	return cmd
}

func (a *appModelAdapter) openEditor() tea.Cmd {
	if a.NewEditor == nil {
		return nil
	}
	if _, editing := a.Views.Peek().(*ProfileEditView); editing {
		return nil
	}
	v := NewProfileEditView(a.ctx, a.NewEditor())
	a.Views.Push(v)
	a.logger.Debug("screen pushed", zap.Stringer("screen", v.Screen()), zap.Uint64("id", v.ID()))
	return v.Init()
}

// navigateBack pops the top screen and its overlays. Popping the root quits.
func (a *appModelAdapter) navigateBack() tea.Cmd {
	a.Overlays.Clear()
	top := a.Views.Pop()
	if top == nil {
		return tea.Quit
	}
	closeView(top)
	a.logger.Debug("screen popped", zap.Stringer("screen", screenOf(top)))
	if a.Views.Len() == 0 {
		return tea.Quit
	}
	return a.updateTop(ResumeMsg{})
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	top := a.Views.Peek()
	if top == nil {
		return ""
	}
	if o, ok := a.Overlays.Peek(); ok {
		modal := o.View.View()
		if a.width > 0 && a.height > 0 {
			return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modal)
		}
		return modal
	}
	base := top.View()
	if a.KeyHandler != nil && a.KeyHandler.LeaderWaiting {
		base += "\n" + RenderKeybindHelp(a.KeyHandler, screenOf(top))
	}
	return base
}
