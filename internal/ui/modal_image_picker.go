package ui

import (
	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"

	"greenleaf/internal/profile"
	"greenleaf/internal/ui/textutil"
)

// ImagePickerModal browses the filesystem for a profile image. Only files
// with an image extension can be selected.
type ImagePickerModal struct {
	requestID uint64
	picker    filepicker.Model
	notice    string
}

// Ensure ImagePickerModal implements View.
var _ View = (*ImagePickerModal)(nil)

// NewImagePickerModal creates a picker rooted at dir for the given pick request.
func NewImagePickerModal(requestID uint64, dir string) *ImagePickerModal {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = profile.ImageExtensions
	fp.ShowPermissions = false
	fp.Styles.Selected = Styles.Selected
	fp.Styles.Cursor = Styles.Selected
	return &ImagePickerModal{requestID: requestID, picker: fp}
}

// RequestID returns the pick request this modal answers.
func (m *ImagePickerModal) RequestID() uint64 { return m.requestID }

// Init implements View.
func (m *ImagePickerModal) Init() tea.Cmd {
	return m.picker.Init()
}

// Update implements View.
func (m *ImagePickerModal) Update(msg tea.Msg) (View, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		id := m.requestID
		return m, func() tea.Msg { return ImagePickCanceledMsg{RequestID: id} }
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		id := m.requestID
		return m, func() tea.Msg { return ImagePickedMsg{RequestID: id, Path: path} }
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.notice = textutil.TruncateLeft(path, 40) + " is not an image"
		return m, cmd
	}
	return m, cmd
}

// View implements View.
func (m *ImagePickerModal) View() string {
	content := Styles.Title.Render("Select photo") + "\n" +
		Styles.Hint.Render(textutil.TruncateLeft(m.picker.CurrentDirectory, 50)) + "\n\n" +
		m.picker.View()
	if m.notice != "" {
		content += "\n" + Styles.Error.Render(m.notice)
	}
	content += "\n" + Styles.Hint.Render("Enter: select  h/←: up  Esc: cancel")
	return Styles.BoxCompact.Render(content)
}
