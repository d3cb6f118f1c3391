package ui

import "greenleaf/internal/profile"

// DismissModalMsg is sent when the user dismisses the top overlay (e.g. Esc).
type DismissModalMsg struct{}

// NavigateBackMsg pops the top screen. Popping the root quits.
type NavigateBackMsg struct{}

// ConfirmDiscardMsg is sent when the user backs out of the editor with an
// unsaved photo.
type ConfirmDiscardMsg struct {
	Path string
}

// OpenEditorMsg pushes a new profile editor (e on the profile screen).
type OpenEditorMsg struct{}

// SaveMsg asks the focused editor to save (SPC s, ctrl+s).
type SaveMsg struct{}

// RetryMsg asks the editor to reload after an error (SPC r).
type RetryMsg struct{}

// PickImageMsg asks the editor to open the image picker (SPC p).
type PickImageMsg struct{}

// ChooseGenderMsg asks the editor to open the gender chooser (SPC g).
type ChooseGenderMsg struct{}

// ShowImagePickerMsg is sent by the editor to open the picker overlay.
// RequestID identifies the pick so a stale result can be ignored.
type ShowImagePickerMsg struct {
	RequestID uint64
}

// ImagePickedMsg carries a picker result.
type ImagePickedMsg struct {
	RequestID uint64
	Path      string
}

// ImagePickCanceledMsg is sent when the picker is dismissed without a choice.
type ImagePickCanceledMsg struct {
	RequestID uint64
}

// ShowGenderChooserMsg is sent by the editor to open the gender overlay.
type ShowGenderChooserMsg struct {
	Current string
}

// GenderSelectedMsg carries the chosen gender option.
type GenderSelectedMsg struct {
	Value string
}

// ProfileFetchedMsg is the result of the profile screen's refresh.
type ProfileFetchedMsg struct {
	Profile profile.Snapshot
	Err     error
}

// ResumeMsg is sent to a screen when it becomes the top of the stack again.
type ResumeMsg struct{}

// Signal change messages, delivered to the editor identified by Screen.
type (
	UserChangedMsg struct {
		Screen uint64
		User   *profile.Snapshot
	}
	LoadingChangedMsg struct {
		Screen  uint64
		Loading bool
	}
	ErrorChangedMsg struct {
		Screen  uint64
		Message string
	}
	SavedChangedMsg struct {
		Screen uint64
		Saved  bool
	}
)
