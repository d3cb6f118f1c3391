// Package ui is the Bubble Tea front end for editing a greenleaf profile.
//
// Core abstractions:
//   - View: a screen or modal with its own Init/Update/View (Elm-style)
//   - ViewStack: stack-based navigation; popping the root quits
//   - Overlay: modal views (image picker, gender chooser) stacked over a screen
//   - FocusManager: tab order across the edit form
//   - KeybindRegistry/KeyHandler: single keys plus SPC leader sequences
//
// ProfileEditView renders a profile edit collaborator through four signals
// (user, loading, error, saved) bridged into the event loop as messages.
package ui
