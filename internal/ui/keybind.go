package ui

import (
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// leaderSeq is the first element of every leader sequence.
const leaderSeq = "SPC"

// binding is one registered key sequence.
type binding struct {
	cmd     tea.Cmd
	desc    string
	screens []Screen // empty: every screen
}

func (b binding) on(screen Screen) bool {
	return len(b.screens) == 0 || slices.Contains(b.screens, screen)
}

// KeybindRegistry maps key sequences to commands, optionally per screen.
// Sequences use spacemacs notation: "SPC s" is space then s. Single keys are
// written as Bubble Tea reports them ("ctrl+s", "esc").
type KeybindRegistry struct {
	bindings map[string]binding
}

// NewKeybindRegistry creates an empty registry.
func NewKeybindRegistry() *KeybindRegistry {
	return &KeybindRegistry{bindings: make(map[string]binding)}
}

// Bind registers seq on every screen, replacing any previous binding.
func (r *KeybindRegistry) Bind(seq string, cmd tea.Cmd) {
	r.BindForScreens(seq, cmd, "")
}

// BindWithDesc is Bind with a description for the leader help.
func (r *KeybindRegistry) BindWithDesc(seq string, cmd tea.Cmd, desc string) {
	r.BindForScreens(seq, cmd, desc)
}

// BindForScreens registers seq for the given screens only. With no screens
// the binding is global.
func (r *KeybindRegistry) BindForScreens(seq string, cmd tea.Cmd, desc string, screens ...Screen) {
	r.bindings[normalizeSeq(seq)] = binding{cmd: cmd, desc: desc, screens: screens}
}

// Lookup returns the command bound to seq on screen, or nil.
func (r *KeybindRegistry) Lookup(seq string, screen Screen) tea.Cmd {
	b, ok := r.bindings[normalizeSeq(seq)]
	if !ok || !b.on(screen) {
		return nil
	}
	return b.cmd
}

// HasPrefix reports whether a longer sequence starting with seq is bound on screen.
func (r *KeybindRegistry) HasPrefix(seq string, screen Screen) bool {
	prefix := normalizeSeq(seq) + " "
	for k, b := range r.bindings {
		if b.cmd != nil && b.on(screen) && strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// LeaderHints returns the next keys after currentSeq ("" means just SPC)
// with their descriptions. Keys that open a further level show as "key…".
func (r *KeybindRegistry) LeaderHints(currentSeq string, screen Screen) map[string]string {
	if currentSeq == "" {
		currentSeq = leaderSeq
	}
	prefix := normalizeSeq(currentSeq) + " "
	out := make(map[string]string)
	for seq, b := range r.bindings {
		if b.cmd == nil || !b.on(screen) || !strings.HasPrefix(seq, prefix) {
			continue
		}
		next, _, nested := strings.Cut(strings.TrimPrefix(seq, prefix), " ")
		switch {
		case nested || r.HasPrefix(prefix+next, screen):
			out[next] = next + "…"
		case b.desc != "":
			out[next] = b.desc
		default:
			out[next] = seq
		}
	}
	return out
}

// normalizeSeq rewrites space spellings to SPC.
func normalizeSeq(seq string) string {
	parts := strings.Fields(seq)
	for i, p := range parts {
		parts[i] = keyToSeqPart(p)
	}
	return strings.Join(parts, " ")
}

func keyToSeqPart(s string) string {
	if s == " " || s == "space" {
		return leaderSeq
	}
	return s
}

// KeyHandler tracks leader mode and dispatches keys to the registry.
type KeyHandler struct {
	Registry      *KeybindRegistry
	LeaderWaiting bool     // SPC was pressed and the sequence is incomplete
	Buffer        []string // sequence typed so far, starting with SPC
}

// NewKeyHandler creates a handler with space as leader.
func NewKeyHandler(reg *KeybindRegistry) *KeyHandler {
	return &KeyHandler{Registry: reg}
}

func (h *KeyHandler) reset() {
	h.LeaderWaiting = false
	h.Buffer = nil
}

// Handle dispatches msg for screen. consumed means the key must not reach the
// view; cmd may be nil even when consumed.
func (h *KeyHandler) Handle(msg tea.KeyMsg, screen Screen) (consumed bool, cmd tea.Cmd) {
	part := keyToSeqPart(msg.String())

	if h.LeaderWaiting {
		if part == "esc" {
			h.reset()
			return true, nil
		}
		h.Buffer = append(h.Buffer, part)
		seq := strings.Join(h.Buffer, " ")
		if c := h.Registry.Lookup(seq, screen); c != nil {
			h.reset()
			return true, c
		}
		if !h.Registry.HasPrefix(seq, screen) {
			h.reset()
		}
		return true, nil
	}

	if part == leaderSeq {
		h.LeaderWaiting = true
		h.Buffer = []string{leaderSeq}
		return true, nil
	}
	if c := h.Registry.Lookup(part, screen); c != nil {
		return true, c
	}
	return false, nil
}

// HandleText is Handle for a view whose focused widget takes typed text.
// Printable keys and space go to the widget unless a leader sequence is
// already in progress.
func (h *KeyHandler) HandleText(msg tea.KeyMsg, screen Screen) (consumed bool, cmd tea.Cmd) {
	if !h.LeaderWaiting && (msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace) {
		return false, nil
	}
	return h.Handle(msg, screen)
}

// KeyMap adapts the leader hints of one screen to help.KeyMap.
type KeyMap struct {
	handler *KeyHandler
	screen  Screen
}

var _ help.KeyMap = KeyMap{}

// NewKeyMap creates a KeyMap for the handler's current leader sequence.
func NewKeyMap(handler *KeyHandler, screen Screen) KeyMap {
	return KeyMap{handler: handler, screen: screen}
}

// ShortHelp lists the next leader keys in key order, then esc.
func (km KeyMap) ShortHelp() []key.Binding {
	if km.handler == nil || km.handler.Registry == nil {
		return nil
	}
	hints := km.handler.Registry.LeaderHints(strings.Join(km.handler.Buffer, " "), km.screen)
	if len(hints) == 0 {
		return nil
	}
	keys := make([]string, 0, len(hints))
	for k := range hints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]key.Binding, 0, len(keys)+1)
	for _, k := range keys {
		out = append(out, key.NewBinding(key.WithKeys(k), key.WithHelp(k, hints[k])))
	}
	return append(out, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")))
}

// FullHelp is ShortHelp in a single column.
func (km KeyMap) FullHelp() [][]key.Binding {
	if short := km.ShortHelp(); len(short) > 0 {
		return [][]key.Binding{short}
	}
	return nil
}
