package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// GenderModal lets the user pick one of the configured gender options.
type GenderModal struct {
	list list.Model
}

type genderItem string

func (g genderItem) FilterValue() string { return string(g) }
func (g genderItem) Title() string       { return string(g) }
func (g genderItem) Description() string { return "" }

// Ensure GenderModal implements View.
var _ View = (*GenderModal)(nil)

// NewGenderModal creates a chooser over options with current preselected.
func NewGenderModal(options []string, current string) *GenderModal {
	items := make([]list.Item, len(options))
	selected := 0
	for i, o := range options {
		items[i] = genderItem(o)
		if o == current {
			selected = i
		}
	}
	l := list.New(items, NewCompactListDelegate(), 30, len(options)+4)
	l.Title = "Gender"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = Styles.Title
	l.Select(selected)
	return &GenderModal{list: l}
}

// Selected returns the highlighted option.
func (m *GenderModal) Selected() string {
	if sel, ok := m.list.SelectedItem().(genderItem); ok {
		return string(sel)
	}
	return ""
}

// Init implements View.
func (m *GenderModal) Init() tea.Cmd {
	return nil
}

// Update implements View.
func (m *GenderModal) Update(msg tea.Msg) (View, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			return m, func() tea.Msg { return DismissModalMsg{} }
		case "enter":
			value := m.Selected()
			if value == "" {
				return m, nil
			}
			return m, func() tea.Msg { return GenderSelectedMsg{Value: value} }
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements View.
func (m *GenderModal) View() string {
	return Styles.BoxCompact.Render(m.list.View() + "\n" + Styles.Hint.Render("Enter: select  Esc: cancel"))
}
