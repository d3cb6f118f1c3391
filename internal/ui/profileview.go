package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"greenleaf/internal/profile"
	"greenleaf/internal/ui/textutil"
)

// ProfileFetcher loads the profile shown on the summary screen.
type ProfileFetcher interface {
	Fetch(ctx context.Context) (profile.Snapshot, error)
}

// ProfileView is the read-only profile summary at the root of the stack.
// It refreshes whenever it becomes the top screen again.
type ProfileView struct {
	ctx     context.Context
	fetcher ProfileFetcher

	profile *profile.Snapshot
	err     error
	loading bool
	spinner spinner.Model
}

// Ensure ProfileView implements View.
var _ View = (*ProfileView)(nil)

// NewProfileView creates the summary screen.
func NewProfileView(ctx context.Context, fetcher ProfileFetcher) *ProfileView {
	if ctx == nil {
		ctx = context.Background()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = Styles.Title
	return &ProfileView{ctx: ctx, fetcher: fetcher, spinner: s}
}

// Screen implements screener.
func (v *ProfileView) Screen() Screen { return ScreenProfile }

// Profile returns the last fetched profile, or nil.
func (v *ProfileView) Profile() *profile.Snapshot { return v.profile }

// Init implements View.
func (v *ProfileView) Init() tea.Cmd {
	return tea.Batch(v.refresh(), v.spinner.Tick)
}

func (v *ProfileView) refresh() tea.Cmd {
	if v.fetcher == nil {
		return nil
	}
	v.loading = true
	ctx, fetcher := v.ctx, v.fetcher
	return func() tea.Msg {
		snap, err := fetcher.Fetch(ctx)
		return ProfileFetchedMsg{Profile: snap, Err: err}
	}
}

// Update implements View.
func (v *ProfileView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case ProfileFetchedMsg:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			snap := msg.Profile
			v.profile = &snap
		}
		return v, nil
	case ResumeMsg:
		return v, v.refresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "e", "enter":
			return v, func() tea.Msg { return OpenEditorMsg{} }
		case "r":
			return v, v.refresh()
		case "q":
			return v, tea.Quit
		}
	}
	return v, nil
}

// View implements View.
func (v *ProfileView) View() string {
	title := Styles.Title.Render("Profile")
	if v.loading {
		title += " " + v.spinner.View()
	}

	var b strings.Builder
	switch {
	case v.profile != nil:
		p := v.profile
		avatar := AvatarSource("", p.ProfileImageRef)
		if avatar.Kind == AvatarRemote {
			b.WriteString(Styles.Avatar.Render("▣ " + textutil.TruncateLeft(avatar.Ref, avatarWidth)))
		} else {
			b.WriteString(Styles.Avatar.Render("◯"))
		}
		b.WriteString("\n\n")
		b.WriteString(Styles.Selected.Render(p.FullName()) + "\n\n")
		for _, row := range [][2]string{
			{"Email", p.Email},
			{"Birth Date", p.Birthdate},
			{"Gender", p.Gender},
			{"Mobile", p.PhoneNumber},
		} {
			value := row[1]
			if value == "" {
				value = Styles.Muted.Render("not set")
			}
			b.WriteString(Styles.Label.Render(row[0]) + value + "\n")
		}
	case v.err != nil:
		b.WriteString(Styles.Error.Render(v.err.Error()) + "\n")
	default:
		b.WriteString(Styles.Empty.Render("Loading profile…") + "\n")
	}
	if v.err != nil && v.profile != nil {
		b.WriteString("\n" + Styles.Error.Render(v.err.Error()) + "\n")
	}
	b.WriteString("\n" + Styles.Hint.Render("e: edit  r: refresh  q: quit"))
	return Styles.Box.Render(title + "\n\n" + b.String())
}
