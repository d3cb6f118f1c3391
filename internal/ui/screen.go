package ui

// Screen identifies the view at the top of the stack. Keybind hints can be
// limited to specific screens.
type Screen int

const (
	ScreenProfile Screen = iota
	ScreenEditProfile
)

func (s Screen) String() string {
	switch s {
	case ScreenProfile:
		return "Profile"
	case ScreenEditProfile:
		return "EditProfile"
	default:
		return "Unknown"
	}
}

// screener is implemented by views that map to a Screen.
type screener interface {
	Screen() Screen
}

// screenOf returns the Screen for v, defaulting to ScreenProfile.
func screenOf(v View) Screen {
	if s, ok := v.(screener); ok {
		return s.Screen()
	}
	return ScreenProfile
}
