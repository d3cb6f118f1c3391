package ui

// AvatarKind says where the rendered avatar comes from.
type AvatarKind int

const (
	AvatarPlaceholder AvatarKind = iota
	AvatarRemote
	AvatarPending
)

func (k AvatarKind) String() string {
	switch k {
	case AvatarPending:
		return "pending"
	case AvatarRemote:
		return "remote"
	default:
		return "placeholder"
	}
}

// Avatar is the resolved avatar source. Ref is empty for the placeholder.
type Avatar struct {
	Kind AvatarKind
	Ref  string
}

// AvatarSource merges the two image slots: a pending local pick wins over the
// remote profile image, which wins over the placeholder.
func AvatarSource(pending, remote string) Avatar {
	switch {
	case pending != "":
		return Avatar{Kind: AvatarPending, Ref: pending}
	case remote != "":
		return Avatar{Kind: AvatarRemote, Ref: remote}
	}
	return Avatar{Kind: AvatarPlaceholder}
}

// ImageSelection holds at most one picked but unsaved image. Picks are
// asynchronous: Request starts one and Resolve applies its result. Only the
// latest outstanding request can resolve, and nothing resolves after Close.
type ImageSelection struct {
	pending  string
	nextID   uint64
	inFlight uint64 // 0 when no pick is outstanding
	closed   bool
}

// Pending returns the picked image path, or "".
func (s *ImageSelection) Pending() string {
	return s.pending
}

// Request starts a pick and returns its ID. It returns 0 after Close.
func (s *ImageSelection) Request() uint64 {
	if s.closed {
		return 0
	}
	s.nextID++
	s.inFlight = s.nextID
	return s.inFlight
}

// Resolve applies a pick result. An empty path is a cancellation and leaves
// the pending image unchanged. Returns true if the pending image changed.
func (s *ImageSelection) Resolve(id uint64, path string) bool {
	if s.closed || id == 0 || id != s.inFlight {
		return false
	}
	s.inFlight = 0
	if path == "" || path == s.pending {
		return false
	}
	s.pending = path
	return true
}

// Outstanding reports whether a pick is waiting for its result.
func (s *ImageSelection) Outstanding() bool {
	return s.inFlight != 0
}

// Close discards the pending image and any outstanding pick.
func (s *ImageSelection) Close() {
	s.closed = true
	s.inFlight = 0
	s.pending = ""
}
