package ui

import "testing"

func TestAvatarSource_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		pending string
		remote  string
		want    Avatar
	}{
		{"pending wins over remote", "/tmp/new.png", "http://x/media/old.png", Avatar{Kind: AvatarPending, Ref: "/tmp/new.png"}},
		{"pending without remote", "/tmp/new.png", "", Avatar{Kind: AvatarPending, Ref: "/tmp/new.png"}},
		{"remote when nothing pending", "", "http://x/media/old.png", Avatar{Kind: AvatarRemote, Ref: "http://x/media/old.png"}},
		{"placeholder when both empty", "", "", Avatar{Kind: AvatarPlaceholder}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AvatarSource(tt.pending, tt.remote); got != tt.want {
				t.Errorf("AvatarSource(%q, %q) = %+v, want %+v", tt.pending, tt.remote, got, tt.want)
			}
		})
	}
}

func TestImageSelection_ResolveAndCancel(t *testing.T) {
	var s ImageSelection
	if s.Pending() != "" {
		t.Fatal("expected no pending image initially")
	}

	id := s.Request()
	if !s.Outstanding() {
		t.Error("expected outstanding pick")
	}
	if !s.Resolve(id, "/tmp/a.png") {
		t.Error("expected resolve to change pending image")
	}
	if s.Pending() != "/tmp/a.png" {
		t.Errorf("Pending = %q", s.Pending())
	}

	id = s.Request()
	if s.Resolve(id, "") {
		t.Error("cancel must not change pending image")
	}
	if s.Pending() != "/tmp/a.png" {
		t.Errorf("cancel changed Pending to %q", s.Pending())
	}
	if s.Outstanding() {
		t.Error("cancel should finish the request")
	}
}

func TestImageSelection_IgnoresStaleResults(t *testing.T) {
	var s ImageSelection
	first := s.Request()
	second := s.Request()

	if s.Resolve(first, "/tmp/old.png") {
		t.Error("result for superseded request should be ignored")
	}
	if !s.Resolve(second, "/tmp/new.png") {
		t.Error("latest request should resolve")
	}
	if s.Resolve(second, "/tmp/again.png") {
		t.Error("a request resolves at most once")
	}
	if s.Pending() != "/tmp/new.png" {
		t.Errorf("Pending = %q", s.Pending())
	}
}

func TestImageSelection_ClosedDiscardsLateResult(t *testing.T) {
	var s ImageSelection
	id := s.Request()
	s.Close()

	if s.Resolve(id, "/tmp/late.png") {
		t.Error("late result after Close must be discarded")
	}
	if s.Pending() != "" {
		t.Errorf("Pending = %q after Close", s.Pending())
	}
	if s.Request() != 0 {
		t.Error("Request after Close should return 0")
	}
}
