// Package profile defines the user profile domain shared by the stores,
// the HTTP API and the edit view-model.
package profile

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no profile exists for the user.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidField is wrapped by validation failures; the message names the field.
	ErrInvalidField = errors.New("invalid field")
	// ErrUnauthorized is returned when the backend rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoProfile is returned when saving before a profile was loaded.
	ErrNoProfile = errors.New("no profile loaded")
)

// Snapshot is an immutable read of a user's profile at a point in time.
type Snapshot struct {
	ID              int64     `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Birthdate       string    `json:"birthdate"` // YYYY-MM-DD or empty
	Gender          string    `json:"gender"`
	Email           string    `json:"email"` // read-only
	PhoneNumber     string    `json:"phone_number"`
	ProfileImageRef string    `json:"profile_image,omitempty"` // URL or path; empty when unset
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasImage reports whether the snapshot carries a remote image reference.
func (s Snapshot) HasImage() bool {
	return s.ProfileImageRef != ""
}

// FullName joins first and last name for display.
func (s Snapshot) FullName() string {
	switch {
	case s.FirstName == "":
		return s.LastName
	case s.LastName == "":
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Update is an edit buffer committed by Repository.Save.
// Email is not part of it: the address is managed by the account service.
type Update struct {
	FirstName   string
	LastName    string
	Birthdate   string
	Gender      string
	PhoneNumber string
	// ImagePath is a local file to upload as the new profile image; empty keeps the current one.
	ImagePath string
}

// UpdateFrom builds an edit buffer from a snapshot.
func UpdateFrom(s Snapshot) Update {
	return Update{
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Birthdate:   s.Birthdate,
		Gender:      s.Gender,
		PhoneNumber: s.PhoneNumber,
	}
}

// Apply returns s with the editable fields of u. The image reference is left to the store.
func (u Update) Apply(s Snapshot) Snapshot {
	s.FirstName = u.FirstName
	s.LastName = u.LastName
	s.Birthdate = u.Birthdate
	s.Gender = u.Gender
	s.PhoneNumber = u.PhoneNumber
	return s
}

// Repository loads and persists the current user's profile.
type Repository interface {
	Fetch(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, u Update) (Snapshot, error)
}
