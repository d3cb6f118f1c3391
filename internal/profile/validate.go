package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength matches the backend column size.
const MaxNameLength = 150

// BirthdateLayout is the only accepted birthdate format.
const BirthdateLayout = "2006-01-02"

// ImageExtensions lists the accepted profile image file types.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]*$`)

// Validator checks an Update before it is saved.
type Validator struct {
	GenderOptions []string
	Now           func() time.Time
}

// Validate checks u and returns an error wrapping ErrInvalidField naming the first bad field.
func (v Validator) Validate(u Update) error {
	if err := validateName("first name", u.FirstName); err != nil {
		return err
	}
	if err := validateName("last name", u.LastName); err != nil {
		return err
	}
	if err := v.validateBirthdate(u.Birthdate); err != nil {
		return err
	}
	if u.Gender != "" && len(v.GenderOptions) > 0 && !slices.Contains(v.GenderOptions, u.Gender) {
		return invalid("gender", "must be one of %s", strings.Join(v.GenderOptions, ", "))
	}
	if err := validatePhone(u.PhoneNumber); err != nil {
		return err
	}
	if u.ImagePath != "" {
		return ValidateImagePath(u.ImagePath)
	}
	return nil
}

// ValidateImagePath checks that path is an existing file with an image extension.
func ValidateImagePath(path string) error {
	if !IsImageFile(path) {
		return invalid("profile image", "unsupported file type %q", filepath.Ext(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return invalid("profile image", "%v", err)
	}
	if info.IsDir() {
		return invalid("profile image", "%s is a directory", path)
	}
	return nil
}

// IsImageFile reports whether path has an accepted image extension.
func IsImageFile(path string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(path)))
}

func validateName(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field, "is required")
	}
	if utf8.RuneCountInString(v) > MaxNameLength {
		return invalid(field, "must be at most %d characters", MaxNameLength)
	}
	return nil
}

func (v Validator) validateBirthdate(s string) error {
	if s == "" {
		return nil
	}
	d, err := time.Parse(BirthdateLayout, s)
	if err != nil {
		return invalid("birth date", "must be YYYY-MM-DD")
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if d.After(now()) {
		return invalid("birth date", "cannot be in the future")
	}
	return nil
}

func validatePhone(s string) error {
	if s == "" {
		return nil
	}
	if !phonePattern.MatchString(s) {
		return invalid("mobile", "may contain only digits, spaces, dashes and a leading +")
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 || digits > 15 {
		return invalid("mobile", "must have 7 to 15 digits")
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidField, field, fmt.Sprintf(format, args...))
}
