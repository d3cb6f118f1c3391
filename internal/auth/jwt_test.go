package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_IssueValidate(t *testing.T) {
	s, err := NewSigner("secret")
	require.NoError(t, err)

	token, expires, err := s.Issue(42, time.Hour)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
}

func TestSigner_RejectsOtherSecret(t *testing.T) {
	a, _ := NewSigner("a")
	b, _ := NewSigner("b")
	token, _, err := a.Issue(1, time.Hour)
	require.NoError(t, err)

	_, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_RejectsExpired(t *testing.T) {
	s, _ := NewSigner("secret")
	s.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, _, err := s.Issue(1, time.Hour)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_RejectsGarbage(t *testing.T) {
	s, _ := NewSigner("secret")
	_, err := s.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSigner_EmptySecret(t *testing.T) {
	_, err := NewSigner("")
	assert.Error(t, err)
}
