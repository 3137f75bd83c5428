package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	token, exp, err := s.Sign("user-1", "ada", "ada@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewSigner("secret", time.Hour).Sign("user-1", "", "")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour).Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseRejectsExpired(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	issued := time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, _, err := s.Sign("user-1", "", "")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = s.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignRequiresSubject(t *testing.T) {
	_, _, err := NewSigner("secret", 0).Sign(" ", "", "")
	assert.Error(t, err)
}
