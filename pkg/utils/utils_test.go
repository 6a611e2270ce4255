package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword("correct horse", h))
	assert.False(t, CheckPassword("wrong horse", h))
	assert.False(t, CheckPassword("correct horse", ""))
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "nice car", SanitizeText("  <b>nice</b> car<script>alert(1)</script> "))
	assert.Equal(t, "", SanitizeText("   "))
}
