package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey(KindListing, "l-1", "photo.PNG", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "listings/l-1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	key, err = ObjectKey(KindAvatar, "u-1", "me.jpeg", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".jpeg"))

	key, err = ObjectKey(KindAvatar, "u-1", "blob", "image/webp")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".webp"))
}

func TestObjectKey_RejectsNonImages(t *testing.T) {
	_, err := ObjectKey(KindListing, "l-1", "evil.exe", "application/octet-stream")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestObjectKey_Unique(t *testing.T) {
	a, _ := ObjectKey(KindListing, "x", "a.jpg", "image/jpeg")
	b, _ := ObjectKey(KindListing, "x", "a.jpg", "image/jpeg")
	assert.NotEqual(t, a, b)
}
