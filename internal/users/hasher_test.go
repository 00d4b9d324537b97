package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("")
	require.NoError(t, err)
	assert.IsType(t, &BcryptHasher{}, h)

	h, err = NewPasswordHasher("sha256")
	require.NoError(t, err)
	assert.IsType(t, &SHA256Hasher{}, h)

	_, err = NewPasswordHasher("md5")
	assert.Error(t, err)
}

func TestSHA256Hasher(t *testing.T) {
	h := &SHA256Hasher{}

	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	// deterministic, fixed length hex digest
	assert.Len(t, hash, 64)
	again, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	known, err := h.Hash("password")
	require.NoError(t, err)
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", known)

	assert.True(t, h.Matches("pw1", hash))
	assert.False(t, h.Matches("pw2", hash))
}

func TestBcryptHasher(t *testing.T) {
	h := &BcryptHasher{}

	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.True(t, h.Matches("pw1", hash))
	assert.False(t, h.Matches("wrong", hash))

	// salted, equal passwords give different hashes that both verify
	again, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
	assert.True(t, h.Matches("pw1", again))
}
