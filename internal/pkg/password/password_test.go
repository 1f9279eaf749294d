package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(4)

	hash, err := h.Hash("s3cret-password")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, strings.HasPrefix(hash, "$2"), "expected bcrypt hash format")
	assert.True(t, h.Verify("s3cret-password", hash))
	assert.False(t, h.Verify("wrong-password", hash))
}

func TestHashNeverStoresPlaintext(t *testing.T) {
	h := NewHasher(4)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotContains(t, hash, "correct horse battery")
}

func TestHashProducesDistinctDigests(t *testing.T) {
	h := NewHasher(4)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	// Fresh salt per call, yet both verify against the same password.
	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewHasher(4)

	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("anything", ""))
}

func TestNewHasherClampsInvalidCost(t *testing.T) {
	h := NewHasher(0)

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.True(t, h.Verify("password123", hash))
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate("longenough"))
	assert.False(t, Validate("short"))
	assert.False(t, Validate(""))
}
