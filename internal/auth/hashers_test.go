package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherTruncatesLongPasswords(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	long := strings.Repeat("a", 100)

	hash, err := hasher.Hash(long)
	require.NoError(t, err)

	ok, err := hasher.Compare(hash, long)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Compare(hash, strings.Repeat("a", 72)+"different-tail")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Compare(hash, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigratingHasherReadsBothFormats(t *testing.T) {
	legacy := NewHasher("bcrypt", bcrypt.MinCost)
	current := NewHasher("argon2id", bcrypt.MinCost)

	oldHash, err := legacy.Hash("hunter22")
	require.NoError(t, err)
	newHash, err := current.Hash("hunter22")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(newHash, "$argon2id$"))

	for _, hash := range []string{oldHash, newHash} {
		ok, err := current.Compare(hash, "hunter22")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = current.Compare(hash, "wrong")
		require.NoError(t, err)
		assert.False(t, ok)
	}
}
