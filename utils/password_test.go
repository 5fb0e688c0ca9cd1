package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePasswordLength(t *testing.T) {
	p, err := GeneratePassword(14)
	require.NoError(t, err)
	require.Len(t, p, 14)
}

func TestGeneratePasswordEnforcesMinimum(t *testing.T) {
	p, err := GeneratePassword(4)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(p), 12)
}

func TestGeneratePasswordUsesCharset(t *testing.T) {
	p, err := GeneratePassword(64)
	require.NoError(t, err)
	for _, r := range p {
		require.True(t, strings.ContainsRune(passwordCharset, r), "unexpected rune %q", r)
	}
}

func TestGeneratePasswordIsRandom(t *testing.T) {
	a, err := GeneratePassword(20)
	require.NoError(t, err)
	b, err := GeneratePassword(20)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-enough")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-enough", hash)

	require.True(t, CheckPassword(hash, "s3cret-enough"))
	require.False(t, CheckPassword(hash, "wrong"))
}
