package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueOpaque(t *testing.T) {
	opaque, err := IssueOpaque(time.Hour)
	require.NoError(t, err)

	assert.Len(t, opaque.Plain, 64)
	assert.Regexp(t, `^[0-9a-f]{64}$`, opaque.Plain)
	assert.Equal(t, Hash(opaque.Plain), opaque.Hash)
	assert.NotEqual(t, opaque.Plain, opaque.Hash)
	assert.WithinDuration(t, time.Now().Add(time.Hour), opaque.ExpiresAt, time.Minute)
}

func TestIssueOpaque_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		opaque, err := IssueOpaque(time.Hour)
		require.NoError(t, err)
		require.False(t, seen[opaque.Plain], "tokens must not repeat")
		seen[opaque.Plain] = true
	}
}

func TestHash_Deterministic(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
	assert.Regexp(t, `^[0-9a-f]{64}$`, Hash("abc"))
}
