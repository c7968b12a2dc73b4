package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixRecord)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	prefixes := []string{
		PrefixBook, PrefixRecord, PrefixBadge, PrefixGoal,
		PrefixChallenge, PrefixMembership, PrefixActivity,
	}

	for _, prefix := range prefixes {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			rest, ok := strings.CutPrefix(id, prefix+"-")
			require.True(t, ok, "id %q should start with %q", id, prefix+"-")
			assert.Len(t, rest, 21)
		})
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate(PrefixBadge)
		assert.True(t, strings.HasPrefix(id, "badge-"))
	})
}
