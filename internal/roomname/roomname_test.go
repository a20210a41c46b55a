package roomname

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := Generate()
		parts := strings.Split(id, "-")
		require.Len(t, parts, 3, id)
		assert.True(t, slices.Contains(adjectives, parts[0]), id)
		assert.True(t, slices.Contains(sounds, parts[1]), id)
		assert.True(t, slices.Contains(animals, parts[2]), id)
		seen[id] = true
	}
	// 27,000 combinations; 200 draws should rarely repeat much.
	assert.Greater(t, len(seen), 150)
}
