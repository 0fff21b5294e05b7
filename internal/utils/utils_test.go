package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketCode(t *testing.T) {
	t.Run("produces codes of the requested length from the safe alphabet", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			code, err := GenerateTicketCode(8)
			require.NoError(t, err)
			require.Len(t, code, 8)
			for _, ch := range code {
				assert.True(t, strings.ContainsRune(ticketCodeAlphabet, ch),
					"code %q contains %q outside the alphabet", code, ch)
			}
		}
	})

	t.Run("rejects a non-positive length", func(t *testing.T) {
		_, err := GenerateTicketCode(0)
		assert.Error(t, err)
	})
}

func TestSecureShuffle(t *testing.T) {
	t.Run("produces a valid permutation", func(t *testing.T) {
		values := make([]int, 50)
		for i := range values {
			values[i] = i
		}
		err := SecureShuffle(len(values), func(i, j int) {
			values[i], values[j] = values[j], values[i]
		})
		require.NoError(t, err)

		seen := make(map[int]bool, len(values))
		for _, v := range values {
			assert.False(t, seen[v], "value %d appears twice", v)
			seen[v] = true
		}
		assert.Len(t, seen, 50)
	})

	t.Run("handles empty and single-element inputs", func(t *testing.T) {
		assert.NoError(t, SecureShuffle(0, func(i, j int) { t.Fatal("swap called") }))
		assert.NoError(t, SecureShuffle(1, func(i, j int) { t.Fatal("swap called") }))
	})
}

func TestSecureIntn(t *testing.T) {
	for i := 0; i < 500; i++ {
		v, err := SecureIntn(7)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 7)
	}

	_, err := SecureIntn(0)
	assert.Error(t, err)
}
