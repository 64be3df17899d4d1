package directory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		code := generateCode()
		require.Len(t, code, codeLength)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		assert.NotContainsf(t, code, "I", "ambiguous characters are excluded")
		for _, banned := range []string{"L", "O", "0", "1"} {
			assert.NotContains(t, code, banned)
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	d := New()
	room := d.Create()
	require.NotNil(t, room)

	found, ok := d.Get(room.Code)
	require.True(t, ok)
	assert.Same(t, room, found)

	// Join-by-code matches case-insensitively.
	found, ok = d.Get(strings.ToLower(room.Code))
	require.True(t, ok)
	assert.Same(t, room, found)

	_, ok = d.Get("ZZZZZZZZ")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	d := New()
	room := d.Create()

	d.remove(room.Code)
	_, ok := d.Get(room.Code)
	assert.False(t, ok)
}
