package shardfuse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyOf(t *testing.T) {
	assert.Equal(t, KeyOf([]byte("hello")), KeyOfString("hello"))
	assert.NotEqual(t, KeyOfString("hello"), KeyOfString("hellp"))

	// Deterministic: the same input always derives the same key.
	assert.Equal(t, KeyOfString("hello"), KeyOfString("hello"))
}

func TestKeyOf_EndToEnd(t *testing.T) {
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	keys := make([]uint64, len(words))
	for i, w := range words {
		keys[i] = KeyOfString(w)
	}

	f, err := NewFilter[uint16](keys)
	assert.NoError(t, err)
	for _, w := range words {
		assert.True(t, f.Contains(KeyOfString(w)))
	}
}
