package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSatisfied(t *testing.T) {
	granted := []string{"create", "update", "media"}

	assert.True(t, Satisfied(granted, []string{"create"}))
	assert.True(t, Satisfied(granted, []string{"create", "media"}))
	assert.True(t, Satisfied(granted, nil))
	assert.False(t, Satisfied(granted, []string{"delete"}))
	assert.False(t, Satisfied(granted, []string{"create", "delete"}))
	assert.False(t, Satisfied(nil, []string{"create"}))
}

func TestKnown(t *testing.T) {
	for _, name := range All {
		assert.True(t, Known(name), name)
	}
	assert.False(t, Known("admin"))
	assert.False(t, Known(""))
}
