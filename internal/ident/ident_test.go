package ident

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := New()
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestNew_Shape(t *testing.T) {
	id := New()
	parts := strings.SplitN(id, "-", 2)
	assert.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])
	assert.Len(t, parts[1], suffixLen)
}

func TestNewWithPrefix(t *testing.T) {
	id := NewWithPrefix("task")
	assert.True(t, strings.HasPrefix(id, "task-"))
}
