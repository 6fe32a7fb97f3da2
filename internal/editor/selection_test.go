package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionApply(t *testing.T) {
	var s Selection

	s.Apply([]string{"a", "b", "a"}, SelectReplace)
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	s.Apply([]string{"b", "c"}, SelectToggle)
	assert.Equal(t, []string{"a", "c"}, s.IDs())

	s.Apply([]string{"a", "d"}, SelectAdd)
	assert.Equal(t, []string{"a", "c", "d"}, s.IDs())

	primary, ok := s.Primary()
	assert.True(t, ok)
	assert.Equal(t, "d", primary)
	assert.True(t, s.Contains("c"))
	assert.Equal(t, 3, s.Len())
}

func TestSelectionReplaceWithOwnIDs(t *testing.T) {
	var s Selection
	s.Apply([]string{"a", "b"}, SelectReplace)

	s.Apply(s.IDs(), SelectReplace)
	assert.Equal(t, []string{"a", "b"}, s.IDs())
}

func TestSelectionPrune(t *testing.T) {
	var s Selection
	s.Apply([]string{"a", "gone", "b"}, SelectReplace)

	stale := s.Prune(func(id string) bool { return id != "gone" })
	assert.Equal(t, []string{"gone"}, stale)
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	s.Remove("a")
	s.Clear()
	_, ok := s.Primary()
	assert.False(t, ok)
}
