package discover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/models"
)

func ids(profiles []models.Profile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.ID)
	}
	return out
}

func threeCandidates() []models.Profile {
	return []models.Profile{{ID: "a", Age: 20}, {ID: "b", Age: 30}, {ID: "c", Age: 40}}
}

func TestStackAdvanceAndRewind(t *testing.T) {
	s := NewStack(threeCandidates())

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", current.ID)

	decided, ok := s.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", decided.ID)
	current, _ = s.Current()
	assert.Equal(t, "b", current.ID)
	assert.Equal(t, []string{"a"}, ids(s.History()))

	restored, ok := s.Rewind()
	require.True(t, ok)
	assert.Equal(t, "a", restored.ID)
	current, _ = s.Current()
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Pool()))
	assert.Empty(t, s.History())
}

func TestStackRewindOnEmptyHistoryIsNoop(t *testing.T) {
	s := NewStack(threeCandidates())

	_, ok := s.Rewind()
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Pool()))
	current, _ := s.Current()
	assert.Equal(t, "a", current.ID)
}

func TestStackTerminalStateAndRewindFromIt(t *testing.T) {
	s := NewStack(threeCandidates())
	for i := 0; i < 3; i++ {
		_, ok := s.Advance()
		require.True(t, ok)
	}

	_, ok := s.Current()
	assert.False(t, ok)
	_, ok = s.Advance()
	assert.False(t, ok)

	restored, ok := s.Rewind()
	require.True(t, ok)
	assert.Equal(t, "c", restored.ID)
	assert.Equal(t, []string{"c"}, ids(s.Pool()))
}

func TestStackApplyFiltersRebuildsPoolAndClearsHistory(t *testing.T) {
	s := NewStack(threeCandidates())
	s.Advance()

	s.ApplyFilters(func(p models.Profile) bool { return p.Age >= 30 })

	assert.Equal(t, []string{"b", "c"}, ids(s.Pool()))
	assert.Empty(t, s.History())
	_, ok := s.Rewind()
	assert.False(t, ok)

	s.ApplyFilters(nil)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Pool()))
}
