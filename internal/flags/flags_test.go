package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "configured true",
			registry: New(map[string]bool{"feature-a": true}),
			flag:     "feature-a",
			expected: true,
		},
		{
			name:     "configured false",
			registry: New(map[string]bool{"feature-b": false}),
			flag:     "feature-b",
			expected: false,
		},
		{
			name:     "unknown flag is off",
			registry: New(map[string]bool{"feature-a": true}),
			flag:     "unknown-flag",
			expected: false,
		},
		{
			name:     "nil registry returns defaults",
			registry: nil,
			flag:     FlagHistoryPersistence,
			expected: true,
		},
		{
			name:     "default-on flag stays on when unset",
			registry: New(map[string]bool{}),
			flag:     FlagAlmanacCache,
			expected: true,
		},
		{
			name:     "default-on flag can be turned off",
			registry: New(map[string]bool{FlagHistoryPersistence: false}),
			flag:     FlagHistoryPersistence,
			expected: false,
		},
		{
			name:     "default-off flag stays off when unset",
			registry: New(nil),
			flag:     FlagSolverTracing,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_All(t *testing.T) {
	t.Run("returns configured flags", func(t *testing.T) {
		r := New(map[string]bool{"a": true, "b": false})
		require.Equal(t, map[string]bool{"a": true, "b": false}, r.All())
	})

	t.Run("nil registry returns empty map", func(t *testing.T) {
		var r *Registry
		require.Equal(t, map[string]bool{}, r.All())
	})
}

func TestRegistry_All_ReturnsDefensiveCopy(t *testing.T) {
	r := New(map[string]bool{"feature-a": true})

	snapshot := r.All()
	snapshot["feature-a"] = false
	snapshot["new-flag"] = true

	require.True(t, r.Enabled("feature-a"))
	require.False(t, r.Enabled("new-flag"))
	require.Equal(t, map[string]bool{"feature-a": true}, r.All())
}
