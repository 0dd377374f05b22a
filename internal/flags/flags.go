// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and unknown flags default to off.
package flags

import (
	"maps"

	"tooban/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagHistoryPersistence controls whether generated rosters are saved
	// to SQLite. When disabled, history, diffs, and carryover all fall
	// back to a fresh in-memory database.
	FlagHistoryPersistence = "history-persistence"

	// FlagAlmanacCache controls whether month calendars are served from
	// the in-memory cache instead of being rebuilt per lookup.
	FlagAlmanacCache = "almanac-cache"

	// FlagSolverTracing gates solver span recording independently of the
	// tracing config section, for quick toggling from the flags map.
	FlagSolverTracing = "solver-tracing"
)

// Registry holds feature flag state loaded from the flags section of the
// config. Read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map means every flag is
// at its default.
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// defaults maps flags that are on unless the config turns them off.
var defaults = map[string]bool{
	FlagHistoryPersistence: true,
	FlagAlmanacCache:       true,
}

// Enabled returns the flag value, falling back to its default. Unknown
// flags are off. Nil-safe: a nil registry answers with defaults only.
func (r *Registry) Enabled(name string) bool {
	if r != nil && r.flags != nil {
		if value, ok := r.flags[name]; ok {
			return value
		}
	}
	return defaults[name]
}

// All returns a copy of the configured flags for debugging and logging.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
