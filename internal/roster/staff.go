// Package roster holds the duty-roster domain types: the staff registry and
// the recurring nth-weekday rules for fixed duties and vacations.
package roster

import (
	"fmt"
	"sort"
	"strings"
)

// Staff is one member of the duty rotation.
type Staff struct {
	name    string
	color   string
	blocked map[string]struct{}
	active  bool
}

// NewStaff validates and creates a staff member. blockedWeekdays uses the
// Japanese weekday labels ("月".."日").
func NewStaff(name, color string, blockedWeekdays []string, active bool) (Staff, error) {
	if name == "" {
		return Staff{}, fmt.Errorf("staff name is required")
	}
	if !strings.HasPrefix(color, "#") {
		return Staff{}, fmt.Errorf("staff %s: color must start with '#', got %q", name, color)
	}
	blocked := make(map[string]struct{}, len(blockedWeekdays))
	for _, wd := range blockedWeekdays {
		blocked[wd] = struct{}{}
	}
	return Staff{name: name, color: color, blocked: blocked, active: active}, nil
}

// Name returns the staff member's display name.
func (s Staff) Name() string { return s.name }

// Color returns the staff member's #RRGGBB display color.
func (s Staff) Color() string { return s.color }

// Active reports whether the member participates in generation.
func (s Staff) Active() bool { return s.active }

// AvailableOn reports whether the member may serve on the given weekday label.
func (s Staff) AvailableOn(weekday string) bool {
	_, blocked := s.blocked[weekday]
	return !blocked
}

// BlockedWeekdays returns the blocked weekday labels, sorted.
func (s Staff) BlockedWeekdays() []string {
	out := make([]string, 0, len(s.blocked))
	for wd := range s.blocked {
		out = append(out, wd)
	}
	sort.Strings(out)
	return out
}

// WithActive returns a copy with the active flag replaced.
func (s Staff) WithActive(active bool) Staff {
	s.active = active
	return s
}

// Registry is the staff roster keyed by name. Iteration order is insertion
// order so generation stays deterministic.
type Registry struct {
	byName map[string]Staff
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Staff)}
}

// Upsert adds a member or replaces the member with the same name.
func (r *Registry) Upsert(s Staff) {
	if _, exists := r.byName[s.name]; !exists {
		r.order = append(r.order, s.name)
	}
	r.byName[s.name] = s
}

// Remove deletes a member by name. Returns false if no such member exists.
func (r *Registry) Remove(name string) bool {
	if _, exists := r.byName[name]; !exists {
		return false
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get looks up a member by name.
func (r *Registry) Get(name string) (Staff, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// All returns every member in insertion order.
func (r *Registry) All() []Staff {
	out := make([]Staff, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Active returns the active members in insertion order.
func (r *Registry) Active() []Staff {
	out := make([]Staff, 0, len(r.order))
	for _, name := range r.order {
		if s := r.byName[name]; s.active {
			out = append(out, s)
		}
	}
	return out
}

// Len reports the number of members.
func (r *Registry) Len() int { return len(r.byName) }
