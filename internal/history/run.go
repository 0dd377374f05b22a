package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"tooban/internal/solver"
)

// dayFormat is how assignment dates are stored.
const dayFormat = "2006-01-02"

// Run is one recorded roster generation.
type Run struct {
	ID          string
	Year        int
	Month       time.Month
	Seed        int64
	Relaxations []string
	CreatedAt   time.Time

	// Schedule maps UTC-midnight dates to assigned staff names.
	Schedule map[time.Time][]string

	// GroupCounts are the per-staff duty totals over the fairness
	// categories that were active when the roster was generated. They
	// cannot be rebuilt from the assignments alone.
	GroupCounts map[string]int
}

// NewRun wraps a solver solution for persistence.
func NewRun(sol solver.Solution) *Run {
	schedule := make(map[time.Time][]string, len(sol.Schedule))
	for date, names := range sol.Schedule {
		schedule[date] = append([]string(nil), names...)
	}
	groups := make(map[string]int, len(sol.GroupCounts))
	for name, c := range sol.GroupCounts {
		groups[name] = c
	}
	return &Run{
		Year:        sol.Year,
		Month:       sol.Month,
		Seed:        sol.Seed,
		Relaxations: append([]string(nil), sol.Relaxations...),
		Schedule:    schedule,
		GroupCounts: groups,
	}
}

// Dates returns the scheduled dates in ascending order.
func (r *Run) Dates() []time.Time {
	dates := make([]time.Time, 0, len(r.Schedule))
	for d := range r.Schedule {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Counts returns per-staff duty totals.
func (r *Run) Counts() map[string]int {
	counts := make(map[string]int)
	for _, names := range r.Schedule {
		for _, name := range names {
			counts[name]++
		}
	}
	return counts
}

// Summary is a listing row for a recorded run.
type Summary struct {
	ID          string
	Year        int
	Month       time.Month
	Relaxations []string
	CreatedAt   time.Time
	Assignments int
}

// RunNotFoundError indicates that no run matches the lookup.
type RunNotFoundError struct {
	ID    string
	Year  int
	Month time.Month
}

func (e *RunNotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("run %s not found", e.ID)
	}
	return fmt.Sprintf("no run recorded for %04d-%02d", e.Year, int(e.Month))
}

func encodeGroupCounts(m map[string]int) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding group counts: %w", err)
	}
	return string(b), nil
}

func decodeGroupCounts(s string) (map[string]int, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var m map[string]int
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decoding group counts: %w", err)
	}
	return m, nil
}

// relaxation strings never contain newlines, so a newline join is a safe
// flat encoding for the TEXT column.
func joinRelaxations(relaxations []string) string {
	return strings.Join(relaxations, "\n")
}

func splitRelaxations(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
