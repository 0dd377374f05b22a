package solver

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tooban/internal/almanac"
)

// Solution is one generated roster.
type Solution struct {
	Year  int
	Month time.Month

	// Schedule maps each date of the month to the assigned staff names, in
	// registry order.
	Schedule map[time.Time][]string

	// Counts is the total duty count per staff name.
	Counts map[string]int

	// GroupCounts is the fairness-group duty count per staff name (zero
	// for everyone when no fairness group is configured).
	GroupCounts map[string]int

	// Relaxations lists the constraint relaxations that were needed to
	// produce this roster, in the order they were applied. Empty when the
	// roster satisfied the original constraints.
	Relaxations []string

	// Seed is the search seed that produced this roster.
	Seed int64
}

// Assigned reports whether the named staff serves on the given date.
func (s *Solution) Assigned(date time.Time, name string) bool {
	for _, n := range s.Schedule[date] {
		if n == name {
			return true
		}
	}
	return false
}

// Dates returns the schedule's dates in ascending order.
func (s *Solution) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s.Schedule))
	for d := range s.Schedule {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Fingerprint returns a stable identity for the assignment set, used to
// keep multiple solutions distinct.
func (s *Solution) Fingerprint() string {
	var b strings.Builder
	for _, d := range s.Dates() {
		names := append([]string(nil), s.Schedule[d]...)
		sort.Strings(names)
		fmt.Fprintf(&b, "%s=%s;", d.Format("2006-01-02"), strings.Join(names, ","))
	}
	return b.String()
}

// InfeasibleError reports that no roster satisfies the constraints, with the
// human-readable tags of the rules that likely collided.
type InfeasibleError struct {
	// Tags names the constraints involved in the conflict.
	Tags []string

	// Report is an optional multi-line diagnostic, present after the
	// relaxation ladder has been exhausted.
	Report string
}

func (e *InfeasibleError) Error() string {
	msg := "no roster satisfies the constraints"
	if len(e.Tags) > 0 {
		msg += "; likely conflicting rules:\n  - " + strings.Join(e.Tags, "\n  - ")
	}
	if e.Report != "" {
		msg += "\n" + e.Report
	}
	return msg
}

// tagDay formats a date for constraint tags.
func tagDay(d time.Time) string {
	return d.Format("Jan 2")
}

func solutionFromAssignment(days []almanac.Day, staffNames []string, x [][]bool, group map[string]bool, seed int64) *Solution {
	sol := &Solution{
		Year:        days[0].Date.Year(),
		Month:       days[0].Date.Month(),
		Schedule:    make(map[time.Time][]string, len(days)),
		Counts:      make(map[string]int, len(staffNames)),
		GroupCounts: make(map[string]int, len(staffNames)),
		Seed:        seed,
	}
	for _, name := range staffNames {
		sol.Counts[name] = 0
		sol.GroupCounts[name] = 0
	}
	for d, day := range days {
		var assigned []string
		for s, name := range staffNames {
			if !x[s][d] {
				continue
			}
			assigned = append(assigned, name)
			sol.Counts[name]++
			if len(day.Categories(group)) > 0 {
				sol.GroupCounts[name]++
			}
		}
		sol.Schedule[day.Date] = assigned
	}
	return sol
}
