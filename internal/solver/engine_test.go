package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"tooban/internal/almanac"
	"tooban/internal/roster"
)

func testStaff(t *testing.T, names ...string) []roster.Staff {
	t.Helper()
	staff := make([]roster.Staff, 0, len(names))
	for _, name := range names {
		s, err := roster.NewStaff(name, "#336699", nil, true)
		require.NoError(t, err)
		staff = append(staff, s)
	}
	return staff
}

func monthDays(t *testing.T, year int, month time.Month) []almanac.Day {
	t.Helper()
	days, err := almanac.New().Month(year, month)
	require.NoError(t, err)
	return days
}

func fixedSlots(n int) SlotConfig { return SlotConfig{Fixed: n} }

func TestSolveEmptyStaff(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	sols, err := New(nil, days).Solve(context.Background(), DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, sols)
}

func TestSolveFillsEveryDay(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba", "Doi")

	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.Seed = 42

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sols, 1)

	sol := sols[0]
	require.Equal(t, 2026, sol.Year)
	require.Equal(t, time.June, sol.Month)
	require.Len(t, sol.Schedule, len(days))
	total := 0
	for _, day := range days {
		require.Len(t, sol.Schedule[day.Date], 1, "day %s", day.Date)
	}
	for _, c := range sol.Counts {
		total += c
	}
	require.Equal(t, len(days), total)
}

func TestSolveDeterministicBySeed(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba")

	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.Seed = 7

	first, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	second, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	require.Equal(t, first[0].Fingerprint(), second[0].Fingerprint())
}

func TestSolveHonorsPinsAndVacations(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba", "Doi")

	pinDate := almanac.DateOf(2026, time.June, 10)
	vacDate := almanac.DateOf(2026, time.June, 11)

	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.Pinned = map[time.Time][]string{pinDate: {"Aoki"}}
	opts.Vacations = map[string][]time.Time{"Baba": {vacDate}}

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sols, 1)

	sol := sols[0]
	require.True(t, sol.Assigned(pinDate, "Aoki"))
	require.False(t, sol.Assigned(vacDate, "Baba"))
}

func TestSolveSkipsBlockedWeekdays(t *testing.T) {
	days := monthDays(t, 2026, time.June)

	blocked, err := roster.NewStaff("Aoki", "#336699", []string{"日"}, true)
	require.NoError(t, err)
	staff := append([]roster.Staff{blocked}, testStaff(t, "Baba", "Chiba")...)

	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)

	sols, solveErr := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, solveErr)
	require.Len(t, sols, 1)

	// June 2026 Sundays.
	for _, dayNum := range []int{7, 14, 21, 28} {
		require.False(t, sols[0].Assigned(almanac.DateOf(2026, time.June, dayNum), "Aoki"))
	}
}

func TestSolveNoDutyDates(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba")

	off := almanac.DateOf(2026, time.June, 15)
	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.NoDutyDates = []time.Time{off}

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sols, 1)
	require.Empty(t, sols[0].Schedule[off])
}

func TestSolvePinnedOnNoDutyDayIsInfeasible(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba")

	date := almanac.DateOf(2026, time.June, 3)
	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.NoDutyDates = []time.Time{date}
	opts.Pinned = map[time.Time][]string{date: {"Aoki"}}

	_, err := New(staff, days).Solve(context.Background(), opts)
	var infeasible *InfeasibleError
	require.ErrorAs(t, err, &infeasible)
	require.NotEmpty(t, infeasible.Tags)
}

func TestSolveKeepsDailySlotsAfterTransfers(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba")

	// Few staff and a short run limit force the local search through many
	// transfer moves; the roster must still hold exactly one name per day.
	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.Seed = 0
	opts.MaxRunLength = 4

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sols, 1)
	require.Empty(t, sols[0].Relaxations)
	for _, day := range days {
		require.Len(t, sols[0].Schedule[day.Date], 1, "day %s", day.Date)
	}
}

func TestRangeForByDayOverridesFixedAndRange(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	var saturday, monday almanac.Day
	for _, day := range days {
		switch day.Weekday {
		case "土":
			saturday = day
		case "月":
			monday = day
		}
	}

	fixed := SlotConfig{Fixed: 1, ByDay: map[string]SlotRange{"土": {Min: 2, Max: 2}}}
	require.Equal(t, SlotRange{Min: 2, Max: 2}, fixed.RangeFor(saturday))
	require.Equal(t, SlotRange{Min: 1, Max: 1}, fixed.RangeFor(monday))

	ranged := SlotConfig{
		Range: &SlotRange{Min: 1, Max: 3},
		ByDay: map[string]SlotRange{"土": {Min: 2, Max: 2}},
	}
	require.Equal(t, SlotRange{Min: 2, Max: 2}, ranged.RangeFor(saturday))
	require.Equal(t, SlotRange{Min: 1, Max: 3}, ranged.RangeFor(monday))
}

func TestSolvePerDaySlotRanges(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba", "Doi", "Endo", "Fuse")

	opts := DefaultOptions()
	opts.Slots = SlotConfig{
		Range: &SlotRange{Min: 1, Max: 1},
		ByDay: map[string]SlotRange{"土": {Min: 2, Max: 2}},
	}

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sols, 1)

	for _, day := range days {
		want := 1
		if day.Weekday == "土" {
			want = 2
		}
		require.Len(t, sols[0].Schedule[day.Date], want, "day %s", day.Date)
	}
}

func TestSolveRelaxesRestGapWhenNeeded(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba")

	// Two people, one duty a day, no consecutive days: impossible at a
	// rest gap of 2, possible at 1.
	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.MinRestGap = 2
	opts.MaxRunLength = 1

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sols, 1)
	require.NotEmpty(t, sols[0].Relaxations)

	// Alternation is the only shape left, so counts are 15 apiece.
	require.Equal(t, 15, sols[0].Counts["Aoki"])
	require.Equal(t, 15, sols[0].Counts["Baba"])
}

func TestSolveMaxSolutionsDistinct(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba", "Doi")

	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.MaxSolutions = 3

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.NotEmpty(t, sols)
	require.LessOrEqual(t, len(sols), 3)

	seen := make(map[string]bool)
	for i := range sols {
		fp := sols[i].Fingerprint()
		require.False(t, seen[fp], "duplicate roster returned")
		seen[fp] = true
	}
}

func TestSolveFairnessGroupCounts(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba", "Doi")

	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	opts.FairnessGroup = []string{"土", "日"}
	opts.FairnessTolerance = 1

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sols, 1)

	counts := sols[0].GroupCounts
	lo, hi := 1<<30, 0
	for _, s := range staff {
		c := counts[s.Name()]
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	require.LessOrEqual(t, hi-lo, 1, "weekend duties are split unevenly: %v", counts)
}

func TestSolveCarryoverRestGap(t *testing.T) {
	days := monthDays(t, 2026, time.June)
	staff := testStaff(t, "Aoki", "Baba", "Chiba")

	opts := DefaultOptions()
	opts.Slots = fixedSlots(1)
	// Aoki served on the last day of May; a rest gap of 2 keeps the
	// first two June days off.
	opts.Carryover.LastDutyDates = map[string]time.Time{
		"Aoki": almanac.DateOf(2026, time.May, 31),
	}

	sols, err := New(staff, days).Solve(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, sols, 1)
	require.False(t, sols[0].Assigned(almanac.DateOf(2026, time.June, 1), "Aoki"))
	require.False(t, sols[0].Assigned(almanac.DateOf(2026, time.June, 2), "Aoki"))
}

func TestSolveRestGapAndRunInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := []string{"Aoki", "Baba", "Chiba", "Doi", "Endo"}
		n := rapid.IntRange(3, 5).Draw(t, "staff")
		seed := rapid.Int64Range(0, 1<<20).Draw(t, "seed")
		maxRun := rapid.IntRange(1, 4).Draw(t, "maxRun")

		staff := make([]roster.Staff, 0, n)
		for _, name := range names[:n] {
			s, err := roster.NewStaff(name, "#445566", nil, true)
			if err != nil {
				t.Fatalf("staff: %v", err)
			}
			staff = append(staff, s)
		}
		almDays, err := almanac.New().Month(2026, time.June)
		if err != nil {
			t.Fatalf("month: %v", err)
		}

		opts := DefaultOptions()
		opts.Slots = fixedSlots(1)
		opts.Seed = seed
		opts.MaxRunLength = maxRun

		sols, err := New(staff, almDays).Solve(context.Background(), opts)
		var infeasible *InfeasibleError
		if errors.As(err, &infeasible) {
			t.Skip("infeasible draw")
		}
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		if len(sols) != 1 {
			t.Fatalf("want one roster, got %d", len(sols))
		}
		sol := sols[0]

		for _, day := range almDays {
			if got := len(sol.Schedule[day.Date]); got != 1 {
				t.Fatalf("day %s has %d assignees", day.Date, got)
			}
		}

		// The run limit is never relaxed.
		for _, s := range staff {
			run := 0
			for _, day := range almDays {
				if sol.Assigned(day.Date, s.Name()) {
					run++
					if run > maxRun {
						t.Fatalf("%s serves %d consecutive days, limit %d", s.Name(), run, maxRun)
					}
				} else {
					run = 0
				}
			}
		}
	})
}
