package solver

import (
	"math/rand"
	"sort"
)

const (
	maxBranchesPerDay = 12
	nodeBudget        = 200000
)

// construct builds an initial assignment day by day with backtracking.
// Forced cells are honored outright; the remaining slots on each day are
// filled from eligible staff ranked by a greedy score with a little
// seeded noise so different attempts explore different corners.
func (m *model) construct(rng *rand.Rand) ([][]bool, bool) {
	x := make([][]bool, m.m)
	for s := range x {
		x[s] = make([]bool, m.n)
	}
	counts := make([]int, m.m)
	nodes := 0

	var fill func(d int) bool
	fill = func(d int) bool {
		if d == m.n {
			return true
		}
		nodes++
		if nodes > nodeBudget {
			return false
		}

		var required, eligible []int
		for s := 0; s < m.m; s++ {
			switch m.forced[s][d] {
			case forcedOn:
				required = append(required, s)
			case free:
				if m.canServe(x, counts, s, d) {
					eligible = append(eligible, s)
				}
			}
		}
		if len(required) > m.need[d].Max {
			return false
		}

		sort.Slice(eligible, func(i, j int) bool {
			si, sj := eligible[i], eligible[j]
			ci := m.greedyScore(x, counts, si, d)
			cj := m.greedyScore(x, counts, sj, d)
			if ci != cj {
				return ci < cj
			}
			return si < sj
		})
		// Seeded noise: occasionally swap neighbors so ties and near-ties
		// break differently per attempt.
		for i := len(eligible) - 1; i > 0; i-- {
			if rng.Intn(4) == 0 {
				eligible[i], eligible[i-1] = eligible[i-1], eligible[i]
			}
		}

		lo := m.need[d].Min - len(required)
		if lo < 0 {
			lo = 0
		}
		hi := m.need[d].Max - len(required)
		if hi > len(eligible) {
			hi = len(eligible)
		}
		if lo > len(eligible) {
			return false
		}

		branches := 0
		var try func(chosen []int, start, want int) bool
		try = func(chosen []int, start, want int) bool {
			if want == 0 {
				branches++
				if branches > maxBranchesPerDay {
					return false
				}
				for _, s := range required {
					x[s][d] = true
					counts[s]++
				}
				for _, s := range chosen {
					x[s][d] = true
					counts[s]++
				}
				if fill(d + 1) {
					return true
				}
				for _, s := range required {
					x[s][d] = false
					counts[s]--
				}
				for _, s := range chosen {
					x[s][d] = false
					counts[s]--
				}
				return false
			}
			for i := start; i <= len(eligible)-want; i++ {
				if try(append(chosen, eligible[i]), i+1, want-1) {
					return true
				}
				if branches > maxBranchesPerDay {
					return false
				}
			}
			return false
		}

		// Prefer the minimum staffing first; widen only when the tail of
		// the month cannot be completed otherwise.
		for want := lo; want <= hi; want++ {
			branches = 0
			if try(nil, 0, want) {
				return true
			}
		}
		return false
	}

	ok := fill(0)
	return x, ok
}

// canServe reports whether assigning s on day d keeps the per-staff hard
// constraints intact given the assignment so far (days before d are
// final, later days empty).
func (m *model) canServe(x [][]bool, counts []int, s, d int) bool {
	if m.forced[s][d] == forcedOff {
		return false
	}

	// Rest gap against the most recent duty. An adjacent day makes a run
	// rather than a gap; the run check below governs that case.
	prev := -1
	for p := d - 1; p >= 0; p-- {
		if x[s][p] {
			prev = p
			break
		}
	}
	if prev >= 0 {
		gap := d - prev
		if gap > 1 && gap < m.effGap+1 && !(m.planned[s][prev] && m.planned[s][d]) {
			return false
		}
	}

	// Run length including a run carried over from the previous month.
	if maxRun := m.opts.MaxRunLength; maxRun > 0 {
		run := 1
		for p := d - 1; p >= 0 && x[s][p]; p-- {
			run++
		}
		if d-run+1 == 0 {
			run += m.opts.Carryover.RunLengths[m.names[s]]
		}
		if run > maxRun && !(m.isPlanned(s, d) && m.isPlanned(s, d-1)) {
			return false
		}
	}

	return true
}

// greedyScore ranks candidates for day d: fewer duties so far first, then
// lower soft pressure on this particular day.
func (m *model) greedyScore(x [][]bool, counts []int, s, d int) int {
	score := (counts[s] - m.opts.TotalAdjustments[m.names[s]]) * 100

	if m.fixedWant[s][d] {
		score -= 500
	}

	if m.opts.Disperse {
		for _, cat := range m.days[d].Categories(m.group) {
			score += m.dispersionInit[m.names[s]][cat]
			for _, gd := range m.groupDays {
				if gd < d && x[s][gd] && m.dayHasCategory(gd, cat) {
					score += dispersionServeBump - (d - gd)
				}
			}
		}
	}

	if m.opts.AvoidSameWeekdayRepeat && d >= 7 && x[s][d-7] {
		score += sameWeekdayPenalty
	}

	if m.effGap < m.origGap {
		for back := 2; back <= m.origGap; back++ {
			if p := d - back; p >= 0 && x[s][p] {
				score += proximityWeight(back - 1)
				break
			}
		}
	}

	return score
}
