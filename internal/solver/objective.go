package solver

import "tooban/internal/almanac"

// hardWeight makes any hard-constraint violation dominate every soft
// preference during local search.
const hardWeight = 10000

// evaluate scores an assignment. Soft penalties measure preference; hard
// violations are counted separately and weighted so the search never
// trades one for a soft gain.
type score struct {
	soft int
	hard int
}

func (sc score) total() int { return sc.soft + sc.hard*hardWeight }

func (sc score) better(other score) bool { return sc.total() < other.total() }

// evaluate computes the full objective for assignment x, where x[s][d]
// reports whether staff s serves on day d.
func (m *model) evaluate(x [][]bool) score {
	var sc score

	counts := make([]int, m.m)
	for s := 0; s < m.m; s++ {
		for d := 0; d < m.n; d++ {
			if x[s][d] {
				counts[s]++
			}
		}
	}

	sc.hard += m.hardViolations(x, counts)

	// Total-count spread, adjusted by per-staff offsets.
	if m.m > 0 {
		lo, hi := 1<<30, -(1 << 30)
		for s := 0; s < m.m; s++ {
			adj := counts[s] - m.opts.TotalAdjustments[m.names[s]]
			if adj < lo {
				lo = adj
			}
			if adj > hi {
				hi = adj
			}
		}
		sc.soft += hi - lo
	}

	// Unmet fixed-shift rule preferences.
	for s := 0; s < m.m; s++ {
		for d := 0; d < m.n; d++ {
			if m.fixedWant[s][d] && !x[s][d] {
				sc.soft++
			}
		}
	}

	if m.opts.Disperse && len(m.group) > 0 {
		sc.soft += m.dispersionCost(x)
	}

	if m.effGap < m.origGap {
		sc.soft += m.proximityCost(x)
	}

	if m.opts.AvoidSameWeekdayRepeat {
		sc.soft += m.sameWeekdayCost(x)
	}

	if len(m.group) > 0 && !m.opts.FairnessAsHard {
		sc.soft += m.fairnessOverage(x, nil)
	} else if m.hardFairNames != nil {
		// Hard fairness covers a subset; the rest is soft.
		soft := make(map[string]bool, m.m)
		for _, name := range m.names {
			if !m.hardFairNames[name] {
				soft[name] = true
			}
		}
		sc.soft += m.fairnessOverage(x, soft)
	}

	return sc
}

// hardViolations counts violated hard constraints in x.
func (m *model) hardViolations(x [][]bool, counts []int) int {
	v := 0

	for d := 0; d < m.n; d++ {
		on := 0
		for s := 0; s < m.m; s++ {
			if x[s][d] {
				on++
			}
		}
		if on < m.need[d].Min {
			v += m.need[d].Min - on
		}
		if on > m.need[d].Max {
			v += on - m.need[d].Max
		}
	}

	for s := 0; s < m.m; s++ {
		for d := 0; d < m.n; d++ {
			switch m.forced[s][d] {
			case forcedOn:
				if !x[s][d] {
					v++
				}
			case forcedOff:
				if x[s][d] {
					v++
				}
			}
		}
		v += m.restGapViolations(s, x[s])
		v += m.runLengthViolations(s, x[s])
	}

	if m.opts.FairnessAsHard && len(m.group) > 0 {
		var subset map[string]bool
		if m.hardFairNames != nil {
			subset = m.hardFairNames
		}
		v += m.fairnessOverage(x, subset)
	}

	if m.enforceGlobalSpread1 && m.m > 0 {
		if spread := m.adjustedSpread(counts, nil); spread > 1 {
			v += spread - 1
		}
	}

	if m.othersBounds != nil {
		for s := 0; s < m.m; s++ {
			if !m.othersNames[m.names[s]] {
				continue
			}
			if counts[s] < m.othersBounds.Min {
				v += m.othersBounds.Min - counts[s]
			}
			if counts[s] > m.othersBounds.Max {
				v += counts[s] - m.othersBounds.Max
			}
		}
	}
	if m.enforceOthersSpread1 {
		if spread := m.adjustedSpread(counts, m.othersNames); spread > 1 {
			v += spread - 1
		}
	}

	return v
}

// restGapViolations counts in-month duty pairs closer than the effective
// gap allows. A duty immediately after another is a run, not a gap
// breach; pairs where both ends are planned are exempt. Gaps against the
// previous month are enforced through forced cells at model build time.
func (m *model) restGapViolations(s int, row []bool) int {
	v := 0
	prev := -1
	for d := 0; d < m.n; d++ {
		if !row[d] {
			continue
		}
		if prev >= 0 {
			gap := d - prev
			if gap > 1 && gap < m.effGap+1 && !(m.planned[s][prev] && m.planned[s][d]) {
				v++
			}
		}
		prev = d
	}
	return v
}

// isPlanned reports whether (s, d) is a pinned or rule-fixed cell.
// Negative indices refer to carryover duties, which were committed plans.
func (m *model) isPlanned(s, d int) bool {
	if d < 0 {
		return true
	}
	if d >= m.n {
		return false
	}
	return m.planned[s][d]
}

// runLengthViolations counts windows of maxRun+1 consecutive days fully
// staffed by s. The leading window accounts for a run carried over from
// the previous month.
func (m *model) runLengthViolations(s int, row []bool) int {
	maxRun := m.opts.MaxRunLength
	if maxRun <= 0 {
		return 0
	}
	v := 0

	if carry := m.opts.Carryover.RunLengths[m.names[s]]; carry > 0 {
		allow := maxRun - carry
		if allow < 0 {
			allow = 0
		}
		lead := 0
		for d := 0; d < m.n && row[d]; d++ {
			lead++
		}
		if lead > allow && !m.plannedRun(s, 0, lead) {
			v += lead - allow
		}
	}

	run := 0
	for d := 0; d < m.n; d++ {
		if row[d] {
			run++
			if run > maxRun && !(m.isPlanned(s, d) && m.isPlanned(s, d-1)) {
				v++
			}
		} else {
			run = 0
		}
	}
	return v
}

// plannedRun reports whether every cell of row[from:from+len] is planned.
func (m *model) plannedRun(s, from, length int) bool {
	for d := from; d < from+length && d < m.n; d++ {
		if !m.planned[s][d] {
			return false
		}
	}
	return true
}

// fairnessOverage measures how far per-category duty counts exceed the
// tolerance, restricted to the subset when non-nil.
func (m *model) fairnessOverage(x [][]bool, subset map[string]bool) int {
	if len(m.groupDays) == 0 {
		return 0
	}
	over := 0
	for cat := range m.group {
		lo, hi := 1<<30, -(1 << 30)
		seen := false
		for s := 0; s < m.m; s++ {
			if subset != nil && !subset[m.names[s]] {
				continue
			}
			c := -m.opts.FairnessAdjustments[m.names[s]]
			for _, d := range m.groupDays {
				if x[s][d] && m.dayHasCategory(d, cat) {
					c++
				}
			}
			seen = true
			if c < lo {
				lo = c
			}
			if c > hi {
				hi = c
			}
		}
		if seen && hi-lo > m.opts.FairnessTolerance {
			over += hi - lo - m.opts.FairnessTolerance
		}
	}
	return over
}

func (m *model) dayHasCategory(d int, cat string) bool {
	day := m.days[d]
	if cat == almanac.HolidayCategory {
		return day.IsNationalHoliday
	}
	return almanac.WeekdayLabels[day.WeekdayIndex] == cat
}

// adjustedSpread is max-min of adjusted totals over the subset (everyone
// when subset is nil).
func (m *model) adjustedSpread(counts []int, subset map[string]bool) int {
	lo, hi := 1<<30, -(1 << 30)
	seen := false
	for s := 0; s < m.m; s++ {
		if subset != nil && !subset[m.names[s]] {
			continue
		}
		adj := counts[s] - m.opts.TotalAdjustments[m.names[s]]
		seen = true
		if adj < lo {
			lo = adj
		}
		if adj > hi {
			hi = adj
		}
	}
	if !seen {
		return 0
	}
	return hi - lo
}

// dispersionCost simulates the decaying per-category pressure: serving a
// category day costs the current pressure and bumps it for later days.
func (m *model) dispersionCost(x [][]bool) int {
	cost := 0
	for s := 0; s < m.m; s++ {
		name := m.names[s]
		pressure := make(map[string]int, len(m.group))
		for cat, v := range m.dispersionInit[name] {
			pressure[cat] = v
		}
		for d := 0; d < m.n; d++ {
			if d > 0 {
				for cat, v := range pressure {
					if v > 0 {
						pressure[cat] = v - 1
					}
				}
			}
			if !x[s][d] {
				continue
			}
			for _, cat := range m.days[d].Categories(m.group) {
				cost += pressure[cat]
				pressure[cat] += dispersionServeBump
			}
		}
	}
	return cost
}

// proximityCost penalizes duty pairs that fall inside the original rest
// gap once the gap has been relaxed. Planned-planned pairs are exempt.
func (m *model) proximityCost(x [][]bool) int {
	cost := 0
	for s := 0; s < m.m; s++ {
		prev := -1 << 20
		if last, ok := m.opts.Carryover.LastDutyDates[m.names[s]]; ok {
			prev = -int(m.days[0].Date.Sub(last).Hours() / 24)
		}
		for d := 0; d < m.n; d++ {
			if !x[s][d] {
				continue
			}
			gap := d - prev
			if gap > 1 && gap < m.origGap+1 {
				if !(m.isPlanned(s, prev) && m.isPlanned(s, d)) {
					cost += proximityWeight(gap - 1)
				}
			}
			prev = d
		}
	}
	return cost
}

// sameWeekdayCost penalizes serving the same weekday in consecutive weeks,
// including against the final week of the previous month.
func (m *model) sameWeekdayCost(x [][]bool) int {
	cost := 0
	for s := 0; s < m.m; s++ {
		name := m.names[s]
		prevWeeks := make(map[int]bool)
		for _, wd := range m.opts.Carryover.LastWeekWeekdays[name] {
			prevWeeks[wd] = true
		}
		// lastServed[wd] is the day index s last served weekday wd.
		lastServed := make(map[int]int, 7)
		for d := 0; d < m.n; d++ {
			if !x[s][d] {
				continue
			}
			wd := m.days[d].WeekdayIndex
			if prev, ok := lastServed[wd]; ok && d-prev == 7 {
				cost += sameWeekdayPenalty
			} else if !ok && prevWeeks[wd] && d < 7 {
				cost += sameWeekdayPenalty
			}
			lastServed[wd] = d
		}
	}
	return cost
}
