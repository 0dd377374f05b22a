package solver

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"tooban/internal/roster"
)

// stage is one rung of the relaxation ladder. Each rung trades away a
// little scheduling comfort in exchange for feasibility, and records what
// it gave up so the result can say so.
type stage struct {
	effGap      int
	labels      []string
	globalOne   bool // hard: adjusted total spread at most 1
	toughStage  bool
	toughNames  map[string]bool
	othersRange *SlotRange
	othersOne   bool
}

func (st stage) apply(m *model) {
	m.enforceGlobalSpread1 = st.globalOne
	if st.toughStage {
		others := make(map[string]bool, m.m)
		for _, name := range m.names {
			if !st.toughNames[name] {
				others[name] = true
			}
		}
		m.othersNames = others
		m.othersBounds = st.othersRange
		m.enforceOthersSpread1 = st.othersOne
		if m.opts.FairnessAsHard {
			m.hardFairNames = others
		}
	}
}

// buildStages lays out the ladder: the strict model first, then
// progressively shorter rest gaps, then a final stage that identifies
// hard-to-place staff and only balances the rest.
func (e *Engine) buildStages(opts Options) []stage {
	var stages []stage

	// When duties are pinned the strict attempt also keeps totals within
	// a spread of one, so pins cannot silently skew the balance.
	strict := stage{effGap: opts.MinRestGap, globalOne: len(opts.Pinned) > 0}
	stages = append(stages, strict)

	for gap := opts.MinRestGap - 1; gap >= 1; gap-- {
		stages = append(stages, stage{
			effGap:    gap,
			labels:    []string{fmt.Sprintf("rest gap shortened to %d days", gap)},
			globalOne: len(opts.Pinned) > 0,
		})
	}

	tough := e.estimateTough(opts)
	if len(tough) > 0 {
		minGap := opts.MinRestGap
		if minGap > 1 {
			minGap = 1
		}
		names := make([]string, 0, len(tough))
		for name := range tough {
			names = append(names, name)
		}
		sort.Strings(names)
		label := fmt.Sprintf("balanced totals only among staff other than %s", strings.Join(names, ", "))

		bounds := e.othersBounds(opts, tough)
		stages = append(stages,
			stage{
				effGap:      minGap,
				labels:      []string{fmt.Sprintf("rest gap shortened to %d days", minGap), label},
				toughStage:  true,
				toughNames:  tough,
				othersRange: &bounds,
			},
			stage{
				effGap:     minGap,
				labels:     []string{fmt.Sprintf("rest gap shortened to %d days", minGap), label},
				toughStage: true,
				toughNames: tough,
				othersOne:  true,
			},
		)
	}

	return stages
}

// estimateTough flags staff whose availability falls short of an even
// share of the month, plus staff whose pinned duties already exceed the
// even share. Balancing totals around them is what usually makes a tight
// month infeasible.
func (e *Engine) estimateTough(opts Options) map[string]bool {
	if len(e.staff) == 0 {
		return nil
	}
	minTotal := 0
	for _, day := range e.days {
		minTotal += opts.Slots.RangeFor(day).Min
	}
	perExpected := int(math.Round(float64(minTotal) / float64(len(e.staff))))

	vacations := roster.ExpandVacationRules(opts.VacationRules, e.days, opts.SkipRulesOnHolidays)

	tough := make(map[string]bool)
	for _, st := range e.staff {
		avail := 0
		for _, day := range e.days {
			if !st.AvailableOn(day.Weekday) {
				continue
			}
			if vacations[st.Name()][day.Date] {
				continue
			}
			avail++
		}
		avail -= len(opts.Vacations[st.Name()])
		if avail < perExpected {
			tough[st.Name()] = true
		}
	}

	baseline := minTotal / len(e.staff)
	pinnedCount := make(map[string]int)
	for _, names := range opts.Pinned {
		for _, name := range names {
			pinnedCount[name]++
		}
	}
	for name, c := range pinnedCount {
		if c > baseline {
			tough[name] = true
		}
	}

	if len(tough) == len(e.staff) {
		// Everyone tough means nobody is; the stage would be vacuous.
		return nil
	}
	return tough
}

// othersBounds computes the per-person total bounds for non-tough staff
// after subtracting the duties tough staff are expected to absorb.
func (e *Engine) othersBounds(opts Options, tough map[string]bool) SlotRange {
	minTotal := 0
	for _, day := range e.days {
		minTotal += opts.Slots.RangeFor(day).Min
	}
	toughShare := 0
	pinnedCount := make(map[string]int)
	for _, names := range opts.Pinned {
		for _, name := range names {
			pinnedCount[name]++
		}
	}
	for name := range tough {
		toughShare += pinnedCount[name]
	}
	remain := minTotal - toughShare
	others := len(e.staff) - len(tough)
	if others <= 0 || remain <= 0 {
		return SlotRange{Min: 0, Max: len(e.days)}
	}
	lo := remain / others
	hi := (remain + others - 1) / others
	return SlotRange{Min: lo, Max: hi}
}

// infeasibleReport explains why no stage found a roster, so the operator
// can see which inputs to loosen instead of guessing.
func (e *Engine) infeasibleReport(opts Options, tags []string) string {
	var b strings.Builder
	b.WriteString("The month could not be scheduled even after relaxing rest gaps and balance.\n")

	minTotal := 0
	for _, day := range e.days {
		minTotal += opts.Slots.RangeFor(day).Min
	}
	fmt.Fprintf(&b, "Required duties: %d across %d days for %d staff.\n", minTotal, len(e.days), len(e.staff))

	if tough := e.estimateTough(opts); len(tough) > 0 {
		names := make([]string, 0, len(tough))
		for name := range tough {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "Hard to place: %s.\n", strings.Join(names, ", "))
	}

	// A single person pinned on more consecutive days than the run limit
	// can never be satisfied; call it out directly.
	if opts.MaxRunLength > 0 {
		byName := make(map[string][]int)
		dateIndex := make(map[string]int, len(e.days))
		for d, day := range e.days {
			dateIndex[day.Date.Format("2006-01-02")] = d
		}
		for date, names := range opts.Pinned {
			if d, ok := dateIndex[date.Format("2006-01-02")]; ok {
				for _, name := range names {
					byName[name] = append(byName[name], d)
				}
			}
		}
		for name, ds := range byName {
			sort.Ints(ds)
			run := 1
			for i := 1; i < len(ds); i++ {
				if ds[i] == ds[i-1]+1 {
					run++
					if run > opts.MaxRunLength {
						fmt.Fprintf(&b, "%s is pinned on more than %d consecutive days, which exceeds the run limit.\n",
							name, opts.MaxRunLength)
						break
					}
				} else {
					run = 1
				}
			}
		}
	}

	if len(tags) > 0 {
		b.WriteString("Constraints that kept failing:\n")
		for _, t := range tags {
			fmt.Fprintf(&b, "  - %s\n", t)
		}
	}
	return b.String()
}

// violationTags names the hard constraints an assignment breaks, for the
// infeasibility report.
func (m *model) violationTags(x [][]bool) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}

	for d := 0; d < m.n; d++ {
		on := 0
		for s := 0; s < m.m; s++ {
			if x[s][d] {
				on++
			}
		}
		if on < m.need[d].Min || on > m.need[d].Max {
			add(m.needTag[d])
		}
	}
	for s := 0; s < m.m; s++ {
		for d := 0; d < m.n; d++ {
			if (m.forced[s][d] == forcedOn && !x[s][d]) || (m.forced[s][d] == forcedOff && x[s][d]) {
				add(m.tag[[2]int{s, d}])
			}
		}
		if m.restGapViolations(s, x[s]) > 0 {
			add(fmt.Sprintf("%s's rest gap of %d days", m.names[s], m.effGap))
		}
		if m.runLengthViolations(s, x[s]) > 0 {
			add(fmt.Sprintf("%s's maximum run of %d consecutive days", m.names[s], m.opts.MaxRunLength))
		}
	}
	if m.opts.FairnessAsHard && len(m.group) > 0 {
		var subset map[string]bool
		if m.hardFairNames != nil {
			subset = m.hardFairNames
		}
		if m.fairnessOverage(x, subset) > 0 {
			add(fmt.Sprintf("fair split of %s duties within a tolerance of %d",
				strings.Join(m.opts.FairnessGroup, "/"), m.opts.FairnessTolerance))
		}
	}
	counts := make([]int, m.m)
	for s := 0; s < m.m; s++ {
		for d := 0; d < m.n; d++ {
			if x[s][d] {
				counts[s]++
			}
		}
	}
	if m.enforceGlobalSpread1 && m.adjustedSpread(counts, nil) > 1 {
		add("total duties balanced within a spread of 1")
	}
	return tags
}
