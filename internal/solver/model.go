package solver

import (
	"fmt"
	"time"

	"tooban/internal/almanac"
	"tooban/internal/roster"
)

// forcedState is the pre-solved value of one staff-day cell.
type forcedState int8

const (
	free      forcedState = iota
	forcedOff             // vacation, blocked weekday, no-duty day, carryover gap
	forcedOn              // pinned duty
)

// model is a fully expanded constraint model for one month.
type model struct {
	days  []almanac.Day
	staff []roster.Staff
	names []string
	n     int // days
	m     int // staff

	opts    Options
	effGap  int // rest gap actually enforced (lowered by relaxation)
	origGap int // rest gap requested (proximity penalties reference this)

	need    []SlotRange
	needTag []string

	forced [][]forcedState
	tag    map[[2]int]string // forced-cell constraint tags

	// planned marks cells pinned manually or selected by a fixed-shift
	// rule. Rest-gap and run-length checks are waived between adjacent
	// planned cells, matching the precedence of explicit plans over
	// spacing rules.
	planned [][]bool

	// fixedWant marks cells a fixed-shift rule prefers; unmet cells are
	// penalized.
	fixedWant [][]bool

	group map[string]bool

	// groupDays indexes days that belong to the fairness group.
	groupDays []int

	// dispersionInit is the starting dispersion penalty per staff and
	// category, from past schedules within 90 days.
	dispersionInit map[string]map[string]int

	// Relaxation-stage hard bounds.
	enforceGlobalSpread1 bool
	othersBounds         *SlotRange
	othersNames          map[string]bool
	enforceOthersSpread1 bool
	hardFairNames        map[string]bool // nil means everyone
}

const (
	dispersionPastWeight = 30
	dispersionServeBump  = 60
	sameWeekdayPenalty   = 10
)

// proximityWeight penalizes re-duty r days after a previous duty when the
// original rest gap has been relaxed. Closer is heavier.
func proximityWeight(r int) int {
	switch r {
	case 1:
		return 100
	case 2:
		return 60
	default:
		return 40
	}
}

func buildModel(staff []roster.Staff, days []almanac.Day, opts Options, effGap int) (*model, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("empty month")
	}

	m := &model{
		days:    days,
		staff:   staff,
		n:       len(days),
		m:       len(staff),
		opts:    opts,
		effGap:  effGap,
		origGap: opts.MinRestGap,
		tag:     make(map[[2]int]string),
		group:   make(map[string]bool, len(opts.FairnessGroup)),
	}
	m.names = make([]string, m.m)
	index := make(map[string]int, m.m)
	for s, st := range staff {
		m.names[s] = st.Name()
		index[st.Name()] = s
	}
	for _, cat := range opts.FairnessGroup {
		m.group[cat] = true
	}

	noDuty := make(map[time.Time]bool, len(opts.NoDutyDates))
	for _, d := range opts.NoDutyDates {
		noDuty[d] = true
	}

	// Per-day staffing ranges.
	m.need = make([]SlotRange, m.n)
	m.needTag = make([]string, m.n)
	for d, day := range days {
		if noDuty[day.Date] {
			m.need[d] = SlotRange{}
			m.needTag[d] = fmt.Sprintf("staffing for %s (no-duty day)", tagDay(day.Date))
			continue
		}
		r := opts.Slots.RangeFor(day)
		if r.Min < 0 || r.Max < r.Min {
			return nil, fmt.Errorf("invalid staffing range %d..%d for %s", r.Min, r.Max, tagDay(day.Date))
		}
		m.need[d] = r
		m.needTag[d] = fmt.Sprintf("staffing for %s (%d–%d people)", tagDay(day.Date), r.Min, r.Max)
	}

	// Rule expansion.
	ruleVacations := roster.ExpandVacationRules(opts.VacationRules, days, opts.SkipRulesOnHolidays)
	ruleFixed := roster.ExpandFixedShiftRules(opts.FixedShiftRules, days, opts.SkipRulesOnHolidays)

	dateIndex := make(map[time.Time]int, m.n)
	for d, day := range days {
		dateIndex[day.Date] = d
	}

	m.forced = make([][]forcedState, m.m)
	m.planned = make([][]bool, m.m)
	m.fixedWant = make([][]bool, m.m)
	for s := range staff {
		m.forced[s] = make([]forcedState, m.n)
		m.planned[s] = make([]bool, m.n)
		m.fixedWant[s] = make([]bool, m.n)
	}

	manualVacations := make(map[string]map[time.Time]bool, len(opts.Vacations))
	for name, dates := range opts.Vacations {
		set := make(map[time.Time]bool, len(dates))
		for _, d := range dates {
			set[d] = true
		}
		manualVacations[name] = set
	}

	pinnedLookup := make(map[[2]int]bool)
	for date, names := range opts.Pinned {
		d, ok := dateIndex[date]
		if !ok {
			return nil, fmt.Errorf("pinned duty on %s is outside the month", date.Format("2006-01-02"))
		}
		for _, name := range names {
			s, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("pinned duty for unknown or inactive staff %q", name)
			}
			pinnedLookup[[2]int{s, d}] = true
			m.planned[s][d] = true
		}
	}
	for date, names := range ruleFixed {
		d, ok := dateIndex[date]
		if !ok {
			continue
		}
		for _, name := range names {
			if s, ok := index[name]; ok {
				m.planned[s][d] = true
				m.fixedWant[s][d] = true
			}
		}
	}

	// Per staff-day forced values, strongest rule first: manual vacation,
	// pinned duty, rule vacation, blocked weekday.
	for s, st := range staff {
		name := st.Name()
		for d, day := range days {
			date := day.Date
			switch {
			case manualVacations[name][date]:
				m.forced[s][d] = forcedOff
				m.tag[[2]int{s, d}] = fmt.Sprintf("%s's vacation on %s", name, tagDay(date))
			case pinnedLookup[[2]int{s, d}]:
				m.forced[s][d] = forcedOn
				m.tag[[2]int{s, d}] = fmt.Sprintf("%s's pinned duty on %s", name, tagDay(date))
			case ruleVacations[name][date]:
				m.forced[s][d] = forcedOff
				m.tag[[2]int{s, d}] = fmt.Sprintf("%s's recurring vacation on %s", name, tagDay(date))
			default:
				holidayExempt := opts.SkipRulesOnHolidays && day.IsNationalHoliday
				if !st.AvailableOn(day.Weekday) && !holidayExempt {
					m.forced[s][d] = forcedOff
					m.tag[[2]int{s, d}] = fmt.Sprintf("%s's blocked weekday (%s)", name, day.Weekday)
				}
			}
		}

		// Carryover rest gap from the previous month.
		if last, ok := opts.Carryover.LastDutyDates[name]; ok {
			daysSince := int(days[0].Date.Sub(last).Hours() / 24)
			forbid := effGap - daysSince + 1
			for d := 0; d < forbid && d < m.n; d++ {
				if m.planned[s][d] || m.forced[s][d] == forcedOn {
					continue
				}
				if m.forced[s][d] == free {
					m.forced[s][d] = forcedOff
					m.tag[[2]int{s, d}] = fmt.Sprintf("%s's rest gap carried over from the previous month (%s)", name, tagDay(days[d].Date))
				}
			}
		}
	}

	// Sanity: a pinned duty on a no-duty day can never be satisfied.
	for d := range days {
		if m.need[d].Max == 0 {
			for s := range staff {
				if m.forced[s][d] == forcedOn {
					return nil, &InfeasibleError{Tags: []string{
						m.needTag[d],
						m.tag[[2]int{s, d}],
					}}
				}
			}
		}
	}

	for d, day := range days {
		if len(day.Categories(m.group)) > 0 {
			m.groupDays = append(m.groupDays, d)
		}
	}

	m.buildDispersionInit()

	return m, nil
}

// buildDispersionInit seeds per-category penalties from past schedules
// within 90 days of the month start.
func (m *model) buildDispersionInit() {
	m.dispersionInit = make(map[string]map[string]int, m.m)
	if !m.opts.Disperse || len(m.group) == 0 || len(m.opts.PastSchedules) == 0 {
		return
	}
	start := m.days[0].Date
	holidays := make(map[time.Time]bool)
	for _, day := range m.days {
		if day.IsNationalHoliday {
			holidays[day.Date] = true
		}
	}
	for dateStr, names := range m.opts.PastSchedules {
		past, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		past = past.UTC()
		age := int(start.Sub(past).Hours() / 24)
		if age < 0 || age > 90 {
			continue
		}
		idx := almanac.WeekdayIndexOf(past.Weekday())
		var cats []string
		if m.group[almanac.WeekdayLabels[idx]] {
			cats = append(cats, almanac.WeekdayLabels[idx])
		}
		// National-holiday status of past dates is not tracked in history;
		// weekday categories carry the dispersion signal.
		for _, name := range names {
			for _, cat := range cats {
				if m.dispersionInit[name] == nil {
					m.dispersionInit[name] = make(map[string]int)
				}
				m.dispersionInit[name][cat] += dispersionPastWeight
			}
		}
	}
}

// rangeFor is a convenience wrapper for relaxation-stage estimates.
func (m *model) minNeedTotal() int {
	total := 0
	for _, r := range m.need {
		total += r.Min
	}
	return total
}
