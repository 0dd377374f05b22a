package solver

import (
	"time"

	"tooban/internal/almanac"
	"tooban/internal/roster"
)

// SlotRange is an inclusive range of assignees required on a day.
type SlotRange struct {
	Min int
	Max int
}

// SlotConfig determines how many people serve each day. Exactly one of the
// fields is normally set; an empty config means one person per day.
type SlotConfig struct {
	// Fixed requires exactly this many assignees every day.
	Fixed int

	// Range applies the same min/max to every day. Used when Fixed is 0.
	Range *SlotRange

	// ByDay keys ranges by weekday label ("月".."日") or by
	// almanac.HolidayCategory for national holidays. It overrides Fixed and
	// Range for the days it names; other days fall back to them.
	ByDay map[string]SlotRange
}

// RangeFor resolves the staffing range for a day. ByDay entries win over
// Fixed and Range.
func (c SlotConfig) RangeFor(day almanac.Day) SlotRange {
	if len(c.ByDay) > 0 {
		key := day.Weekday
		if day.IsNationalHoliday {
			if _, ok := c.ByDay[almanac.HolidayCategory]; ok {
				key = almanac.HolidayCategory
			}
		}
		if r, ok := c.ByDay[key]; ok {
			return r
		}
	}
	if c.Fixed > 0 {
		return SlotRange{Min: c.Fixed, Max: c.Fixed}
	}
	if c.Range != nil {
		return *c.Range
	}
	return SlotRange{Min: 1, Max: 1}
}

// Carryover describes the tail of the previous month's roster.
type Carryover struct {
	// LastDutyDates maps staff name to their final duty date in the
	// previous month; used to keep the rest gap across the boundary.
	LastDutyDates map[string]time.Time

	// RunLengths maps staff name to the consecutive duty run still open at
	// the month boundary.
	RunLengths map[string]int

	// LastWeekWeekdays maps staff name to the weekday indices they served
	// in the previous month's final week; used by the same-weekday-repeat
	// preference.
	LastWeekWeekdays map[string][]int
}

// Options configures one generation run.
type Options struct {
	Slots        SlotConfig
	MinRestGap   int // minimum off days after a break before the next duty
	MaxRunLength int // maximum consecutive duty days
	MaxSolutions int // distinct rosters to produce (≥1)
	Seed         int64

	// NoDutyDates are days with zero assignees regardless of Slots.
	NoDutyDates []time.Time

	// Pinned maps date to staff names that must serve that day.
	Pinned map[time.Time][]string

	// Vacations maps staff name to dates that must be off.
	Vacations map[string][]time.Time

	FixedShiftRules []roster.FixedShiftRule
	VacationRules   []roster.VacationRule

	// SkipRulesOnHolidays exempts national holidays from rule expansion and
	// from per-staff blocked weekdays.
	SkipRulesOnHolidays bool

	// AvoidSameWeekdayRepeat penalizes serving the same weekday two weeks
	// in a row.
	AvoidSameWeekdayRepeat bool

	// Disperse penalizes assigning a fairness category to staff who served
	// that category recently (within the past 90 days).
	Disperse bool

	// FairnessGroup lists the categories (weekday labels and/or
	// almanac.HolidayCategory) whose per-staff counts are balanced.
	FairnessGroup []string

	// FairnessTolerance is the allowed spread of group counts.
	FairnessTolerance int

	// FairnessAsHard rejects rosters whose group-count spread exceeds the
	// tolerance instead of merely penalizing them.
	FairnessAsHard bool

	// TotalAdjustments shifts a staff member's expected total count.
	TotalAdjustments map[string]int

	// FairnessAdjustments shifts a staff member's expected group count.
	FairnessAdjustments map[string]int

	Carryover Carryover

	// PastSchedules maps ISO dates ("2006-01-02") of previous months to
	// the staff names who served; feeds the dispersion penalty.
	PastSchedules map[string][]string
}

func (o Options) normalized() Options {
	if o.MinRestGap < 0 {
		o.MinRestGap = 0
	}
	if o.MaxRunLength < 1 {
		o.MaxRunLength = 1
	}
	if o.MaxSolutions < 1 {
		o.MaxSolutions = 1
	}
	if o.FairnessTolerance < 0 {
		o.FairnessTolerance = 0
	}
	return o
}

// DefaultOptions mirrors the application defaults: two off days between
// duty blocks, at most five consecutive duty days, one roster.
func DefaultOptions() Options {
	return Options{
		MinRestGap:        2,
		MaxRunLength:      5,
		MaxSolutions:      1,
		FairnessTolerance: 1,
		FairnessAsHard:    true,
		Disperse:          true,
	}
}
