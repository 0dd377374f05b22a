package roster

import (
	"fmt"
	"time"

	"tooban/internal/almanac"
)

// LastWeek is the rule week number meaning "the final occurrence of the
// weekday in the month".
const LastWeek = 5

// FixedShiftRule pins a staff member to the nth occurrence of a weekday each
// month. Fixed-shift rules are preferences: the solver penalizes missing
// them but may drop them to keep the roster feasible.
type FixedShiftRule struct {
	Week      int // 1..5, LastWeek = final occurrence
	Weekday   int // Monday = 0 .. Sunday = 6
	StaffName string
}

// VacationRule grants a staff member the nth occurrence of a weekday off
// each month. Vacation rules are hard.
type VacationRule struct {
	Week      int
	Weekday   int
	StaffName string
}

func validateRule(week, weekday int) error {
	if week < 1 || week > LastWeek {
		return fmt.Errorf("rule week must be 1..%d, got %d", LastWeek, week)
	}
	if weekday < 0 || weekday > 6 {
		return fmt.Errorf("rule weekday must be 0..6, got %d", weekday)
	}
	return nil
}

// Validate checks the rule's week and weekday ranges.
func (r FixedShiftRule) Validate() error { return validateRule(r.Week, r.Weekday) }

// Validate checks the rule's week and weekday ranges.
func (r VacationRule) Validate() error { return validateRule(r.Week, r.Weekday) }

// ruleMatch reports whether a rule for (week, weekday) selects the given day.
// currentWeek is the day's per-weekday occurrence number within the month.
func ruleMatch(week, weekday int, day almanac.Day, currentWeek int, lastDates map[int]time.Time) bool {
	if weekday != day.WeekdayIndex {
		return false
	}
	if week == currentWeek {
		return true
	}
	return week == LastWeek && lastDates[day.WeekdayIndex].Equal(day.Date)
}

// ExpandFixedShiftRules resolves fixed-shift rules to concrete dates for the
// month. When skipHolidays is set, national holidays never match a rule.
func ExpandFixedShiftRules(rules []FixedShiftRule, days []almanac.Day, skipHolidays bool) map[time.Time][]string {
	result := make(map[time.Time][]string)
	if len(rules) == 0 {
		return result
	}
	lastDates := almanac.LastWeekdayDates(days)
	var counters [7]int
	for _, day := range days {
		if skipHolidays && day.IsNationalHoliday {
			continue
		}
		counters[day.WeekdayIndex]++
		currentWeek := counters[day.WeekdayIndex]
		for _, r := range rules {
			if ruleMatch(r.Week, r.Weekday, day, currentWeek, lastDates) {
				result[day.Date] = append(result[day.Date], r.StaffName)
			}
		}
	}
	return result
}

// ExpandVacationRules resolves vacation rules to concrete dates per staff
// name for the month. When skipHolidays is set, national holidays never
// match a rule.
func ExpandVacationRules(rules []VacationRule, days []almanac.Day, skipHolidays bool) map[string]map[time.Time]bool {
	result := make(map[string]map[time.Time]bool)
	if len(rules) == 0 {
		return result
	}
	lastDates := almanac.LastWeekdayDates(days)
	var counters [7]int
	for _, day := range days {
		if skipHolidays && day.IsNationalHoliday {
			continue
		}
		counters[day.WeekdayIndex]++
		currentWeek := counters[day.WeekdayIndex]
		for _, r := range rules {
			if ruleMatch(r.Week, r.Weekday, day, currentWeek, lastDates) {
				if result[r.StaffName] == nil {
					result[r.StaffName] = make(map[time.Time]bool)
				}
				result[r.StaffName][day.Date] = true
			}
		}
	}
	return result
}
