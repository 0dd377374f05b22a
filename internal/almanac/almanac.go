// Package almanac builds month calendars annotated with Japanese national
// holidays. Day dates are normalized to UTC midnight so they can be used as
// map keys throughout the roster pipeline.
package almanac

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/jp"
)

// WeekdayLabels are the single-character Japanese weekday labels, Monday first.
var WeekdayLabels = [7]string{"月", "火", "水", "木", "金", "土", "日"}

// HolidayCategory is the fairness-group label for national holidays.
const HolidayCategory = "祝"

// Day is one calendar day of a month.
type Day struct {
	Date              time.Time // UTC midnight
	Weekday           string    // Japanese label, see WeekdayLabels
	WeekdayIndex      int       // Monday = 0 .. Sunday = 6
	IsWeekend         bool
	IsNationalHoliday bool
	IsHoliday         bool // weekend or national holiday
}

// Categories returns the fairness-group categories the day belongs to,
// filtered to the given group (weekday labels and/or HolidayCategory).
func (d Day) Categories(group map[string]bool) []string {
	var cats []string
	if group[d.Weekday] {
		cats = append(cats, d.Weekday)
	}
	if d.IsNationalHoliday && group[HolidayCategory] {
		cats = append(cats, HolidayCategory)
	}
	return cats
}

// WeekdayIndexOf converts time.Weekday (Sunday = 0) to a Monday = 0 index.
func WeekdayIndexOf(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// DateOf returns the normalized UTC-midnight time for a calendar date.
func DateOf(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysIn reports the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return DateOf(year, month+1, 0).Day()
}

// Almanac resolves national holidays for month calendars.
type Almanac struct {
	calendar *cal.Calendar
}

// New creates an Almanac loaded with the Japanese national holiday table.
func New() *Almanac {
	c := &cal.Calendar{}
	c.AddHoliday(jp.Holidays...)
	return &Almanac{calendar: c}
}

// Month returns the ordered days of a month. Month values outside 1..12 are
// rejected rather than normalized.
func (a *Almanac) Month(year int, month time.Month) ([]Day, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	numDays := DaysIn(year, month)
	days := make([]Day, 0, numDays)
	for dayNum := 1; dayNum <= numDays; dayNum++ {
		date := DateOf(year, month, dayNum)
		idx := WeekdayIndexOf(date.Weekday())
		actual, observed, _ := a.calendar.IsHoliday(date)
		national := actual || observed
		weekend := idx >= 5
		days = append(days, Day{
			Date:              date,
			Weekday:           WeekdayLabels[idx],
			WeekdayIndex:      idx,
			IsWeekend:         weekend,
			IsNationalHoliday: national,
			IsHoliday:         weekend || national,
		})
	}
	return days, nil
}

// LastWeekdayDates maps each weekday index to its final occurrence in the
// month. Used by rule expansion where week 5 means "last".
func LastWeekdayDates(days []Day) map[int]time.Time {
	result := make(map[int]time.Time, 7)
	for i := len(days) - 1; i >= 0 && len(result) < 7; i-- {
		d := days[i]
		if _, seen := result[d.WeekdayIndex]; !seen {
			result[d.WeekdayIndex] = d.Date
		}
	}
	return result
}
