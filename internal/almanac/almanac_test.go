package almanac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonth_DayCountAndOrder(t *testing.T) {
	a := New()

	days, err := a.Month(2026, time.February)
	require.NoError(t, err)
	require.Len(t, days, 28)
	require.Equal(t, DateOf(2026, time.February, 1), days[0].Date)
	require.Equal(t, DateOf(2026, time.February, 28), days[27].Date)
}

func TestMonth_LeapFebruary(t *testing.T) {
	a := New()

	days, err := a.Month(2028, time.February)
	require.NoError(t, err)
	require.Len(t, days, 29)
}

func TestMonth_WeekdayLabels(t *testing.T) {
	a := New()

	days, err := a.Month(2026, time.June)
	require.NoError(t, err)

	// 2026-06-01 is a Monday.
	require.Equal(t, "月", days[0].Weekday)
	require.Equal(t, 0, days[0].WeekdayIndex)
	require.Equal(t, "日", days[6].Weekday)
	require.True(t, days[6].IsWeekend)
	require.True(t, days[6].IsHoliday)
}

func TestMonth_NationalHoliday(t *testing.T) {
	a := New()

	days, err := a.Month(2026, time.January)
	require.NoError(t, err)

	// New Year's Day.
	require.True(t, days[0].IsNationalHoliday)
	require.True(t, days[0].IsHoliday)

	// 2026-01-05 is an ordinary Monday.
	require.False(t, days[4].IsNationalHoliday)
	require.False(t, days[4].IsHoliday)
}

func TestMonth_InvalidMonth(t *testing.T) {
	a := New()

	_, err := a.Month(2026, time.Month(13))
	require.Error(t, err)
}

func TestWeekdayIndexOf(t *testing.T) {
	require.Equal(t, 0, WeekdayIndexOf(time.Monday))
	require.Equal(t, 5, WeekdayIndexOf(time.Saturday))
	require.Equal(t, 6, WeekdayIndexOf(time.Sunday))
}

func TestLastWeekdayDates(t *testing.T) {
	a := New()
	days, err := a.Month(2026, time.June)
	require.NoError(t, err)

	last := LastWeekdayDates(days)
	require.Len(t, last, 7)
	// June 2026 ends on Tuesday the 30th.
	require.Equal(t, DateOf(2026, time.June, 30), last[1])
	require.Equal(t, DateOf(2026, time.June, 29), last[0])
	require.Equal(t, DateOf(2026, time.June, 28), last[6])
}

func TestDay_Categories(t *testing.T) {
	a := New()
	days, err := a.Month(2026, time.January)
	require.NoError(t, err)

	group := map[string]bool{"土": true, "日": true, HolidayCategory: true}

	// 2026-01-01 is a Thursday national holiday.
	require.Equal(t, []string{HolidayCategory}, days[0].Categories(group))

	// 2026-01-03 is a Saturday.
	require.Equal(t, []string{"土"}, days[2].Categories(group))

	// 2026-01-06 is an ordinary Tuesday.
	require.Empty(t, days[5].Categories(group))
}

func TestDaysIn(t *testing.T) {
	require.Equal(t, 31, DaysIn(2026, time.January))
	require.Equal(t, 30, DaysIn(2026, time.April))
	require.Equal(t, 28, DaysIn(2026, time.February))
	require.Equal(t, 29, DaysIn(2028, time.February))
}
