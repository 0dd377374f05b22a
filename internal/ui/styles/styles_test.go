package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDayStyle(t *testing.T) {
	assert.Equal(t, HolidayStyle, DayStyle(2, true), "holiday wins over weekday")
	assert.Equal(t, SundayStyle, DayStyle(6, false))
	assert.Equal(t, SaturdayStyle, DayStyle(5, false))
	assert.Equal(t, TextPrimaryColor, DayStyle(0, false).GetForeground())
}
