// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#CCCCCC"} // main text
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"} // dates, counts
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // hints, help text, footers
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"} // description/body text

	// Borders
	BorderDefaultColor   = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // unfocused borders
	BorderHighlightColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // focused/selected

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Calendar day colors, the conventional Japanese scheme: Saturdays
	// blue, Sundays and national holidays red.
	SaturdayColor = lipgloss.AdaptiveColor{Light: "#1E90FF", Dark: "#54A0FF"}
	SundayColor   = lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF6B6B"}
	HolidayColor  = lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF6B6B"}

	// Toast notification borders
	ToastBorderSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ToastBorderErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	ToastBorderInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ToastBorderWarnColor    = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}

	// Overlays
	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#8C8C8C"}

	// Calendar cell styles
	WeekdayHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(TextSecondaryColor)
	SaturdayStyle      = lipgloss.NewStyle().Foreground(SaturdayColor)
	SundayStyle        = lipgloss.NewStyle().Foreground(SundayColor)
	HolidayStyle       = lipgloss.NewStyle().Foreground(HolidayColor)
	SelectedDayStyle   = lipgloss.NewStyle().Bold(true).Reverse(true)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true).
			Padding(1, 2)

	// Loading spinner color
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}
)

// DayStyle returns the text style for a date given its weekday index
// (Monday = 0) and holiday status.
func DayStyle(weekdayIndex int, nationalHoliday bool) lipgloss.Style {
	switch {
	case nationalHoliday:
		return HolidayStyle
	case weekdayIndex == 6:
		return SundayStyle
	case weekdayIndex == 5:
		return SaturdayStyle
	default:
		return lipgloss.NewStyle().Foreground(TextPrimaryColor)
	}
}
