package monthview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"tooban/internal/almanac"
	"tooban/internal/solver"
	"tooban/internal/ui/styles"
)

const cellWidth = 12

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Height(2).
			Padding(0, 1)

	namesStyle = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)

	countsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.BorderDefaultColor).
			Padding(0, 1).
			MarginLeft(2)

	diffBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.BorderHighlightColor).
			Padding(0, 1)

	relaxedStyle = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
)

// View implements mode.Controller.
func (m Model) View() string {
	if len(m.days) == 0 {
		return titleStyle.Render("loading calendar...")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %d年%d月", m.services.Config.Export.Title, m.year, int(m.month))))
	b.WriteString("\n\n")

	body := m.renderGrid()
	if m.diffText != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderDiff())
	} else if m.showCounts {
		if counts := m.renderCounts(); counts != "" {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, counts)
		}
	}
	b.WriteString(body)

	if m.showStatus {
		b.WriteString("\n")
		b.WriteString(m.renderStatusBar())
	}

	view := b.String()
	if m.helpOpen {
		return m.help.Overlay(view)
	}
	return view
}

func (m Model) renderGrid() string {
	header := make([]string, 0, 7)
	for i, label := range almanac.WeekdayLabels {
		style := styles.WeekdayHeaderStyle
		switch i {
		case 5:
			style = style.Foreground(styles.SaturdayColor)
		case 6:
			style = style.Foreground(styles.SundayColor)
		}
		header = append(header, cellStyle.Height(1).Render(style.Render(label)))
	}

	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}
	sol := m.current()

	week := make([]string, 7)
	for i := range week {
		week[i] = cellStyle.Render("")
	}
	for i, day := range m.days {
		week[day.WeekdayIndex] = m.renderCell(i, day, sol)
		if day.WeekdayIndex == 6 || i == len(m.days)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, week...))
			for j := range week {
				week[j] = cellStyle.Render("")
			}
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCell(idx int, day almanac.Day, sol *solver.Solution) string {
	label := fmt.Sprintf("%d", day.Date.Day())
	if day.IsNationalHoliday {
		label += " 祝"
	}
	dateStyle := styles.DayStyle(day.WeekdayIndex, day.IsNationalHoliday)
	if idx == m.cursor {
		dateStyle = styles.SelectedDayStyle
	}

	names := ""
	if sol != nil {
		names = strings.Join(sol.Schedule[day.Date], "・")
	}
	names = truncate.StringWithTail(names, cellWidth-2, "…")

	return cellStyle.Render(dateStyle.Render(label) + "\n" + namesStyle.Render(names))
}

func (m Model) renderCounts() string {
	sol := m.current()
	if sol == nil || len(sol.Counts) == 0 {
		return ""
	}

	staff, err := m.services.Config.StaffList()
	if err != nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.WeekdayHeaderStyle.Render("当直回数"))
	for _, s := range staff {
		count, ok := sol.Counts[s.Name()]
		if !ok {
			continue
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color()))
		fmt.Fprintf(&b, "\n%s %d", style.Render(s.Name()), count)
	}
	for _, line := range sol.Relaxations {
		b.WriteString("\n")
		b.WriteString(relaxedStyle.Render(wordwrap.String("! "+line, 24)))
	}
	return countsBoxStyle.Render(b.String())
}

func (m Model) renderDiff() string {
	width := m.width - 7*cellWidth - 6
	if width < 20 {
		width = 20
	}
	text := wordwrap.String(m.diffText, width)
	return diffBoxStyle.Render("vs saved roster (esc to close)\n" + text)
}

func (m Model) renderStatusBar() string {
	status := m.status
	if m.generating {
		status = m.spinner.View() + " " + status
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	return styles.StatusBarStyle.Render(wordwrap.String(status, width-2))
}
