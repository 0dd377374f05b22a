package export

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"tooban/internal/almanac"
)

const minGridCellWidth = 8

// RenderGrid renders the sheet as a Monday-first plain-text calendar.
// Column widths are computed with display widths, so CJK names line up.
func RenderGrid(s Sheet) string {
	weeks := s.weeks()
	dateCells := make([][7]string, len(weeks))
	nameCells := make([][7]string, len(weeks))
	width := minGridCellWidth
	for wi, week := range weeks {
		for ci, day := range week {
			if day == nil {
				continue
			}
			date := fmt.Sprintf("%d", day.Date.Day())
			if day.IsNationalHoliday {
				date += " 祝"
			}
			names := strings.Join(s.Names(day.Date), "・")
			dateCells[wi][ci] = date
			nameCells[wi][ci] = names
			if w := runewidth.StringWidth(names); w > width {
				width = w
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d年%d月\n", s.Title, s.Year, int(s.Month))
	sep := strings.Repeat("-", (width+2)*7)
	b.WriteString(sep)
	b.WriteByte('\n')
	for _, label := range almanac.WeekdayLabels {
		b.WriteString(runewidth.FillRight(label, width+2))
	}
	b.WriteByte('\n')
	b.WriteString(sep)
	b.WriteByte('\n')
	for wi := range weeks {
		for _, line := range [][7]string{dateCells[wi], nameCells[wi]} {
			for _, cell := range line {
				b.WriteString(runewidth.FillRight(cell, width+2))
			}
			b.WriteByte('\n')
		}
		b.WriteString(sep)
		b.WriteByte('\n')
	}
	writeTextCounts(&b, s)
	return b.String()
}

// RenderList renders the sheet as one line per day, followed by the
// per-staff duty counts.
func RenderList(s Sheet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d年%d月\n", s.Title, s.Year, int(s.Month))
	for _, day := range s.Days {
		label := day.Weekday
		if day.IsNationalHoliday {
			label += "・祝"
		}
		fmt.Fprintf(&b, "%s (%s)  %s\n", day.Date.Format("2006-01-02"), label, strings.Join(s.Names(day.Date), "・"))
	}
	writeTextCounts(&b, s)
	return b.String()
}

func writeTextCounts(b *strings.Builder, s Sheet) {
	rows := s.CountRows()
	if len(rows) == 0 {
		return
	}
	nameWidth := 0
	for _, cr := range rows {
		if w := runewidth.StringWidth(cr.Name); w > nameWidth {
			nameWidth = w
		}
	}
	b.WriteString("\n当直回数\n")
	for _, cr := range rows {
		fmt.Fprintf(b, "%s %d\n", runewidth.FillRight(cr.Name, nameWidth), cr.Count)
	}
}
