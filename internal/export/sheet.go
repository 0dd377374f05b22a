// Package export renders a finished roster as an Excel workbook, a PDF
// document, or plain text. All file output goes through the atomic writer
// so a failed export never clobbers a previous one.
package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tooban/internal/almanac"
	"tooban/internal/roster"
	"tooban/internal/solver"
)

// Sheet is the renderer-independent view of one month's roster.
type Sheet struct {
	Title string
	Year  int
	Month time.Month
	Days  []almanac.Day

	schedule map[time.Time][]string
	counts   map[string]int
	colors   map[string]string
	order    []string
}

// NewSheet assembles a Sheet from a solved month. The staff slice supplies
// display order and per-staff colors; names in the solution that are not in
// the slice still render, with no color.
func NewSheet(title string, days []almanac.Day, sol solver.Solution, staff []roster.Staff) Sheet {
	s := Sheet{
		Title:    title,
		Year:     sol.Year,
		Month:    sol.Month,
		Days:     days,
		schedule: make(map[time.Time][]string, len(sol.Schedule)),
		counts:   make(map[string]int, len(sol.Counts)),
		colors:   make(map[string]string, len(staff)),
	}
	for date, names := range sol.Schedule {
		s.schedule[date] = append([]string(nil), names...)
	}
	for name, n := range sol.Counts {
		s.counts[name] = n
	}
	for _, st := range staff {
		s.colors[st.Name()] = st.Color()
		s.order = append(s.order, st.Name())
	}
	return s
}

// Names returns the staff assigned on date, in a stable order.
func (s Sheet) Names(date time.Time) []string {
	names := append([]string(nil), s.schedule[date]...)
	rank := make(map[string]int, len(s.order))
	for i, n := range s.order {
		rank[n] = i
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, iok := rank[names[i]]
		rj, jok := rank[names[j]]
		if iok != jok {
			return iok
		}
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

// ColorOf returns the hex color configured for name, or "" when unknown.
func (s Sheet) ColorOf(name string) string {
	return s.colors[name]
}

// CountRows returns per-staff duty totals in display order, followed by any
// names the staff list does not cover.
func (s Sheet) CountRows() []CountRow {
	var rows []CountRow
	seen := make(map[string]bool, len(s.order))
	for _, name := range s.order {
		if n, ok := s.counts[name]; ok {
			rows = append(rows, CountRow{Name: name, Count: n})
			seen[name] = true
		}
	}
	var extra []string
	for name := range s.counts {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		rows = append(rows, CountRow{Name: name, Count: s.counts[name]})
	}
	return rows
}

// CountRow is one line of the duty-count summary.
type CountRow struct {
	Name  string
	Count int
}

// weeks lays the month out as Monday-first calendar rows. Cells before the
// first day and after the last are nil.
func (s Sheet) weeks() [][]*almanac.Day {
	var rows [][]*almanac.Day
	row := make([]*almanac.Day, 7)
	for i := range s.Days {
		d := &s.Days[i]
		row[d.WeekdayIndex] = d
		if d.WeekdayIndex == 6 {
			rows = append(rows, row)
			row = make([]*almanac.Day, 7)
		}
	}
	for _, c := range row {
		if c != nil {
			rows = append(rows, row)
			break
		}
	}
	return rows
}

// FileName builds a safe default export file name such as
// "シフト表_2026-06.xlsx". Path separators in the title are replaced.
func FileName(title string, year int, month time.Month, ext string) string {
	title = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(title))
	if title == "" {
		title = "roster"
	}
	return fmt.Sprintf("%s_%04d-%02d.%s", title, year, month, ext)
}
