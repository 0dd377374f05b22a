package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"tooban/internal/almanac"
	"tooban/internal/fsatomic"
	"tooban/internal/log"
)

// Grid colors follow the conventional Japanese calendar scheme: Saturdays
// in blue, Sundays and national holidays in red.
const (
	colorSaturday   = "1E90FF"
	colorSunday     = "FF0000"
	colorHeaderFill = "EAF1DD"
	colorMultiFill  = "FFFFE0"
	colorBorder     = "999999"
)

// WriteExcel renders the sheet as a one-month calendar grid workbook and
// writes it atomically to path.
func WriteExcel(path string, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	name := fmt.Sprintf("%04d-%02d", s.Year, s.Month)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if err := f.SetColWidth(name, "A", "G", 16); err != nil {
		return fmt.Errorf("setting column widths: %w", err)
	}

	st, err := newExcelStyles(f)
	if err != nil {
		return err
	}

	row := 1
	if err := writeExcelHeader(f, name, s, st, &row); err != nil {
		return err
	}
	if err := writeExcelWeeks(f, name, s, st, &row); err != nil {
		return err
	}
	if err := writeExcelCounts(f, name, s, st, &row); err != nil {
		return err
	}
	return flushExcel(f, path)
}

// WriteExcelList renders the sheet as a one-row-per-day list workbook and
// writes it atomically to path.
func WriteExcelList(path string, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	name := fmt.Sprintf("%04d-%02d", s.Year, s.Month)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	for col, width := range map[string]float64{"A": 14, "B": 10, "C": 32} {
		if err := f.SetColWidth(name, col, col, width); err != nil {
			return fmt.Errorf("setting column widths: %w", err)
		}
	}

	st, err := newExcelStyles(f)
	if err != nil {
		return err
	}

	row := 1
	title := fmt.Sprintf("%s %d年%d月", s.Title, s.Year, int(s.Month))
	if err := f.MergeCell(name, cellName(1, row), cellName(3, row)); err != nil {
		return fmt.Errorf("merging title row: %w", err)
	}
	if err := f.SetCellValue(name, cellName(1, row), title); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, cellName(1, row), cellName(3, row), st.title); err != nil {
		return err
	}
	if err := f.SetRowHeight(name, row, 24); err != nil {
		return err
	}
	row++

	for i, label := range []string{"日付", "曜日", "担当"} {
		cell := cellName(i+1, row)
		if err := f.SetCellValue(name, cell, label); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell, cell, st.header); err != nil {
			return err
		}
	}
	row++

	for _, day := range s.Days {
		if err := writeExcelListDay(f, name, s, st, day, row); err != nil {
			return err
		}
		row++
	}

	if err := writeExcelCounts(f, name, s, st, &row); err != nil {
		return err
	}
	return flushExcel(f, path)
}

func writeExcelListDay(f *excelize.File, sheet string, s Sheet, st excelStyles, day almanac.Day, row int) error {
	dateCell, weekdayCell, nameCell := cellName(1, row), cellName(2, row), cellName(3, row)
	if err := f.SetCellValue(sheet, dateCell, day.Date.Format("2006-01-02")); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, dateCell, dateCell, st.date); err != nil {
		return err
	}

	label := day.Weekday
	style := st.date
	switch {
	case day.IsNationalHoliday:
		label += "・祝"
		style = st.dateSun
	case day.WeekdayIndex == 6:
		style = st.dateSun
	case day.WeekdayIndex == 5:
		style = st.dateSat
	}
	if err := f.SetCellValue(sheet, weekdayCell, label); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, weekdayCell, weekdayCell, style); err != nil {
		return err
	}

	names := s.Names(day.Date)
	namesStyle := st.names
	if len(names) > 1 {
		namesStyle = st.namesFill
	}
	if err := f.SetCellStyle(sheet, nameCell, nameCell, namesStyle); err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	if err := f.SetCellRichText(sheet, nameCell, nameRuns(s, names)); err != nil {
		return fmt.Errorf("writing names for %s: %w", day.Date.Format("2006-01-02"), err)
	}
	return nil
}

func flushExcel(f *excelize.File, path string) error {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("serializing workbook: %w", err)
	}
	if err := fsatomic.WriteFile(path, buf.Bytes(), fsatomic.Options{Perm: 0o644}); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	log.Info(log.CatExport, "excel export written", "path", path)
	return nil
}

type excelStyles struct {
	title     int
	header    int
	headerSat int
	headerSun int
	date      int
	dateSat   int
	dateSun   int
	names     int
	namesFill int
	countHead int
	count     int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var st excelStyles
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	type def struct {
		dst   *int
		style *excelize.Style
	}
	defs := []def{
		{&st.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: center,
		}},
		{&st.header, &excelize.Style{
			Font: &excelize.Font{Bold: true}, Fill: fill(colorHeaderFill),
			Alignment: center, Border: excelBorders(),
		}},
		{&st.headerSat, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: colorSaturday}, Fill: fill(colorHeaderFill),
			Alignment: center, Border: excelBorders(),
		}},
		{&st.headerSun, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: colorSunday}, Fill: fill(colorHeaderFill),
			Alignment: center, Border: excelBorders(),
		}},
		{&st.date, &excelize.Style{Alignment: center, Border: excelBorders()}},
		{&st.dateSat, &excelize.Style{
			Font: &excelize.Font{Color: colorSaturday}, Alignment: center, Border: excelBorders(),
		}},
		{&st.dateSun, &excelize.Style{
			Font: &excelize.Font{Color: colorSunday}, Alignment: center, Border: excelBorders(),
		}},
		{&st.names, &excelize.Style{Alignment: center, Border: excelBorders()}},
		{&st.namesFill, &excelize.Style{
			Fill: fill(colorMultiFill), Alignment: center, Border: excelBorders(),
		}},
		{&st.countHead, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&st.count, &excelize.Style{Border: excelBorders()}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("building cell style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

func excelBorders() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		borders = append(borders, excelize.Border{Type: side, Color: colorBorder, Style: 1})
	}
	return borders
}

func writeExcelHeader(f *excelize.File, sheet string, s Sheet, st excelStyles, row *int) error {
	title := fmt.Sprintf("%s %d年%d月", s.Title, s.Year, int(s.Month))
	if err := f.MergeCell(sheet, cellName(1, *row), cellName(7, *row)); err != nil {
		return fmt.Errorf("merging title row: %w", err)
	}
	if err := f.SetCellValue(sheet, cellName(1, *row), title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cellName(1, *row), cellName(7, *row), st.title); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, *row, 24); err != nil {
		return err
	}
	*row++

	for i, label := range almanac.WeekdayLabels {
		cell := cellName(i+1, *row)
		if err := f.SetCellValue(sheet, cell, label); err != nil {
			return err
		}
		style := st.header
		switch i {
		case 5:
			style = st.headerSat
		case 6:
			style = st.headerSun
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	*row++
	return nil
}

func writeExcelWeeks(f *excelize.File, sheet string, s Sheet, st excelStyles, row *int) error {
	for _, week := range s.weeks() {
		dateRow, nameRow := *row, *row+1
		if err := f.SetRowHeight(sheet, nameRow, 36); err != nil {
			return err
		}
		for col, day := range week {
			dateCell := cellName(col+1, dateRow)
			nameCell := cellName(col+1, nameRow)
			if err := f.SetCellStyle(sheet, dateCell, dateCell, st.date); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, nameCell, nameCell, st.names); err != nil {
				return err
			}
			if day == nil {
				continue
			}

			label := fmt.Sprintf("%d", day.Date.Day())
			dateStyle := st.date
			switch {
			case day.IsNationalHoliday:
				label += " 祝"
				dateStyle = st.dateSun
			case day.WeekdayIndex == 6:
				dateStyle = st.dateSun
			case day.WeekdayIndex == 5:
				dateStyle = st.dateSat
			}
			if err := f.SetCellValue(sheet, dateCell, label); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, dateCell, dateCell, dateStyle); err != nil {
				return err
			}

			names := s.Names(day.Date)
			if len(names) > 1 {
				if err := f.SetCellStyle(sheet, nameCell, nameCell, st.namesFill); err != nil {
					return err
				}
			}
			if len(names) == 0 {
				continue
			}
			if err := f.SetCellRichText(sheet, nameCell, nameRuns(s, names)); err != nil {
				return fmt.Errorf("writing names for %s: %w", day.Date.Format("2006-01-02"), err)
			}
		}
		*row += 2
	}
	return nil
}

// nameRuns renders each staff name in its configured color, one per line.
func nameRuns(s Sheet, names []string) []excelize.RichTextRun {
	runs := make([]excelize.RichTextRun, 0, len(names)*2)
	for i, name := range names {
		if i > 0 {
			runs = append(runs, excelize.RichTextRun{Text: "\n"})
		}
		run := excelize.RichTextRun{Text: name}
		if color := strings.TrimPrefix(s.ColorOf(name), "#"); color != "" {
			run.Font = &excelize.Font{Color: color}
		}
		runs = append(runs, run)
	}
	return runs
}

func writeExcelCounts(f *excelize.File, sheet string, s Sheet, st excelStyles, row *int) error {
	rows := s.CountRows()
	if len(rows) == 0 {
		return nil
	}
	*row++ // blank spacer
	head := cellName(1, *row)
	if err := f.SetCellValue(sheet, head, "当直回数"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, head, head, st.countHead); err != nil {
		return err
	}
	*row++
	for _, cr := range rows {
		nameCell, countCell := cellName(1, *row), cellName(2, *row)
		if err := f.SetCellValue(sheet, nameCell, cr.Name); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, countCell, cr.Count); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, nameCell, countCell, st.count); err != nil {
			return err
		}
		*row++
	}
	return nil
}

func cellName(col, row int) string {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		// Coordinates here are always >= 1.
		panic(err)
	}
	return cell
}
