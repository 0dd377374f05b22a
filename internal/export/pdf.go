package export

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"tooban/internal/almanac"
	"tooban/internal/fsatomic"
	"tooban/internal/log"
)

// PDFOptions controls PDF rendering.
type PDFOptions struct {
	// FontPath is a TTF file with CJK glyphs. The built-in core fonts
	// cannot render Japanese, so without one the staff names and weekday
	// labels degrade to replacement glyphs.
	FontPath string
}

// WritePDF renders the sheet as a landscape A4 calendar grid and writes it
// atomically to path.
func WritePDF(path string, s Sheet, opts PDFOptions) error {
	pdf, family, err := newRosterPDF("L", path, opts)
	if err != nil {
		return err
	}

	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	cellW := (pageW - 20) / 7

	pdf.SetFont(family, "", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s %d年%d月", s.Title, s.Year, int(s.Month)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	writePDFWeekdayHeader(pdf, family, cellW)
	for _, week := range s.weeks() {
		writePDFWeek(pdf, s, family, cellW, week)
	}
	writePDFCounts(pdf, s, family)
	return flushPDF(pdf, path)
}

// WritePDFList renders the sheet as a portrait A4 day list and writes it
// atomically to path.
func WritePDFList(path string, s Sheet, opts PDFOptions) error {
	pdf, family, err := newRosterPDF("P", path, opts)
	if err != nil {
		return err
	}

	pdf.SetMargins(15, 12, 15)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont(family, "", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s %d年%d月", s.Title, s.Year, int(s.Month)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(family, "", 11)
	setPDFFill(pdf, colorHeaderFill)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(35, 8, "日付", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 8, "曜日", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 8, "担当", "1", 1, "C", true, 0, "")

	pdf.SetFont(family, "", 10)
	setPDFFill(pdf, colorMultiFill)
	for _, day := range s.Days {
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(35, 7, day.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")

		label := day.Weekday
		switch {
		case day.IsNationalHoliday:
			label += "・祝"
			setPDFText(pdf, colorSunday)
		case day.WeekdayIndex == 6:
			setPDFText(pdf, colorSunday)
		case day.WeekdayIndex == 5:
			setPDFText(pdf, colorSaturday)
		}
		pdf.CellFormat(20, 7, label, "1", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)

		names := s.Names(day.Date)
		pdf.CellFormat(0, 7, strings.Join(names, "・"), "1", 1, "L", len(names) > 1, 0, "")
	}

	writePDFCounts(pdf, s, family)
	return flushPDF(pdf, path)
}

func newRosterPDF(orientation, path string, opts PDFOptions) (*fpdf.Fpdf, string, error) {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	if opts.FontPath == "" {
		log.Warn(log.CatExport, "no pdf_font configured, Japanese text will not render", "path", path)
		return pdf, "Helvetica", nil
	}
	data, err := os.ReadFile(opts.FontPath)
	if err != nil {
		return nil, "", fmt.Errorf("loading pdf font: %w", err)
	}
	pdf.AddUTF8FontFromBytes("roster", "", data)
	return pdf, "roster", nil
}

func flushPDF(pdf *fpdf.Fpdf, path string) error {
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("serializing pdf: %w", err)
	}
	if err := fsatomic.WriteFile(path, buf.Bytes(), fsatomic.Options{Perm: 0o644}); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	log.Info(log.CatExport, "pdf export written", "path", path)
	return nil
}

func writePDFWeekdayHeader(pdf *fpdf.Fpdf, family string, cellW float64) {
	pdf.SetFont(family, "", 11)
	setPDFFill(pdf, colorHeaderFill)
	for i, label := range almanac.WeekdayLabels {
		switch i {
		case 5:
			setPDFText(pdf, colorSaturday)
		case 6:
			setPDFText(pdf, colorSunday)
		default:
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.CellFormat(cellW, 8, label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
}

func writePDFWeek(pdf *fpdf.Fpdf, s Sheet, family string, cellW float64, week []*almanac.Day) {
	pdf.SetFont(family, "", 10)
	for _, day := range week {
		label := ""
		pdf.SetTextColor(0, 0, 0)
		if day != nil {
			label = strconv.Itoa(day.Date.Day())
			switch {
			case day.IsNationalHoliday:
				label += " 祝"
				setPDFText(pdf, colorSunday)
			case day.WeekdayIndex == 6:
				setPDFText(pdf, colorSunday)
			case day.WeekdayIndex == 5:
				setPDFText(pdf, colorSaturday)
			}
		}
		pdf.CellFormat(cellW, 6, label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	setPDFFill(pdf, colorMultiFill)
	for _, day := range week {
		var names []string
		if day != nil {
			names = s.Names(day.Date)
		}
		pdf.CellFormat(cellW, 12, strings.Join(names, "・"), "1", 0, "C", len(names) > 1, 0, "")
	}
	pdf.Ln(-1)
}

func writePDFCounts(pdf *fpdf.Fpdf, s Sheet, family string) {
	rows := s.CountRows()
	if len(rows) == 0 {
		return
	}
	pdf.Ln(4)
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 7, "当直回数", "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 10)
	for _, cr := range rows {
		pdf.CellFormat(40, 6, cr.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, strconv.Itoa(cr.Count), "1", 1, "R", false, 0, "")
	}
}

func setPDFFill(pdf *fpdf.Fpdf, hex string) {
	r, g, b := rgb(hex)
	pdf.SetFillColor(r, g, b)
}

func setPDFText(pdf *fpdf.Fpdf, hex string) {
	r, g, b := rgb(hex)
	pdf.SetTextColor(r, g, b)
}

// rgb parses an RRGGBB hex color, with or without a leading '#'.
func rgb(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}
