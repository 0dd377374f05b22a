package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tooban/internal/almanac"
	"tooban/internal/roster"
	"tooban/internal/solver"
)

func testSheet(t *testing.T) Sheet {
	t.Helper()
	days, err := almanac.New().Month(2026, time.June)
	require.NoError(t, err)

	aoki, err := roster.NewStaff("青木", "#10B981", nil, true)
	require.NoError(t, err)
	baba, err := roster.NewStaff("馬場", "#54A0FF", nil, true)
	require.NoError(t, err)

	sol := solver.Solution{
		Year:  2026,
		Month: time.June,
		Schedule: map[time.Time][]string{
			almanac.DateOf(2026, time.June, 1): {"青木"},
			almanac.DateOf(2026, time.June, 2): {"馬場", "青木"},
		},
		Counts: map[string]int{"青木": 2, "馬場": 1},
	}
	return NewSheet("シフト表", days, sol, []roster.Staff{aoki, baba})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "シフト表_2026-06.xlsx", FileName("シフト表", 2026, time.June, "xlsx"))
	assert.Equal(t, "a_b_2026-12.pdf", FileName("a/b", 2026, time.December, "pdf"))
	assert.Equal(t, "roster_2026-06.txt", FileName("  ", 2026, time.June, "txt"))
}

func TestSheetNamesFollowStaffOrder(t *testing.T) {
	s := testSheet(t)
	assert.Equal(t, []string{"青木", "馬場"}, s.Names(almanac.DateOf(2026, time.June, 2)))
	assert.Empty(t, s.Names(almanac.DateOf(2026, time.June, 3)))
	assert.Equal(t, "#10B981", s.ColorOf("青木"))
	assert.Equal(t, "", s.ColorOf("不明"))
}

func TestSheetCountRows(t *testing.T) {
	s := testSheet(t)
	s.counts["千葉"] = 3 // not in the staff list, sorts after it
	rows := s.CountRows()
	require.Len(t, rows, 3)
	assert.Equal(t, CountRow{Name: "青木", Count: 2}, rows[0])
	assert.Equal(t, CountRow{Name: "馬場", Count: 1}, rows[1])
	assert.Equal(t, CountRow{Name: "千葉", Count: 3}, rows[2])
}

func TestRenderList(t *testing.T) {
	out := RenderList(testSheet(t))
	assert.Contains(t, out, "シフト表 2026年6月")
	assert.Contains(t, out, "2026-06-01 (月)  青木")
	assert.Contains(t, out, "2026-06-02 (火)  青木・馬場")
	assert.Contains(t, out, "2026-06-06 (土)  \n")
	assert.Contains(t, out, "当直回数")
	assert.Contains(t, out, "青木 2")
}

func TestRenderGridAligns(t *testing.T) {
	out := RenderGrid(testSheet(t))
	assert.Contains(t, out, "月")
	assert.Contains(t, out, "青木・馬場")

	// Every calendar line must have the same display width regardless of
	// how many double-width runes it holds.
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 3)
	sepWidth := runewidth.StringWidth(lines[1])
	for _, line := range lines[1:] {
		if line == "" || strings.HasPrefix(line, "当直回数") {
			break
		}
		assert.LessOrEqual(t, runewidth.StringWidth(line), sepWidth, "line %q", line)
	}
}

func TestWriteExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "roster.xlsx")
	require.NoError(t, WriteExcel(path, testSheet(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"2026-06"}, f.GetSheetList())

	title, err := f.GetCellValue("2026-06", "A1")
	require.NoError(t, err)
	assert.Equal(t, "シフト表 2026年6月", title)

	mon, err := f.GetCellValue("2026-06", "A2")
	require.NoError(t, err)
	assert.Equal(t, "月", mon)

	// June 2026 starts on a Monday, so day 1 sits in the first calendar
	// row: dates on row 3, names on row 4.
	day1, err := f.GetCellValue("2026-06", "A3")
	require.NoError(t, err)
	assert.Equal(t, "1", day1)

	names1, err := f.GetCellValue("2026-06", "A4")
	require.NoError(t, err)
	assert.Equal(t, "青木", names1)

	names2, err := f.GetCellValue("2026-06", "B4")
	require.NoError(t, err)
	assert.Contains(t, names2, "青木")
	assert.Contains(t, names2, "馬場")

	head, err := f.GetCellValue("2026-06", "A14")
	require.NoError(t, err)
	assert.Equal(t, "当直回数", head)
}

func TestWriteExcelList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, WriteExcelList(path, testSheet(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"2026-06"}, f.GetSheetList())

	title, err := f.GetCellValue("2026-06", "A1")
	require.NoError(t, err)
	assert.Equal(t, "シフト表 2026年6月", title)

	for cell, want := range map[string]string{"A2": "日付", "B2": "曜日", "C2": "担当"} {
		got, err := f.GetCellValue("2026-06", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// One row per day from row 3 on.
	date1, err := f.GetCellValue("2026-06", "A3")
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01", date1)

	names1, err := f.GetCellValue("2026-06", "C3")
	require.NoError(t, err)
	assert.Equal(t, "青木", names1)

	names2, err := f.GetCellValue("2026-06", "C4")
	require.NoError(t, err)
	assert.Contains(t, names2, "青木")
	assert.Contains(t, names2, "馬場")

	saturday, err := f.GetCellValue("2026-06", "B8")
	require.NoError(t, err)
	assert.Equal(t, "土", saturday)

	// 30 day rows end at row 32; the count block follows a blank spacer.
	head, err := f.GetCellValue("2026-06", "A34")
	require.NoError(t, err)
	assert.Equal(t, "当直回数", head)
}

func TestWritePDFList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.pdf")
	require.NoError(t, WritePDFList(path, testSheet(t), PDFOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestWriteExcelReplacesAndBacksUpNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, WriteExcel(path, testSheet(t)))
	require.NoError(t, WriteExcel(path, testSheet(t)))

	_, err := os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestWritePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.pdf")
	require.NoError(t, WritePDF(path, testSheet(t), PDFOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestWritePDFMissingFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.pdf")
	err := WritePDF(path, testSheet(t), PDFOptions{FontPath: filepath.Join(t.TempDir(), "nope.ttf")})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
