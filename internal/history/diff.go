package history

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"tooban/internal/almanac"
)

// RenderText lays a run out one day per line, in a stable form suitable
// both for display and for diffing two revisions of a month.
func RenderText(run *Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d-%02d\n", run.Year, int(run.Month))
	for _, date := range run.Dates() {
		label := almanac.WeekdayLabels[almanac.WeekdayIndexOf(date.Weekday())]
		names := run.Schedule[date]
		fmt.Fprintf(&b, "%s (%s)  %s\n", date.Format(dayFormat), label, strings.Join(names, " "))
	}
	return b.String()
}

// Diff returns a unified-style line diff between two runs: removed lines
// prefixed with "-", added with "+", context with two spaces.
func Diff(before, after *Run) string {
	oldText := RenderText(before)
	newText := RenderText(after)
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.String()
}
