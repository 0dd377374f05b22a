package logview

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"tooban/internal/log"
)

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestToggleAndView(t *testing.T) {
	m := New().SetSize(80, 30)
	assert.False(t, m.Visible())
	assert.Empty(t, m.View())

	m = m.Append("2026-08-26T10:00:00 [INFO] [config] config loaded\n")
	m = m.Toggle()
	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "config loaded")

	m = m.Toggle()
	assert.False(t, m.Visible())
}

func TestEscapeCloses(t *testing.T) {
	m := New().SetSize(80, 30).Toggle()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	assert.False(t, m.Visible())
}

func TestLevelFilter(t *testing.T) {
	m := New().SetSize(80, 30)
	m = m.Append("ts [DEBUG] [cache] cache hit")
	m = m.Append("ts [ERROR] [solver] no feasible roster")
	m = m.Toggle()

	view := m.View()
	assert.Contains(t, view, "cache hit")
	assert.Contains(t, view, "no feasible roster")

	m, _ = m.Update(keyPress('e'))
	view = m.View()
	assert.NotContains(t, view, "cache hit")
	assert.Contains(t, view, "no feasible roster")
}

func TestClear(t *testing.T) {
	m := New().SetSize(80, 30)
	m = m.Append("ts [INFO] [ui] something happened")
	m = m.Toggle()

	m, _ = m.Update(keyPress('c'))
	assert.Contains(t, m.View(), "No logs to display")
}

func TestAppendEvictsOldEntries(t *testing.T) {
	m := New().SetSize(80, 30)
	for i := 0; i < maxEntries+10; i++ {
		m = m.Append(fmt.Sprintf("ts [INFO] [ui] entry %d", i))
	}
	assert.Len(t, m.entries, maxEntries)
	assert.Equal(t, "ts [INFO] [ui] entry 10", m.entries[0])
}

func TestEntryLevel(t *testing.T) {
	assert.Equal(t, log.LevelDebug, entryLevel("x [DEBUG] y"))
	assert.Equal(t, log.LevelWarn, entryLevel("x [WARN] y"))
	// Unparseable lines survive every filter.
	assert.Equal(t, log.LevelError, entryLevel("panic: something"))
}

func TestOverlayCentersOnBackground(t *testing.T) {
	bg := strings.TrimRight(strings.Repeat(strings.Repeat(".", 80)+"\n", 30), "\n")
	m := New().SetSize(80, 30)
	m = m.Append("ts [INFO] [ui] visible entry")
	m = m.Toggle()

	out := m.Overlay(bg)
	assert.Contains(t, out, "visible entry")
	assert.Len(t, strings.Split(out, "\n"), 30)
}
