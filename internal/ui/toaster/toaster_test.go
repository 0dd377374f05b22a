package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowAndHide(t *testing.T) {
	m := New()
	assert.False(t, m.Visible())
	assert.Empty(t, m.View())

	m = m.Show("roster saved", StyleSuccess)
	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "✅ roster saved")

	m = m.Hide()
	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestViewStyles(t *testing.T) {
	tests := []struct {
		style Style
		icon  string
	}{
		{StyleSuccess, "✅"},
		{StyleError, "❌"},
		{StyleInfo, "ℹ️"},
		{StyleWarn, "⚠️"},
	}
	for _, tt := range tests {
		m := New().Show("message", tt.style)
		assert.Contains(t, m.View(), tt.icon)
	}
}

func TestOverlay(t *testing.T) {
	bg := strings.Repeat(strings.Repeat(".", 40)+"\n", 9) + strings.Repeat(".", 40)

	m := New().SetSize(40, 10)
	assert.Equal(t, bg, m.Overlay(bg, 40, 10), "hidden toast leaves background untouched")

	m = m.Show("exported", StyleInfo)
	out := m.Overlay(bg, 40, 10)
	assert.Contains(t, out, "exported")
	require.Len(t, strings.Split(out, "\n"), 10)
}

func TestScheduleDismiss(t *testing.T) {
	cmd := ScheduleDismiss(time.Millisecond)
	require.NotNil(t, cmd)
	msg := cmd()
	assert.IsType(t, DismissMsg{}, msg)
}
