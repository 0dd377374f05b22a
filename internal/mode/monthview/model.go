// Package monthview is the main mode: a calendar grid of the month's
// roster with generation, diffing, and export actions.
package monthview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tooban/internal/almanac"
	"tooban/internal/export"
	"tooban/internal/history"
	"tooban/internal/keys"
	"tooban/internal/log"
	"tooban/internal/mode"
	"tooban/internal/solver"
	"tooban/internal/ui/help"
	"tooban/internal/ui/styles"
	"tooban/internal/ui/toaster"
)

// Model holds the month view state.
type Model struct {
	services mode.Services
	keys     keys.KeyMap

	year  int
	month time.Month
	days  []almanac.Day

	cursor int // index into days

	solutions []solver.Solution
	solIdx    int
	saved     *history.Run

	diffText string

	generating bool
	spinner    spinner.Model
	status     string

	showCounts bool
	showStatus bool
	helpOpen   bool
	help       help.Model

	width  int
	height int
}

// Messages produced by this mode's commands.
type (
	monthLoadedMsg struct {
		days  []almanac.Day
		saved *history.Run
		err   error
	}
	generatedMsg struct {
		solutions []solver.Solution
		saved     *history.Run
		err       error
	}
	exportedMsg struct {
		path string
		err  error
	}
	diffMsg struct {
		text string
		err  error
	}
)

// ConfigReloadedMsg tells the view the config file changed on disk.
type ConfigReloadedMsg struct{}

// New creates the month view for the current month.
func New(services mode.Services) Model {
	now := time.Now()
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.SpinnerColor)),
	)
	return Model{
		services:   services,
		keys:       keys.DefaultKeyMap(),
		year:       now.Year(),
		month:      now.Month(),
		spinner:    sp,
		showCounts: services.Config.UI.ShowCounts,
		showStatus: services.Config.UI.ShowStatusBar,
		help:       help.New(),
		status:     "press g to generate a roster",
	}
}

// Init implements mode.Controller.
func (m Model) Init() tea.Cmd {
	return m.loadMonth()
}

// SetSize implements mode.Controller.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.help = m.help.SetSize(width, height)
	return m
}

// Year and Month expose the displayed month, mainly for tests.
func (m Model) Year() int { return m.year }

// Month returns the displayed month.
func (m Model) Month() time.Month { return m.month }

// Update implements mode.Controller.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case monthLoadedMsg:
		if msg.err != nil {
			return m, toastError(fmt.Sprintf("loading month failed: %v", msg.err))
		}
		m.days = msg.days
		m.saved = msg.saved
		if m.cursor >= len(m.days) {
			m.cursor = len(m.days) - 1
		}
		return m, nil

	case generatedMsg:
		return m.handleGenerated(msg)

	case exportedMsg:
		if msg.err != nil {
			return m, toastError(fmt.Sprintf("export failed: %v", msg.err))
		}
		m.status = "exported " + msg.path
		return m, toast("exported "+filepath.Base(msg.path), toaster.StyleSuccess)

	case diffMsg:
		if msg.err != nil {
			return m, toastError(fmt.Sprintf("diff failed: %v", msg.err))
		}
		if msg.text == "" {
			return m, toast("no changes against saved roster", toaster.StyleInfo)
		}
		m.diffText = msg.text
		return m, nil

	case ConfigReloadedMsg:
		m.showCounts = m.services.Config.UI.ShowCounts
		m.showStatus = m.services.Config.UI.ShowStatusBar
		m.solutions = nil
		m.solIdx = 0
		m.status = "config reloaded"
		return m, tea.Batch(m.loadMonth(), toast("config reloaded", toaster.StyleInfo))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	if m.helpOpen {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Escape) {
			m.helpOpen = false
		}
		return m, nil
	}
	if m.diffText != "" && key.Matches(msg, m.keys.Escape) {
		m.diffText = ""
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.helpOpen = true
		return m, nil

	case key.Matches(msg, m.keys.Left):
		m.cursor = clamp(m.cursor-1, 0, len(m.days)-1)
	case key.Matches(msg, m.keys.Right):
		m.cursor = clamp(m.cursor+1, 0, len(m.days)-1)
	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-7, 0, len(m.days)-1)
	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+7, 0, len(m.days)-1)

	case key.Matches(msg, m.keys.PrevMonth):
		return m.gotoMonth(m.year, m.month-1)
	case key.Matches(msg, m.keys.NextMonth):
		return m.gotoMonth(m.year, m.month+1)
	case key.Matches(msg, m.keys.Today):
		now := time.Now()
		return m.gotoMonth(now.Year(), now.Month())

	case key.Matches(msg, m.keys.Generate):
		if m.generating {
			return m, nil
		}
		m.generating = true
		m.status = fmt.Sprintf("solving %04d-%02d...", m.year, m.month)
		return m, tea.Batch(m.spinner.Tick, m.generate())

	case key.Matches(msg, m.keys.NextSolution):
		if len(m.solutions) > 1 {
			m.solIdx = (m.solIdx + 1) % len(m.solutions)
			m.status = fmt.Sprintf("candidate %d of %d", m.solIdx+1, len(m.solutions))
		}

	case key.Matches(msg, m.keys.ExportExcel):
		return m, m.export("xlsx")
	case key.Matches(msg, m.keys.ExportPDF):
		return m, m.export("pdf")

	case key.Matches(msg, m.keys.Diff):
		return m, m.diff()

	case key.Matches(msg, m.keys.ToggleCounts):
		m.showCounts = !m.showCounts
	case key.Matches(msg, m.keys.ToggleStatus):
		m.showStatus = !m.showStatus
	}
	return m, nil
}

func (m Model) handleGenerated(msg generatedMsg) (mode.Controller, tea.Cmd) {
	m.generating = false
	if msg.err != nil {
		var inf *solver.InfeasibleError
		if errors.As(msg.err, &inf) {
			m.status = inf.Report
			return m, toastError("no feasible roster, see report below")
		}
		m.status = msg.err.Error()
		return m, toastError(fmt.Sprintf("generation failed: %v", msg.err))
	}

	m.solutions = msg.solutions
	m.solIdx = 0
	if msg.saved != nil {
		m.saved = msg.saved
	}

	sol := m.solutions[0]
	if len(sol.Relaxations) > 0 {
		m.status = "generated with relaxed constraints: " + sol.Relaxations[0]
		return m, toast("roster generated with relaxed constraints", toaster.StyleWarn)
	}
	m.status = fmt.Sprintf("generated %d candidate(s)", len(m.solutions))
	return m, toast("roster generated", toaster.StyleSuccess)
}

func (m Model) gotoMonth(year int, month time.Month) (mode.Controller, tea.Cmd) {
	// time.Date normalizes month overflow in both directions.
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	m.year, m.month = t.Year(), t.Month()
	m.cursor = 0
	m.solutions = nil
	m.solIdx = 0
	m.saved = nil
	m.diffText = ""
	m.status = fmt.Sprintf("showing %04d-%02d", m.year, m.month)
	return m, m.loadMonth()
}

// current returns the roster on display: the freshest generated candidate,
// falling back to the saved run.
func (m Model) current() *solver.Solution {
	if len(m.solutions) > 0 {
		return &m.solutions[m.solIdx]
	}
	if m.saved != nil {
		return &solver.Solution{
			Year:     m.saved.Year,
			Month:    m.saved.Month,
			Schedule: m.saved.Schedule,
			Counts:   m.saved.Counts(),
		}
	}
	return nil
}

func (m Model) loadMonth() tea.Cmd {
	services := m.services
	year, month := m.year, m.month
	return func() tea.Msg {
		key := mode.MonthKey{Year: year, Month: month}
		days, err := services.Months.Get(context.Background(), key.String(), key, 24*time.Hour)
		if err != nil {
			return monthLoadedMsg{err: err}
		}

		var saved *history.Run
		if services.Repo != nil {
			run, err := services.Repo.LatestForMonth(year, month)
			switch {
			case err == nil:
				saved = run
			case !isNotFound(err):
				log.Warn(log.CatUI, "loading saved roster failed", "error", err)
			}
		}
		return monthLoadedMsg{days: days, saved: saved}
	}
}

func (m Model) generate() tea.Cmd {
	services := m.services
	year, month := m.year, m.month
	days := m.days
	return func() tea.Msg {
		cfg := *services.Config
		reg, err := cfg.StaffRegistry()
		if err != nil {
			return generatedMsg{err: err}
		}
		if reg.Len() == 0 {
			return generatedMsg{err: errors.New("no staff configured, add staff to the config file")}
		}
		staff := reg.Active()
		if len(staff) == 0 {
			return generatedMsg{err: errors.New("all staff are disabled, enable at least one")}
		}

		opts := cfg.SolverOptions()
		if services.Repo != nil {
			carry, err := services.Repo.CarryoverFor(year, month)
			if err != nil {
				log.Warn(log.CatUI, "loading carryover failed", "error", err)
			} else {
				opts.Carryover = carry
			}
			if opts.Disperse {
				past, err := services.Repo.PastSchedules(almanac.DateOf(year, month, 1), 90)
				if err != nil {
					log.Warn(log.CatUI, "loading past schedules failed", "error", err)
				} else {
					opts.PastSchedules = past
				}
			}
		}

		sols, err := solver.New(staff, days).Solve(context.Background(), opts)
		if err != nil {
			return generatedMsg{err: err}
		}

		var saved *history.Run
		if services.Repo != nil {
			run := history.NewRun(sols[0])
			if err := services.Repo.Save(run); err != nil {
				log.ErrorErr(log.CatUI, "saving roster failed", err)
			} else {
				saved = run
			}
		}
		return generatedMsg{solutions: sols, saved: saved}
	}
}

func (m Model) export(ext string) tea.Cmd {
	sol := m.current()
	if sol == nil {
		return toastError("nothing to export, generate a roster first")
	}
	services := m.services
	days := m.days
	return func() tea.Msg {
		cfg := *services.Config
		staff, err := cfg.StaffList()
		if err != nil {
			return exportedMsg{err: err}
		}

		sheet := export.NewSheet(cfg.Export.Title, days, *sol, staff)
		dir := cfg.Export.OutputDir
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, export.FileName(cfg.Export.Title, sol.Year, sol.Month, ext))

		switch ext {
		case "pdf":
			err = export.WritePDF(path, sheet, export.PDFOptions{FontPath: cfg.Export.PDFFont})
		default:
			err = export.WriteExcel(path, sheet)
		}
		if err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path}
	}
}

func (m Model) diff() tea.Cmd {
	if len(m.solutions) == 0 {
		return toastError("generate a roster to diff against the saved one")
	}
	if m.saved == nil {
		return toastError("no saved roster for this month")
	}
	before, after := m.saved, history.NewRun(m.solutions[m.solIdx])
	return func() tea.Msg {
		return diffMsg{text: history.Diff(before, after)}
	}
}

func isNotFound(err error) bool {
	var nf *history.RunNotFoundError
	return errors.As(err, &nf)
}

func toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return mode.ShowToastMsg{Message: message, Style: style}
	}
}

func toastError(message string) tea.Cmd {
	return toast(message, toaster.StyleError)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
