// Package config provides configuration types, defaults, and persistence
// for tooban.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tooban/internal/almanac"
	"tooban/internal/log"
	"tooban/internal/roster"
	"tooban/internal/solver"
)

// StaffConfig defines one staff member of the roster.
type StaffConfig struct {
	Name            string   `mapstructure:"name"`
	Color           string   `mapstructure:"color"`            // hex color for exports, e.g. "#10B981"
	BlockedWeekdays []string `mapstructure:"blocked_weekdays"` // weekday labels, e.g. ["土", "日"]
	Active          *bool    `mapstructure:"active"`           // nil = true
}

// IsActive returns whether the staff member is scheduled (defaults to true if nil).
func (s StaffConfig) IsActive() bool {
	return s.Active == nil || *s.Active
}

// RuleConfig defines a recurring monthly rule: week 1-4 counts occurrences
// of the weekday from the start of the month, week 5 means the last
// occurrence. Weekday 0 is Monday.
type RuleConfig struct {
	Staff   string `mapstructure:"staff"`
	Week    int    `mapstructure:"week"`
	Weekday int    `mapstructure:"weekday"`
}

// RulesConfig groups the recurring rules.
type RulesConfig struct {
	Fixed     []RuleConfig `mapstructure:"fixed"`     // recurring duty preferences
	Vacations []RuleConfig `mapstructure:"vacations"` // recurring days off
}

// SlotRangeConfig is an inclusive staffing range for one day.
type SlotRangeConfig struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

// SlotsConfig selects how many people serve per day. Fixed wins over
// Min/Max; ByDay overrides both for specific weekday labels or "祝".
type SlotsConfig struct {
	Fixed int                        `mapstructure:"fixed"`
	Min   int                        `mapstructure:"min"`
	Max   int                        `mapstructure:"max"`
	ByDay map[string]SlotRangeConfig `mapstructure:"by_day"`
}

// ScheduleConfig holds the solver knobs.
type ScheduleConfig struct {
	Slots                  SlotsConfig `mapstructure:"slots"`
	MinRestGap             int         `mapstructure:"min_rest_gap"`
	MaxRunLength           int         `mapstructure:"max_run_length"`
	MaxSolutions           int         `mapstructure:"max_solutions"`
	SkipRulesOnHolidays    bool        `mapstructure:"skip_rules_on_holidays"`
	AvoidSameWeekdayRepeat bool        `mapstructure:"avoid_same_weekday_repeat"`
	Disperse               bool        `mapstructure:"disperse"`
	FairnessGroup          []string    `mapstructure:"fairness_group"`
	FairnessTolerance      int         `mapstructure:"fairness_tolerance"`
	FairnessAsHard         bool        `mapstructure:"fairness_as_hard"`
}

// ExportConfig holds export output settings.
type ExportConfig struct {
	Title     string `mapstructure:"title"`      // sheet/document title
	OutputDir string `mapstructure:"output_dir"` // default: current directory
	PDFFont   string `mapstructure:"pdf_font"`   // TTF with CJK glyphs; PDF export falls back to Helvetica without one
}

// HistoryConfig holds roster history persistence settings.
type HistoryConfig struct {
	// Enabled controls whether generated rosters are recorded.
	// Default: true
	Enabled bool `mapstructure:"enabled"`

	// Path is the SQLite database file.
	// Default: ~/.config/tooban/history.db
	Path string `mapstructure:"path"`
}

// UIConfig holds terminal interface options.
type UIConfig struct {
	ShowCounts    bool `mapstructure:"show_counts"`     // per-staff duty counts in the sidebar
	ShowStatusBar bool `mapstructure:"show_status_bar"` // status bar at bottom
}

// TracingConfig holds trace export configuration for solver runs.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.config/tooban/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Config holds all configuration options for tooban.
type Config struct {
	AutoReload bool            `mapstructure:"auto_reload"` // re-read config when the file changes
	Staff      []StaffConfig   `mapstructure:"staff"`
	Rules      RulesConfig     `mapstructure:"rules"`
	Schedule   ScheduleConfig  `mapstructure:"schedule"`
	Export     ExportConfig    `mapstructure:"export"`
	History    HistoryConfig   `mapstructure:"history"`
	UI         UIConfig        `mapstructure:"ui"`
	Tracing    TracingConfig   `mapstructure:"tracing"`
	Flags      map[string]bool `mapstructure:"flags"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/tooban/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tooban", "traces", "traces.jsonl")
}

// DefaultHistoryPath returns the default SQLite file for roster history.
// Returns ~/.config/tooban/history.db or empty string if home dir unavailable.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tooban", "history.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		AutoReload: true,
		Schedule: ScheduleConfig{
			Slots:             SlotsConfig{Fixed: 1},
			MinRestGap:        2,
			MaxRunLength:      5,
			MaxSolutions:      1,
			Disperse:          true,
			FairnessGroup:     []string{"土", "日", almanac.HolidayCategory},
			FairnessTolerance: 1,
			FairnessAsHard:    true,
		},
		Export: ExportConfig{
			Title: "シフト表",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
		UI: UIConfig{
			ShowCounts:    true,
			ShowStatusBar: true,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// ValidateStaff checks staff configuration for errors.
// Returns nil if staff are valid or empty.
func ValidateStaff(staff []StaffConfig) error {
	labels := make(map[string]bool, len(almanac.WeekdayLabels))
	for _, l := range almanac.WeekdayLabels {
		labels[l] = true
	}
	seen := make(map[string]bool, len(staff))
	for i, s := range staff {
		if s.Name == "" {
			return fmt.Errorf("staff %d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("staff %d (%s): duplicate name", i, s.Name)
		}
		seen[s.Name] = true
		if s.Color != "" && !strings.HasPrefix(s.Color, "#") {
			return fmt.Errorf("staff %d (%s): color must be a hex value like \"#10B981\", got %q", i, s.Name, s.Color)
		}
		for _, wd := range s.BlockedWeekdays {
			if !labels[wd] {
				return fmt.Errorf("staff %d (%s): unknown weekday label %q", i, s.Name, wd)
			}
		}
	}
	return nil
}

// ValidateRules checks recurring rules for errors. It needs the staff list
// to reject rules that reference nobody.
func ValidateRules(rules RulesConfig, staff []StaffConfig) error {
	names := make(map[string]bool, len(staff))
	for _, s := range staff {
		names[s.Name] = true
	}
	check := func(kind string, list []RuleConfig) error {
		for i, r := range list {
			if r.Staff == "" {
				return fmt.Errorf("%s rule %d: staff is required", kind, i)
			}
			if !names[r.Staff] {
				return fmt.Errorf("%s rule %d: unknown staff %q", kind, i, r.Staff)
			}
			if r.Week < 1 || r.Week > roster.LastWeek {
				return fmt.Errorf("%s rule %d (%s): week must be 1-%d (%d means last), got %d",
					kind, i, r.Staff, roster.LastWeek, roster.LastWeek, r.Week)
			}
			if r.Weekday < 0 || r.Weekday > 6 {
				return fmt.Errorf("%s rule %d (%s): weekday must be 0 (Monday) to 6 (Sunday), got %d",
					kind, i, r.Staff, r.Weekday)
			}
		}
		return nil
	}
	if err := check("fixed", rules.Fixed); err != nil {
		return err
	}
	return check("vacation", rules.Vacations)
}

// ValidateSchedule checks solver settings for errors.
func ValidateSchedule(s ScheduleConfig) error {
	if s.Slots.Fixed < 0 {
		return fmt.Errorf("schedule.slots.fixed must not be negative, got %d", s.Slots.Fixed)
	}
	if s.Slots.Fixed == 0 && (s.Slots.Min < 0 || s.Slots.Max < s.Slots.Min) {
		return fmt.Errorf("schedule.slots min/max must satisfy 0 <= min <= max, got %d..%d", s.Slots.Min, s.Slots.Max)
	}
	for label, r := range s.Slots.ByDay {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("schedule.slots.by_day[%s] must satisfy 0 <= min <= max, got %d..%d", label, r.Min, r.Max)
		}
	}
	if s.MinRestGap < 0 {
		return fmt.Errorf("schedule.min_rest_gap must not be negative, got %d", s.MinRestGap)
	}
	if s.MaxRunLength < 1 {
		return fmt.Errorf("schedule.max_run_length must be at least 1, got %d", s.MaxRunLength)
	}
	if s.MaxSolutions < 1 {
		return fmt.Errorf("schedule.max_solutions must be at least 1, got %d", s.MaxSolutions)
	}
	if s.FairnessTolerance < 0 {
		return fmt.Errorf("schedule.fairness_tolerance must not be negative, got %d", s.FairnessTolerance)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateStaff(c.Staff); err != nil {
		return err
	}
	if err := ValidateRules(c.Rules, c.Staff); err != nil {
		return err
	}
	if err := ValidateSchedule(c.Schedule); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// StaffList converts the configured staff into roster values, in config
// order. Inactive members are included; filter with roster.Registry.
func (c Config) StaffList() ([]roster.Staff, error) {
	list := make([]roster.Staff, 0, len(c.Staff))
	for i, sc := range c.Staff {
		color := sc.Color
		if color == "" {
			color = "#333333"
		}
		s, err := roster.NewStaff(sc.Name, color, sc.BlockedWeekdays, sc.IsActive())
		if err != nil {
			return nil, fmt.Errorf("staff %d: %w", i, err)
		}
		list = append(list, s)
	}
	return list, nil
}

// StaffRegistry loads the configured staff into a registry. Callers solve
// over Active() and render exports over All().
func (c Config) StaffRegistry() (*roster.Registry, error) {
	list, err := c.StaffList()
	if err != nil {
		return nil, err
	}
	reg := roster.NewRegistry()
	for _, s := range list {
		reg.Upsert(s)
	}
	return reg, nil
}

// SolverOptions maps the schedule settings onto solver options. Per-run
// inputs (pins, vacations, seed, carryover) are left zero for the caller.
func (c Config) SolverOptions() solver.Options {
	opts := solver.DefaultOptions()
	s := c.Schedule

	if s.Slots.Fixed > 0 {
		opts.Slots = solver.SlotConfig{Fixed: s.Slots.Fixed}
	} else {
		opts.Slots = solver.SlotConfig{Range: &solver.SlotRange{Min: s.Slots.Min, Max: s.Slots.Max}}
	}
	if len(s.Slots.ByDay) > 0 {
		opts.Slots.ByDay = make(map[string]solver.SlotRange, len(s.Slots.ByDay))
		for label, r := range s.Slots.ByDay {
			opts.Slots.ByDay[label] = solver.SlotRange{Min: r.Min, Max: r.Max}
		}
	}

	opts.MinRestGap = s.MinRestGap
	opts.MaxRunLength = s.MaxRunLength
	opts.MaxSolutions = s.MaxSolutions
	opts.SkipRulesOnHolidays = s.SkipRulesOnHolidays
	opts.AvoidSameWeekdayRepeat = s.AvoidSameWeekdayRepeat
	opts.Disperse = s.Disperse
	opts.FairnessGroup = append([]string(nil), s.FairnessGroup...)
	opts.FairnessTolerance = s.FairnessTolerance
	opts.FairnessAsHard = s.FairnessAsHard

	opts.FixedShiftRules = make([]roster.FixedShiftRule, 0, len(c.Rules.Fixed))
	for _, r := range c.Rules.Fixed {
		opts.FixedShiftRules = append(opts.FixedShiftRules, roster.FixedShiftRule{
			Week: r.Week, Weekday: r.Weekday, StaffName: r.Staff,
		})
	}
	opts.VacationRules = make([]roster.VacationRule, 0, len(c.Rules.Vacations))
	for _, r := range c.Rules.Vacations {
		opts.VacationRules = append(opts.VacationRules, roster.VacationRule{
			Week: r.Week, Weekday: r.Weekday, StaffName: r.Staff,
		})
	}
	opts.Seed = time.Now().UnixNano()

	return opts
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Tooban Configuration

# Re-read this file automatically when it changes
auto_reload: true

# Staff roster
# Weekday labels: 月 火 水 木 金 土 日 (and 祝 for national holidays in
# slots.by_day and fairness_group below)
staff: []
# staff:
#   - name: 青木
#     color: "#10B981"              # hex color used in exports
#     blocked_weekdays: ["土", "日"]  # never scheduled on these weekdays
#   - name: 馬場
#     color: "#54A0FF"
#     active: false                 # kept in the file but not scheduled

# Recurring monthly rules
# week: 1-4 counts the weekday from the start of the month, 5 means last
# weekday: 0 = Monday .. 6 = Sunday
rules:
  fixed: []
  # fixed:
  #   - staff: 青木
  #     week: 1
  #     weekday: 4    # first Friday
  vacations: []
  # vacations:
  #   - staff: 馬場
  #     week: 5
  #     weekday: 0    # last Monday

# Scheduling settings
schedule:
  slots:
    fixed: 1          # people per day; set 0 and use min/max for a range
    # min: 1
    # max: 2
    # by_day:         # per-weekday overrides ("祝" wins on holidays)
    #   土: {min: 2, max: 2}
  min_rest_gap: 2     # off days required after a break before the next duty
  max_run_length: 5   # maximum consecutive duty days
  max_solutions: 1    # distinct rosters to generate
  skip_rules_on_holidays: false
  avoid_same_weekday_repeat: false
  disperse: true      # spread weekend/holiday duties across the quarter
  fairness_group: ["土", "日", "祝"]
  fairness_tolerance: 1
  fairness_as_hard: true

# Export settings
export:
  title: シフト表
  # output_dir: /path/to/exports
  # pdf_font: /usr/share/fonts/truetype/noto/NotoSansCJK-Regular.ttf

# Roster history (SQLite)
history:
  enabled: true
  # path: ~/.config/tooban/history.db

# UI settings
ui:
  show_counts: true     # per-staff duty counts in the sidebar
  show_status_bar: true # status bar at bottom

# Solver tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/tooban/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
