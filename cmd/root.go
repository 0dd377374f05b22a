// Package cmd wires the CLI. The bare command launches the TUI; subcommands
// cover headless generation, staff management, exports, and history.
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tooban/internal/almanac"
	"tooban/internal/app"
	"tooban/internal/config"
	"tooban/internal/flags"
	"tooban/internal/history"
	"tooban/internal/log"
	"tooban/internal/mode"
	"tooban/internal/tracing"
)

func init() {
	// Force lipgloss/termenv to query the terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "tooban",
	Short:   "A terminal ui for monthly duty rosters",
	Long:    `A terminal user interface for generating monthly duty rosters from configured staff and recurring rules, with history tracking and Excel/PDF export.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/tooban/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write a debug log")
	rootCmd.Flags().Bool("no-auto-reload", false,
		"disable config reload while the TUI runs")
}

func initConfig() {
	config.ApplyDefaults(viper.GetViper())

	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	viper.SetConfigFile(path)

	if err := viper.ReadInConfig(); err != nil {
		// No config file yet - write the commented default and retry.
		if os.IsNotExist(err) && cfgFile == "" {
			if writeErr := config.WriteDefaultConfig(path); writeErr == nil {
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// openHistory opens the history store. An in-memory database stands in when
// persistence is disabled so every command path still has a repository.
func openHistory(fl *flags.Registry) (*sql.DB, error) {
	if !cfg.History.Enabled || !fl.Enabled(flags.FlagHistoryPersistence) {
		return history.NewMemoryDB()
	}
	path := cfg.History.Path
	if path == "" {
		path = config.DefaultHistoryPath()
	}
	return history.NewDB(path)
}

func newServices() (mode.Services, func(), error) {
	fl := flags.New(cfg.Flags)
	db, err := openHistory(fl)
	if err != nil {
		return mode.Services{}, nil, fmt.Errorf("opening history: %w", err)
	}
	return mode.Services{
		Config:     &cfg,
		ConfigPath: viper.ConfigFileUsed(),
		Months:     mode.NewMonthCache(almanac.New(), !fl.Enabled(flags.FlagAlmanacCache)),
		Repo:       history.NewRepository(db),
		Flags:      fl,
	}, func() { _ = db.Close() }, nil
}

// newTracing builds the tracer. The solver-tracing flag force-enables it,
// so one-off runs can be traced without editing the tracing section.
func newTracing() (*tracing.Provider, error) {
	tcfg := cfg.Tracing
	if flags.New(cfg.Flags).Enabled(flags.FlagSolverTracing) {
		tcfg.Enabled = true
	}
	return tracing.NewProvider(tcfg)
}

func initDebugLog(prefix string) (func(), error) {
	if !debugFlag && os.Getenv("TOOBAN_DEBUG") == "" {
		return func() {}, nil
	}
	logPath := os.Getenv("TOOBAN_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	return cleanup, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := initDebugLog("tooban")
	if err != nil {
		return err
	}
	defer cleanup()

	provider, err := newTracing()
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	if noReload, _ := cmd.Flags().GetBool("no-auto-reload"); noReload {
		cfg.AutoReload = false
	}

	services, closeServices, err := newServices()
	if err != nil {
		return err
	}
	defer closeServices()

	model := app.New(services)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
