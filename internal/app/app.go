// Package app contains the root application model.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"tooban/internal/config"
	"tooban/internal/keys"
	"tooban/internal/log"
	"tooban/internal/mode"
	"tooban/internal/mode/monthview"
	"tooban/internal/pubsub"
	"tooban/internal/ui/logview"
	"tooban/internal/ui/toaster"
	"tooban/internal/watcher"
)

// Model is the root application state. It owns the active mode, the toast
// and log overlays, and the config auto-reload plumbing.
type Model struct {
	month    mode.Controller
	services mode.Services
	keys     keys.KeyMap

	width  int
	height int

	toaster toaster.Model
	logs    logview.Model

	cancel context.CancelFunc

	watcherHandle   *watcher.Watcher
	watcherListener *pubsub.ContinuousListener[watcher.Event]
	logListener     *log.LogListener
}

// New creates the application model. When auto-reload is enabled and the
// config path is known, a file watcher keeps the running config in sync
// with the file on disk.
func New(services mode.Services) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		month:       monthview.New(services),
		services:    services,
		keys:        keys.DefaultKeyMap(),
		toaster:     toaster.New(),
		logs:        logview.New(),
		cancel:      cancel,
		logListener: log.NewListener(ctx),
	}

	if services.Config.AutoReload && services.ConfigPath != "" {
		w, err := watcher.New(watcher.DefaultConfig(services.ConfigPath))
		if err != nil {
			// The app works fine without auto-reload.
			log.Warn(log.CatWatcher, "config watcher unavailable", "error", err)
			return m
		}
		listener := pubsub.NewContinuousListener(ctx, w.Broker())
		if err := w.Start(); err != nil {
			log.Warn(log.CatWatcher, "config watcher failed to start", "error", err)
			_ = w.Stop()
			return m
		}
		m.watcherHandle = w
		m.watcherListener = listener
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.month.Init()}
	if m.watcherListener != nil {
		cmds = append(cmds, m.watcherListener.Listen())
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.month = m.month.SetSize(msg.Width, msg.Height)
		m.toaster = m.toaster.SetSize(msg.Width, msg.Height)
		m.logs = m.logs.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.logs.Visible() {
			var cmd tea.Cmd
			m.logs, cmd = m.logs.Update(msg)
			return m, cmd
		}
		if key.Matches(msg, m.keys.Logs) {
			m.logs = m.logs.Toggle()
			return m, nil
		}

	case pubsub.Event[watcher.Event]:
		if m.watcherListener == nil {
			return m, nil
		}
		return m.handleWatcherEvent(msg)

	case log.LogEvent:
		m.logs = m.logs.Append(msg.Payload)
		if m.logListener == nil {
			return m, nil
		}
		return m, m.logListener.Listen()

	case mode.ShowToastMsg:
		m.toaster = m.toaster.Show(msg.Message, msg.Style)
		return m, toaster.ScheduleDismiss(3 * time.Second)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil
	}

	var cmd tea.Cmd
	m.month, cmd = m.month.Update(msg)
	return m, cmd
}

func (m Model) handleWatcherEvent(msg pubsub.Event[watcher.Event]) (tea.Model, tea.Cmd) {
	listen := m.watcherListener.Listen()

	switch msg.Payload.Type {
	case watcher.ConfigChanged:
		cfg, err := config.LoadFile(m.services.ConfigPath)
		if err != nil {
			log.Warn(log.CatConfig, "ignoring invalid config after change", "error", err)
			m.toaster = m.toaster.Show("config change ignored: "+err.Error(), toaster.StyleWarn)
			return m, tea.Batch(listen, toaster.ScheduleDismiss(3*time.Second))
		}
		*m.services.Config = cfg
		log.Info(log.CatConfig, "config reloaded", "path", m.services.ConfigPath)

		var cmd tea.Cmd
		m.month, cmd = m.month.Update(monthview.ConfigReloadedMsg{})
		return m, tea.Batch(listen, cmd)

	case watcher.WatchError:
		log.Warn(log.CatWatcher, "watcher error received", "error", msg.Payload.Err)
	}
	return m, listen
}

// View implements tea.Model.
func (m Model) View() string {
	view := m.month.View()
	if m.logs.Visible() {
		view = m.logs.Overlay(view)
	}
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	return view
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.watcherHandle != nil {
		return m.watcherHandle.Stop()
	}
	return nil
}
