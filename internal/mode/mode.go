// Package mode defines the mode controller interface and shared services.
package mode

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tooban/internal/almanac"
	"tooban/internal/cachemanager"
	"tooban/internal/config"
	"tooban/internal/flags"
	"tooban/internal/history"
	"tooban/internal/ui/toaster"
)

// Controller defines the interface all modes must implement.
type Controller interface {
	// Init returns initial commands for the mode.
	Init() tea.Cmd

	// Update handles messages and returns updated model and commands.
	Update(msg tea.Msg) (Controller, tea.Cmd)

	// View renders the mode's UI.
	View() string

	// SetSize handles terminal resize events.
	SetSize(width, height int) Controller
}

// MonthKey identifies one calendar month for the month cache.
type MonthKey struct {
	Year  int
	Month time.Month
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// MonthCache serves month calendars through the in-memory cache. Holiday
// tables never change mid-session, so entries get a long TTL.
type MonthCache = cachemanager.ReadThroughCache[string, []almanac.Day, MonthKey]

// NewMonthCache builds the read-through month cache over the almanac.
// skipCache bypasses caching entirely (the almanac-cache flag turned off).
func NewMonthCache(a *almanac.Almanac, skipCache bool) *MonthCache {
	store := cachemanager.NewInMemoryCacheManager[string, []almanac.Day](
		"almanac-months", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	return cachemanager.NewReadThroughCache(store, func(_ context.Context, key MonthKey) ([]almanac.Day, error) {
		return a.Month(key.Year, key.Month)
	}, skipCache)
}

// Services contains shared dependencies injected into mode controllers.
type Services struct {
	Config     *config.Config
	ConfigPath string
	Months     *MonthCache
	Repo       *history.Repository
	Flags      *flags.Registry
}

// ShowToastMsg asks the root model to display a toast.
type ShowToastMsg struct {
	Message string
	Style   toaster.Style
}
