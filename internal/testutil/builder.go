package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tooban/internal/almanac"
	"tooban/internal/history"
)

// Builder accumulates history runs and inserts them through the repository.
type Builder struct {
	t    *testing.T
	repo *history.Repository
	runs []*history.Run
}

// NewBuilder creates a builder for the given test database.
func NewBuilder(t *testing.T, db *sql.DB) *Builder {
	t.Helper()
	return &Builder{t: t, repo: history.NewRepository(db)}
}

// RunOption configures a run being built.
type RunOption func(*history.Run)

// Seed sets the run's solver seed.
func Seed(seed int64) RunOption {
	return func(r *history.Run) { r.Seed = seed }
}

// CreatedAt sets the run's record time.
func CreatedAt(at time.Time) RunOption {
	return func(r *history.Run) { r.CreatedAt = at }
}

// Relaxations sets the run's relaxation labels.
func Relaxations(labels ...string) RunOption {
	return func(r *history.Run) { r.Relaxations = labels }
}

// Assign schedules staff on a day of the run's month.
func Assign(day int, names ...string) RunOption {
	return func(r *history.Run) {
		date := almanac.DateOf(r.Year, r.Month, day)
		r.Schedule[date] = append(r.Schedule[date], names...)
	}
}

// WithRun adds a run for the given month with optional configuration.
func (b *Builder) WithRun(year int, month time.Month, opts ...RunOption) *Builder {
	run := &history.Run{
		Year:     year,
		Month:    month,
		Schedule: make(map[time.Time][]string),
	}
	for _, opt := range opts {
		opt(run)
	}
	b.runs = append(b.runs, run)
	return b
}

// Insert persists all accumulated runs and returns them in insert order.
func (b *Builder) Insert() []*history.Run {
	b.t.Helper()
	for _, run := range b.runs {
		require.NoError(b.t, b.repo.Save(run))
	}
	return b.runs
}
