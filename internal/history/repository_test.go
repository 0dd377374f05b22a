package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tooban/internal/almanac"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func testRun(year int, month time.Month, assignments map[int][]string) *Run {
	schedule := make(map[time.Time][]string, len(assignments))
	for day, names := range assignments {
		schedule[almanac.DateOf(year, month, day)] = names
	}
	return &Run{
		Year:     year,
		Month:    month,
		Seed:     42,
		Schedule: schedule,
	}
}

func TestNewDB_CreatesFileAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var name string
	err = db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'runs'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "runs", name)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := NewMemoryDB()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestSaveAndFind(t *testing.T) {
	repo := newTestRepo(t)

	run := testRun(2026, time.June, map[int][]string{
		1: {"青木"},
		2: {"馬場", "千葉"},
	})
	run.Relaxations = []string{"rest gap shortened to 1 days"}

	require.NoError(t, repo.Save(run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	loaded, err := repo.Find(run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.Year, loaded.Year)
	assert.Equal(t, run.Month, loaded.Month)
	assert.Equal(t, run.Seed, loaded.Seed)
	assert.Equal(t, run.Relaxations, loaded.Relaxations)
	assert.Equal(t, []string{"青木"}, loaded.Schedule[almanac.DateOf(2026, time.June, 1)])
	assert.Equal(t, []string{"馬場", "千葉"}, loaded.Schedule[almanac.DateOf(2026, time.June, 2)])
}

func TestSavePersistsGroupCounts(t *testing.T) {
	repo := newTestRepo(t)

	run := testRun(2026, time.June, map[int][]string{6: {"青木"}, 7: {"馬場"}})
	run.GroupCounts = map[string]int{"青木": 1, "馬場": 1}
	require.NoError(t, repo.Save(run))

	loaded, err := repo.Find(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.GroupCounts, loaded.GroupCounts)

	// Runs recorded without fairness categories stay empty.
	plain := testRun(2026, time.July, map[int][]string{1: {"青木"}})
	require.NoError(t, repo.Save(plain))
	loaded, err = repo.Find(plain.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.GroupCounts)
}

func TestFind_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Find("missing")
	var notFound *RunNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
}

func TestLatestForMonth(t *testing.T) {
	repo := newTestRepo(t)

	first := testRun(2026, time.June, map[int][]string{1: {"青木"}})
	first.CreatedAt = time.Date(2026, time.May, 25, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(first))

	second := testRun(2026, time.June, map[int][]string{1: {"馬場"}})
	second.CreatedAt = time.Date(2026, time.May, 26, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(second))

	latest, err := repo.LatestForMonth(2026, time.June)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, []string{"馬場"}, latest.Schedule[almanac.DateOf(2026, time.June, 1)])

	_, err = repo.LatestForMonth(2026, time.July)
	var notFound *RunNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestList(t *testing.T) {
	repo := newTestRepo(t)

	for i, month := range []time.Month{time.April, time.May, time.June} {
		run := testRun(2026, month, map[int][]string{1: {"青木"}, 2: {"馬場"}})
		run.CreatedAt = time.Date(2026, time.March, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Save(run))
	}

	all, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, time.June, all[0].Month, "newest first")
	assert.Equal(t, 2, all[0].Assignments)

	limited, err := repo.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)

	run := testRun(2026, time.June, map[int][]string{1: {"青木"}})
	require.NoError(t, repo.Save(run))
	require.NoError(t, repo.Delete(run.ID))

	_, err := repo.Find(run.ID)
	var notFound *RunNotFoundError
	require.ErrorAs(t, err, &notFound)

	err = repo.Delete(run.ID)
	require.ErrorAs(t, err, &notFound)
}

func TestPastSchedules(t *testing.T) {
	repo := newTestRepo(t)

	// Superseded May run: its assignments must not leak into the window.
	stale := testRun(2026, time.May, map[int][]string{30: {"誰か"}})
	stale.CreatedAt = time.Date(2026, time.April, 25, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(stale))

	may := testRun(2026, time.May, map[int][]string{30: {"青木"}, 31: {"馬場"}})
	may.CreatedAt = time.Date(2026, time.April, 26, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(may))

	// Outside a 90-day window before June 1.
	january := testRun(2026, time.January, map[int][]string{15: {"青木"}})
	january.CreatedAt = time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(january))

	past, err := repo.PastSchedules(almanac.DateOf(2026, time.June, 1), 90)
	require.NoError(t, err)

	assert.Equal(t, []string{"青木"}, past["2026-05-30"])
	assert.Equal(t, []string{"馬場"}, past["2026-05-31"])
	assert.NotContains(t, past, "2026-01-15")
}

func TestCarryoverFor(t *testing.T) {
	repo := newTestRepo(t)

	// May 2026 ends on Sunday the 31st.
	may := testRun(2026, time.May, map[int][]string{
		28: {"青木"},
		29: {"青木"},
		30: {"馬場"},
		31: {"青木"},
	})
	require.NoError(t, repo.Save(may))

	carry, err := repo.CarryoverFor(2026, time.June)
	require.NoError(t, err)

	assert.Equal(t, almanac.DateOf(2026, time.May, 31), carry.LastDutyDates["青木"])
	assert.Equal(t, almanac.DateOf(2026, time.May, 30), carry.LastDutyDates["馬場"])

	// 青木 served the final day but the 30th broke the run.
	assert.Equal(t, 1, carry.RunLengths["青木"])
	assert.NotContains(t, carry.RunLengths, "馬場")

	// Final week of May is the 25th through the 31st.
	assert.ElementsMatch(t, []int{3, 4, 6}, carry.LastWeekWeekdays["青木"]) // Thu, Fri, Sun
	assert.ElementsMatch(t, []int{5}, carry.LastWeekWeekdays["馬場"])       // Sat
}

func TestCarryoverFor_NoHistory(t *testing.T) {
	repo := newTestRepo(t)

	carry, err := repo.CarryoverFor(2026, time.June)
	require.NoError(t, err)
	assert.Empty(t, carry.LastDutyDates)
	assert.Empty(t, carry.RunLengths)
}
