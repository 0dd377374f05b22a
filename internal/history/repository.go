package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tooban/internal/almanac"
	"tooban/internal/log"
	"tooban/internal/solver"
)

// Repository persists roster runs.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open history database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save records a run and its assignments. A missing ID is generated and a
// zero CreatedAt is set to now.
func (r *Repository) Save(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("starting save: %w", err)
	}

	groups, err := encodeGroupCounts(run.GroupCounts)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO runs (id, year, month, seed, relaxations, group_counts, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Year, int(run.Month), run.Seed, joinRelaxations(run.Relaxations), groups, run.CreatedAt.Unix(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, date := range run.Dates() {
		for _, name := range run.Schedule[date] {
			if _, err := tx.Exec(
				`INSERT INTO assignments (run_id, day, staff) VALUES (?, ?, ?)`,
				run.ID, date.Format(dayFormat), name,
			); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("inserting assignment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	log.Info(log.CatHistory, "run recorded",
		"id", run.ID, "year", run.Year, "month", int(run.Month), "days", len(run.Schedule))
	return nil
}

// Find retrieves a run by ID. Returns RunNotFoundError if absent.
func (r *Repository) Find(id string) (*Run, error) {
	row := r.db.QueryRow(
		`SELECT id, year, month, seed, relaxations, group_counts, created_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &RunNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("finding run: %w", err)
	}
	if err := r.loadSchedule(run); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestForMonth retrieves the most recently recorded run for a month.
// Returns RunNotFoundError if the month has never been generated.
func (r *Repository) LatestForMonth(year int, month time.Month) (*Run, error) {
	row := r.db.QueryRow(
		`SELECT id, year, month, seed, relaxations, group_counts, created_at FROM runs
		 WHERE year = ? AND month = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		year, int(month))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &RunNotFoundError{Year: year, Month: month}
	}
	if err != nil {
		return nil, fmt.Errorf("finding latest run: %w", err)
	}
	if err := r.loadSchedule(run); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns run summaries, newest first. Limit <= 0 returns all.
func (r *Repository) List(limit int) ([]Summary, error) {
	query := `SELECT r.id, r.year, r.month, r.relaxations, r.created_at, COUNT(a.id)
		FROM runs r LEFT JOIN assignments a ON a.run_id = r.id
		GROUP BY r.id ORDER BY r.created_at DESC, r.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			s           Summary
			month       int
			relaxations string
			created     int64
		)
		if err := rows.Scan(&s.ID, &s.Year, &month, &relaxations, &created, &s.Assignments); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		s.Month = time.Month(month)
		s.Relaxations = splitRelaxations(relaxations)
		s.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run rows: %w", err)
	}
	return out, nil
}

// Delete removes a run and its assignments.
// Returns RunNotFoundError if the ID is unknown.
func (r *Repository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM assignments WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("deleting assignments: %w", err)
	}
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return &RunNotFoundError{ID: id}
	}
	return nil
}

// PastSchedules returns day-to-staff assignments from the latest run of
// each month, for days within windowDays before the given date. The shape
// feeds the solver's dispersion penalty directly.
func (r *Repository) PastSchedules(before time.Time, windowDays int) (map[string][]string, error) {
	from := before.AddDate(0, 0, -windowDays)

	rows, err := r.db.Query(
		`SELECT a.day, a.staff FROM assignments a
		 JOIN runs r ON r.id = a.run_id
		 WHERE r.id IN (
			SELECT r2.id FROM runs r2
			WHERE r2.created_at = (
				SELECT MAX(r3.created_at) FROM runs r3
				WHERE r3.year = r2.year AND r3.month = r2.month))
		 AND a.day >= ? AND a.day < ?
		 ORDER BY a.day`,
		from.Format(dayFormat), before.Format(dayFormat))
	if err != nil {
		return nil, fmt.Errorf("querying past schedules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]string)
	for rows.Next() {
		var day, staff string
		if err := rows.Scan(&day, &staff); err != nil {
			return nil, fmt.Errorf("scanning past schedule row: %w", err)
		}
		out[day] = append(out[day], staff)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating past schedule rows: %w", err)
	}
	return out, nil
}

// CarryoverFor derives the solver's previous-month carryover from the
// latest recorded run of the month before (year, month). A month with no
// history yields a zero carryover.
func (r *Repository) CarryoverFor(year int, month time.Month) (solver.Carryover, error) {
	prev := almanac.DateOf(year, month, 1).AddDate(0, -1, 0)
	run, err := r.LatestForMonth(prev.Year(), prev.Month())
	var notFound *RunNotFoundError
	if errors.As(err, &notFound) {
		return solver.Carryover{}, nil
	}
	if err != nil {
		return solver.Carryover{}, err
	}

	carry := solver.Carryover{
		LastDutyDates:    make(map[string]time.Time),
		RunLengths:       make(map[string]int),
		LastWeekWeekdays: make(map[string][]int),
	}

	dates := run.Dates()
	if len(dates) == 0 {
		return carry, nil
	}
	monthEnd := almanac.DateOf(prev.Year(), prev.Month(), almanac.DaysIn(prev.Year(), prev.Month()))

	served := make(map[string]map[time.Time]bool)
	for _, date := range dates {
		for _, name := range run.Schedule[date] {
			if served[name] == nil {
				served[name] = make(map[time.Time]bool)
			}
			served[name][date] = true

			if existing, ok := carry.LastDutyDates[name]; !ok || date.After(existing) {
				carry.LastDutyDates[name] = date
			}
			if monthEnd.Sub(date) < 7*24*time.Hour {
				carry.LastWeekWeekdays[name] = appendUniqueInt(
					carry.LastWeekWeekdays[name], almanac.WeekdayIndexOf(date.Weekday()))
			}
		}
	}

	// A run length carries over only when it reaches the final day.
	for name, days := range served {
		if !days[monthEnd] {
			continue
		}
		length := 0
		for d := monthEnd; days[d]; d = d.AddDate(0, 0, -1) {
			length++
		}
		carry.RunLengths[name] = length
	}

	return carry, nil
}

func appendUniqueInt(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func scanRun(scanner interface{ Scan(...any) error }) (*Run, error) {
	var (
		run         Run
		month       int
		relaxations string
		groups      string
		created     int64
	)
	err := scanner.Scan(&run.ID, &run.Year, &month, &run.Seed, &relaxations, &groups, &created)
	if err != nil {
		return nil, err
	}
	run.Month = time.Month(month)
	run.Relaxations = splitRelaxations(relaxations)
	run.CreatedAt = time.Unix(created, 0).UTC()
	run.GroupCounts, err = decodeGroupCounts(groups)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Repository) loadSchedule(run *Run) error {
	rows, err := r.db.Query(
		`SELECT day, staff FROM assignments WHERE run_id = ? ORDER BY day, id`, run.ID)
	if err != nil {
		return fmt.Errorf("loading assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	run.Schedule = make(map[time.Time][]string)
	for rows.Next() {
		var day, staff string
		if err := rows.Scan(&day, &staff); err != nil {
			return fmt.Errorf("scanning assignment row: %w", err)
		}
		date, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return fmt.Errorf("parsing assignment day %q: %w", day, err)
		}
		run.Schedule[date] = append(run.Schedule[date], staff)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating assignment rows: %w", err)
	}
	return nil
}
