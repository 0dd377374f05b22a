package history

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/golang-migrate/migrate/v4/database"
)

// driver adapts a database/sql connection to golang-migrate's database
// interface. The bundled sqlite drivers each drag in a second SQLite
// engine; this adapter keeps the wazero-based one as the only engine in
// the binary.
type driver struct {
	db *sql.DB
}

var _ database.Driver = (*driver)(nil)

const versionTable = "schema_migrations"

func (d *driver) Open(string) (database.Driver, error) {
	return nil, fmt.Errorf("history: URL open is not supported, use migrate.NewWithInstance")
}

func (d *driver) Close() error {
	// The connection is owned by the caller.
	return nil
}

// Lock is a no-op: SQLite serializes writers at the file level.
func (d *driver) Lock() error { return nil }

func (d *driver) Unlock() error { return nil }

func (d *driver) Run(migration io.Reader) error {
	stmts, err := io.ReadAll(migration)
	if err != nil {
		return fmt.Errorf("reading migration: %w", err)
	}
	if _, err := d.db.Exec(string(stmts)); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (d *driver) SetVersion(version int, dirty bool) error {
	if err := d.ensureVersionTable(); err != nil {
		return err
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting version update: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM " + versionTable); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clearing version: %w", err)
	}
	// migrate uses NilVersion (-1) to mean no migrations applied.
	if version >= 0 {
		if _, err := tx.Exec(
			"INSERT INTO "+versionTable+" (version, dirty) VALUES (?, ?)",
			version, dirty,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording version: %w", err)
		}
	}
	return tx.Commit()
}

func (d *driver) Version() (int, bool, error) {
	if err := d.ensureVersionTable(); err != nil {
		return 0, false, err
	}
	var (
		version int
		dirty   bool
	)
	err := d.db.QueryRow("SELECT version, dirty FROM " + versionTable + " LIMIT 1").
		Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return database.NilVersion, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading version: %w", err)
	}
	return version, dirty, nil
}

func (d *driver) Drop() error {
	rows, err := d.db.Query(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating tables: %w", err)
	}
	_ = rows.Close()

	for _, table := range tables {
		if _, err := d.db.Exec("DROP TABLE " + table); err != nil {
			return fmt.Errorf("dropping table %s: %w", table, err)
		}
	}
	return nil
}

func (d *driver) ensureVersionTable() error {
	_, err := d.db.Exec(
		"CREATE TABLE IF NOT EXISTS " + versionTable + " (version INTEGER NOT NULL, dirty BOOLEAN NOT NULL)")
	if err != nil {
		return fmt.Errorf("creating version table: %w", err)
	}
	return nil
}
