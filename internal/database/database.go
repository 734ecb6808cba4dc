package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database holding the announcement log and the
// aircraft registry
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite tunes SQLite for small boards writing to SD cards
func optimizeSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// AnnouncementRepository returns the announcement log
func (d *DB) AnnouncementRepository() AnnouncementRepository {
	return NewAnnouncementRepository(d.db)
}

// AircraftRepository returns the aircraft registry
func (d *DB) AircraftRepository() AircraftRepository {
	return NewAircraftRepository(d.db)
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS announcements (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			icao TEXT NOT NULL,
			flight TEXT,
			text TEXT,
			suppressed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_announcements_icao ON announcements(icao)`,
		`CREATE INDEX IF NOT EXISTS idx_announcements_timestamp ON announcements(timestamp)`,
		`CREATE TABLE IF NOT EXISTS aircraft (
			icao24 TEXT PRIMARY KEY,
			registration TEXT,
			manufacturerIcao TEXT,
			manufacturerName TEXT,
			model TEXT,
			typecode TEXT,
			operator TEXT,
			operatorIcao TEXT,
			owner TEXT,
			built TEXT
		)`,
	}

	for _, stmt := range schema {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
