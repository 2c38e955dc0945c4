package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	// A single connection keeps the done-flag transition and its
	// precondition on one serialized writer, and keeps :memory:
	// databases from evaporating between pooled connections.
	db.SetMaxOpenConns(1)

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS countries (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			override_license TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS stations (
			country TEXT NOT NULL,
			station_id TEXT NOT NULL,
			title TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			ds100 TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (country, station_id)
		);

		CREATE TABLE IF NOT EXISTS photos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			country TEXT NOT NULL,
			station_id TEXT NOT NULL,
			photographer TEXT NOT NULL,
			license TEXT NOT NULL,
			url_path TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (country, station_id)
		);

		CREATE TABLE IF NOT EXISTS inbox (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			country TEXT NOT NULL DEFAULT '',
			station_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			lat REAL NOT NULL DEFAULT 0,
			lon REAL NOT NULL DEFAULT 0,
			active INTEGER,
			photographer_id INTEGER NOT NULL,
			photographer_name TEXT NOT NULL DEFAULT '',
			photographer_license TEXT NOT NULL DEFAULT '',
			extension TEXT NOT NULL DEFAULT '',
			crc32 INTEGER NOT NULL DEFAULT 0,
			comment TEXT NOT NULL DEFAULT '',
			problem_type TEXT NOT NULL DEFAULT '',
			done INTEGER NOT NULL DEFAULT 0,
			reject_reason TEXT,
			notified INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_inbox_station ON inbox(country, station_id);
		CREATE INDEX IF NOT EXISTS idx_inbox_done ON inbox(done);
		CREATE INDEX IF NOT EXISTS idx_photos_station ON photos(country, station_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

// proximitySQL is the flat-earth duplicate-detection predicate. It must
// stay in lockstep with models.ProximityMetric: 0.25 is the squared
// 0.5 km threshold, ?1/?2 are lon/lat of the probe point.
const proximitySQL = `((71.5 * (lon - ?1)) * (71.5 * (lon - ?1)) +
	(111.3 * (lat - ?2)) * (111.3 * (lat - ?2))) < 0.25`

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
