// Package store persists the logistics domain records (owners, users,
// vehicles, trips, loads, expenses, location updates) in SQLite and
// exposes the CRUD operations and alternate-key lookups the pipeline
// needs. Every create returns the newly assigned integer id; every
// lookup returns either a row or ErrNotFound.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"fleetmind/internal/logging"
)

// ErrNotFound signals a lookup that matched no row.
var ErrNotFound = errors.New("record not found")

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at the given path.
// Use ":memory:" for an ephemeral store (tests).
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("failed to enable foreign keys: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("store initialized at %s", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS owners (
		owner_id         INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name     TEXT NOT NULL,
		business_address TEXT NOT NULL,
		contact_email    TEXT NOT NULL,
		gst_number       TEXT,
		created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		user_id       INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id      INTEGER NOT NULL REFERENCES owners(owner_id),
		full_name     TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		phone_number  TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('customer','driver','owner')),
		created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS vehicles (
		vehicle_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id      INTEGER NOT NULL REFERENCES owners(owner_id),
		license_plate TEXT NOT NULL,
		capacity_kg   REAL NOT NULL,
		status        TEXT NOT NULL DEFAULT 'available',
		created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS trips (
		trip_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		driver_id  INTEGER NOT NULL REFERENCES users(user_id),
		vehicle_id INTEGER NOT NULL REFERENCES vehicles(vehicle_id),
		status     TEXT NOT NULL DEFAULT 'scheduled',
		start_time TEXT,
		end_time   TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS loads (
		load_id             INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id         INTEGER NOT NULL REFERENCES users(user_id),
		pickup_address      TEXT NOT NULL,
		destination_address TEXT NOT NULL,
		weight_kg           REAL,
		description         TEXT,
		status              TEXT NOT NULL DEFAULT 'pending',
		trip_id             INTEGER REFERENCES trips(trip_id),
		created_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS expenses (
		expense_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		driver_id    INTEGER NOT NULL REFERENCES users(user_id),
		trip_id      INTEGER REFERENCES trips(trip_id),
		amount       REAL NOT NULL,
		expense_type TEXT NOT NULL,
		description  TEXT,
		receipt_url  TEXT,
		created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS location_updates (
		location_id INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id     INTEGER NOT NULL REFERENCES trips(trip_id),
		latitude    REAL NOT NULL,
		longitude   REAL NOT NULL,
		speed_kmh   REAL,
		address     TEXT,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
	CREATE INDEX IF NOT EXISTS idx_vehicles_plate ON vehicles(license_plate);
	CREATE INDEX IF NOT EXISTS idx_trips_driver ON trips(driver_id);
	CREATE INDEX IF NOT EXISTS idx_expenses_trip ON expenses(trip_id);
	CREATE INDEX IF NOT EXISTS idx_expenses_driver ON expenses(driver_id);
	CREATE INDEX IF NOT EXISTS idx_loads_trip ON loads(trip_id);
	CREATE INDEX IF NOT EXISTS idx_locations_trip ON location_updates(trip_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
