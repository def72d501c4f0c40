package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"planner.randoplan.org/internal/metrics"
	"planner.randoplan.org/internal/models"
	"planner.randoplan.org/internal/report"

	_ "modernc.org/sqlite"
)

// StorageKey is the fixed key under which the client's single itinerary
// document is stored.
const StorageKey = "rando-planner-itinerary"

// Store persists the itinerary document in a local SQLite database, one
// document per client under a fixed key. Reads fail soft: anything that goes
// wrong while loading degrades to "no saved itinerary".
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (and if needed initializes) the storage database at the
// given path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping storage database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize storage schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save serializes the itinerary and writes it under the fixed storage key.
// It runs synchronously within the mutation that changed the itinerary; the
// caller treats a failure as fire-and-forget (logged, never blocking).
func (s *Store) Save(it models.Itinerary) error {
	body, err := json.Marshal(Serialize(it))
	if err != nil {
		return fmt.Errorf("failed to encode itinerary: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		StorageKey, string(body), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write itinerary document: %w", err)
	}
	return nil
}

// Load restores the persisted itinerary. The second return value reports
// whether a saved itinerary was found. Every failure mode (no row, corrupted
// JSON, unknown schema version, malformed legs) is logged and mapped to
// "no saved itinerary"; Load never panics or returns an error to the caller.
func (s *Store) Load() (models.Itinerary, bool) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM documents WHERE key = ?`, StorageKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Itinerary{}, false
	}
	if err != nil {
		s.reportLoadFailure(fmt.Errorf("failed to read itinerary document: %w", err))
		return models.Itinerary{}, false
	}

	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		s.reportLoadFailure(fmt.Errorf("failed to parse itinerary document: %w", err))
		return models.Itinerary{}, false
	}

	it, err := Deserialize(doc)
	if err != nil {
		s.reportLoadFailure(fmt.Errorf("failed to reconstruct itinerary: %w", err))
		return models.Itinerary{}, false
	}
	return it, true
}

func (s *Store) reportLoadFailure(err error) {
	metrics.PersistenceFailures.WithLabelValues("read").Inc()
	report.ReportError(err, sentry.LevelWarning)
	s.logger.Error("Failed to restore saved itinerary, starting empty", "error", err)
}
