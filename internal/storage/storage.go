// Package storage is the durable copy of session state: a small SQLite-backed
// key-value store holding the project document and chat history as JSON text
// under fixed keys. The persisted copy is the only durable state; there is no
// server-side replica.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/fjellheim/advisor/internal/model"
)

// Fixed document keys.
const (
	KeyProject = "project"
	KeyHistory = "chatHistory"
)

// Store manages the SQLite database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	mu     sync.Mutex
}

// New opens (or creates) the SQLite database and runs migrations.
func New(dbPath string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
	}

	// Set PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	s.logger.Info().Str("path", dbPath).Msg("storage initialized")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying database connection (for testing).
func (s *Store) DB() *sql.DB {
	return s.db
}

// SaveProject serializes and stores the project document.
func (s *Store) SaveProject(p *model.Project) error {
	return s.set(KeyProject, p)
}

// LoadProject returns the persisted project, or nil when absent. Malformed
// stored text never surfaces as an error: the store is wiped so the
// application starts fresh.
func (s *Store) LoadProject() (*model.Project, error) {
	var p model.Project
	ok, err := s.get(KeyProject, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// SaveHistory serializes and stores the chat log.
func (s *Store) SaveHistory(msgs []model.ChatMessage) error {
	return s.set(KeyHistory, msgs)
}

// LoadHistory returns the persisted chat log, or nil when absent.
func (s *Store) LoadHistory() ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	ok, err := s.get(KeyHistory, &msgs)
	if err != nil || !ok {
		return nil, err
	}
	return msgs, nil
}

// Clear removes every key used by the application.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM documents`); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

func (s *Store) set(key string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO documents (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// get reads and decodes one document. The second return is false when the key
// is absent. Corruption wipes the store and reports absence.
func (s *Store) get(key string, out interface{}) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM documents WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("corrupt stored document, wiping storage")
		if clearErr := s.Clear(); clearErr != nil {
			return false, fmt.Errorf("failed to wipe corrupt storage: %w", clearErr)
		}
		return false, nil
	}
	return true, nil
}
