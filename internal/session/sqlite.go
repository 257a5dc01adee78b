package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"chainsight/internal/conversation"
)

// SQLiteStore persists sessions across restarts. History and scratchpad are
// stored as JSON blobs per key; per-key turn serialization stays in-process.
type SQLiteStore struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL for better concurrency across keys.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, locks: make(map[string]*sync.Mutex)}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_key TEXT PRIMARY KEY,
		history_json TEXT NOT NULL,
		scratchpad_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(key string) (State, error) {
	row := s.db.QueryRow(
		`SELECT history_json, scratchpad_json FROM sessions WHERE session_key = ?`, key)

	var historyJSON, scratchpadJSON string
	err := row.Scan(&historyJSON, &scratchpadJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return emptyState(key), nil
	}
	if err != nil {
		return emptyState(key), fmt.Errorf("scan session row: %w", err)
	}

	st := emptyState(key)
	if err := json.Unmarshal([]byte(historyJSON), &st.History); err != nil {
		return emptyState(key), fmt.Errorf("decode history for %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(scratchpadJSON), &st.Scratchpad); err != nil {
		return emptyState(key), fmt.Errorf("decode scratchpad for %q: %w", key, err)
	}
	return st, nil
}

func (s *SQLiteStore) Save(key string, st State) error {
	if st.History == nil {
		st.History = []conversation.Message{}
	}
	if st.Scratchpad == nil {
		st.Scratchpad = map[string]any{}
	}
	historyJSON, err := json.Marshal(st.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	scratchpadJSON, err := json.Marshal(st.Scratchpad)
	if err != nil {
		return fmt.Errorf("encode scratchpad: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.db.Exec(`
		INSERT INTO sessions (session_key, history_json, scratchpad_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			history_json = excluded.history_json,
			scratchpad_json = excluded.scratchpad_json,
			updated_at = excluded.updated_at`,
		key, string(historyJSON), string(scratchpadJSON), now, now)
	if err != nil {
		return fmt.Errorf("save session %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(key string) error {
	return s.Save(key, emptyState(key))
}

func (s *SQLiteStore) Lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
