package host

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Store is SQLite-backed persistence for flags and client settings.
// It implements both FlagStore and Settings. Settings reads are served
// from an in-memory cache loaded at open time so the UI event loop
// never waits on the database for a read.
type Store struct {
	db *sql.DB

	mu       sync.Mutex
	settings map[string]string
}

// OpenStore opens or creates the quickbar database at the given path.
func OpenStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, settings: map[string]string{}}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if err := s.loadSettings(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS flags (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (scope, key)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) loadSettings() error {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		s.settings[k] = v
	}
	return rows.Err()
}

// Get reads a flag value. The second return is false when the flag is
// not set.
func (s *Store) Get(scope, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM flags WHERE scope = ? AND key = ?`, scope, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set writes a flag value, replacing any previous value.
func (s *Store) Set(scope, key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO flags (scope, key, value) VALUES (?, ?, ?)
		ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value
	`, scope, key, value)
	return err
}

// Unset removes a flag. Removing an absent flag is not an error.
func (s *Store) Unset(scope, key string) error {
	_, err := s.db.Exec(`DELETE FROM flags WHERE scope = ? AND key = ?`, scope, key)
	return err
}

// GetSetting reads a client-scoped setting from the cache.
func (s *Store) GetSetting(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok
}

// SetSetting writes a client-scoped setting through to the database.
// Write errors are swallowed after updating the cache: a failed settings
// write degrades to session-only persistence rather than breaking the UI.
func (s *Store) SetSetting(key, value string) {
	s.mu.Lock()
	s.settings[key] = value
	s.mu.Unlock()

	s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
}

// settingsView adapts Store to the Settings interface.
type settingsView struct{ s *Store }

// SettingsView returns the store's Settings facade.
func (s *Store) SettingsView() Settings {
	return settingsView{s: s}
}

func (v settingsView) Get(key string) (string, bool) { return v.s.GetSetting(key) }
func (v settingsView) Set(key, value string)         { v.s.SetSetting(key, value) }

// MemoryFlagStore is an in-memory FlagStore for tests.
type MemoryFlagStore struct {
	mu    sync.Mutex
	flags map[string]string
}

// NewMemoryFlagStore creates an empty in-memory flag store.
func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: map[string]string{}}
}

func (m *MemoryFlagStore) Get(scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.flags[scope+"\x00"+key]
	return v, ok, nil
}

func (m *MemoryFlagStore) Set(scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[scope+"\x00"+key] = value
	return nil
}

func (m *MemoryFlagStore) Unset(scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flags, scope+"\x00"+key)
	return nil
}

// MemorySettings is an in-memory Settings for tests.
type MemorySettings struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemorySettings creates an empty in-memory settings store.
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{values: map[string]string{}}
}

func (m *MemorySettings) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemorySettings) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}
