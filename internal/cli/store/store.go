package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrCorrupt is returned when the DB file exists but cannot be opened or
// fails its integrity check. Callers treat this as a cold start: wipe the
// file and force a full bootstrap.
var ErrCorrupt = errors.New("local store corrupt")

// Store wraps the per-user SQLite database and the change notifier that
// feeds live queries.
type Store struct {
	db       *sql.DB
	notifier *Notifier
}

// OpenForUser opens (and creates if needed) a SQLite DB file segregated per
// login. Base directory can be overridden via CLIENT_DB_PATH.
func OpenForUser(login string) (*Store, string, error) {
	if login == "" {
		return nil, "", errors.New("empty login for user store")
	}
	base := os.Getenv("CLIENT_DB_PATH")
	if base == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return nil, "", err
		}
		base = filepath.Join(cfgDir, "BabyKeeper", "users")
	}
	dir := filepath.Join(base, login)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", err
	}
	dbPath := filepath.Join(dir, "client.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, "", err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, dbPath, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var ok string
	if err := db.QueryRow(`PRAGMA integrity_check;`).Scan(&ok); err != nil || ok != "ok" {
		_ = db.Close()
		return nil, dbPath, fmt.Errorf("%w: integrity check failed", ErrCorrupt)
	}
	return &Store{db: db, notifier: NewNotifier()}, dbPath, nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate ensures the required tables exist.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(initialDDL())
	return err
}

// DB exposes the raw handle for repositories in this package's subtree.
func (s *Store) DB() *sql.DB { return s.db }

// Notifier returns the change notifier used for live-query invalidation.
func (s *Store) Notifier() *Notifier { return s.notifier }

// WithTx runs fn inside a transaction and, on commit, notifies subscribers
// of the touched tables. A write that spans a domain table and the outbox
// must go through here so a crash cannot separate the two.
func (s *Store) WithTx(fn func(tx *sql.Tx) error, touched ...string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notifier.Notify(touched...)
	return nil
}
