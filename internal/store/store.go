// Package store keeps the logged-in identity in a local SQLite database.
// There is at most one identity; writing a new one replaces the old.
package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zhubert/pischat/internal/chat"
	perrors "github.com/zhubert/pischat/internal/errors"
	"github.com/zhubert/pischat/internal/logger"
)

// FileName is the database file inside the data directory.
const FileName = "user.db"

const schema = `CREATE TABLE IF NOT EXISTS user(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_uuid TEXT NOT NULL,
	username TEXT NOT NULL,
	name TEXT NOT NULL
);`

// Store is the identity database.
type Store struct {
	db   *sql.DB
	lock sync.RWMutex
}

// Open opens (creating if needed) the database in dir. An empty dir or the
// special name ":memory:" gives a private in-memory database.
func Open(dir string) (*Store, error) {
	const op = perrors.Op("store.Open")

	dsn := ":memory:"
	if dir != "" && dir != ":memory:" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, perrors.StorageFailed(op, err)
		}
		dsn = filepath.Join(dir, FileName)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, perrors.StorageFailed(op, err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, perrors.StorageFailed(op, err)
	}
	logger.WithComponent("store").Debug("opened identity store", "dsn", dsn)
	return &Store{db: db}, nil
}

// CurrentUser returns the stored identity, or nil when nobody is logged in.
func (s *Store) CurrentUser() (*chat.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var u chat.User
	err := s.db.QueryRow("SELECT user_uuid, username, name FROM user ORDER BY id LIMIT 1").
		Scan(&u.ID, &u.Username, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, perrors.StorageFailed(perrors.Op("store.CurrentUser"), err)
	}
	return &u, nil
}

// SetCurrentUser replaces the stored identity with u in one transaction.
func (s *Store) SetCurrentUser(u chat.User) error {
	const op = perrors.Op("store.SetCurrentUser")
	if u.ID == "" {
		return perrors.Invalid(op, "user id is empty")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return perrors.StorageFailed(op, err)
	}
	if _, err := tx.Exec("DELETE FROM user"); err != nil {
		tx.Rollback()
		return perrors.StorageFailed(op, err)
	}
	stmt, err := tx.Prepare("INSERT INTO user (user_uuid, username, name) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return perrors.StorageFailed(op, err)
	}
	defer stmt.Close()
	if _, err := stmt.Exec(u.ID, u.Username, u.Name); err != nil {
		tx.Rollback()
		return perrors.StorageFailed(op, err)
	}
	if err := tx.Commit(); err != nil {
		return perrors.StorageFailed(op, err)
	}
	return nil
}

// ClearCurrentUser removes the stored identity.
func (s *Store) ClearCurrentUser() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, err := s.db.Exec("DELETE FROM user"); err != nil {
		return perrors.StorageFailed(perrors.Op("store.ClearCurrentUser"), err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
