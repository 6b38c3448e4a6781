package convdb

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store records conversation turns and voice profiles in a SQLite file.
//
// A Store holds at most one connection. Every operation connects on first
// use and runs with the store lock held, so concurrent callers are
// serialized. Close releases the connection; the next operation reconnects.
type Store struct {
	path string
	log  *slog.Logger
	now  func() time.Time

	mu sync.Mutex
	db *sql.DB
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for store events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open returns a store for the database at path. It does not touch the
// disk; the file is opened by the first operation.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path: path,
		log:  slog.Default(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With opens a store at path, passes it to fn and closes it afterwards,
// also when fn fails.
func With(ctx context.Context, path string, fn func(*Store) error, opts ...Option) (err error) {
	s := Open(path, opts...)
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return fn(s)
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Connect opens the connection now instead of on first use.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.connLocked(ctx)
	return err
}

// Connected reports whether the store currently holds a connection.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// Close releases the connection. Closing a disconnected store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	s.log.Info("db.closed", "path", s.path)
	return nil
}

func (s *Store) connLocked(ctx context.Context) (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "connect", Err: err}
		}
	}
	db, err := sql.Open("sqlite", dsn(s.path))
	if err != nil {
		return nil, &StorageError{Op: "connect", Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StorageError{Op: "connect", Err: err}
	}

	s.db = db
	s.log.Info("db.connected", "path", s.path)
	return db, nil
}

// do runs fn on the connection with the store lock held. Errors from fn are
// wrapped in a StorageError for op.
func (s *Store) do(ctx context.Context, op string, fn func(*sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.connLocked(ctx)
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return &StorageError{Op: op, Err: err}
	}
	return nil
}

// dsn builds a SQLite file URI for path. The path is percent-escaped so
// that '?', '#' and '%' stay part of the file name.
func dsn(path string) string {
	u := url.URL{Path: filepath.ToSlash(path)}
	q := url.Values{"_pragma": {"busy_timeout(5000)"}}
	return "file:" + u.EscapedPath() + "?" + q.Encode()
}
