package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const (
	busyTimeoutMillis = "5000"
	memoryPath        = ":memory:"
)

// Store wraps a bounded pool of SQLite connections and exposes the todo repository.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open builds the connection pool described by connString, creating the database
// file when it does not exist, and applies pending migrations before returning.
func Open(ctx context.Context, connString string, maxConns int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxConns < 1 {
		return nil, fmt.Errorf("max connections must be positive, got %d", maxConns)
	}

	src, err := parseConnString(connString)
	if err != nil {
		return nil, err
	}

	if src.memory {
		if maxConns > 1 {
			logger.Warn("in-memory database is private to one connection; limiting pool to 1", "requested", maxConns)
		}
		maxConns = 1
	} else if err := ensureDir(src.path); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", src.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(maxConns)
	conn.SetMaxIdleConns(maxConns)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies that a connection can be obtained and used.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// dataSource is a parsed connection string.
type dataSource struct {
	path   string
	query  url.Values
	memory bool
}

// parseConnString accepts sqlite:<path>, sqlite://<path>, a bare path and the
// in-memory forms, each with an optional ?query passed through to the driver.
func parseConnString(raw string) (dataSource, error) {
	rest := strings.TrimSpace(raw)
	if rest == "" {
		return dataSource{}, fmt.Errorf("malformed connection string: empty")
	}

	switch {
	case strings.HasPrefix(rest, "sqlite://"):
		rest = strings.TrimPrefix(rest, "sqlite://")
	case strings.HasPrefix(rest, "sqlite:"):
		rest = strings.TrimPrefix(rest, "sqlite:")
	case strings.Contains(rest, "://"):
		return dataSource{}, fmt.Errorf("malformed connection string %q: unsupported scheme", raw)
	}

	path, rawQuery, _ := strings.Cut(rest, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dataSource{}, fmt.Errorf("malformed connection string %q: %w", raw, err)
	}
	if path == "" {
		return dataSource{}, fmt.Errorf("malformed connection string %q: missing database path", raw)
	}

	return dataSource{
		path:   path,
		query:  query,
		memory: path == memoryPath || query.Get("mode") == "memory",
	}, nil
}

// dsn renders the go-sqlite3 data source name, adding the pragmas every
// connection needs unless the caller already set them.
func (d dataSource) dsn() string {
	params := url.Values{}
	for k, v := range d.query {
		params[k] = v
	}
	setDefault(params, "_busy_timeout", busyTimeoutMillis)
	setDefault(params, "_foreign_keys", "on")
	if !d.memory {
		setDefault(params, "_journal_mode", "WAL")
		setDefault(params, "mode", "rwc")
	}
	return fmt.Sprintf("file:%s?%s", escapePath(d.path), params.Encode())
}

// escapePath percent-encodes each segment so that characters such as '#' and
// '%' reach SQLite's URI parser as part of the filename.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func setDefault(params url.Values, key, value string) {
	if params.Get(key) == "" {
		params.Set(key, value)
	}
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
