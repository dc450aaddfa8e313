// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitedb

import (
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Config holds the parameters for opening a database. Path is
// required; all other fields have sensible defaults.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// file is created if it does not exist; the parent directory must
	// exist. Use ":memory:" for an in-memory database in tests.
	Path string

	// Logger receives operational messages (open/close, pragma
	// errors). If nil, a no-op logger is used.
	Logger *slog.Logger

	// OnConnect is called once after standard pragmas are applied.
	// Use this for schema creation and any additional pragmas. If
	// OnConnect returns an error, the connection is closed and Open
	// fails.
	OnConnect func(conn *sqlite.Conn) error
}

// DB owns a single SQLite connection with appack-standard pragmas
// applied. Prepared statements are cached on the connection via
// sqlitex and live until Close.
type DB struct {
	conn   *sqlite.Conn
	logger *slog.Logger
	path   string
}

// Open opens (creating if absent) the database at cfg.Path and applies
// the standard pragmas. The caller must call Close when done.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitedb: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conn, err := sqlite.OpenConn(cfg.Path,
		sqlite.OpenReadWrite|sqlite.OpenCreate|sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: opening %s: %w", cfg.Path, err)
	}

	// WAL keeps the artifact readable while a registration transaction
	// is open; synchronous=NORMAL is durable enough under WAL. The
	// busy timeout covers a second handle poking at the same file,
	// which is outside the supported contract but shouldn't hang.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlitedb: %s: %w", pragma, err)
		}
	}

	if cfg.OnConnect != nil {
		if err := cfg.OnConnect(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlitedb: OnConnect: %w", err)
		}
	}

	logger.Debug("database opened", "path", cfg.Path)

	return &DB{
		conn:   conn,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// Conn returns the underlying connection. The connection stays owned
// by the DB; callers must not close it.
func (db *DB) Conn() *sqlite.Conn {
	return db.conn
}

// Close closes the connection, finalizing all cached statements. After
// Close the DB is unusable.
func (db *DB) Close() error {
	err := db.conn.Close()
	if err != nil {
		db.logger.Error("database close error",
			"path", db.path,
			"error", err,
		)
		return fmt.Errorf("sqlitedb: closing %s: %w", db.path, err)
	}
	db.logger.Debug("database closed", "path", db.path)
	return nil
}
