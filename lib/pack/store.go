// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/chinmaygarde/appack/lib/sqlitedb"
)

// storeSchema is the on-disk package format: a files table keyed by
// relative path, holding exactly one of a content hash or a symlink
// target per row, and a contents table keyed by content hash.
const storeSchema = `
CREATE TABLE IF NOT EXISTS files (
	name         TEXT PRIMARY KEY,
	content_hash BLOB,
	symlink_path TEXT
);
CREATE TABLE IF NOT EXISTS contents (
	content_hash BLOB PRIMARY KEY,
	bytes        BLOB NOT NULL
);
`

// EntryKind discriminates the two kinds of package entry.
type EntryKind uint8

const (
	// EntryFile references a blob by content hash.
	EntryFile EntryKind = iota
	// EntrySymlink carries a symlink target verbatim.
	EntrySymlink
)

// String returns the human-readable name of an entry kind.
func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntrySymlink:
		return "symlink"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Entry is one captured path. Exactly one of Hash (for EntryFile) and
// SymlinkTarget (for EntrySymlink) is meaningful, selected by Kind.
type Entry struct {
	// Name is the entry's relative path: forward-slash separated,
	// no empty components.
	Name string

	// Kind selects which of the remaining fields carries the content
	// reference.
	Kind EntryKind

	// Hash is the content address of the entry's blob. Valid only
	// when Kind is EntryFile.
	Hash Hash

	// SymlinkTarget is the link's literal target text, preserved
	// byte-for-byte and never resolved. Valid only when Kind is
	// EntrySymlink.
	SymlinkTarget string
}

// StoreConfig holds the parameters for opening a package store.
type StoreConfig struct {
	// Path is the package file's location. Created on first open.
	Path string

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Store is the transactional façade over a package's SQLite file. It
// owns the connection and the prepared statements derived from it for
// the package's lifetime.
type Store struct {
	db     *sqlitedb.DB
	logger *slog.Logger
}

// OpenStore opens (creating if absent) the package store at cfg.Path,
// including its schema.
func OpenStore(cfg StoreConfig) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sqlitedb.Open(sqlitedb.Config{
		Path:   cfg.Path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, storeSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pack store: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the store's connection and statements.
func (s *Store) Close() error {
	return s.db.Close()
}

// RegisterFile upserts the file row for name and the blob row for its
// hash in a single transaction. On any failed step the transaction is
// rolled back and neither row is visible. Re-registering an existing
// name replaces its hash; the previous blob is left behind (there is
// no garbage collection).
func (s *Store) RegisterFile(name string, hash Hash, compressed []byte) (err error) {
	conn := s.db.Conn()

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("pack store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn,
		`INSERT OR REPLACE INTO files (name, content_hash, symlink_path) VALUES (?, ?, NULL)`,
		&sqlitex.ExecOptions{Args: []any{name, hash[:]}})
	if err != nil {
		return fmt.Errorf("pack store: registering file %q: %w", name, err)
	}

	err = sqlitex.Execute(conn,
		`INSERT OR REPLACE INTO contents (content_hash, bytes) VALUES (?, ?)`,
		&sqlitex.ExecOptions{Args: []any{hash[:], compressed}})
	if err != nil {
		return fmt.Errorf("pack store: storing blob %s: %w", FormatHash(hash), err)
	}

	return nil
}

// RegisterSymlink upserts the symlink row for name. A single
// statement; no transaction is needed.
func (s *Store) RegisterSymlink(name, target string) error {
	err := sqlitex.Execute(s.db.Conn(),
		`INSERT OR REPLACE INTO files (name, content_hash, symlink_path) VALUES (?, NULL, ?)`,
		&sqlitex.ExecOptions{Args: []any{name, target}})
	if err != nil {
		return fmt.Errorf("pack store: registering symlink %q: %w", name, err)
	}
	return nil
}

// ListEntries returns every entry in the package, in name order. A row
// with both or neither of the content hash and symlink target
// populated, or a hash of the wrong width, is a corruption and fails
// the whole listing.
func (s *Store) ListEntries() ([]Entry, error) {
	var entries []Entry
	err := sqlitex.Execute(s.db.Conn(),
		`SELECT name, content_hash, symlink_path FROM files ORDER BY name`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				name := stmt.ColumnText(0)
				hashLength := stmt.ColumnLen(1)
				target := stmt.ColumnText(2)

				switch {
				case hashLength > 0 && target != "":
					return fmt.Errorf("entry %q has both a content hash and a symlink target", name)

				case hashLength > 0:
					if hashLength != HashSize {
						return fmt.Errorf("entry %q has a %d-byte content hash, want %d", name, hashLength, HashSize)
					}
					var hash Hash
					stmt.ColumnBytes(1, hash[:])
					entries = append(entries, Entry{Name: name, Kind: EntryFile, Hash: hash})

				case target != "":
					entries = append(entries, Entry{Name: name, Kind: EntrySymlink, SymlinkTarget: target})

				default:
					return fmt.Errorf("entry %q has neither a content hash nor a symlink target", name)
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("pack store: listing entries: %w", err)
	}
	return entries, nil
}

// ReadBlob looks up the compressed bytes for hash and invokes sink
// exactly once with them. The slice is only valid for the duration of
// the call; the sink must not retain it. A missing blob is an error —
// a file row referencing it would be a dangling content address.
func (s *Store) ReadBlob(hash Hash, sink func(compressed []byte) error) error {
	if sink == nil {
		return fmt.Errorf("pack store: sink is required")
	}

	found := false
	err := sqlitex.Execute(s.db.Conn(),
		`SELECT bytes FROM contents WHERE content_hash = ?`,
		&sqlitex.ExecOptions{
			Args: []any{hash[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				blob := make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, blob)
				return sink(blob)
			},
		})
	if err != nil {
		return fmt.Errorf("pack store: reading blob %s: %w", FormatHash(hash), err)
	}
	if !found {
		return fmt.Errorf("pack store: no blob for content hash %s", FormatHash(hash))
	}
	return nil
}
