// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/chinmaygarde/appack/lib/fsutil"
	"github.com/chinmaygarde/appack/lib/mapping"
)

// Config holds the parameters for opening a package.
type Config struct {
	// Path is the package file's location. Created on first open.
	Path string

	// Codec selects the compression algorithm for newly registered
	// files. The zero value is [CodecZstd]. Extraction ignores this:
	// blobs identify their codec by frame magic.
	Codec Codec

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Package is a content-addressed package artifact. It owns its store
// handle exclusively; two Package values over the same file are
// undefined behavior beyond what SQLite provides. Package is not safe
// for concurrent use.
type Package struct {
	store  *Store
	codec  Codec
	logger *slog.Logger
}

// Open opens (creating if absent) the package at cfg.Path. The caller
// must call Close when done.
func Open(cfg Config) (*Package, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("pack: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := OpenStore(StoreConfig{Path: cfg.Path, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Package{
		store:  store,
		codec:  cfg.Codec,
		logger: logger,
	}, nil
}

// Close releases the package's store.
func (p *Package) Close() error {
	return p.store.Close()
}

// RegisterPaths ingests each path in order. Every path is checked for
// existence before any mutation, so a missing path fails the whole
// call without adding entries.
func (p *Package) RegisterPaths(paths []string, base *fsutil.File) error {
	for _, target := range paths {
		if !fsutil.Exists(target, base) {
			return fmt.Errorf("pack: path does not exist: %s", target)
		}
	}
	for _, target := range paths {
		if err := p.RegisterPath(target, base); err != nil {
			return fmt.Errorf("pack: registering %s: %w", target, err)
		}
	}
	return nil
}

// RegisterPath ingests one path. A directory is walked recursively
// and its entries stored under their walk-relative names (the
// directory's own name is not part of the stored names). A regular
// file or symlink is stored under its basename.
func (p *Package) RegisterPath(target string, base *fsutil.File) error {
	info, err := fsutil.Stat(target, base, false)
	if err != nil {
		return err
	}

	switch info.Kind {
	case fsutil.KindDirectory:
		return fsutil.WalkTree(target, base, p.registerNamedFile, p.registerNamedSymlink)

	case fsutil.KindRegular:
		name, err := entryBasename(target)
		if err != nil {
			return err
		}
		file, err := fsutil.Open(target, fsutil.ReadOnly, 0, base)
		if err != nil {
			return err
		}
		defer file.Close()
		return p.registerNamedFile(name, file)

	case fsutil.KindSymlink:
		name, err := entryBasename(target)
		if err != nil {
			return err
		}
		linkTarget, err := fsutil.ReadLink(target, base)
		if err != nil {
			return err
		}
		return p.registerNamedSymlink(name, linkTarget)

	default:
		return fmt.Errorf("unsupported file kind %s for %s", info.Kind, target)
	}
}

// entryBasename returns the stored name for a top-level file or
// symlink: its final path component.
func entryBasename(target string) (string, error) {
	name := path.Base(filepath.ToSlash(target))
	if name == "/" || name == "." || name == ".." {
		return "", fmt.Errorf("path has no file name: %s", target)
	}
	return name, nil
}

// registerNamedFile hashes and compresses the open file's contents
// and stores both rows transactionally under name.
func (p *Package) registerNamedFile(name string, file *fsutil.File) error {
	size, err := file.Size()
	if err != nil {
		return fmt.Errorf("sizing %s: %w", name, err)
	}

	contents, err := mapping.File(file.Fd(), size, false, false)
	if err != nil {
		return fmt.Errorf("mapping %s: %w", name, err)
	}
	defer contents.Close()

	hash := HashBytes(contents.Data())

	compressed, compressedLength, err := Compress(contents.Data(), p.codec)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}
	defer compressed.Close()

	if err := p.store.RegisterFile(name, hash, compressed.Data()[:compressedLength]); err != nil {
		return err
	}

	p.logger.Debug("file registered",
		"name", name,
		"hash", FormatHash(hash),
		"size", size,
		"compressed_size", compressedLength,
	)
	return nil
}

// registerNamedSymlink stores the symlink row for name.
func (p *Package) registerNamedSymlink(name, target string) error {
	if err := p.store.RegisterSymlink(name, target); err != nil {
		return err
	}
	p.logger.Debug("symlink registered", "name", name, "target", target)
	return nil
}

// Install reconstructs every captured entry below root. Regular files
// are decompressed through the atomic writer and symlinks recreated
// (replacing whatever is already there), so re-installing over the
// same root succeeds and overwrites. The first failing entry aborts
// the loop; entries already extracted are left in place.
func (p *Package) Install(root string, base *fsutil.File) error {
	entries, err := p.store.ListEntries()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		destination := filepath.Join(root, filepath.FromSlash(entry.Name))
		if parent := filepath.Dir(destination); parent != "." && parent != "/" {
			if err := fsutil.MakeDirectories(parent, base); err != nil {
				return fmt.Errorf("pack: preparing directories for %s: %w", entry.Name, err)
			}
		}

		switch entry.Kind {
		case EntryFile:
			err := p.store.ReadBlob(entry.Hash, func(compressed []byte) error {
				return DecompressToPath(compressed, destination, base)
			})
			if err != nil {
				return fmt.Errorf("pack: installing %s: %w", entry.Name, err)
			}

		case EntrySymlink:
			if err := fsutil.MakeSymlink(destination, entry.SymlinkTarget, base); err != nil {
				return fmt.Errorf("pack: installing symlink %s: %w", entry.Name, err)
			}
		}
	}

	p.logger.Info("package installed", "root", root, "entries", len(entries))
	return nil
}

// ListEntries returns every entry in the package. See
// [Store.ListEntries] for the corruption checks applied.
func (p *Package) ListEntries() ([]Entry, error) {
	return p.store.ListEntries()
}

// FileListing is one row of [Package.ListFiles]: a file entry's name
// and its hex-rendered content hash.
type FileListing struct {
	Name string
	Hash string
}

// ListFiles returns the package's file entries with display-ready
// hashes. Symlink entries are omitted; use [Package.ListEntries] for
// the full set.
func (p *Package) ListFiles() ([]FileListing, error) {
	entries, err := p.store.ListEntries()
	if err != nil {
		return nil, err
	}

	var listings []FileListing
	for _, entry := range entries {
		if entry.Kind != EntryFile {
			continue
		}
		listings = append(listings, FileListing{
			Name: entry.Name,
			Hash: FormatHash(entry.Hash),
		})
	}
	return listings, nil
}
