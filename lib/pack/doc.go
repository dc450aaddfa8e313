// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

// Package pack implements the content-addressed file packager: the
// ingestion pipeline (tree walk, hash, compress, store), the SQLite
// package format, and the extraction pipeline (enumerate, decompress
// atomically, recreate symlinks).
//
// A package is a single SQLite file with two tables: files maps a
// relative path to either a content hash or a symlink target, and
// contents maps a content hash to the compressed bytes. Hashes are
// BLAKE3-256 over the uncompressed content, so identical files share
// one blob. Blobs are zstd or LZ4 frames; both record the uncompressed
// length in the frame header and carry a magic number, so extraction
// needs no out-of-band metadata.
//
// All state is reachable through a [Package]. A Package is
// single-threaded: it owns its database connection exclusively and is
// not safe for concurrent use.
package pack
