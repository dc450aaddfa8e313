// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"fmt"
	"os"

	"github.com/chinmaygarde/appack/lib/mapping"
)

// WriteAtomically produces a file at path through a sibling temp file
// and an atomic rename, so no reader ever observes a partial file at
// the final name. For a zero content size the final path is simply
// created and truncated. Otherwise a temp file in the same directory
// is extended to size, mapped shared read-write, and handed to write
// exactly once; the mapping is flushed to disk before the rename.
//
// On a write callback failure the temp file is left behind and the
// error returned — callers may retry, which overwrites the temp.
func WriteAtomically(path string, base *File, size int64, write func([]byte) error) error {
	if size == 0 {
		file, err := Open(path, WriteOnly, Create|Truncate, base)
		if err != nil {
			return err
		}
		return file.Close()
	}

	// The suffix keeps the temp in the destination directory, so the
	// final rename cannot cross a filesystem boundary.
	tempPath := fmt.Sprintf("%s.tmp%d", path, os.Getpid())

	file, err := Open(tempPath, ReadWrite, Create|Truncate, base)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := file.Truncate(size); err != nil {
		return fmt.Errorf("sizing %s: %w", tempPath, err)
	}

	region, err := mapping.File(file.Fd(), size, true, true)
	if err != nil {
		return fmt.Errorf("mapping %s: %w", tempPath, err)
	}
	defer region.Close()

	if err := write(region.Data()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := region.Sync(); err != nil {
		return fmt.Errorf("flushing %s: %w", tempPath, err)
	}
	if err := region.Close(); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tempPath, err)
	}

	return Rename(tempPath, base, path, base)
}
