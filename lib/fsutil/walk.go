// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"fmt"
	"io/fs"
)

// FileFunc is invoked by [WalkTree] for each regular file. The path is
// relative to the walk root, forward-slash separated, and does not
// include the root directory's own name. The handle is owned by the
// walker and closed after the callback returns.
type FileFunc func(path string, file *File) error

// SymlinkFunc is invoked by [WalkTree] for each symlink, with the
// link's literal target text.
type SymlinkFunc func(path, target string) error

// WalkTree recursively visits the directory at path, calling onFile
// for regular files and onSymlink for symlinks. Sub-directories are
// descended into through their open handles; other object kinds
// (sockets, devices, FIFOs) are skipped. The first callback error
// aborts the walk.
func WalkTree(path string, base *File, onFile FileFunc, onSymlink SymlinkFunc) error {
	dir, err := Open(path, ReadOnly, Directory, base)
	if err != nil {
		return err
	}
	defer dir.Close()
	return walkTree(dir, path, "", onFile, onSymlink)
}

// walkTree visits one open directory. dirPath is the walked directory's
// path for error messages; prefix is the relative path accumulated so
// far ("" at the root, since the root's own name is elided).
func walkTree(dir *File, dirPath, prefix string, onFile FileFunc, onSymlink SymlinkFunc) error {
	entries, err := readDirEntries(dir)
	if err != nil {
		return fmt.Errorf("walking %s: %w", dirPath, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		relative := name
		if prefix != "" {
			relative = prefix + "/" + name
		}

		kind := entry.Type()
		switch {
		case kind.IsDir():
			subdir, openErr := Open(name, ReadOnly, Directory, dir)
			if openErr != nil {
				return openErr
			}
			walkErr := walkTree(subdir, dirPath+"/"+name, relative, onFile, onSymlink)
			subdir.Close()
			if walkErr != nil {
				return walkErr
			}

		case kind&fs.ModeSymlink != 0:
			target, linkErr := ReadLink(name, dir)
			if linkErr != nil {
				return linkErr
			}
			if err := onSymlink(relative, target); err != nil {
				return err
			}

		case kind.IsRegular():
			file, openErr := Open(name, ReadOnly, 0, dir)
			if openErr != nil {
				return openErr
			}
			callbackErr := onFile(relative, file)
			file.Close()
			if callbackErr != nil {
				return callbackErr
			}
		}
		// Sockets, devices, and FIFOs fall through and are skipped.
	}
	return nil
}
