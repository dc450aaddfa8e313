// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// File exclusively owns an open file descriptor. All descriptors are
// opened with O_CLOEXEC. The zero value is not usable; obtain a File
// from [Open].
type File struct {
	fd int
}

// Access selects the read/write mode for [Open].
type Access int

const (
	// ReadOnly opens for reading.
	ReadOnly Access = iota
	// WriteOnly opens for writing.
	WriteOnly
	// ReadWrite opens for both.
	ReadWrite
)

// OpenFlag is a bitmask of extra open behaviors.
type OpenFlag int

const (
	// Create creates the file if it does not exist (mode 0777,
	// masked by the process umask).
	Create OpenFlag = 1 << iota
	// Truncate truncates the file to zero length on open.
	Truncate
	// Directory requires the path to name a directory.
	Directory
)

// Kind classifies a filesystem object.
type Kind int

const (
	// KindRegular is a regular file.
	KindRegular Kind = iota
	// KindDirectory is a directory.
	KindDirectory
	// KindSymlink is a symbolic link.
	KindSymlink
	// KindOther is any other object kind (socket, device, FIFO).
	KindOther
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Info describes a filesystem object as reported by [Stat].
type Info struct {
	// Size is the object's size in bytes. For symlinks this is the
	// length of the target text.
	Size int64

	// Kind is the object's classification.
	Kind Kind
}

// dirFd returns the descriptor to resolve a relative path against:
// the base directory's if one is given, AT_FDCWD otherwise.
func dirFd(base *File) int {
	if base == nil {
		return unix.AT_FDCWD
	}
	return base.fd
}

// ignoringEINTR retries fn until it returns anything other than EINTR.
// The *at syscalls can be interrupted by asynchronous signals before
// any work happens; these retries are the only retry policy in the
// package.
func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}

// Open opens path relative to base. Creation uses mode 0777 (masked by
// the process umask).
func Open(path string, access Access, flags OpenFlag, base *File) (*File, error) {
	oflags := unix.O_CLOEXEC
	switch access {
	case ReadOnly:
		oflags |= unix.O_RDONLY
	case WriteOnly:
		oflags |= unix.O_WRONLY
	case ReadWrite:
		oflags |= unix.O_RDWR
	}
	if flags&Create != 0 {
		oflags |= unix.O_CREAT
	}
	if flags&Truncate != 0 {
		oflags |= unix.O_TRUNC
	}
	if flags&Directory != 0 {
		oflags |= unix.O_DIRECTORY
	}

	var fd int
	err := ignoringEINTR(func() (openErr error) {
		fd, openErr = unix.Openat(dirFd(base), path, oflags, 0o777)
		return openErr
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &File{fd: fd}, nil
}

// Fd returns the raw descriptor, for mmap and the *at syscalls. The
// caller must not close it; ownership stays with the File.
func (f *File) Fd() int {
	return f.fd
}

// Size returns the file's size in bytes via fstat.
func (f *File) Size() (int64, error) {
	var stat unix.Stat_t
	if err := unix.Fstat(f.fd, &stat); err != nil {
		return 0, fmt.Errorf("fstat: %w", err)
	}
	return stat.Size, nil
}

// Truncate sets the file's length.
func (f *File) Truncate(size int64) error {
	if err := unix.Ftruncate(f.fd, size); err != nil {
		return fmt.Errorf("ftruncate to %d: %w", size, err)
	}
	return nil
}

// Close releases the descriptor. Safe to call more than once.
func (f *File) Close() error {
	if f.fd < 0 {
		return nil
	}
	fd := f.fd
	f.fd = -1
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// readDirEntries reads all entries of the open directory f. The
// descriptor is duplicated so the os.File wrapper can own and close
// its copy; f stays usable for subsequent *at calls against the
// returned names.
func readDirEntries(f *File) ([]os.DirEntry, error) {
	dupFd, err := unix.Dup(f.fd)
	if err != nil {
		return nil, fmt.Errorf("dup: %w", err)
	}
	dir := os.NewFile(uintptr(dupFd), "")
	defer dir.Close()
	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("reading directory entries: %w", err)
	}
	return entries, nil
}

// Stat describes the object at path. With followSymlinks false, a
// symlink is reported as itself rather than as its target.
func Stat(path string, base *File, followSymlinks bool) (Info, error) {
	flags := 0
	if !followSymlinks {
		flags = unix.AT_SYMLINK_NOFOLLOW
	}
	var stat unix.Stat_t
	err := ignoringEINTR(func() error {
		return unix.Fstatat(dirFd(base), path, &stat, flags)
	})
	if err != nil {
		return Info{}, fmt.Errorf("stating %s: %w", path, err)
	}

	info := Info{Size: stat.Size}
	switch stat.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		info.Kind = KindRegular
	case unix.S_IFDIR:
		info.Kind = KindDirectory
	case unix.S_IFLNK:
		info.Kind = KindSymlink
	default:
		info.Kind = KindOther
	}
	return info, nil
}

// Exists reports whether path names any filesystem object (without
// following a trailing symlink).
func Exists(path string, base *File) bool {
	_, err := Stat(path, base, false)
	return err == nil
}

// ReadLink returns the literal target text of the symlink at path.
func ReadLink(path string, base *File) (string, error) {
	for bufferSize := 256; ; bufferSize *= 2 {
		buffer := make([]byte, bufferSize)
		var n int
		err := ignoringEINTR(func() (linkErr error) {
			n, linkErr = unix.Readlinkat(dirFd(base), path, buffer)
			return linkErr
		})
		if err != nil {
			return "", fmt.Errorf("reading link %s: %w", path, err)
		}
		// A full buffer may mean truncation; retry with a larger one.
		if n < bufferSize {
			return string(buffer[:n]), nil
		}
	}
}

// Rename atomically moves fromPath (relative to fromBase) to toPath
// (relative to toBase).
func Rename(fromPath string, fromBase *File, toPath string, toBase *File) error {
	err := ignoringEINTR(func() error {
		return unix.Renameat(dirFd(fromBase), fromPath, dirFd(toBase), toPath)
	})
	if err != nil {
		return fmt.Errorf("renaming %s to %s: %w", fromPath, toPath, err)
	}
	return nil
}

// MakeDirectories creates path and all missing ancestors. Idempotent:
// components that already exist are skipped.
func MakeDirectories(path string, base *File) error {
	var prefix string
	for _, component := range strings.Split(path, "/") {
		if component == "" {
			// Leading slash (absolute path) or doubled separator.
			if prefix == "" {
				prefix = "/"
			}
			continue
		}
		if prefix == "" || prefix == "/" {
			prefix += component
		} else {
			prefix += "/" + component
		}
		err := ignoringEINTR(func() error {
			return unix.Mkdirat(dirFd(base), prefix, 0o777)
		})
		if err != nil && err != unix.EEXIST {
			return fmt.Errorf("creating directory %s: %w", prefix, err)
		}
	}
	return nil
}

// MakeSymlink creates a symlink at path pointing at target. Any
// pre-existing entry at path is removed first, so repeated extraction
// over the same tree succeeds.
func MakeSymlink(path, target string, base *File) error {
	if Exists(path, base) {
		if err := Remove(path, base); err != nil {
			return fmt.Errorf("replacing %s: %w", path, err)
		}
	}
	err := ignoringEINTR(func() error {
		return unix.Symlinkat(target, dirFd(base), path)
	})
	if err != nil {
		return fmt.Errorf("creating symlink %s -> %s: %w", path, target, err)
	}
	return nil
}

// Remove deletes the object at path: regular files and symlinks are
// unlinked, directories are removed recursively.
func Remove(path string, base *File) error {
	info, err := Stat(path, base, false)
	if err != nil {
		return err
	}
	if info.Kind == KindDirectory {
		return RemoveAll(path, base)
	}
	err = ignoringEINTR(func() error {
		return unix.Unlinkat(dirFd(base), path, 0)
	})
	if err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// RemoveAll recursively removes the directory at path and everything
// below it. Entries are unlinked against their open parent directory,
// so a concurrent rename of an ancestor cannot redirect the cleanup.
func RemoveAll(path string, base *File) error {
	dir, err := Open(path, ReadOnly, Directory, base)
	if err != nil {
		return err
	}
	defer dir.Close()

	entries, err := readDirEntries(dir)
	if err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if err := RemoveAll(name, dir); err != nil {
				return err
			}
			continue
		}
		err := ignoringEINTR(func() error {
			return unix.Unlinkat(dir.fd, name, 0)
		})
		if err != nil {
			return fmt.Errorf("removing %s/%s: %w", path, name, err)
		}
	}

	err = ignoringEINTR(func() error {
		return unix.Unlinkat(dirFd(base), path, unix.AT_REMOVEDIR)
	})
	if err != nil {
		return fmt.Errorf("removing directory %s: %w", path, err)
	}
	return nil
}
