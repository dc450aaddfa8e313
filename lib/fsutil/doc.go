// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

// Package fsutil provides the filesystem primitives the packager is
// built on. Every operation takes a (path, optional base directory)
// pair: when a base [File] is supplied, the path is resolved relative
// to that open directory handle via the *at syscall family. This keeps
// recursive traversal and cleanup free of lookup races — once a
// directory is open, its entries are addressed through the handle, not
// by re-walking the path.
//
// Writes go through [WriteAtomically] exclusively: content is produced
// into a mapped temp file in the destination directory and renamed
// into place, so a partial file is never observable at its final name.
package fsutil
