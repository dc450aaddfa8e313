// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapping provides read-only and read-write byte ranges backed
// by memory mappings. A [Region] is created from an open file
// descriptor (for reading file contents or writing through an atomic
// writer) or anonymously (as compression scratch space), and releases
// its memory when closed.
//
// Zero-size regions are represented without a kernel mapping: mmap
// rejects zero-length requests, and an empty file still needs a valid
// (if empty) byte range to hash and compress.
package mapping
