// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// HashSize is the width of a content hash in bytes.
const HashSize = 32

// Hash is a 32-byte BLAKE3 digest of a file's uncompressed contents.
// It is the content address: the key of the contents table and the
// value referenced by file entries.
type Hash [HashSize]byte

// HashBytes computes the content hash of data.
func HashBytes(data []byte) Hash {
	return blake3.Sum256(data)
}

// FormatHash returns the hex-encoded string representation of a hash:
// exactly 64 lowercase hex characters. This is the canonical format
// used in listings, logs, and CLI output.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash. Input of the
// wrong length or containing non-hex characters is rejected.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing content hash: %w", err)
	}
	if len(decoded) != HashSize {
		return hash, fmt.Errorf("content hash is %d bytes, want %d", len(decoded), HashSize)
	}
	copy(hash[:], decoded)
	return hash, nil
}
