// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitedb opens single-connection SQLite databases with
// appack-standard pragmas. A package artifact is a single SQLite file
// owned by exactly one handle for its lifetime, so there is no pool:
// one connection, opened once, closed with the package.
//
// The connection (and the prepared statements cached on it) is not
// safe for concurrent use. Callers that want concurrency must layer
// their own serialization on top.
package sqlitedb
