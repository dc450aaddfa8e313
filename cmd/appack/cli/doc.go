// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the appack binary:
// a command tree with pflag flag sets, structured help output, typo
// suggestions for unknown commands and flags, and exit-code plumbing.
package cli
