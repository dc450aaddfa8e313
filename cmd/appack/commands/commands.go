// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the appack CLI command tree.
package commands

import (
	"fmt"

	"github.com/chinmaygarde/appack/cmd/appack/cli"
	"github.com/chinmaygarde/appack/lib/version"
)

// Root builds and returns the complete appack command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "appack",
		Description: `appack: content-addressed file packager.

Capture files, directories, and symlinks into a single package file,
and reconstitute the captured tree anywhere. File contents are stored
compressed and addressed by their BLAKE3 hash, so identical files
share storage within a package.`,
		Subcommands: []*cli.Command{
			addCommand(),
			listCommand(),
			installCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("appack %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Capture a directory tree into a package",
				Command:     "appack add -p assets.pack ./assets",
			},
			{
				Description: "See what a package holds",
				Command:     "appack list -p assets.pack",
			},
			{
				Description: "Reconstitute the tree somewhere else",
				Command:     "appack install -p assets.pack /srv/assets",
			},
		},
	}
}
