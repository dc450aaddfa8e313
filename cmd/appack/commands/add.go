// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/chinmaygarde/appack/cmd/appack/cli"
	"github.com/chinmaygarde/appack/lib/pack"
)

func addCommand() *cli.Command {
	var (
		packagePath string
		codecName   string
	)

	return &cli.Command{
		Name:    "add",
		Summary: "Add files or directories to a package",
		Usage:   "appack add -p <package> <path>...",
		Description: `Capture files, directories, and symlinks into a package.

Directories are walked recursively; their entries are stored under
walk-relative names (the directory's own name is not part of the
stored names). A plain file or symlink is stored under its basename.
Re-adding a path that is already in the package replaces its contents.

The package file is created on first use.`,
		Examples: []cli.Example{
			{
				Description: "Capture a directory tree",
				Command:     "appack add -p assets.pack ./assets",
			},
			{
				Description: "Capture two files with LZ4 compression",
				Command:     "appack add -p assets.pack --codec lz4 a.bin b.bin",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
			flags.StringVarP(&packagePath, "package", "p", "", "package file to add to (created if absent)")
			flags.StringVar(&codecName, "codec", "zstd", "compression codec for new entries: zstd or lz4")
			return flags
		},
		Run: func(args []string) error {
			if packagePath == "" {
				return fmt.Errorf("--package is required")
			}
			if len(args) == 0 {
				return fmt.Errorf("at least one file or directory is required")
			}

			codec, err := pack.ParseCodec(codecName)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger().With("command", "add", "package", packagePath)

			pkg, err := pack.Open(pack.Config{
				Path:   packagePath,
				Codec:  codec,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			defer pkg.Close()

			return pkg.RegisterPaths(args, nil)
		},
	}
}
