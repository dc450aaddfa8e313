// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/chinmaygarde/appack/cmd/appack/cli"
	"github.com/chinmaygarde/appack/lib/pack"
)

func installCommand() *cli.Command {
	var packagePath string

	return &cli.Command{
		Name:    "install",
		Summary: "Reconstitute a package's tree at a destination",
		Usage:   "appack install -p <package> <destination>",
		Description: `Extract every captured entry below the destination directory.

Intermediate directories are created as needed, regular files are
written atomically (a partial file is never visible at its final
name), and symlinks are recreated with their stored targets. Running
install over the same destination again succeeds and overwrites.`,
		Examples: []cli.Example{
			{
				Description: "Extract into a fresh directory",
				Command:     "appack install -p assets.pack /srv/assets",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("install", pflag.ContinueOnError)
			flags.StringVarP(&packagePath, "package", "p", "", "package file to install from")
			return flags
		},
		Run: func(args []string) error {
			if packagePath == "" {
				return fmt.Errorf("--package is required")
			}
			if len(args) != 1 {
				return fmt.Errorf("exactly one destination directory is required")
			}

			logger := cli.NewCommandLogger().With("command", "install", "package", packagePath)

			pkg, err := pack.Open(pack.Config{Path: packagePath, Logger: logger})
			if err != nil {
				return err
			}
			defer pkg.Close()

			return pkg.Install(args[0], nil)
		},
	}
}
