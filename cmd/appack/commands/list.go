// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/chinmaygarde/appack/cmd/appack/cli"
	"github.com/chinmaygarde/appack/lib/pack"
)

func listCommand() *cli.Command {
	var packagePath string

	return &cli.Command{
		Name:    "list",
		Summary: "List the file entries in a package",
		Usage:   "appack list -p <package>",
		Description: `Print one line per file entry: the content hash in hex, then the
entry's name. Symlink entries are not listed.`,
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flags.StringVarP(&packagePath, "package", "p", "", "package file to list")
			return flags
		},
		Run: func(args []string) error {
			if packagePath == "" {
				return fmt.Errorf("--package is required")
			}
			if len(args) != 0 {
				return fmt.Errorf("list takes no positional arguments")
			}

			logger := cli.NewCommandLogger().With("command", "list", "package", packagePath)

			pkg, err := pack.Open(pack.Config{Path: packagePath, Logger: logger})
			if err != nil {
				return err
			}
			defer pkg.Close()

			listings, err := pkg.ListFiles()
			if err != nil {
				return err
			}
			for _, listing := range listings {
				fmt.Printf("%s %s\n", listing.Hash, listing.Name)
			}
			return nil
		},
	}
}
