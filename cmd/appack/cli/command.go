// Copyright 2026 The Appack Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the CLI tree: a group that dispatches to
// subcommands (the root), or a leaf with a Run function. Exactly one
// of Subcommands and Run must be set.
type Command struct {
	// Name is the command name as typed by the user (e.g., "add").
	Name string

	// Summary is a one-line description shown in the parent's help
	// listing.
	Summary string

	// Description is a detailed multi-line description shown in the
	// command's own help output.
	Description string

	// Usage is the usage line (e.g., "appack add -p <package>
	// <path>..."). If empty, a generic one is synthesized.
	Usage string

	// Examples are shown in the help output after the flags.
	Examples []Example

	// Flags returns a configured *pflag.FlagSet for this leaf. Called
	// lazily on first use. If nil, Run receives the args verbatim.
	Flags func() *pflag.FlagSet

	// Subcommands makes this command a group, dispatched by the first
	// positional argument.
	Subcommands []*Command

	// Run executes a leaf command with the positional arguments left
	// after flag parsing.
	Run func(args []string) error

	// parent is set during dispatch so help can show the full command
	// path.
	parent *Command
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// Execute parses args and either dispatches to a subcommand or runs
// this leaf. This is the entry point for the command tree.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	if len(c.Subcommands) > 0 {
		return c.dispatch(args)
	}

	if c.Flags != nil {
		flags := c.Flags()

		// Suppress pflag's own error printing and usage dump; the
		// returned error carries the message, with a suggestion when
		// the flag looks like a typo.
		flags.SetOutput(io.Discard)
		if err := flags.Parse(args); err != nil {
			return c.flagError(err, args)
		}
		args = flags.Args()
	}

	return c.Run(args)
}

// dispatch routes a group's invocation to the named subcommand. A
// group invoked with no subcommand (or with a flag in its place) can
// only print its help; that is a handled non-zero exit, so main does
// not repeat it as an error line.
func (c *Command) dispatch(args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		c.PrintHelp(os.Stderr)
		return &ExitError{Code: 1}
	}

	name := args[0]
	for _, subcommand := range c.Subcommands {
		if subcommand.Name == name {
			subcommand.parent = c
			return subcommand.Execute(args[1:])
		}
	}

	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
			name, suggestion, c.fullName())
	}
	return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.",
		name, c.fullName())
}

// flagError decorates a pflag parse error with a did-you-mean
// suggestion and a pointer to the command's help.
func (c *Command) flagError(parseErr error, args []string) error {
	if strings.Contains(parseErr.Error(), "unknown flag") {
		if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
			return fmt.Errorf("%s (did you mean %s?)\n\nRun '%s --help' for usage.",
				parseErr, suggestion, c.fullName())
		}
	}
	return fmt.Errorf("%s\n\nRun '%s --help' for usage.", parseErr, c.fullName())
}

// PrintHelp writes structured help output to w: description, usage,
// the subcommand table for groups, flags, and examples.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, subcommand := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", subcommand.Name, subcommand.Summary)
		}
		table.Flush()
	}

	if c.Flags != nil {
		var flagHelp strings.Builder
		flags := c.Flags()
		flags.SetOutput(&flagHelp)
		flags.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

// fullName returns the complete command path (e.g., "appack add").
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

// isHelpFlag returns true for the common help spellings.
func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
