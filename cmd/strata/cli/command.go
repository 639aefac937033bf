// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the CLI tree: either a group that dispatches
// to Subcommands, or a leaf with a Run function, or both (Run handles
// the bare invocation when no subcommand matches).
type Command struct {
	// Name is what the user types to reach this command.
	Name string

	// Summary is the one-liner shown next to Name in the parent's
	// command listing.
	Summary string

	// Description is the long-form help text. Falls back to Summary
	// when empty.
	Description string

	// Usage overrides the synthesized usage line, e.g.
	// "strata profile install <ref>... [flags]".
	Usage string

	// Examples are printed at the end of the help output.
	Examples []Example

	// Subcommands are dispatched by the first positional argument.
	Subcommands []*Command

	// Flags builds the command's flag set. Invoked fresh for each
	// parse and for help rendering; nil means no flags.
	Flags func() *pflag.FlagSet

	// Run receives the positional arguments left after flag parsing.
	// The context is cancelled on SIGINT/SIGTERM; the logger writes
	// to stderr, text or JSON depending on the terminal.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	// parent links back up the tree during dispatch so errors and
	// help can print the full command path.
	parent *Command
}

// Example pairs a short description with a literal command line for
// the help output.
type Example struct {
	Description string
	Command     string
}

// Execute runs the command tree against the given arguments. The
// derived context is cancelled when the process receives SIGINT or
// SIGTERM, which stops in-flight resolver and builder subprocesses.
func (c *Command) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return c.dispatch(ctx, args, NewCommandLogger())
}

func (c *Command) dispatch(ctx context.Context, args []string, logger *slog.Logger) error {
	if len(args) > 0 && helpRequested(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	if len(c.Subcommands) > 0 {
		if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
			sub := c.subcommand(args[0])
			if sub == nil {
				return c.unknownSubcommand(args[0])
			}
			sub.parent = c
			return sub.dispatch(ctx, args[1:], logger)
		}
		// A pure group cannot act on its own.
		if c.Run == nil {
			c.PrintHelp(os.Stderr)
			if len(args) == 0 {
				return errors.New("subcommand required")
			}
			return fmt.Errorf("subcommand required (got flag %q)", args[0])
		}
	}

	rest, err := c.parseFlags(args)
	if err != nil {
		return err
	}
	if c.Run != nil {
		return c.Run(ctx, rest, logger)
	}

	c.PrintHelp(os.Stderr)
	return fmt.Errorf("no action defined for %q", c.fullName())
}

// subcommand returns the direct child with the given name, or nil.
func (c *Command) subcommand(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

func (c *Command) unknownSubcommand(name string) error {
	if match := closestCommand(name, c.Subcommands); match != "" {
		return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
			name, match, c.fullName())
	}
	return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", name, c.fullName())
}

// parseFlags parses args against the command's flag set and returns
// the positional remainder. pflag's own error printing is suppressed;
// failures come back as a single formatted error, with a "did you
// mean" suggestion when the problem is a typoed flag name.
func (c *Command) parseFlags(args []string) ([]string, error) {
	if c.Flags == nil {
		return args, nil
	}
	flagSet := c.Flags()
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(args); err != nil {
		message := err.Error()
		if strings.Contains(message, "unknown flag") {
			// The failed parse left flagSet in a consumed state, so
			// the suggestion scan gets a fresh one.
			if match := closestFlag(args, c.Flags()); match != "" {
				message = fmt.Sprintf("%s (did you mean %s?)", message, match)
			}
		}
		return nil, fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, c.fullName())
	}
	return flagSet.Args(), nil
}

// PrintHelp renders the command's help text: description, usage,
// subcommand table, flags, and examples.
func (c *Command) PrintHelp(w io.Writer) {
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	fmt.Fprintf(w, "Usage:\n  %s\n", c.usageLine())

	if len(c.Subcommands) > 0 {
		fmt.Fprint(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		var rendered strings.Builder
		flagSet.SetOutput(&rendered)
		flagSet.PrintDefaults()
		if rendered.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", rendered.String())
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprint(w, "\nExamples:\n")
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
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", c.fullName())
	}
}

func (c *Command) usageLine() string {
	switch {
	case c.Usage != "":
		return c.Usage
	case len(c.Subcommands) > 0:
		return c.fullName() + " <command> [flags]"
	default:
		return c.fullName() + " [flags]"
	}
}

// fullName is the space-joined path from the root, e.g.
// "strata profile install".
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func helpRequested(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
