package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// out receives command output
var out io.Writer = os.Stdout

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "boq-admin",
		Description: "BOQ backend administration",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("boq-admin", flag.ExitOnError),
	}

	root.Subcommands["create-admin"] = newCreateAdminCommand()
	root.Subcommands["migrate"] = newMigrateCommand()
	root.Subcommands["ratelimit-reset"] = newRateLimitResetCommand()

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(args []string) error {
	if len(args) == 0 {
		return c.usage()
	}

	if strings.EqualFold(args[0], "-h") || strings.EqualFold(args[0], "--help") {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Fprintf(out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(out, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-17s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// envOr returns the environment value for key, or def
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
