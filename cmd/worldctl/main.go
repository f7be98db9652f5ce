package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Build-time variables (set via ldflags)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "worldctl",
		Short:         "Browse and edit a world-building world from the command line",
		Long:          "worldctl lists, reads, creates, updates and deletes the elements of a world through the world API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "Output format: text, json or yaml")

	root.AddCommand(typesCmd(opts))
	root.AddCommand(listCmd(opts))
	root.AddCommand(getCmd(opts))
	root.AddCommand(createCmd(opts))
	root.AddCommand(updateCmd(opts))
	root.AddCommand(deleteCmd(opts))
	root.AddCommand(searchCmd(opts))
	root.AddCommand(countsCmd(opts))
	root.AddCommand(mockServerCmd(opts))
	root.AddCommand(serveCmd(opts))
	root.AddCommand(versionCmd())

	return root
}
