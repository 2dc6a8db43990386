// Package cmd provides the CLI commands for pagewright.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/pagewright/internal/ui"
)

const version = "0.1.0"

// Verbosity flags, shared by every command.
var (
	verbose bool
	debug   bool
	quiet   bool
	silent  bool
)

// logHandler is the active log handler. Commands read its warning and error
// tallies for their summaries.
var logHandler *ui.Handler

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pagewright",
	Short: "YAML in, HTML out - a static site generator",
	Long: `pagewright - YAML in, HTML out

A static site generator for .page files: YAML documents with directives
for variables, conditionals, loops, includes, and asset copies.

PROJECT
  init [directory]      Create a new site project
  new <name>            Add a page to the site

BUILD
  build                 Render every page into the output directory
  check                 Render everything without touching the output
  serve                 Serve the site and rebuild on changes

MAINTENANCE
  doctor                Check the project and the tools pages rely on
  update                Update pagewright to the latest release`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// setupLogging routes slog through the colored handler at the level the
// verbosity flags ask for.
func setupLogging() {
	level := ui.LevelFor(verbose, debug, quiet, silent)
	logHandler = ui.NewHandler(os.Stderr, level)
	slog.SetDefault(slog.New(logHandler))
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("pagewright version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show per-page progress")
	pf.BoolVar(&debug, "debug", false, "Show directive-level detail")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Only show errors")
	pf.BoolVarP(&silent, "silent", "s", false, "Show nothing at all")
}
