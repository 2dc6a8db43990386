package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/pagewright/internal/build"
	"github.com/cameronsjo/pagewright/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Render everything without touching the output",
	Long: `Render every page into a scratch directory and throw the result away.
The output directory and the cache are left untouched, so check is safe
to run while a build or serve is going. Every broken page is reported.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "pagewright-check-*")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	// Render into the scratch directory with the cache off so every page
	// is checked, and keep going past failures to report them all.
	cfg.Output = scratch
	cfg.Cache.Enabled = false
	cfg.Strict = false

	res, err := build.Run(cmd.Context(), build.Options{
		Config: cfg,
		Log:    logHandler,
		Quiet:  true,
	})
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d page(s) failed", res.Failed, res.Failed+res.Pages)
	}
	if !silent {
		ui.Success("%d page(s) ok in %s", res.Pages, res.Elapsed.Round(time.Millisecond))
	}
	return nil
}

func init() {
	addBuildFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
