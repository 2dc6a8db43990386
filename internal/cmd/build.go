package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/pagewright/internal/build"
	"github.com/cameronsjo/pagewright/internal/lock"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render every page into the output directory",
	Long: `Render every .page file under the input directory into HTML.

Output paths mirror input paths: site/docs/guide.page becomes
public/docs/guide.html. Pages whose inputs have not changed since the
last build are skipped unless the cache is disabled.

EXAMPLES
  pagewright build
  pagewright build --strict
  pagewright build --define AUTHOR="Someone Else" -v`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var res *build.Result
	runErr := lock.WithLock(cfg.LockDir(), "build", func() error {
		r, err := build.Run(ctx, build.Options{
			Config: cfg,
			Log:    logHandler,
			Quiet:  quiet || silent,
		})
		res = r
		return err
	})

	printSummary(res)
	success := runErr == nil && res != nil && res.Failed == 0
	notifyHooks(ctx, cfg, res, success)

	if runErr != nil {
		return runErr
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d page(s) failed", res.Failed)
	}
	return nil
}

func init() {
	addBuildFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}
