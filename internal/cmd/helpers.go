package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/pagewright/internal/build"
	"github.com/cameronsjo/pagewright/internal/hook"
	"github.com/cameronsjo/pagewright/internal/site"
	"github.com/cameronsjo/pagewright/internal/ui"
)

// Overrides applied on top of pagewright.yaml by the build-family commands.
var (
	inputOverride  string
	outputOverride string
	strictBuild    bool
	jobsOverride   int
	defines        []string
)

// addBuildFlags registers the flags shared by build, check, and serve.
func addBuildFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&inputOverride, "input", "i", "", "Input directory (overrides pagewright.yaml)")
	fs.StringVarP(&outputOverride, "output", "o", "", "Output directory (overrides pagewright.yaml)")
	fs.BoolVar(&strictBuild, "strict", false, "Stop at the first broken page")
	fs.IntVarP(&jobsOverride, "jobs", "j", 0, "Number of pages to render at once (0 = all)")
	fs.StringArrayVar(&defines, "define", nil, "Set a site variable (KEY=VALUE, repeatable)")
}

// loadProject finds the enclosing project, loads its configuration, and
// applies the command-line overrides.
func loadProject() (*site.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	root, err := site.FindRoot(wd)
	if err != nil {
		return nil, err
	}
	cfg, err := site.Load(root)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides folds the shared command-line flags into the configuration.
func applyOverrides(cfg *site.Config) error {
	if inputOverride != "" {
		cfg.Input = inputOverride
	}
	if outputOverride != "" {
		cfg.Output = outputOverride
	}
	if strictBuild {
		cfg.Strict = true
	}
	if jobsOverride > 0 {
		cfg.Jobs = jobsOverride
	}
	for _, def := range defines {
		key, value, ok := strings.Cut(def, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --define %q (want KEY=VALUE)", def)
		}
		if cfg.Define == nil {
			cfg.Define = map[string]string{}
		}
		cfg.Define[key] = value
	}
	return nil
}

// printSummary reports the outcome of a build run on the terminal.
func printSummary(res *build.Result) {
	if silent || res == nil {
		return
	}
	line := fmt.Sprintf("%d page(s) rendered, %d fresh, %d failed in %s",
		res.Pages, res.Skipped, res.Failed, res.Elapsed.Round(time.Millisecond))
	switch {
	case res.Failed > 0 || logHandler.Errors() > 0:
		ui.Error("%s", line)
	case logHandler.Warnings() > 0:
		ui.Warning("%s", line)
	default:
		ui.Success("%s", line)
	}
}

// notifyHooks posts the build outcome to the configured webhook, if any.
func notifyHooks(ctx context.Context, cfg *site.Config, res *build.Result, success bool) {
	n := hook.New(cfg.Hooks)
	if !n.IsConfigured() {
		return
	}
	out := hook.Result{
		Site:    filepath.Base(cfg.Root),
		Success: success,
	}
	if res != nil {
		out.Pages = res.Pages
		out.Skipped = res.Skipped
		out.Failed = res.Failed
		out.Elapsed = res.Elapsed
	}
	if logHandler != nil {
		out.Warnings = int64(logHandler.Warnings())
		out.Errors = int64(logHandler.Errors())
	}
	if err := n.Notify(ctx, out); err != nil {
		slog.Warn("webhook notification failed", "err", err)
	}
}
