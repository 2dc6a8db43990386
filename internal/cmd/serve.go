package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/pagewright/internal/build"
	"github.com/cameronsjo/pagewright/internal/lock"
	"github.com/cameronsjo/pagewright/internal/server"
	"github.com/cameronsjo/pagewright/internal/site"
	"github.com/cameronsjo/pagewright/internal/watcher"
)

// rebuildDelay batches rapid file changes into a single rebuild.
const rebuildDelay = 250 * time.Millisecond

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site and rebuild on changes",
	Long: `Build the site, serve it over HTTP, and rebuild whenever an input
file changes. Served pages reload themselves in the browser after each
rebuild. Broken pages are reported but never stop the server.

EXAMPLES
  pagewright serve
  pagewright serve --addr 0.0.0.0:3000`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	// The dev server keeps going when a page breaks.
	cfg.Strict = false

	addr := cfg.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := rebuild(ctx, cfg)
	if err != nil {
		return err
	}
	printSummary(res)

	w, err := watcher.New(cfg.InputDir(), rebuildDelay)
	if err != nil {
		return err
	}
	defer w.Close()
	go w.Run(ctx)

	srv := server.New(addr, cfg.OutputDir())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case paths, ok := <-w.Changes():
				if !ok {
					return
				}
				slog.Info("input changed, rebuilding", "files", len(paths))
				if logHandler != nil {
					logHandler.ResetCounts()
				}
				res, err := rebuild(ctx, cfg)
				if err != nil {
					slog.Error("rebuild failed", "err", err)
					continue
				}
				printSummary(res)
				if res.Pages > 0 || res.Failed > 0 {
					srv.Broadcast()
				}
			}
		}
	}()

	return srv.Run(ctx)
}

// rebuild runs one build under the project lock without a progress bar.
func rebuild(ctx context.Context, cfg *site.Config) (*build.Result, error) {
	var res *build.Result
	err := lock.WithLock(cfg.LockDir(), "build", func() error {
		r, err := build.Run(ctx, build.Options{
			Config: cfg,
			Log:    logHandler,
			Quiet:  true,
		})
		res = r
		return err
	})
	return res, err
}

func init() {
	addBuildFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides pagewright.yaml)")
	rootCmd.AddCommand(serveCmd)
}
