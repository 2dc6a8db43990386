// Package build renders a site: it discovers page files under the input
// root, evaluates each one against the shared site variables, and writes the
// mirrored HTML tree, skipping pages the incremental cache proves fresh.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/cameronsjo/pagewright/internal/cache"
	"github.com/cameronsjo/pagewright/internal/page"
	"github.com/cameronsjo/pagewright/internal/parser"
	"github.com/cameronsjo/pagewright/internal/progress"
	"github.com/cameronsjo/pagewright/internal/sandbox"
	"github.com/cameronsjo/pagewright/internal/site"
	"github.com/cameronsjo/pagewright/internal/ui"
)

// doctypeLine opens every rendered HTML file.
const doctypeLine = "<!DOCTYPE html>\n"

// Options configures a build.
type Options struct {
	Config *site.Config

	// Log, when set, has its output routed through the progress bar while
	// pages render so log lines do not shred the bar.
	Log *ui.Handler

	// Quiet disables the progress bar.
	Quiet bool
}

// Result summarizes a finished build.
type Result struct {
	// Pages counts pages rendered to HTML.
	Pages int

	// Skipped counts pages the cache proved fresh.
	Skipped int

	// Failed counts pages that did not render.
	Failed int

	Elapsed time.Duration
}

// Run builds the site described by opts.Config. Pages render concurrently,
// bounded by the jobs setting. A failing page is logged and counted rather
// than fatal; in strict mode the first failure also stops new pages from
// starting, and a nonzero failure count becomes an error. Pages already in
// flight always finish.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	cfg := opts.Config

	if err := os.MkdirAll(cfg.OutputDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	sb, err := sandbox.New(cfg.InputDir(), cfg.OutputDir())
	if err != nil {
		return nil, err
	}

	vars, err := SiteVars(cfg)
	if err != nil {
		return nil, err
	}
	meta := page.NewRoot()
	for k, v := range vars {
		meta.SetVar(k, v)
	}

	pages, err := Discover(sb.InputRoot())
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		slog.Warn("no page files found", "dir", sb.InputRoot())
	}

	store := openCache(cfg, vars)
	if store != nil {
		defer store.Close()
	}

	bar := &progress.Bar{}
	if !opts.Quiet {
		bar = progress.New(len(pages), "building")
	}
	if opts.Log != nil {
		opts.Log.SetSink(bar)
		defer opts.Log.SetSink(nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = len(pages)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, jobs)
	)
	res := &Result{}
	for _, path := range pages {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			skipped, err := buildPage(sb, meta, cfg, store, path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
				slog.Error("page failed", "page", path, "err", err)
				if cfg.Strict {
					cancel()
				}
			case skipped:
				res.Skipped++
			default:
				res.Pages++
			}
			bar.Add(1)
		}(path)
	}
	wg.Wait()
	bar.Finish()
	res.Elapsed = time.Since(start)

	if cfg.Strict && res.Failed > 0 {
		return res, fmt.Errorf("%d page(s) failed", res.Failed)
	}
	return res, nil
}

// buildPage renders one page to its mirrored .html path. It reports whether
// the cache proved the page fresh, in which case nothing was written.
func buildPage(sb *sandbox.Sandbox, meta *page.Node, cfg *site.Config, store *cache.Cache, path string) (bool, error) {
	if store != nil {
		fresh, err := store.Fresh(path)
		if err != nil {
			slog.Debug("cache lookup failed", "page", path, "err", err)
		} else if fresh {
			slog.Debug("fresh", "page", path)
			return true, nil
		}
	}

	root := meta.NewScratch()
	p := parser.New(sb, cfg.Exec)
	if err := p.ParseFile(path, root); err != nil {
		return false, err
	}

	out, err := sb.OutputFor(path)
	if err != nil {
		return false, err
	}
	out = strings.TrimSuffix(out, filepath.Ext(out)) + ".html"
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(out), err)
	}
	if err := atomic.WriteFile(out, strings.NewReader(doctypeLine+root.HTML())); err != nil {
		return false, fmt.Errorf("write %s: %w", out, err)
	}
	slog.Info("rendered", "page", path, "output", out)

	if store != nil {
		record(store, p, path, out)
	}
	return false, nil
}

// record captures a page's inputs and outputs so the next build can skip it.
// Recording is best-effort: when an input cannot be hashed the entry is
// dropped entirely and the page simply rebuilds next time.
func record(store *cache.Cache, p *parser.Parser, pagePath, out string) {
	var inputs []cache.Input
	for _, read := range p.Reads() {
		sum, err := cache.HashFile(read)
		if err != nil {
			slog.Debug("not caching page", "page", pagePath, "err", err)
			return
		}
		inputs = append(inputs, cache.Input{Path: read, Hash: sum})
	}
	outputs := append([]string{out}, p.Copied()...)
	if err := store.Record(pagePath, inputs, outputs); err != nil {
		slog.Debug("not caching page", "page", pagePath, "err", err)
	}
}

// openCache opens the incremental cache when enabled. A cache that cannot be
// opened or reconciled is reported and dropped so the build still runs, just
// without skipping anything.
func openCache(cfg *site.Config, vars map[string]string) *cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	store, err := cache.Open(cfg.CachePath())
	if err != nil {
		slog.Warn("cache unavailable, rebuilding everything", "err", err)
		return nil
	}
	if err := refreshStamp(store, stamp(cfg, vars)); err != nil {
		slog.Warn("cache unavailable, rebuilding everything", "err", err)
		store.Close()
		return nil
	}
	return store
}

// stamp fingerprints everything that affects every page at once: the merged
// site variables and the exec policy. A change means no recorded page can be
// trusted.
func stamp(cfg *site.Config, vars map[string]string) string {
	parts := make([]string, 0, len(vars)+1)
	for k, v := range vars {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	parts = append(parts, fmt.Sprintf("exec=%t:%s:%d",
		cfg.Exec.Enabled, strings.Join(cfg.Exec.Allow, ","), cfg.Exec.TimeoutSeconds))
	return cache.HashStrings(parts...)
}

// refreshStamp resets the cache when the stored stamp disagrees with the
// current one.
func refreshStamp(store *cache.Cache, stamp string) error {
	stored, err := store.Stamp()
	if err != nil {
		return err
	}
	if stored == stamp {
		return nil
	}
	if stored != "" {
		slog.Info("site variables changed, rebuilding everything")
	}
	if err := store.Reset(); err != nil {
		return err
	}
	return store.SetStamp(stamp)
}
