package build

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/pagewright/internal/gitinfo"
	"github.com/cameronsjo/pagewright/internal/parser"
	"github.com/cameronsjo/pagewright/internal/site"
)

// LoadMeta reads the META.yaml mapping from dir. Every scalar entry becomes
// a site variable; null entries and nested structures are dropped. A missing
// or empty file just yields an empty map.
func LoadMeta(dir string) (map[string]string, error) {
	vars := make(map[string]string)

	f, err := os.Open(filepath.Join(dir, site.MetaFile))
	if errors.Is(err, os.ErrNotExist) {
		return vars, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", site.MetaFile, err)
	}
	defer f.Close()

	var doc yaml.Node
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return vars, nil
		}
		return nil, fmt.Errorf("parse %s: %w", site.MetaFile, err)
	}

	body := &doc
	if body.Kind == yaml.DocumentNode && len(body.Content) > 0 {
		body = body.Content[0]
	}
	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: top level must be a mapping", site.MetaFile)
	}

	for i := 0; i+1 < len(body.Content); i += 2 {
		k, v := body.Content[i], body.Content[i+1]
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}
		switch {
		case v.Kind == yaml.ScalarNode && v.Tag == "!!null":
			continue
		case v.Kind != yaml.ScalarNode:
			slog.Warn("ignoring non-scalar variable", "file", site.MetaFile, "name", k.Value)
			continue
		}
		vars[k.Value] = parser.ScalarText(v)
	}
	return vars, nil
}

// SiteVars assembles the variables every page starts from: META.yaml
// entries, then git metadata for the project root, then define entries from
// the configuration. Later sources win.
func SiteVars(cfg *site.Config) (map[string]string, error) {
	vars, err := LoadMeta(cfg.InputDir())
	if err != nil {
		return nil, err
	}

	git, err := gitinfo.Vars(cfg.Root)
	if err != nil {
		slog.Debug("git metadata unavailable", "err", err)
	}
	for k, v := range git {
		vars[k] = v
	}

	for k, v := range cfg.Define {
		vars[k] = v
	}
	return vars, nil
}
