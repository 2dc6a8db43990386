package build

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pagePattern matches page sources anywhere under the input root. The walked
// path is lowercased first so the extension check is case-insensitive.
const pagePattern = "**/*.page"

// Discover walks root and returns the page files to build, sorted by path.
// Hidden files and directories are skipped.
func Discover(root string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(pagePattern, strings.ToLower(filepath.ToSlash(rel)))
		if err != nil {
			return err
		}
		if ok {
			pages = append(pages, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(pages)
	return pages, nil
}
