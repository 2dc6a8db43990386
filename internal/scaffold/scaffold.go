// Package scaffold renders the starter files behind init and new.
package scaffold

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cameronsjo/pagewright/internal/site"
)

// File is one generated file: a path relative to the project root and its
// rendered content.
type File struct {
	Path    string
	Content string
}

// data is the context every starter template renders against.
type data struct {
	Name  string
	Title string
}

// Starter page kinds accepted by Page.
const (
	KindPage    = "page"
	KindArticle = "article"
	KindLanding = "landing"
)

var pageKinds = map[string]string{
	KindPage:    pageTemplate,
	KindArticle: articleTemplate,
	KindLanding: landingTemplate,
}

// Kinds lists the starter page kinds alphabetically.
func Kinds() []string {
	names := make([]string, 0, len(pageKinds))
	for k := range pageKinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Project renders the starter files for a new project. Nothing is written;
// pair with Write.
func Project(name string) ([]File, error) {
	d := data{Name: name, Title: titleize(name)}

	var files []File
	for _, t := range []struct{ path, tmpl string }{
		{site.ConfigFile, configTemplate},
		{filepath.Join("site", site.MetaFile), metaTemplate},
		{filepath.Join("site", "index.page"), indexTemplate},
		{filepath.Join("site", "about.page"), aboutTemplate},
		{filepath.Join("site", "style.css"), styleTemplate},
		{".gitignore", gitignoreTemplate},
		{"README.md", readmeTemplate},
	} {
		content, err := render(t.path, t.tmpl, d)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: t.path, Content: content})
	}
	return files, nil
}

// Page renders a starter page of the given kind for slug, placed under dir.
// A slug may carry subdirectories ("docs/guide") and an optional .page
// extension.
func Page(dir, slug, kind string) (File, error) {
	tmpl, ok := pageKinds[kind]
	if !ok {
		return File{}, fmt.Errorf("unknown page kind %q (have %s)", kind, strings.Join(Kinds(), ", "))
	}
	slug = strings.TrimSuffix(slug, ".page")
	d := data{Name: slug, Title: titleize(filepath.Base(slug))}
	content, err := render(kind, tmpl, d)
	if err != nil {
		return File{}, err
	}
	return File{
		Path:    filepath.Join(dir, filepath.FromSlash(slug)+".page"),
		Content: content,
	}, nil
}

// Write materializes files under root, skipping any that already exist so a
// re-run never clobbers local edits. It returns the paths actually created.
func Write(root string, files []File) ([]string, error) {
	var created []string
	for _, f := range files {
		path := filepath.Join(root, f.Path)
		if _, err := os.Stat(path); err == nil {
			slog.Warn("already exists, skipping", "file", f.Path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return created, fmt.Errorf("create %s: %w", f.Path, err)
		}
		created = append(created, f.Path)
	}
	return created, nil
}

func render(name, text string, d data) (string, error) {
	tpl, err := template.New(name).Funcs(funcMap()).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, d); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return sb.String(), nil
}

// funcMap is sprig's text function set with title swapped for a
// Unicode-aware caser.
func funcMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["title"] = cases.Title(language.English).String
	return fm
}

// titleize turns a slug like "getting-started" into "Getting Started".
func titleize(slug string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(words)
}

// Starter file templates.

const configTemplate = `# {{ .Title }} - pagewright project configuration.
input: site
output: public

# Fail the build when any page fails to render.
strict: false

# Shell command directives stay off until enabled here.
exec:
  enabled: false
  allow: []

serve:
  addr: 127.0.0.1:8080

cache:
  enabled: true
  path: .pagewright/cache.db
`

const metaTemplate = `# Variables visible to every page. Override per build with --define.
SITE_TITLE: {{ .Title }}
AUTHOR: {{ env "USER" | default "someone" }}
YEAR: "{{ now | date "2006" }}"
`

const indexTemplate = `- !DEF [PAGE_TITLE, "{{ .Title }}"]
- !COPY style.css
- html:
    - head:
        - meta:
            _charset: utf-8
        - title: "{PAGE_TITLE}"
        - link:
            _rel: stylesheet
            _href: style.css
    - body:
        - h1: "{PAGE_TITLE}"
        - p: Welcome to {SITE_TITLE}. Edit site/index.page to get started.
        - p:
            - a:
                - _href: about.html
                - About this site
        - footer: "{AUTHOR}, {YEAR}"
`

const aboutTemplate = `- !DEF [PAGE_TITLE, About]
- html:
    - head:
        - meta:
            _charset: utf-8
        - title: "{PAGE_TITLE} - {SITE_TITLE}"
        - link:
            _rel: stylesheet
            _href: style.css
    - body:
        - h1: "{PAGE_TITLE}"
        - p: "{SITE_TITLE} is rendered from the .page files next to this one."
        - p:
            - a:
                - _href: index.html
                - Back home
`

const styleTemplate = `/* {{ .Title }} stylesheet, copied into the output by index.page. */
body {
  max-width: 42rem;
  margin: 2rem auto;
  padding: 0 1rem;
  font-family: system-ui, sans-serif;
  line-height: 1.6;
}

h1 {
  border-bottom: 1px solid #ddd;
  padding-bottom: 0.3rem;
}

footer {
  margin-top: 3rem;
  font-size: 0.85rem;
  color: #666;
}
`

const gitignoreTemplate = `# Rendered output
public/

# Build cache and locks
.pagewright/
`

const readmeTemplate = `# {{ .Title }}

A [pagewright](https://github.com/cameronsjo/pagewright) site.

` + "```bash" + `
# Render the site into public/
pagewright build

# Serve with live reload while editing
pagewright serve

# Check the project and its tools
pagewright doctor
` + "```" + `

Pages live in ` + "`site/`" + ` as ` + "`.page`" + ` files. Shared variables go in
` + "`site/META.yaml`" + `.
`

const pageTemplate = `- !DEF [PAGE_TITLE, "{{ .Title }}"]
- h1: "{PAGE_TITLE}"
- p: Write your page here.
`

const articleTemplate = `- !DEF [PAGE_TITLE, "{{ .Title }}"]
- article:
    - h1: "{PAGE_TITLE}"
    - p:
        - em: by {AUTHOR}
    - p: Write your article here.
`

const landingTemplate = `- !DEF [PAGE_TITLE, "{{ .Title }}"]
- header:
    - h1: "{PAGE_TITLE}"
    - p: A short tagline for {SITE_TITLE}.
- section:
    - h2: First thing
    - p: Describe it here.
- section:
    - h2: Second thing
    - p: Describe it here.
`
