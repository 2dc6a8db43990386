package parser_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/pagewright/internal/page"
	"github.com/cameronsjo/pagewright/internal/parser"
	"github.com/cameronsjo/pagewright/internal/sandbox"
	"github.com/cameronsjo/pagewright/internal/site"
)

// newTestParser returns a parser confined to a fresh input/output pair and
// the canonical input root for building paths.
func newTestParser(t *testing.T, exec site.ExecConfig) (*parser.Parser, *sandbox.Sandbox) {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "site")
	output := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(input, 0755))
	require.NoError(t, os.MkdirAll(output, 0755))

	sb, err := sandbox.New(input, output)
	require.NoError(t, err)
	return parser.New(sb, exec), sb
}

// render parses a page source string and returns the root's rendering.
func render(t *testing.T, input string) string {
	t.Helper()

	p, _ := newTestParser(t, site.ExecConfig{})
	root := page.NewRoot()
	require.NoError(t, p.Parse(strings.NewReader(input), "test.page", root))
	return root.HTML()
}

// writePage drops a source file under the input root, creating parent
// directories as needed.
func writePage(t *testing.T, sb *sandbox.Sandbox, name, content string) string {
	t.Helper()

	path := filepath.Join(sb.InputRoot(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseScalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain string becomes content",
			input: `juhu`,
			want:  "juhu",
		},
		{
			name:  "quoted string",
			input: `"hello world"`,
			want:  "hello world",
		},
		{
			name:  "null contributes nothing",
			input: `~`,
			want:  "",
		},
		{
			name:  "empty document",
			input: ``,
			want:  "",
		},
		{
			name:  "integer renders canonically",
			input: `42`,
			want:  "42",
		},
		{
			name:  "float renders canonically",
			input: `4.25`,
			want:  "4.25",
		},
		{
			name:  "boolean renders canonically",
			input: `true`,
			want:  "true",
		},
		{
			name:  "yes stays a string",
			input: `yes`,
			want:  "yes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, render(t, tt.input))
		})
	}
}

func TestParseStream(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "documents accumulate in order",
			input: "a\n---\nb",
			want:  "ab",
		},
		{
			name:  "scalar then mapping",
			input: "zq\n---\np: text",
			want:  "zq<p>text</p>",
		},
		{
			name: "content renders before children regardless of document order",
			// The mapping comes first in the stream, but the root's
			// accumulated content still renders ahead of its children.
			input: "p: text\n---\nzq",
			want:  "zq<p>text</p>",
		},
		{
			name:  "variables cross document boundaries",
			input: "!DEF [x, y]\n---\n\"{x}\"",
			want:  "y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, render(t, tt.input))
		})
	}
}

func TestParseSequence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "elements concatenate in order",
			input: "- a\n- b\n- c",
			want:  "abc",
		},
		{
			name:  "nested sequences flatten",
			input: "- - a\n  - b\n- c",
			want:  "abc",
		},
		{
			name:  "null element is skipped",
			input: "- a\n- ~\n- b",
			want:  "ab",
		},
		{
			name:  "mapping element becomes a child",
			input: "- before\n- p: text\n- after",
			want:  "before<p>text</p>after",
		},
		{
			name:  "attribute mapping collapses onto the enclosing element",
			input: "p:\n  - _class: wide\n  - text",
			want:  `<p class="wide">text</p>`,
		},
		{
			name:  "all keys must be attributes to collapse",
			input: "p:\n  - _class: wide\n    span: x\n  - text",
			want:  `<p><span>x</span>text</p>`,
		},
		{
			name:  "content, attributes, and children interleave in order",
			input: "key:\n  - content\n  - _meta: data\n  - value: data\n  - morecontent",
			want:  `<key meta="data">content<value>data</value>morecontent</key>`,
		},
		{
			name:  "definitions apply to the enclosing element",
			input: "- !DEF [x, y]\n- \"{x}\"\n- a: \"z\"\n- \"w{x}\"",
			want:  "y<a>z</a>wy",
		},
		{
			name:  "unclosed reference drops the rest of the scalar",
			input: `- \\{ unclosed variable`,
			want:  `\`,
		},
		{
			name:  "anchors and aliases",
			input: "- &greeting hello\n- *greeting",
			want:  "hellohello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, render(t, tt.input))
		})
	}
}

func TestParseMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "pair becomes a named child",
			input: "p: hello",
			want:  "<p>hello</p>",
		},
		{
			name:  "empty value renders self-closing",
			input: "br: ~",
			want:  "<br/>",
		},
		{
			name:  "underscore keys become attributes",
			input: "p:\n  _class: wide\n  _id: \"3\"",
			want:  `<p class="wide" id="3"/>`,
		},
		{
			name:  "attributes keep document order",
			input: "img:\n  _src: a.png\n  _alt: a picture",
			want:  `<img src="a.png" alt="a picture"/>`,
		},
		{
			name:  "attributes mix with children",
			input: "div:\n  _class: main\n  p: hello",
			want:  `<div class="main"><p>hello</p></div>`,
		},
		{
			name:  "pairs nest",
			input: "html:\n  body:\n    p: deep",
			want:  "<html><body><p>deep</p></body></html>",
		},
		{
			name:  "keys are interpolated",
			input: "- !DEF [tag, h1]\n- \"{tag}\": title",
			want:  "<h1>title</h1>",
		},
		{
			name:  "interpolated key can become an attribute",
			input: "- !DEF [k, _class]\n- p:\n    \"{k}\": wide",
			want:  `<p class="wide"/>`,
		},
		{
			name:  "sibling pairs become sibling children",
			input: "h1: title\np: body",
			want:  "<h1>title</h1><p>body</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, render(t, tt.input))
		})
	}
}

func TestParseDocument(t *testing.T) {
	t.Parallel()

	input := `html:
  head:
    - title: Home
    - meta:
        _charset: utf-8
  body:
    - h1: Welcome
    - p:
        - _class: intro
        - Glad you are here.
`
	want := `<html><head><title>Home</title><meta charset="utf-8"/></head>` +
		`<body><h1>Welcome</h1><p class="intro">Glad you are here.</p></body></html>`
	assert.Equal(t, want, render(t, input))
}

func TestParseInvalidYAML(t *testing.T) {
	t.Parallel()

	p, _ := newTestParser(t, site.ExecConfig{})
	root := page.NewRoot()
	err := p.Parse(strings.NewReader("a: [unclosed"), "bad.page", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.page")
}

func TestParseFileMissing(t *testing.T) {
	t.Parallel()

	p, sb := newTestParser(t, site.ExecConfig{})
	err := p.ParseFile(filepath.Join(sb.InputRoot(), "absent.page"), page.NewRoot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}

func TestParseFileRecordsReads(t *testing.T) {
	t.Parallel()

	p, sb := newTestParser(t, site.ExecConfig{})
	path := writePage(t, sb, "index.page", "p: hello")

	root := page.NewRoot()
	require.NoError(t, p.ParseFile(path, root))

	assert.Equal(t, "<p>hello</p>", root.HTML())
	assert.Equal(t, []string{path}, p.Reads())
}
