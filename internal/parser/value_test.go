package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func docNode(t *testing.T, src string) *yaml.Node {
	t.Helper()

	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &n))
	return &n
}

func scalarNode(t *testing.T, src string) *yaml.Node {
	t.Helper()

	n := docNode(t, src)
	require.Equal(t, yaml.DocumentNode, n.Kind)
	require.Len(t, n.Content, 1)
	return n.Content[0]
}

func TestScalarText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "plain string", src: `abc`, want: "abc"},
		{name: "quoted number stays text", src: `"42"`, want: "42"},
		{name: "integer", src: `42`, want: "42"},
		{name: "negative integer", src: `-7`, want: "-7"},
		{name: "float", src: `4.25`, want: "4.25"},
		{name: "exponent float", src: `1e3`, want: "1000"},
		{name: "bool canonicalizes", src: `True`, want: "true"},
		{name: "false", src: `false`, want: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ScalarText(scalarNode(t, tt.src)))
		})
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "scalar", src: `abc`, want: "abc"},
		{name: "null", src: `~`, want: "NULL"},
		{name: "sequence", src: `[a, b, c]`, want: "[a,b,c,]"},
		{name: "nested sequence", src: `[a, [b, c]]`, want: "[a,[b,c,],]"},
		{name: "null in sequence", src: `[a, ~]`, want: "[a,NULL,]"},
		{
			name: "mapping quotes scalar values",
			src:  `{"a": "b", "1": "cdefg", "h": [i, j, k]}`,
			want: `{"a":"b","1":"cdefg","h":[i,j,k,],}`,
		},
		{name: "null mapping value", src: `{k: ~}`, want: `{"k":"NULL",}`},
		{name: "tagged scalar", src: `!FOO bar`, want: "!FOO bar"},
		{name: "tagged sequence", src: `!DEF [a, b]`, want: "!DEF [a,b,]"},
		{name: "nested mapping", src: `{outer: {inner: v}}`, want: `{"outer":{"inner":"v",},}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, valueString(docNode(t, tt.src)))
		})
	}
}

func TestValueSummaryTruncates(t *testing.T) {
	t.Parallel()

	long := "[" + strings.Repeat("abcdefghij,", 30) + "]"
	got := valueSummary(docNode(t, long))
	assert.Len(t, []rune(got), maxValueSummary)

	short := valueSummary(docNode(t, `short`))
	assert.Equal(t, "short", short)
}
