package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		input   string
		breaks  bool
		want    []Inline
	}{
		{
			message: "parse a hard break from trailing spaces",
			input:   "a  \nb",
			want:    []Inline{&Text{"a"}, &LineBreak{}, &Text{"b"}},
		},
		{
			message: "parse a hard break from a backslash",
			input:   "a\\\n  b",
			want:    []Inline{&Text{"a"}, &LineBreak{}, &Text{"b"}},
		},
		{
			message: "collapse a single trailing space",
			input:   "a \nb",
			want:    []Inline{&Text{"a b"}},
		},
		{
			message: "turn every newline into a break",
			input:   "a\nb",
			breaks:  true,
			want:    []Inline{&Text{"a"}, &LineBreak{}, &Text{"b"}},
		},
		{
			message: "keep code span content verbatim",
			input:   "`<b>*x*</b>`",
			want:    []Inline{&CodeSpan{"<b>*x*</b>"}},
		},
		{
			message: "turn newlines into spaces and strip one padding space in a code span",
			input:   "``  a\nb` ``",
			want:    []Inline{&CodeSpan{" a b`"}},
		},
		{
			message: "keep the padding of a code span made of spaces",
			input:   "`  `",
			want:    []Inline{&CodeSpan{"  "}},
		},
		{
			message: "pair an emphasis closer with the nearest opener",
			input:   "*a *b*",
			want:    []Inline{&Text{"*a "}, &Emphasis{Inlines: []Inline{&Text{"b"}}}},
		},
		{
			message: "keep a link title",
			input:   `[a](/b 'c \'d\'')`,
			want:    []Inline{&Link{Href: "/b", Title: "c 'd'", Inlines: []Inline{&Text{"a"}}}},
		},
		{
			message: "resolve entities in a link destination",
			input:   "[a](/b?x=1&amp;y=2)",
			want:    []Inline{&Link{Href: "/b?x=1&y=2", Inlines: []Inline{&Text{"a"}}}},
		},
		{
			message: "take image alt text from the content",
			input:   "![a `b` [c](d)](e)",
			want:    []Inline{&Image{Src: "e", Alt: "a b c"}},
		},
		{
			message: "unwrap autolinks inside link text",
			input:   "[go https://go.dev](/x)",
			want: []Inline{&Link{Href: "/x", Inlines: []Inline{
				&Text{"go https://go.dev"},
			}}},
		},
		{
			message: "keep raw html as a single span",
			input:   `<img src=x onerror=alert(1)>`,
			want:    []Inline{&RawHTML{`<img src=x onerror=alert(1)>`}},
		},
		{
			message: "keep a javascript destination for the sanitizer",
			input:   "[x](javascript:alert(1))",
			want:    []Inline{&Link{Href: "javascript:alert(1)", Inlines: []Inline{&Text{"x"}}}},
		},
		{
			message: "turn an unclosed bracket into text",
			input:   "[a *b*",
			want:    []Inline{&Text{"[a "}, &Emphasis{Inlines: []Inline{&Text{"b"}}}},
		},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run("Should "+tt.message, func(t *testing.T) {
			t.Parallel()
			p := Parser{Breaks: tt.breaks}
			list, err := p.ParseInline(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, list)
		})
	}
}

func TestInlineHTML(t *testing.T) {
	t.Parallel()

	var p Parser
	list, err := p.ParseInline(`**"a" & <b>** ![x"y](z "w")`)
	require.NoError(t, err)
	assert.Equal(t, `<strong>&quot;a&quot; &amp; <b></strong> <img src="z" alt="x&quot;y" title="w">`, InlineHTML(list))
}
