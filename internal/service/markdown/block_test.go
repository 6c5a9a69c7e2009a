package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	t.Parallel()

	var p Parser
	doc, err := p.Parse("# Hi\n\nHello *world*")
	require.NoError(t, err)

	require.Equal(t, &Document{Blocks: []Block{
		&Heading{Level: 1, Inlines: []Inline{&Text{"Hi"}}},
		&Paragraph{Inlines: []Inline{
			&Text{"Hello "},
			&Emphasis{Inlines: []Inline{&Text{"world"}}},
		}},
	}}, doc)
}

func TestParseBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		input   string
		want    []Block
	}{
		{
			message: "close an unterminated fence at the end of input",
			input:   "```js\nlet a\n\n# b",
			want:    []Block{&CodeBlock{Language: "js", Text: "let a\n\n# b\n"}},
		},
		{
			message: "unescape the fence info string",
			input:   "``` c\\+\\+ extra\n```",
			want:    []Block{&CodeBlock{Language: "c++"}},
		},
		{
			message: "omit empty containers",
			input:   ">\n\n-\n\n#",
			want:    nil,
		},
		{
			message: "take the list start from the first item",
			input:   "7. a\n1. b",
			want: []Block{&List{Ordered: true, Start: 7, Tight: true, Items: []*ListItem{
				{Blocks: []Block{&Paragraph{Inlines: []Inline{&Text{"a"}}}}},
				{Blocks: []Block{&Paragraph{Inlines: []Inline{&Text{"b"}}}}},
			}}},
		},
		{
			message: "normalize line endings",
			input:   "a\r\nb\rc",
			want:    []Block{&Paragraph{Inlines: []Inline{&Text{"a b c"}}}},
		},
		{
			message: "replace NUL characters",
			input:   "a\x00b",
			want:    []Block{&Paragraph{Inlines: []Inline{&Text{"a�b"}}}},
		},
		{
			message: "expand tabs before measuring indentation",
			input:   "\tcode",
			want:    []Block{&CodeBlock{Text: "code\n"}},
		},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run("Should "+tt.message, func(t *testing.T) {
			t.Parallel()
			var p Parser
			doc, err := p.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Blocks)
		})
	}
}

func TestParseDepth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		input   string
		depth   int
		err     error
	}{
		{
			message: "accept quotes at the depth limit",
			input:   strings.Repeat(">", 3) + " a",
			depth:   3,
		},
		{
			message: "reject quotes past the depth limit",
			input:   strings.Repeat(">", 4) + " a",
			depth:   3,
			err:     ErrDepthExceeded,
		},
		{
			message: "reject nested lists past the depth limit",
			input:   "- - - - a",
			depth:   3,
			err:     ErrDepthExceeded,
		},
		{
			message: "reject nested emphasis past the depth limit",
			input:   "*a **b *c **d** c* b** a*",
			depth:   3,
			err:     ErrDepthExceeded,
		},
		{
			message: "use the default limit",
			input:   strings.Repeat(">", DefaultMaxDepth+1) + " a",
			err:     ErrDepthExceeded,
		},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run("Should "+tt.message, func(t *testing.T) {
			t.Parallel()
			p := Parser{MaxDepth: tt.depth}
			doc, err := p.Parse(tt.input)
			if tt.err != nil {
				require.Equal(t, tt.err, err)
				require.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, doc)
		})
	}
}

func TestHeadingIDs(t *testing.T) {
	t.Parallel()

	p := Parser{HeadingIDs: true}
	doc, err := p.Parse("# A\n> # A\n- # A\n# A-1")
	require.NoError(t, err)

	var ids []string
	var walk func([]Block)
	walk = func(blocks []Block) {
		for _, x := range blocks {
			switch x := x.(type) {
			case *Heading:
				ids = append(ids, x.ID)
			case *Blockquote:
				walk(x.Blocks)
			case *List:
				for _, item := range x.Items {
					walk(item.Blocks)
				}
			}
		}
	}
	walk(doc.Blocks)
	assert.Equal(t, []string{"a", "a-1", "a-2", "a-1-1"}, ids)
}
