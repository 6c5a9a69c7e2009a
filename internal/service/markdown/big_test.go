package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var rep = strings.Repeat

// Inputs that would take quadratic time with a naive scanner.
var bigTests = []struct {
	message string
	in      string
	out     string
}{
	{
		message: "many emphasis openers with no closers",
		in:      rep("_a ", 65000),
		out:     "<p>" + strings.TrimSpace(rep("_a ", 65000)) + "</p>\n",
	},
	{
		message: "many emphasis closers with no openers",
		in:      rep("a_ ", 65000),
		out:     "<p>" + strings.TrimSpace(rep("a_ ", 65000)) + "</p>\n",
	},
	{
		message: "many link openers with no closers",
		in:      rep("[a", 65000),
		out:     "<p>" + rep("[a", 65000) + "</p>\n",
	},
	{
		message: "many link closers with no openers",
		in:      rep("a]", 65000),
		out:     "<p>" + rep("a]", 65000) + "</p>\n",
	},
	{
		message: "nested brackets",
		in:      rep("[", 50000) + "a" + rep("]", 50000),
		out:     "<p>" + rep("[", 50000) + "a" + rep("]", 50000) + "</p>\n",
	},
	{
		message: "many links",
		in:      rep("[a](b)", 50000),
		out:     "<p>" + rep(`<a href="b">a</a>`, 50000) + "</p>\n",
	},
	{
		message: "mismatched openers and closers",
		in:      rep("*a_ ", 50000),
		out:     "<p>" + strings.TrimSpace(rep("*a_ ", 50000)) + "</p>\n",
	},
	{
		message: "many unmatched backtick runs",
		in:      "a`" + rep("b``", 50000),
		out:     "<p>a`" + bigBackticks(50000) + "</p>\n",
	},
	{
		message: "many angle brackets with no closer",
		in:      rep("<", 200000),
		out:     "<p>" + rep("&lt;", 200000) + "</p>\n",
	},
	{
		message: "many comment openers with no closer",
		in:      rep("<!-- ", 100000),
		out:     "<p>" + strings.TrimSpace(rep("&lt;!-- ", 100000)) + "</p>\n",
	},
	{
		message: "many unterminated tags",
		in:      rep("<a b ", 100000),
		out:     "<p>" + strings.TrimSpace(rep("&lt;a b ", 100000)) + "</p>\n",
	},
	{
		message: "many unterminated quoted attributes",
		in:      rep("<a b=\"x", 100000),
		out:     "<p>" + rep("&lt;a b=&quot;x", 100000) + "</p>\n",
	},
	{
		message: "many angle link destinations with no closer",
		in:      rep("[a](<", 100000),
		out:     "<p>" + rep("[a](&lt;", 100000) + "</p>\n",
	},
	{
		message: "many list items",
		in:      rep("- a\n", 50000),
		out:     "<ul>\n" + rep("<li>a</li>\n", 50000) + "</ul>\n",
	},
}

// bigBackticks is the rendering of rep("b``", n): the double backtick runs
// pair up into code spans, leaving the last one literal when n is odd.
func bigBackticks(n int) string {
	var b strings.Builder
	for i := 0; i+1 < n; i += 2 {
		b.WriteString("b<code>b</code>")
	}
	if n%2 == 1 {
		b.WriteString("b``")
	}
	return b.String()
}

func TestBig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	for i := 0; i < len(bigTests); i++ {
		tt := bigTests[i]
		t.Run("Should handle "+tt.message, func(t *testing.T) {
			t.Parallel()
			var p Parser
			doc, err := p.Parse(tt.in)
			require.NoError(t, err)
			require.True(t, ToHTML(doc) == tt.out, "unexpected output for %s", tt.message)
		})
	}
}
