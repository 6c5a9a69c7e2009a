package markup

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// DefaultMaxDepth is the element nesting limit used when Parser.MaxDepth is zero.
const DefaultMaxDepth = 256

// ErrDepthExceeded is returned when elements nest deeper than the parser's limit.
var ErrDepthExceeded = errors.New("html nesting exceeds the depth limit")

// A Parser parses HTML. The zero value is ready to use.
type Parser struct {
	// MaxDepth limits element nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Parse parses s into a sequence of root-level nodes.
//
// Tokens come from the html package tokenizer, so tags, attributes and
// comments are read the way a browser reads them. Parse never fails on
// malformed HTML: a tag cut off by the end of the input is kept as text, an
// end tag without a matching open element is ignored. The only error is
// ErrDepthExceeded, in which case no nodes are returned.
func (p Parser) Parse(s string) ([]Node, error) {
	max := p.MaxDepth
	if max <= 0 {
		max = DefaultMaxDepth
	}
	t := &tree{max: max}
	t.stack = []*Element{&t.root}

	z := html.NewTokenizer(strings.NewReader(strings.ReplaceAll(s, "\x00", "\ufffd")))
	for t.err == nil {
		tt := z.Next()
		if tt == html.ErrorToken {
			// The tokenizer stops on a tag missing its '>', leaving it in Raw.
			if z.Err() == io.EOF {
				t.pending.WriteString(newlines.Replace(string(z.Raw())))
			}
			break
		}
		t.token(z, tt)
	}
	t.flush()
	if t.err != nil {
		return nil, t.err
	}
	return t.root.Children, nil
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Elements whose content is text up to the matching end tag, written back
// without escaping.
var rawText = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"xmp":       true,
}

// Start tags that close an open p element.
var closesP = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"center": true, "details": true, "dialog": true, "dir": true, "div": true,
	"dl": true, "dd": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hgroup": true, "hr": true, "li": true, "listing": true, "main": true,
	"menu": true, "nav": true, "ol": true, "p": true, "plaintext": true,
	"pre": true, "section": true, "summary": true, "table": true, "ul": true,
	"xmp": true,
}

// Elements that stop the search for an open p or li.
var scopeBoundary = map[string]bool{
	"applet": true, "button": true, "caption": true, "html": true,
	"marquee": true, "object": true, "table": true, "td": true,
	"template": true, "th": true,
}

var headings = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

type tree struct {
	root  Element
	stack []*Element // open elements; stack[0] is root
	max   int
	err   error

	// Text not yet added to the current element.
	pending strings.Builder
}

// token adds the current token of z to the tree. Doctypes are ignored.
func (t *tree) token(z *html.Tokenizer, tt html.TokenType) {
	switch tt {
	case html.TextToken:
		t.pending.Write(z.Text())
	case html.CommentToken:
		// </> is reported as an empty comment, but browsers ignore it.
		if string(z.Raw()) == "</>" {
			return
		}
		t.add(&Comment{Data: string(z.Text())})
	case html.StartTagToken, html.SelfClosingTagToken:
		t.startTag(z)
	case html.EndTagToken:
		name, _ := z.TagName()
		t.endTag(string(name))
	}
}

// startTag opens the element of the current start tag. A trailing slash
// means nothing on HTML elements, so self-closing tags are opened too.
func (t *tree) startTag(z *html.Tokenizer) {
	name, more := z.TagName()
	tag := string(name)

	var (
		attrs []Attribute
		seen  map[string]bool
	)
	if more {
		seen = make(map[string]bool)
	}
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		// The first of duplicate attributes wins.
		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		attrs = append(attrs, Attribute{Name: string(key), Value: string(val)})
	}

	t.closeImplied(tag)
	e := &Element{Tag: tag, Attrs: attrs}
	if IsVoid(tag) {
		t.add(e)
		return
	}
	t.push(e)
}

func (t *tree) endTag(name string) {
	for i := len(t.stack) - 1; i > 0; i-- {
		if t.stack[i].Tag == name {
			t.truncate(i)
			return
		}
	}
}

// closeImplied closes the open elements that a start tag of name ends
// implicitly.
func (t *tree) closeImplied(name string) {
	if closesP[name] {
		t.closeInScope("p", nil)
	}
	switch {
	case name == "li":
		t.closeInScope("li", map[string]bool{"ol": true, "ul": true})
	case name == "dd" || name == "dt":
		t.closeInScope("dd", map[string]bool{"dl": true})
		t.closeInScope("dt", map[string]bool{"dl": true})
	case name == "a":
		t.closeInScope("a", nil)
	case headings[name]:
		if cur := t.current(); headings[cur.Tag] {
			t.pop()
		}
	}
}

// closeInScope pops open elements down to and including the nearest tag,
// unless a scope boundary or one of stop comes first.
func (t *tree) closeInScope(tag string, stop map[string]bool) {
	for i := len(t.stack) - 1; i > 0; i-- {
		switch e := t.stack[i]; {
		case e.Tag == tag:
			t.truncate(i)
			return
		case scopeBoundary[e.Tag], stop[e.Tag]:
			return
		}
	}
}

func (t *tree) current() *Element {
	return t.stack[len(t.stack)-1]
}

func (t *tree) add(n Node) {
	t.flush()
	cur := t.current()
	cur.Children = append(cur.Children, n)
}

func (t *tree) push(e *Element) {
	if len(t.stack) > t.max {
		t.err = ErrDepthExceeded
		return
	}
	t.add(e)
	t.stack = append(t.stack, e)
}

func (t *tree) pop() {
	if len(t.stack) > 1 {
		t.truncate(len(t.stack) - 1)
	}
}

// truncate closes the open elements from stack[i] up.
func (t *tree) truncate(i int) {
	t.flush()
	t.stack = t.stack[:i]
}

func (t *tree) flush() {
	if t.pending.Len() == 0 {
		return
	}
	cur := t.current()
	cur.Children = append(cur.Children, &Text{Data: t.pending.String()})
	t.pending.Reset()
}
