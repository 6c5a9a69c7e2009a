package markdown

// A Block is a block-level node of a [Document]: one of [Heading], [Paragraph],
// [List], [CodeBlock], [Blockquote] and [ThematicBreak].
//
// The set is closed; consumers switch over the concrete types.
type Block interface {
	block()
}

// An Inline is an inline node: one of [Text], [Emphasis], [CodeSpan], [Link],
// [Image], [LineBreak] and [RawHTML].
type Inline interface {
	inline()
}

// Document is the root of a parsed Markdown text.
type Document struct {
	Blocks []Block
}

// Heading is an ATX heading. Level is always within 1..6.
type Heading struct {
	Level   int
	ID      string // set only when the parser generates heading ids
	Inlines []Inline
}

// Paragraph is a run of text lines.
type Paragraph struct {
	Inlines []Inline
}

// List is a bullet or ordered list. Start is meaningful only when Ordered is set.
type List struct {
	Ordered bool
	Start   int
	Tight   bool
	Items   []*ListItem
}

// ListItem holds the blocks of one list entry.
type ListItem struct {
	Blocks []Block
}

// CodeBlock is a fenced or indented code block. Text is kept verbatim.
type CodeBlock struct {
	Language string
	Text     string
}

// Blockquote holds the blocks of a quoted section.
type Blockquote struct {
	Blocks []Block
}

// ThematicBreak is a horizontal rule.
type ThematicBreak struct{}

func (*Heading) block()       {}
func (*Paragraph) block()     {}
func (*List) block()          {}
func (*CodeBlock) block()     {}
func (*Blockquote) block()    {}
func (*ThematicBreak) block() {}

// Text is literal text content.
type Text struct {
	Text string
}

// Emphasis is <em> text, or <strong> text when Strong is set.
type Emphasis struct {
	Strong  bool
	Inlines []Inline
}

// CodeSpan is inline code. Text is kept verbatim.
type CodeSpan struct {
	Text string
}

// Link is a hyperlink. Href is not validated here.
type Link struct {
	Href    string
	Title   string
	Inlines []Inline
}

// Image is an inline image.
type Image struct {
	Src   string
	Alt   string
	Title string
}

// LineBreak is a hard line break.
type LineBreak struct{}

// RawHTML is an HTML tag or comment copied from the input without validation.
type RawHTML struct {
	Text string
}

func (*Text) inline()      {}
func (*Emphasis) inline()  {}
func (*CodeSpan) inline()  {}
func (*Link) inline()      {}
func (*Image) inline()     {}
func (*LineBreak) inline() {}
func (*RawHTML) inline()   {}

// plainText returns the text content of list with all markup removed.
// It is used for image alt text and heading ids.
func plainText(list []Inline) string {
	var buf []byte
	var walk func([]Inline)
	walk = func(list []Inline) {
		for _, x := range list {
			switch x := x.(type) {
			case *Text:
				buf = append(buf, x.Text...)
			case *CodeSpan:
				buf = append(buf, x.Text...)
			case *Emphasis:
				walk(x.Inlines)
			case *Link:
				walk(x.Inlines)
			case *Image:
				buf = append(buf, x.Alt...)
			case *LineBreak:
				buf = append(buf, ' ')
			case *RawHTML:
				// not text
			}
		}
	}
	walk(list)
	return string(buf)
}
