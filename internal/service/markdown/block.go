package markdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shurcooL/sanitized_anchor_name"
)

// DefaultMaxDepth is the nesting limit used when Parser.MaxDepth is zero.
const DefaultMaxDepth = 64

// ErrDepthExceeded is returned when block or inline nesting exceeds the
// parser's depth limit. The document is discarded rather than truncated.
var ErrDepthExceeded = errors.New("markdown nesting exceeds the depth limit")

// A Parser holds the options for parsing Markdown.
// The zero value is ready to use; a Parser may be shared by concurrent calls.
type Parser struct {
	// MaxDepth limits the nesting of block quotes, list items and inline
	// emphasis and links. Zero means DefaultMaxDepth.
	MaxDepth int

	// HeadingIDs assigns every heading an id derived from its text.
	HeadingIDs bool

	// Breaks turns every newline inside a paragraph into a line break.
	Breaks bool
}

// Parse scans text into a Document.
// Malformed Markdown never fails; the only error is ErrDepthExceeded.
func (p *Parser) Parse(text string) (*Document, error) {
	b := &blockParser{opts: p, maxDepth: p.maxDepth()}
	blocks := b.blocks(splitLines(text), 0)
	if b.err != nil {
		return nil, b.err
	}
	doc := &Document{Blocks: blocks}
	if p.HeadingIDs {
		assignHeadingIDs(doc)
	}
	return doc, nil
}

// ParseInline scans text, the content of a single block, into inlines.
func (p *Parser) ParseInline(text string) ([]Inline, error) {
	list := newInlineParser(p.Breaks).parse(text)
	if inlineDepth(list) > p.maxDepth() {
		return nil, ErrDepthExceeded
	}
	return list, nil
}

func (p *Parser) maxDepth() int {
	if p.MaxDepth > 0 {
		return p.MaxDepth
	}
	return DefaultMaxDepth
}

// A blockParser holds the state of a single Parse call.
type blockParser struct {
	opts     *Parser
	maxDepth int
	err      error
}

// blocks scans lines into blocks. Block quotes and list items recurse into
// blocks with their markers stripped, one level deeper.
func (b *blockParser) blocks(lines []string, depth int) []Block {
	if depth > b.maxDepth {
		b.err = ErrDepthExceeded
		return nil
	}

	var (
		out  []Block
		para []string
	)
	add := func(x Block) {
		if x != nil {
			out = append(out, x)
		}
	}
	flush := func() {
		if para != nil {
			add(b.paragraph(para))
			para = nil
		}
	}

	for i := 0; i < len(lines) && b.err == nil; {
		line := lines[i]
		if isBlank(line) {
			flush()
			i++
			continue
		}

		indent := indentOf(line)
		if indent >= 4 {
			if para != nil {
				para = append(para, line)
				i++
				continue
			}
			code, n := indentedCode(lines[i:])
			add(code)
			i += n
			continue
		}

		s := line[indent:]
		if isThematicBreak(s) {
			flush()
			add(&ThematicBreak{})
			i++
			continue
		}
		if level, content, ok := atxHeading(s); ok {
			flush()
			add(b.heading(level, content))
			i++
			continue
		}
		if f, ok := openFence(s); ok {
			flush()
			code, n := fencedCode(lines[i:], indent, f)
			add(code)
			i += n
			continue
		}
		if _, ok := quoteContent(line); ok {
			flush()
			inner, n := quoteLines(lines[i:])
			if blocks := b.blocks(inner, depth+1); len(blocks) > 0 {
				add(&Blockquote{Blocks: blocks})
			}
			i += n
			continue
		}
		if m, ok := parseListMarker(line); ok && (para == nil || m.canInterrupt()) {
			flush()
			list, n := b.list(lines[i:], depth)
			add(list)
			i += n
			continue
		}

		para = append(para, line)
		i++
	}
	flush()
	return out
}

// canInterrupt reports whether a list item starting with m may interrupt
// a paragraph: it must have content and, if ordered, start at 1.
func (m listMarker) canInterrupt() bool {
	return m.rest != "" && (!m.ordered || m.num == 1)
}

func (b *blockParser) heading(level int, content string) Block {
	inlines := b.inlines(content)
	if len(inlines) == 0 {
		return nil
	}
	return &Heading{Level: level, Inlines: inlines}
}

func (b *blockParser) paragraph(lines []string) Block {
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, " ")
	}
	text := strings.TrimRight(strings.Join(lines, "\n"), " ")
	inlines := b.inlines(text)
	if len(inlines) == 0 {
		return nil
	}
	return &Paragraph{Inlines: inlines}
}

func (b *blockParser) inlines(text string) []Inline {
	list, err := b.opts.ParseInline(text)
	if err != nil {
		b.err = err
		return nil
	}
	return list
}

// indentedCode collects an indented code block starting at lines[0].
func indentedCode(lines []string) (Block, int) {
	var text []string
	n := 0
	for n < len(lines) && (isBlank(lines[n]) || indentOf(lines[n]) >= 4) {
		text = append(text, unindent(lines[n], 4))
		n++
	}
	// Trailing blank lines belong to whatever follows.
	for len(text) > 0 && isBlank(text[len(text)-1]) {
		text = text[:len(text)-1]
		n--
	}
	return &CodeBlock{Text: strings.Join(text, "\n") + "\n"}, n
}

// fencedCode collects a fenced code block opened by lines[0].
// Without a closing fence the block runs to the end of the input.
func fencedCode(lines []string, indent int, f fence) (Block, int) {
	var text strings.Builder
	n := 1
	for ; n < len(lines); n++ {
		line := lines[n]
		if in := indentOf(line); in < 4 && f.closes(line[in:]) {
			n++
			break
		}
		text.WriteString(unindent(line, indent))
		text.WriteByte('\n')
	}
	return &CodeBlock{Language: f.info, Text: text.String()}, n
}

// quoteLines collects the lines of a block quote starting at lines[0]
// with their > markers stripped. A line without a marker still belongs
// to the quote if it lazily continues a paragraph.
func quoteLines(lines []string) ([]string, int) {
	var out []string
	lazy := false
	n := 0
	for ; n < len(lines); n++ {
		line := lines[n]
		if rest, ok := quoteContent(line); ok {
			out = append(out, rest)
			lazy = !isBlank(rest) && !opensBlock(rest) && indentOf(rest) < 4
			continue
		}
		if lazy && !isBlank(line) && !opensBlock(line) {
			out = append(out, line)
			continue
		}
		break
	}
	return out, n
}

// list collects a list starting at lines[0] together with all its sibling items.
func (b *blockParser) list(lines []string, depth int) (Block, int) {
	first, _ := parseListMarker(lines[0])
	list := &List{Ordered: first.ordered, Start: first.num, Tight: true}

	n := 0
	for n < len(lines) && b.err == nil {
		m, ok := parseListMarker(lines[n])
		if !ok || !m.continues(first) {
			break
		}
		inner, used, blank := itemLines(lines[n:], m)
		n += used
		if blank {
			list.Tight = false
		}
		if blocks := b.blocks(inner, depth+1); len(blocks) > 0 {
			list.Items = append(list.Items, &ListItem{Blocks: blocks})
		}

		// Blank lines between items make the list loose;
		// blank lines followed by anything else end it.
		j := n
		for j < len(lines) && isBlank(lines[j]) {
			j++
		}
		if j == n {
			continue
		}
		if j < len(lines) {
			if next, ok := parseListMarker(lines[j]); ok && next.continues(first) {
				list.Tight = false
				n = j
				continue
			}
		}
		break
	}

	if len(list.Items) == 0 {
		return nil, n
	}
	return list, n
}

// itemLines collects the lines of the list item starting at lines[0],
// removing the item's content indentation. It reports whether a blank line
// separates blocks inside the item.
func itemLines(lines []string, m listMarker) (out []string, n int, blank bool) {
	out = append(out, m.rest)
	n = 1
	for n < len(lines) {
		line := lines[n]
		if isBlank(line) {
			j := n
			for j < len(lines) && isBlank(lines[j]) {
				j++
			}
			if j == len(lines) || indentOf(lines[j]) < m.width || m.rest == "" && len(out) == 1 {
				break
			}
			for ; n < j; n++ {
				out = append(out, "")
			}
			blank = true
			continue
		}
		if indentOf(line) >= m.width {
			out = append(out, line[m.width:])
			n++
			continue
		}
		last := out[len(out)-1]
		if !isBlank(last) && !opensBlock(last) && !opensBlock(line) {
			out = append(out, line)
			n++
			continue
		}
		break
	}
	return out, n, blank
}

// assignHeadingIDs gives every heading in doc an anchor name,
// suffixing repeated names with -1, -2 and so on.
func assignHeadingIDs(doc *Document) {
	seen := make(map[string]int)
	var walk func([]Block)
	walk = func(blocks []Block) {
		for _, x := range blocks {
			switch x := x.(type) {
			case *Heading:
				id := sanitized_anchor_name.Create(plainText(x.Inlines))
				if id == "" {
					id = "section"
				}
				base := id
				for count := seen[base]; seen[id] > 0; count++ {
					id = fmt.Sprintf("%s-%d", base, count)
				}
				seen[base]++
				if id != base {
					seen[id]++
				}
				x.ID = id
			case *Blockquote:
				walk(x.Blocks)
			case *List:
				for _, item := range x.Items {
					walk(item.Blocks)
				}
			case *Paragraph, *CodeBlock, *ThematicBreak:
				// no headings inside
			}
		}
	}
	walk(doc.Blocks)
}
