package markdown

import (
	"strconv"
	"strings"
)

// ToHTML renders doc as HTML.
//
// The result is NOT safe to display: raw HTML from the input is copied
// verbatim and link destinations are not checked. Pass it through a
// sanitizer before showing it to anyone.
func ToHTML(doc *Document) string {
	var buf strings.Builder
	for _, x := range doc.Blocks {
		renderBlock(&buf, x)
	}
	return buf.String()
}

// InlineHTML renders list as HTML, with the same caveats as ToHTML.
func InlineHTML(list []Inline) string {
	var buf strings.Builder
	renderInlines(&buf, list)
	return buf.String()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	`"`, "&quot;",
)

func renderBlock(buf *strings.Builder, x Block) {
	switch x := x.(type) {
	case *Heading:
		h := "h" + strconv.Itoa(x.Level)
		buf.WriteString("<" + h)
		if x.ID != "" {
			buf.WriteString(` id="`)
			attrEscaper.WriteString(buf, x.ID)
			buf.WriteString(`"`)
		}
		buf.WriteString(">")
		renderInlines(buf, x.Inlines)
		buf.WriteString("</" + h + ">\n")

	case *Paragraph:
		buf.WriteString("<p>")
		renderInlines(buf, x.Inlines)
		buf.WriteString("</p>\n")

	case *List:
		tag := "ul"
		if x.Ordered {
			tag = "ol"
		}
		buf.WriteString("<" + tag)
		if x.Ordered && x.Start != 1 {
			buf.WriteString(` start="` + strconv.Itoa(x.Start) + `"`)
		}
		buf.WriteString(">\n")
		for _, item := range x.Items {
			renderItem(buf, item, x.Tight)
		}
		buf.WriteString("</" + tag + ">\n")

	case *CodeBlock:
		buf.WriteString("<pre><code")
		if x.Language != "" {
			buf.WriteString(` class="language-`)
			attrEscaper.WriteString(buf, x.Language)
			buf.WriteString(`"`)
		}
		buf.WriteString(">")
		htmlEscaper.WriteString(buf, x.Text)
		buf.WriteString("</code></pre>\n")

	case *Blockquote:
		buf.WriteString("<blockquote>\n")
		for _, b := range x.Blocks {
			renderBlock(buf, b)
		}
		buf.WriteString("</blockquote>\n")

	case *ThematicBreak:
		buf.WriteString("<hr>\n")
	}
}

// renderItem writes a list item. In a tight list its paragraphs are
// written without <p> tags.
func renderItem(buf *strings.Builder, item *ListItem, tight bool) {
	buf.WriteString("<li>")
	newline := true
	for _, b := range item.Blocks {
		if p, ok := b.(*Paragraph); ok && tight {
			renderInlines(buf, p.Inlines)
			newline = true
			continue
		}
		if newline {
			buf.WriteString("\n")
		}
		renderBlock(buf, b)
		newline = false
	}
	buf.WriteString("</li>\n")
}

func renderInlines(buf *strings.Builder, list []Inline) {
	for _, x := range list {
		renderInline(buf, x)
	}
}

func renderInline(buf *strings.Builder, x Inline) {
	switch x := x.(type) {
	case *Text:
		htmlEscaper.WriteString(buf, x.Text)

	case *Emphasis:
		tag := "em"
		if x.Strong {
			tag = "strong"
		}
		buf.WriteString("<" + tag + ">")
		renderInlines(buf, x.Inlines)
		buf.WriteString("</" + tag + ">")

	case *CodeSpan:
		buf.WriteString("<code>")
		htmlEscaper.WriteString(buf, x.Text)
		buf.WriteString("</code>")

	case *Link:
		buf.WriteString(`<a href="`)
		attrEscaper.WriteString(buf, x.Href)
		buf.WriteString(`"`)
		writeTitle(buf, x.Title)
		buf.WriteString(">")
		renderInlines(buf, x.Inlines)
		buf.WriteString("</a>")

	case *Image:
		buf.WriteString(`<img src="`)
		attrEscaper.WriteString(buf, x.Src)
		buf.WriteString(`" alt="`)
		attrEscaper.WriteString(buf, x.Alt)
		buf.WriteString(`"`)
		writeTitle(buf, x.Title)
		buf.WriteString(">")

	case *LineBreak:
		buf.WriteString("<br>\n")

	case *RawHTML:
		buf.WriteString(x.Text)
	}
}

func writeTitle(buf *strings.Builder, title string) {
	if title == "" {
		return
	}
	buf.WriteString(` title="`)
	attrEscaper.WriteString(buf, title)
	buf.WriteString(`"`)
}
