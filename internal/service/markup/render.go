package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Render serializes nodes to HTML. Text and attribute values are escaped,
// so no character data can turn into markup. The text of raw text elements
// such as script and style is the exception: it is written as is, which is
// how Parse reads it back.
func Render(nodes []Node) string {
	var buf strings.Builder
	for _, n := range nodes {
		render(&buf, n)
	}
	return buf.String()
}

func render(buf *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		buf.WriteString(html.EscapeString(n.Data))

	case *Comment:
		// Escaping > keeps the data from closing the comment early.
		buf.WriteString("<!--")
		buf.WriteString(html.EscapeString(n.Data))
		buf.WriteString("-->")

	case *Element:
		buf.WriteByte('<')
		buf.WriteString(n.Tag)
		for _, a := range n.Attrs {
			buf.WriteByte(' ')
			buf.WriteString(a.Name)
			buf.WriteString(`="`)
			buf.WriteString(html.EscapeString(a.Value))
			buf.WriteByte('"')
		}
		buf.WriteByte('>')
		if IsVoid(n.Tag) {
			return
		}
		for _, c := range n.Children {
			if text, ok := c.(*Text); ok && rawText[n.Tag] {
				buf.WriteString(text.Data)
				continue
			}
			render(buf, c)
		}
		// Nothing ends a plaintext element.
		if n.Tag == "plaintext" {
			return
		}
		buf.WriteString("</")
		buf.WriteString(n.Tag)
		buf.WriteByte('>')
	}
}
