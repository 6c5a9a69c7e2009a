// Package markup parses arbitrary HTML into a small tree the way a browser
// tokenizes it and serializes such trees back to HTML.
//
// The tree is independent of the Markdown document model. It exists so that
// the sanitizer can judge HTML by its structure rather than by its text.
package markup

// A Node is one of [Element], [Text] and [Comment].
type Node interface {
	node()
}

// Element is an HTML element. Tag and attribute names are lowercase.
type Element struct {
	Tag      string
	Attrs    []Attribute
	Children []Node
}

// Attribute is a name/value pair. Value has its entities decoded.
type Attribute struct {
	Name  string
	Value string
}

// Text is character data with entities decoded.
type Text struct {
	Data string
}

// Comment is an HTML comment, including the bogus comments
// browsers make out of <!...> and <?...>.
type Comment struct {
	Data string
}

func (*Element) node() {}
func (*Text) node()    {}
func (*Comment) node() {}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// IsVoid reports whether tag is a void element, which has no end tag
// and no children.
func IsVoid(tag string) bool {
	return voidElements[tag]
}

var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"keygen": true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}
