// Package sanitizer filters HTML against an allow-list Policy.
//
// Input is parsed with the markup package into a tree, the tree is
// rewritten, and the result is serialized again, so text can never turn
// into markup on the way through.
package sanitizer

import (
	"strings"

	"nitro/markdown-safe-html/internal/service/markup"
)

// Schemes rejected even when a policy allows them.
var dangerousSchemes = []string{"javascript", "vbscript", "livescript", "data"}

// Attributes whose value is a URL.
var urlAttributes = map[string]bool{
	"action":     true,
	"background": true,
	"cite":       true,
	"formaction": true,
	"href":       true,
	"longdesc":   true,
	"poster":     true,
	"src":        true,
	"xlink:href": true,
}

// Sanitize parses s and returns it as HTML holding only what p allows:
//
//   - elements in the drop set are removed with their content;
//   - other elements not in the allowed set are replaced by their children;
//   - attributes not allowed for the tag are removed, as are URL
//     attributes with a scheme that is not allowed;
//   - comments are removed and text is escaped.
//
// Sanitize fails closed: input nested deeper than the policy's depth limit
// yields the empty string. A nil p means DefaultPolicy.
func Sanitize(s string, p *Policy) string {
	if p == nil {
		p = DefaultPolicy()
	}
	out, ok := p.pass(s)
	if !ok {
		return ""
	}
	// Unwrapping can leave structure that parses differently, such as a
	// div directly inside a p. The second pass settles it, so that
	// sanitizing the output again changes nothing.
	out, ok = p.pass(out)
	if !ok {
		return ""
	}
	return out
}

func (p *Policy) pass(s string) (string, bool) {
	nodes, err := markup.Parser{MaxDepth: p.maxDepth}.Parse(s)
	if err != nil {
		return "", false
	}
	return markup.Render(p.filter(nodes)), true
}

// filter returns nodes rewritten to p. The input tree is not modified.
func (p *Policy) filter(nodes []markup.Node) []markup.Node {
	var out []markup.Node
	for _, n := range nodes {
		switch n := n.(type) {
		case *markup.Text:
			out = append(out, &markup.Text{Data: n.Data})
		case *markup.Comment:
			// dropped
		case *markup.Element:
			switch {
			case p.drop[n.Tag]:
			case !p.tags[n.Tag]:
				out = append(out, p.filter(n.Children)...)
			default:
				out = append(out, &markup.Element{
					Tag:      n.Tag,
					Attrs:    p.filterAttrs(n),
					Children: p.filter(n.Children),
				})
			}
		}
	}
	return out
}

func (p *Policy) filterAttrs(e *markup.Element) []markup.Attribute {
	var out []markup.Attribute
	for _, a := range e.Attrs {
		if !p.AllowsAttr(e.Tag, a.Name) {
			continue
		}
		switch {
		case a.Name == "style":
			v, ok := p.filterStyle(a.Value)
			if !ok {
				continue
			}
			a.Value = v
		case a.Name == "srcset":
			if !p.srcsetAllowed(a.Value) {
				continue
			}
		case urlAttributes[a.Name]:
			if !p.AllowsURL(a.Value) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// srcsetAllowed checks every image candidate URL of a srcset value.
func (p *Policy) srcsetAllowed(v string) bool {
	for _, candidate := range strings.Split(v, ",") {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}
		if !p.AllowsURL(fields[0]) {
			return false
		}
	}
	return true
}

// urlScheme returns the lowercased scheme of raw, and false if raw is
// relative. ASCII whitespace and control characters are ignored, as
// browsers do, so "java\tscript:" has the scheme "javascript".
func urlScheme(raw string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c <= ' ' || c == 0x7f:
			continue
		case c == ':':
			return strings.ToLower(b.String()), true
		case c == '/' || c == '?' || c == '#':
			return "", false
		}
		b.WriteByte(c)
	}
	return "", false
}
