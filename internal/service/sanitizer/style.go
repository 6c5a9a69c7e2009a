package sanitizer

import (
	"strings"

	"github.com/aymerick/douceur/parser"
)

// filterStyle reduces a style attribute to its allowed declarations.
// It reports false when nothing is left.
func (p *Policy) filterStyle(v string) (string, bool) {
	decls, err := parser.ParseDeclarations(v)
	if err != nil {
		return "", false
	}
	var kept []string
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		value := strings.TrimSpace(d.Value)
		if !p.styles[prop] || value == "" || unsafeStyleValue(value) {
			continue
		}
		if d.Important {
			value += " !important"
		}
		kept = append(kept, prop+": "+value)
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, "; "), true
}

// unsafeStyleValue reports whether a declaration value can load a
// resource, run script in old browsers or break out of the declaration.
func unsafeStyleValue(v string) bool {
	if strings.ContainsAny(v, `\<>;{}@`) {
		return true
	}
	v = strings.ToLower(strings.Join(strings.Fields(v), ""))
	for _, bad := range []string{"url(", "expression(", "image(", "image-set(", "javascript:", "/*"} {
		if strings.Contains(v, bad) {
			return true
		}
	}
	return false
}
