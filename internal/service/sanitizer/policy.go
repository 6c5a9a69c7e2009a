package sanitizer

import (
	"strings"

	"nitro/markdown-safe-html/internal/service/markup"
)

// GlobalAttributes is the AllowedAttributes key whose attributes are
// allowed on every tag.
const GlobalAttributes = "*"

// PolicyConfig describes a Policy. It is the form read from the
// configuration file.
//
// A nil field takes its value from DefaultPolicyConfig; an empty one
// allows nothing.
type PolicyConfig struct {
	AllowedTags       []string            `mapstructure:"allowedTags"`
	AllowedAttributes map[string][]string `mapstructure:"allowedAttributes"`
	AllowedSchemes    []string            `mapstructure:"allowedSchemes"`
	DropTags          []string            `mapstructure:"dropTags"`
	AllowedStyles     []string            `mapstructure:"allowedStyles"`
	MaxDepth          int                 `mapstructure:"maxDepth"`
}

// Tags dropped with their content whatever the configuration says.
// Browsers without scripting parse noscript content as markup, and
// plaintext swallows the rest of the page it is embedded in.
var alwaysDropped = []string{"noscript", "plaintext"}

// Policy is an allow-list of tags, attributes and URL schemes.
// It is immutable once built and safe for concurrent use.
type Policy struct {
	tags     map[string]bool
	attrs    map[string]map[string]bool
	global   map[string]bool
	schemes  map[string]bool
	drop     map[string]bool
	styles   map[string]bool
	maxDepth int
}

// DefaultPolicyConfig covers everything the Markdown renderer produces,
// with links and images limited to http, https and mailto.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		AllowedTags: []string{
			"h1", "h2", "h3", "h4", "h5", "h6",
			"p", "br", "hr",
			"em", "strong", "b", "i", "del", "s", "sup", "sub",
			"code", "pre",
			"a", "img",
			"ul", "ol", "li",
			"blockquote",
			"span", "div",
			"table", "thead", "tbody", "tr", "th", "td",
		},
		AllowedAttributes: map[string][]string{
			GlobalAttributes: {"title"},
			"a":              {"href"},
			"img":            {"src", "alt"},
			"ol":             {"start"},
			"code":           {"class"},
			"h1":             {"id"},
			"h2":             {"id"},
			"h3":             {"id"},
			"h4":             {"id"},
			"h5":             {"id"},
			"h6":             {"id"},
			"span":           {"style"},
			"th":             {"align"},
			"td":             {"align"},
		},
		AllowedSchemes: []string{"http", "https", "mailto"},
		DropTags: []string{
			"script", "style", "iframe", "frame", "frameset",
			"object", "embed", "applet",
			"noscript", "noembed", "noframes", "template",
			"textarea", "title", "xmp", "plaintext",
			"svg", "math",
		},
		AllowedStyles: []string{
			"color", "background-color",
			"font-style", "font-weight",
			"text-align", "text-decoration",
		},
	}
}

// DefaultPolicy returns the Policy built from DefaultPolicyConfig.
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultPolicyConfig())
}

// NewPolicy builds a Policy from cfg. All names are lowercased, so the
// case of the configuration does not matter.
func NewPolicy(cfg PolicyConfig) *Policy {
	def := DefaultPolicyConfig()
	if cfg.AllowedTags == nil {
		cfg.AllowedTags = def.AllowedTags
	}
	if cfg.AllowedAttributes == nil {
		cfg.AllowedAttributes = def.AllowedAttributes
	}
	if cfg.AllowedSchemes == nil {
		cfg.AllowedSchemes = def.AllowedSchemes
	}
	if cfg.DropTags == nil {
		cfg.DropTags = def.DropTags
	}
	if cfg.AllowedStyles == nil {
		cfg.AllowedStyles = def.AllowedStyles
	}

	p := &Policy{
		tags:     toSet(cfg.AllowedTags),
		attrs:    make(map[string]map[string]bool, len(cfg.AllowedAttributes)),
		global:   make(map[string]bool),
		schemes:  toSet(cfg.AllowedSchemes),
		drop:     toSet(cfg.DropTags),
		styles:   toSet(cfg.AllowedStyles),
		maxDepth: cfg.MaxDepth,
	}
	for tag, names := range cfg.AllowedAttributes {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == GlobalAttributes {
			for name := range toSet(names) {
				p.global[name] = true
			}
			continue
		}
		set := p.attrs[tag]
		if set == nil {
			set = make(map[string]bool)
			p.attrs[tag] = set
		}
		for name := range toSet(names) {
			set[name] = true
		}
	}
	for _, tag := range alwaysDropped {
		p.drop[tag] = true
	}
	if p.maxDepth <= 0 {
		p.maxDepth = markup.DefaultMaxDepth
	}
	return p
}

// AllowsTag reports whether elements named tag are kept.
func (p *Policy) AllowsTag(tag string) bool {
	return p.tags[tag]
}

// AllowsAttr reports whether attribute name is kept on tag,
// before any URL or style check of its value.
func (p *Policy) AllowsAttr(tag, name string) bool {
	return p.global[name] || p.attrs[tag][name]
}

// AllowsURL reports whether raw, an entity-decoded attribute value,
// is relative or uses an allowed scheme.
func (p *Policy) AllowsURL(raw string) bool {
	scheme, ok := urlScheme(raw)
	if !ok {
		return true
	}
	for _, bad := range dangerousSchemes {
		if scheme == bad {
			return false
		}
	}
	return p.schemes[scheme]
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return m
}
