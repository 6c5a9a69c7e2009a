package parser

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shurcooL/sanitized_anchor_name"

	"nitro/markdown-safe-html/internal/service/markdown"
	"nitro/markdown-safe-html/internal/service/sanitizer"
)

// DefaultMaxInputBytes is the input limit used when MaxInputBytes is zero.
const DefaultMaxInputBytes = 1 << 20

var (
	// ErrInvalidUTF8 is returned for input that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

	// ErrInputTooLarge is returned for input over the size limit.
	ErrInputTooLarge = errors.New("input exceeds the size limit")
)

// Markdown expose a parser that transform Markdown into safe HTML.
type Markdown struct {
	Policy        *sanitizer.Policy
	MaxInputBytes int
	MaxDepth      int
	HeadingIDs    bool
	Breaks        bool

	parser markdown.Parser
}

// Init the internal state.
func (m *Markdown) Init() error {
	if m.MaxInputBytes < 0 {
		return errors.New("invalid 'maxInputBytes'")
	}
	if m.MaxDepth < 0 {
		return errors.New("invalid 'maxDepth'")
	}
	if m.MaxInputBytes == 0 {
		m.MaxInputBytes = DefaultMaxInputBytes
	}
	if m.Policy == nil {
		m.Policy = sanitizer.DefaultPolicy()
	}
	m.parser = markdown.Parser{MaxDepth: m.MaxDepth, HeadingIDs: m.HeadingIDs, Breaks: m.Breaks}
	return nil
}

// Render transform the Markdown into HTML that passed through the sanitizer.
func (m Markdown) Render(payload []byte) ([]byte, error) {
	raw, err := m.Raw(payload)
	if err != nil {
		return nil, err
	}
	return []byte(sanitizer.Sanitize(string(raw), m.Policy)), nil
}

// Do is Render without the error: input that cannot be rendered gives an
// empty result.
func (m Markdown) Do(payload []byte) []byte {
	out, err := m.Render(payload)
	if err != nil {
		return nil
	}
	return out
}

// Raw transform the Markdown into HTML without sanitizing it.
//
// The output is NOT safe to display: raw HTML and javascript: links from the
// input survive. It exists to compare against Render.
func (m Markdown) Raw(payload []byte) ([]byte, error) {
	if err := m.validate(payload); err != nil {
		return nil, err
	}
	doc, err := m.parser.Parse(string(payload))
	if err != nil {
		return nil, fmt.Errorf("fail to parse the markdown: %w", err)
	}
	return []byte(markdown.ToHTML(doc)), nil
}

// Sanitize filters HTML that did not come from the renderer with the same limits and policy as Render.
func (m Markdown) Sanitize(payload []byte) ([]byte, error) {
	if err := m.validate(payload); err != nil {
		return nil, err
	}
	return []byte(sanitizer.Sanitize(string(payload), m.Policy)), nil
}

// SanitizedAnchorName process the anchor the same way heading ids are made.
func (m Markdown) SanitizedAnchorName(text string) string {
	return sanitized_anchor_name.Create(text)
}

func (m Markdown) validate(payload []byte) error {
	if len(payload) > m.maxInputBytes() {
		return ErrInputTooLarge
	}
	if !utf8.Valid(payload) {
		return ErrInvalidUTF8
	}
	return nil
}

func (m Markdown) maxInputBytes() int {
	if m.MaxInputBytes > 0 {
		return m.MaxInputBytes
	}
	return DefaultMaxInputBytes
}
