package markdown

import (
	"strings"
	"unicode/utf8"
)

// splitLines normalizes line endings, replaces NUL with U+FFFD,
// expands tabs and splits text into lines without their terminators.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "�")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.IndexByte(line, '\t') >= 0 {
			lines[i] = expandTabs(line)
		}
	}
	return lines
}

// expandTabs replaces all tabs in line with spaces up to a 4-column tab stop,
// which is how Markdown interprets tabs used for indentation.
func expandTabs(line string) string {
	var buf strings.Builder
	col := 0
	for len(line) > 0 {
		r, size := utf8.DecodeRuneInString(line)
		line = line[size:]
		if r == '\t' {
			buf.WriteByte(' ')
			col++
			for col%4 != 0 {
				buf.WriteByte(' ')
				col++
			}
			continue
		}
		buf.WriteRune(r)
		col++
	}
	return buf.String()
}

// indentOf returns the number of leading spaces in s.
func indentOf(s string) int {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// unindent removes up to n leading spaces from s.
func unindent(s string, n int) string {
	i := 0
	for i < n && i < len(s) && s[i] == ' ' {
		i++
	}
	return s[i:]
}

func isBlank(s string) bool {
	return strings.Trim(s, " ") == ""
}

// isThematicBreak reports whether s (already stripped of indentation)
// is three or more matching -, _ or * characters, optionally separated by spaces.
func isThematicBreak(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if c != '-' && c != '_' && c != '*' {
		return false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case c:
			n++
		case ' ':
		default:
			return false
		}
	}
	return n >= 3
}

// atxHeading parses an ATX heading line, returning its level and content
// with any closing sequence of # characters removed.
func atxHeading(s string) (level int, content string, ok bool) {
	for level < len(s) && s[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := s[level:]
	if rest != "" && rest[0] != ' ' {
		return 0, "", false
	}
	rest = strings.Trim(rest, " ")
	if t := strings.TrimRight(rest, "#"); t == "" {
		rest = ""
	} else if t != rest && t[len(t)-1] == ' ' {
		rest = strings.TrimRight(t, " ")
	}
	return level, rest, true
}

// A fence is the opening line of a fenced code block.
type fence struct {
	char byte
	n    int
	info string
}

// openFence parses s (already stripped of indentation) as an opening code fence.
func openFence(s string) (fence, bool) {
	if s == "" || s[0] != '`' && s[0] != '~' {
		return fence{}, false
	}
	c := s[0]
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	info := strings.Trim(s[n:], " ")
	if c == '`' && strings.IndexByte(info, '`') >= 0 {
		return fence{}, false
	}
	if i := strings.IndexByte(info, ' '); i >= 0 {
		info = info[:i]
	}
	return fence{char: c, n: n, info: mdUnescape(info)}, true
}

// closes reports whether s (already stripped of indentation) closes f:
// at least as many fence characters as the opener and nothing else.
func (f fence) closes(s string) bool {
	n := 0
	for n < len(s) && s[n] == f.char {
		n++
	}
	return n >= f.n && isBlank(s[n:])
}

// A listMarker is the bullet or number starting a list item.
type listMarker struct {
	ordered bool
	delim   byte // '-', '*', '+' for bullets; '.' or ')' for ordered lists
	num     int
	width   int    // column where the item content starts
	rest    string // content of the marker line after the marker
}

// parseListMarker parses line as the first line of a list item.
func parseListMarker(line string) (listMarker, bool) {
	indent := indentOf(line)
	if indent >= 4 {
		return listMarker{}, false
	}
	s := line[indent:]
	var m listMarker
	i := 0
	switch {
	case s == "":
		return listMarker{}, false
	case s[0] == '-' || s[0] == '*' || s[0] == '+':
		m.delim = s[0]
		i = 1
	case isDigit(s[0]):
		for i < len(s) && isDigit(s[i]) {
			if i >= 9 {
				return listMarker{}, false
			}
			m.num = m.num*10 + int(s[i]-'0')
			i++
		}
		if i >= len(s) || s[i] != '.' && s[i] != ')' {
			return listMarker{}, false
		}
		m.ordered = true
		m.delim = s[i]
		i++
	default:
		return listMarker{}, false
	}
	if i < len(s) && s[i] != ' ' {
		return listMarker{}, false
	}
	after := s[i:]
	spaces := indentOf(after)
	switch {
	case isBlank(after):
		m.width = indent + i + 1
		m.rest = ""
	case spaces > 4:
		// Content is indented code; the marker takes a single space.
		m.width = indent + i + 1
		m.rest = after[1:]
	default:
		m.width = indent + i + spaces
		m.rest = after[spaces:]
	}
	return m, true
}

// continues reports whether m can be a sibling item of a list started by first.
func (m listMarker) continues(first listMarker) bool {
	return m.ordered == first.ordered && m.delim == first.delim
}

// quoteContent strips a block quote marker from line.
func quoteContent(line string) (string, bool) {
	indent := indentOf(line)
	if indent >= 4 || indent >= len(line) || line[indent] != '>' {
		return "", false
	}
	rest := line[indent+1:]
	if rest != "" && rest[0] == ' ' {
		rest = rest[1:]
	}
	return rest, true
}

// opensBlock reports whether line starts a block other than a paragraph,
// so that it cannot be a lazy paragraph continuation line.
func opensBlock(line string) bool {
	indent := indentOf(line)
	if indent >= 4 {
		return false
	}
	s := line[indent:]
	if isThematicBreak(s) {
		return true
	}
	if _, _, ok := atxHeading(s); ok {
		return true
	}
	if _, ok := openFence(s); ok {
		return true
	}
	if _, ok := quoteContent(line); ok {
		return true
	}
	if m, ok := parseListMarker(line); ok && m.rest != "" {
		return true
	}
	return false
}

// isPunct reports whether c is ASCII punctuation, the set of characters
// that can be backslash-escaped.
func isPunct(c byte) bool {
	return '!' <= c && c <= '/' || ':' <= c && c <= '@' || '[' <= c && c <= '`' || '{' <= c && c <= '~'
}

func isLetter(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetterDigit(c byte) bool {
	return isLetter(c) || isDigit(c)
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r'
}
