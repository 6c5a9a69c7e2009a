package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Parsing inlines
//
// The scanner walks the text left to right. Leaf inlines (escapes, code
// spans, autolinks, raw HTML, entities, line breaks) are converted as soon
// as they are seen. Runs of * and _ become delims and every [ or ![ becomes
// a bracket; both wait on the stack as plain text. A ] followed by a link
// destination turns the stack content after its bracket into a Link or Image,
// applying emphasis to that content first. Emphasis for the rest of the
// stack is applied once the whole text is scanned. Anything still waiting
// at the end is literal text.

// A delim is a run of * or _ that may open or close emphasis.
// It only exists on the parse stack.
type delim struct {
	text     string
	char     byte
	canOpen  bool
	canClose bool
	pos      int // index in the output list while waiting for a closer
}

// A bracket is an opening [ or ![ waiting for its closing ].
// It only exists on the parse stack.
type bracket struct {
	text  string
	image bool
}

func (*delim) inline()   {}
func (*bracket) inline() {}

type inlineParser struct {
	breaks  bool
	s       string
	list    []Inline
	emitted int // s[:emitted] is on the stack in some form
	ticks   backticks
	angles  angles

	// Brackets at stack positions below noLinksBefore cannot form links,
	// since link text may not contain other links.
	noLinksBefore int
}

func newInlineParser(breaks bool) *inlineParser {
	return &inlineParser{breaks: breaks}
}

func (p *inlineParser) parse(s string) []Inline {
	p.s = s
	p.list = nil
	p.emitted = 0
	p.noLinksBefore = 0
	p.ticks = backticks{}
	p.angles = newAngles()

	var opens []int // stack positions of unmatched brackets
	for off := 0; off < len(s); {
		var (
			x   Inline
			end int
			ok  bool
		)
		switch s[off] {
		case '\\':
			x, end, ok = p.escape(off)
		case '`':
			x, end, ok = p.ticks.codeSpan(s, off)
		case '<':
			x, end, ok = p.angles.parse(s, off)
		case '[':
			x, end, ok = &bracket{text: "["}, off+1, true
		case '!':
			if off+1 < len(s) && s[off+1] == '[' {
				x, end, ok = &bracket{text: "![", image: true}, off+2, true
			}
		case '*', '_':
			x, end, ok = parseDelim(s, off)
		case '\n':
			x, end, ok = p.newline(off)
		case '&':
			x, end, ok = parseEntity(s, off)
		case 'h':
			x, end, ok = parseAutolink(s, off)
		case ']':
			if len(opens) > 0 {
				oi := opens[len(opens)-1]
				opens = opens[:len(opens)-1]
				if end, ok := p.closeBracket(oi, off); ok {
					off = end
					continue
				}
			}
		}
		if !ok {
			off++
			continue
		}
		p.emit(off)
		if _, isOpen := x.(*bracket); isOpen {
			opens = append(opens, len(p.list))
		}
		p.list = append(p.list, x)
		p.emitted = end
		off = end
	}
	p.emit(len(s))
	return emphasis(p.list)
}

// emit pushes p.s[p.emitted:i] onto the stack as text.
func (p *inlineParser) emit(i int) {
	if p.emitted < i {
		p.list = append(p.list, &Text{p.s[p.emitted:i]})
		p.emitted = i
	}
}

// closeBracket tries to complete the bracket at stack position oi with the
// ] at p.s[off]. On success it returns the input offset after the link.
func (p *inlineParser) closeBracket(oi, off int) (int, bool) {
	open := p.list[oi].(*bracket)
	if !open.image && oi < p.noLinksBefore {
		return 0, false
	}
	dest, title, end, ok := parseLinkTail(p.s, off+1)
	if !ok {
		return 0, false
	}
	if !open.image && oi+1 == len(p.list) && p.emitted == off {
		// [](dest) has no link text.
		return 0, false
	}
	p.emit(off)
	inner := emphasis(p.list[oi+1:])

	if open.image {
		p.list[oi] = &Image{Src: dest, Alt: plainText(inner), Title: title}
	} else {
		p.list[oi] = &Link{Href: dest, Title: title, Inlines: unwrapLinks(inner)}
		p.noLinksBefore = oi
	}
	p.list = p.list[:oi+1]
	p.emitted = end
	return end, true
}

// escape parses a backslash escape: an escaped punctuation character
// or a hard line break.
func (p *inlineParser) escape(off int) (Inline, int, bool) {
	if off+1 >= len(p.s) {
		return nil, 0, false
	}
	switch c := p.s[off+1]; {
	case isPunct(c):
		return &Text{p.s[off+1 : off+2]}, off + 2, true
	case c == '\n':
		return &LineBreak{}, skipSpaces(p.s, off+2), true
	}
	return nil, 0, false
}

// newline parses a line ending inside a paragraph. Two or more spaces
// before it make a hard break; otherwise it collapses to a single space.
func (p *inlineParser) newline(off int) (Inline, int, bool) {
	j := off
	for j > p.emitted && p.s[j-1] == ' ' {
		j--
	}
	hard := p.breaks || off-j >= 2
	p.emit(j)
	p.emitted = off
	end := skipSpaces(p.s, off+1)
	if hard {
		return &LineBreak{}, end, true
	}
	return &Text{" "}, end, true
}

func skipSpaces(s string, i int) int {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// skipSpace skips spaces, tabs and at most any newlines.
func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return i
}

// parseDelim parses a run of * or _ and classifies it using the
// left- and right-flanking rules.
func parseDelim(s string, start int) (Inline, int, bool) {
	c := s[start]
	end := start + 1
	for end < len(s) && s[end] == c {
		end++
	}

	before, after := ' ', ' '
	if start > 0 {
		before, _ = utf8.DecodeLastRuneInString(s[:start])
	}
	if end < len(s) {
		after, _ = utf8.DecodeRuneInString(s[end:])
	}

	leftFlank := !isUnicodeSpace(after) &&
		(!isUnicodePunct(after) || isUnicodeSpace(before) || isUnicodePunct(before))
	rightFlank := !isUnicodeSpace(before) &&
		(!isUnicodePunct(before) || isUnicodeSpace(after) || isUnicodePunct(after))

	d := &delim{text: s[start:end], char: c}
	if c == '*' {
		d.canOpen = leftFlank
		d.canClose = rightFlank
	} else {
		// Intraword _ is literal.
		d.canOpen = leftFlank && (!rightFlank || isUnicodePunct(before))
		d.canClose = rightFlank && (!leftFlank || isUnicodePunct(after))
	}
	return d, end, true
}

// emphasis matches delims in src and returns the resulting inlines.
// A closer pairs with the nearest waiting opener of the same character;
// openers of the other character between them become literal text.
// Runs of two or more on both sides make strong emphasis.
func emphasis(src []Inline) []Inline {
	var (
		dst    []Inline
		stacks [2][]*delim
	)
	for _, x := range src {
		d, ok := x.(*delim)
		if !ok {
			dst = append(dst, x)
			continue
		}
		stk := &stacks[0]
		if d.char == '_' {
			stk = &stacks[1]
		}

		for d.canClose && d.text != "" && len(*stk) > 0 {
			open := (*stk)[len(*stk)-1]
			if open.pos+1 == len(dst) {
				break
			}
			use := 1
			if len(d.text) >= 2 && len(open.text) >= 2 {
				use = 2
			}
			inner := mergeText(append([]Inline(nil), dst[open.pos+1:]...))

			open.text = open.text[use:]
			if open.text == "" {
				dst = dst[:open.pos]
			} else {
				dst = dst[:open.pos+1]
			}
			for k, s := range stacks {
				for len(s) > 0 && s[len(s)-1].pos >= len(dst) {
					s = s[:len(s)-1]
				}
				stacks[k] = s
			}

			dst = append(dst, &Emphasis{Strong: use == 2, Inlines: inner})
			d.text = d.text[use:]
		}
		if d.text == "" {
			continue
		}

		if d.canOpen {
			d.pos = len(dst)
			dst = append(dst, d)
			*stk = append(*stk, d)
		} else {
			dst = append(dst, &Text{d.text})
		}
	}
	return mergeText(dst)
}

// mergeText turns leftover stack markers into text and merges adjacent
// text nodes, dropping empty ones. It reuses list's storage.
func mergeText(list []Inline) []Inline {
	out := list[:0]
	var run []string
	flush := func() {
		if len(run) > 0 {
			out = append(out, &Text{strings.Join(run, "")})
			run = run[:0]
		}
	}
	for _, x := range list {
		switch x := x.(type) {
		case *Text:
			if x.Text != "" {
				run = append(run, x.Text)
			}
		case *delim:
			if x.text != "" {
				run = append(run, x.text)
			}
		case *bracket:
			run = append(run, x.text)
		default:
			flush()
			out = append(out, x)
		}
	}
	flush()
	return out
}

// unwrapLinks replaces links nested in link text with their content.
func unwrapLinks(list []Inline) []Inline {
	var out []Inline
	for _, x := range list {
		switch x := x.(type) {
		case *Link:
			out = append(out, unwrapLinks(x.Inlines)...)
		case *Emphasis:
			out = append(out, &Emphasis{Strong: x.Strong, Inlines: unwrapLinks(x.Inlines)})
		default:
			out = append(out, x)
		}
	}
	return mergeText(out)
}

// inlineDepth returns the nesting depth of emphasis and links in list.
func inlineDepth(list []Inline) int {
	deepest := 0
	for _, x := range list {
		d := 0
		switch x := x.(type) {
		case *Emphasis:
			d = 1 + inlineDepth(x.Inlines)
		case *Link:
			d = 1 + inlineDepth(x.Inlines)
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

// parseLinkTail parses the (dest "title") part of a link starting at s[i].
func parseLinkTail(s string, i int) (dest, title string, end int, ok bool) {
	if i >= len(s) || s[i] != '(' {
		return "", "", 0, false
	}
	i = skipSpace(s, i+1)
	dest, i, ok = parseLinkDest(s, i)
	if !ok {
		return "", "", 0, false
	}
	j := skipSpace(s, i)
	if j > i && j < len(s) && (s[j] == '"' || s[j] == '\'' || s[j] == '(') {
		title, j, ok = parseLinkTitle(s, j)
		if !ok {
			return "", "", 0, false
		}
		j = skipSpace(s, j)
	}
	if j >= len(s) || s[j] != ')' {
		return "", "", 0, false
	}
	return mdUnescape(dest), mdUnescape(title), j + 1, true
}

func parseLinkDest(s string, i int) (string, int, bool) {
	if i < len(s) && s[i] == '<' {
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '>':
				return s[i+1 : j], j + 1, true
			case '<', '\n':
				return "", 0, false
			case '\\':
				j++
			}
		}
		return "", 0, false
	}

	depth := 0
	j := i
Loop:
	for ; j < len(s); j++ {
		switch c := s[j]; {
		case c == '\\' && j+1 < len(s) && isPunct(s[j+1]):
			j++
		case c == '(':
			depth++
			if depth > 32 {
				return "", 0, false
			}
		case c == ')':
			if depth == 0 {
				break Loop
			}
			depth--
		case c <= ' ' || c == 0x7f:
			break Loop
		}
	}
	if depth != 0 {
		return "", 0, false
	}
	return s[i:j], j, true
}

func parseLinkTitle(s string, i int) (string, int, bool) {
	q := s[i]
	if q == '(' {
		q = ')'
	}
	for j := i + 1; j < len(s); j++ {
		switch c := s[j]; {
		case c == q:
			return s[i+1 : j], j + 1, true
		case c == '\\':
			j++
		case s[i] == '(' && c == '(':
			return "", 0, false
		}
	}
	return "", 0, false
}

// parseAutolink parses a bare http:// or https:// URL that follows whitespace.
// Trailing sentence punctuation is left out of the link.
func parseAutolink(s string, i int) (Inline, int, bool) {
	if i > 0 && !isSpaceByte(s[i-1]) {
		return nil, 0, false
	}
	var n int
	switch rest := s[i:]; {
	case strings.HasPrefix(rest, "https://"):
		n = len("https://")
	case strings.HasPrefix(rest, "http://"):
		n = len("http://")
	default:
		return nil, 0, false
	}
	end := i + n
	for end < len(s) && !isSpaceByte(s[end]) && s[end] != '<' {
		end++
	}
	for end > i+n && strings.IndexByte(".,:;!?", s[end-1]) >= 0 {
		end--
	}
	if end == i+n {
		return nil, 0, false
	}
	url := s[i:end]
	return &Link{Href: url, Inlines: []Inline{&Text{url}}}, end, true
}

// angles parses <autolinks>, raw HTML tags and comments. It remembers
// the searches for closing sequences so that many openers without a closer
// do not rescan the rest of the text.
type angles struct {
	comment finder
	dquote  finder
	squote  finder
}

func newAngles() angles {
	return angles{
		comment: finder{sep: "-->"},
		dquote:  finder{sep: `"`},
		squote:  finder{sep: "'"},
	}
}

func (a *angles) parse(s string, i int) (Inline, int, bool) {
	if x, end, ok := parseAngleAutolink(s, i); ok {
		return x, end, true
	}
	if end, ok := a.htmlTag(s, i); ok {
		return &RawHTML{s[i:end]}, end, true
	}
	return nil, 0, false
}

// finder caches the last search for sep in a text.
type finder struct {
	sep   string
	from  int
	at    int // first sep at or after from, -1 if none
	valid bool
}

// index returns the offset of the first sep at or after s[i], or -1.
func (f *finder) index(s string, i int) int {
	if f.valid && f.from <= i && (f.at < 0 || i <= f.at) {
		return f.at
	}
	f.from, f.valid = i, true
	f.at = strings.Index(s[i:], f.sep)
	if f.at >= 0 {
		f.at += i
	}
	return f.at
}

// parseAngleAutolink parses <scheme:...> or <user@host>. The content cannot
// hold spaces or <, so the scan stops at the next one of those.
func parseAngleAutolink(s string, i int) (Inline, int, bool) {
	j := i + 1
	for ; j < len(s) && s[j] != '>'; j++ {
		if c := s[j]; c == ' ' || c == '\t' || c == '\n' || c == '<' {
			return nil, 0, false
		}
	}
	if j >= len(s) || j == i+1 {
		return nil, 0, false
	}
	inner := s[i+1 : j]
	end := j + 1
	if isAbsoluteURI(inner) {
		return &Link{Href: inner, Inlines: []Inline{&Text{inner}}}, end, true
	}
	if isEmail(inner) {
		return &Link{Href: "mailto:" + inner, Inlines: []Inline{&Text{inner}}}, end, true
	}
	return nil, 0, false
}

// isAbsoluteURI reports whether s starts with a scheme of 2 to 32 characters.
func isAbsoluteURI(s string) bool {
	k := strings.IndexByte(s, ':')
	if k < 2 || k > 32 || !isLetter(s[0]) {
		return false
	}
	for i := 1; i < k; i++ {
		if c := s[i]; !isLetterDigit(c) && c != '+' && c != '.' && c != '-' {
			return false
		}
	}
	return true
}

func isEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	for i := 0; i < at; i++ {
		if c := s[i]; !isLetterDigit(c) && strings.IndexByte(".!#$%&'*+/=?^_`{|}~-", c) < 0 {
			return false
		}
	}
	for _, label := range strings.Split(s[at+1:], ".") {
		if label == "" || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			if c := label[i]; !isLetterDigit(c) && c != '-' {
				return false
			}
		}
	}
	return true
}

// htmlTag parses an open tag, closing tag or comment at s[i], returning
// the offset just past it.
func (a *angles) htmlTag(s string, i int) (int, bool) {
	if strings.HasPrefix(s[i:], "<!--") {
		rest := s[i+4:]
		if strings.HasPrefix(rest, ">") || strings.HasPrefix(rest, "->") {
			return 0, false
		}
		k := a.comment.index(s, i+4)
		if k < 0 {
			return 0, false
		}
		return k + 3, true
	}

	j := i + 1
	closing := j < len(s) && s[j] == '/'
	if closing {
		j++
	}
	if j >= len(s) || !isLetter(s[j]) {
		return 0, false
	}
	for j < len(s) && (isLetterDigit(s[j]) || s[j] == '-') {
		j++
	}
	if closing {
		j = skipSpace(s, j)
		if j < len(s) && s[j] == '>' {
			return j + 1, true
		}
		return 0, false
	}

	for {
		k := skipSpace(s, j)
		if k < len(s) && s[k] == '>' {
			return k + 1, true
		}
		if k+1 < len(s) && s[k] == '/' && s[k+1] == '>' {
			return k + 2, true
		}
		// Attributes must be separated by whitespace.
		if k == j || k >= len(s) || !isLetter(s[k]) && s[k] != '_' && s[k] != ':' {
			return 0, false
		}
		j = k + 1
		for j < len(s) && (isLetterDigit(s[j]) || strings.IndexByte("_.:-", s[j]) >= 0) {
			j++
		}
		k = skipSpace(s, j)
		if k >= len(s) || s[k] != '=' {
			continue
		}
		k = skipSpace(s, k+1)
		if k >= len(s) {
			return 0, false
		}
		switch q := s[k]; q {
		case '"', '\'':
			f := &a.dquote
			if q == '\'' {
				f = &a.squote
			}
			e := f.index(s, k+1)
			if e < 0 {
				return 0, false
			}
			j = e + 1
		default:
			e := k
			for e < len(s) && !isSpaceByte(s[e]) && strings.IndexByte("\"'=<>`", s[e]) < 0 {
				e++
			}
			if e == k {
				return 0, false
			}
			j = e
		}
	}
}

// parseEntity parses an HTML entity or numeric character reference.
func parseEntity(s string, i int) (Inline, int, bool) {
	text, end, ok := entity(s, i)
	if !ok {
		return nil, 0, false
	}
	return &Text{text}, end, true
}

func entity(s string, i int) (string, int, bool) {
	j := i + 1
	switch {
	case j < len(s) && s[j] == '#':
		j++
		hex := j < len(s) && (s[j] == 'x' || s[j] == 'X')
		if hex {
			j++
		}
		start := j
		for j < len(s) && j-start < 7 && (isDigit(s[j]) || hex && isHexDigit(s[j])) {
			j++
		}
		if j == start {
			return "", 0, false
		}
	case j < len(s) && isLetter(s[j]):
		for j < len(s) && j-i < 32 && isLetterDigit(s[j]) {
			j++
		}
	default:
		return "", 0, false
	}
	if j >= len(s) || s[j] != ';' {
		return "", 0, false
	}
	ref := s[i : j+1]
	text := html.UnescapeString(ref)
	if text == ref {
		return "", 0, false
	}
	return text, j + 1, true
}

// mdUnescape resolves backslash escapes and entity references in a
// link destination, title or code fence info string.
func mdUnescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 && strings.IndexByte(s, '&') < 0 {
		return s
	}
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && isPunct(s[i+1]) {
			buf.WriteByte(s[i+1])
			i++
			continue
		}
		if c == '&' {
			if text, end, ok := entity(s, i); ok {
				buf.WriteString(text)
				i = end - 1
				continue
			}
		}
		buf.WriteByte(c)
	}
	return buf.String()
}

// maxBackticks bounds the length of a code span delimiter so that
// failed scans can be remembered per run length.
const maxBackticks = 80

// backticks remembers, after one failed scan, where the last run of each
// length appears, so that later code span openers without a matching
// closer are rejected without rescanning the text.
type backticks struct {
	last    [maxBackticks]int
	scanned bool
}

func (b *backticks) codeSpan(s string, start int) (Inline, int, bool) {
	n := 1
	for start+n < len(s) && s[start+n] == '`' {
		n++
	}
	if n <= maxBackticks && !(b.scanned && b.last[n-1] < start+n) {
		for end := start + n; end < len(s); {
			if s[end] != '`' {
				end++
				continue
			}
			estart := end
			for end < len(s) && s[end] == '`' {
				end++
			}
			m := end - estart
			if !b.scanned && m <= maxBackticks {
				b.last[m-1] = estart
			}
			if m == n {
				text := strings.ReplaceAll(s[start+n:estart], "\n", " ")
				if len(text) >= 2 && text[0] == ' ' && text[len(text)-1] == ' ' && strings.Trim(text, " ") != "" {
					text = text[1 : len(text)-1]
				}
				return &CodeSpan{text}, end, true
			}
		}
		b.scanned = true
	}
	// No closer: the whole run is literal.
	return &Text{s[start : start+n]}, start + n, true
}

func isHexDigit(c byte) bool {
	return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// isUnicodeSpace reports whether r is whitespace for the flanking rules.
func isUnicodeSpace(r rune) bool {
	if r < 0x80 {
		return r == ' ' || r == '\t' || r == '\f' || r == '\n'
	}
	return unicode.In(r, unicode.Zs)
}

// isUnicodePunct reports whether r is punctuation for the flanking rules,
// which includes symbols.
func isUnicodePunct(r rune) bool {
	if r < 0x80 {
		return isPunct(byte(r))
	}
	return unicode.In(r, unicode.Punct, unicode.Symbol)
}
