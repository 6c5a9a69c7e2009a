package provider

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// hasAnchor reports whether an element of doc has one of the attributes set to anchor.
func hasAnchor(doc *goquery.Document, anchor string, attrs ...string) bool {
	var found bool
	for _, attr := range attrs {
		doc.Find("[" + attr + "]").EachWithBreak(func(_ int, selection *goquery.Selection) bool {
			value, _ := selection.Attr(attr)
			found = value == anchor
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

// markdownHasAnchor renders the Markdown payload and reports whether a heading id matches the anchor. A payload the
// pipeline rejects has no anchors.
func markdownHasAnchor(parser fileParser, payload []byte, anchor string) (bool, error) {
	page, err := parser.Render(payload)
	if err != nil {
		return false, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return false, fmt.Errorf("fail to parse the HTML: %w", err)
	}

	if hasAnchor(doc, anchor, "id") {
		return true, nil
	}
	// 'Getting-Started' matches the id 'getting-started'.
	normalized := parser.SanitizedAnchorName(anchor)
	return normalized != anchor && hasAnchor(doc, normalized, "id"), nil
}
