package metmuseum

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// cleanText turns an untrusted display field into plain text.
// Collection titles occasionally carry inline markup such as <i>...</i>.
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseWhitespace(strings.TrimSpace(s))
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return stripTagsFallback(s)
	}

	var buf strings.Builder
	extractText(doc, &buf)
	return strings.TrimSpace(collapseWhitespace(buf.String()))
}

// extractText recursively extracts text content from HTML nodes.
func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	if n.Type == html.ElementNode && n.Data == "br" {
		buf.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

func stripTagsFallback(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(collapseWhitespace(s))
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, " ")
}
