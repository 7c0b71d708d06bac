package dispatch

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)
)

// PlainText strips markup and entities from s and compacts whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return compactWhitespace(s)
	}
	doc, err := htmlquery.Parse(strings.NewReader(s))
	if err != nil {
		return compactWhitespace(s)
	}
	body := htmlquery.FindOne(doc, "//body")
	if body == nil {
		body = doc
	}
	return digForText(body)
}

func digForText(n *html.Node) string {
	buf := new(bytes.Buffer)
	dig(n, buf)
	return compactWhitespace(buf.String())
}

func dig(n *html.Node, buf *bytes.Buffer) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dig(c, buf)
	}
}

func compactWhitespace(s string) string {
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " ")
	return s
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// Ellipsize cuts s to at most limit runes, ending in "…" when cut.
func Ellipsize(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-1]) + "…"
}

// Slug lowercases name and collapses every run of other characters to "_".
func Slug(name string) string {
	return strings.Trim(nonAlnumRuns.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
