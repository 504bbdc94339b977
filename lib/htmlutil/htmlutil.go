// Package htmlutil turns markup fragments into the plain text the extractors
// store as field values.
package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var runsOfSpace = regexp.MustCompile(`\s{2,}`)

// GetText concatenates the text nodes under node in document order.
func GetText(node *html.Node) string {
	var out strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if node != nil {
		walk(node)
	}
	return out.String()
}

// CleanText unescapes entities, drops control characters and collapses
// whitespace. Titles from listings and flashvars both go through it.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return runsOfSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func NodeText(node *html.Node) string {
	return CleanText(GetText(node))
}

// SelectionTexts returns the non empty cleaned text of every node of sel.
func SelectionTexts(sel *goquery.Selection) []string {
	out := []string{}
	for _, node := range sel.Nodes {
		if text := NodeText(node); text != "" {
			out = append(out, text)
		}
	}
	return out
}
