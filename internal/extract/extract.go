// Package extract derives entity fields from the markup of platform pages.
//
// Every extractor may return more fields than requested and leaves out the
// fields it cannot find, the entity model reports those when they are asked
// for.
package extract

import (
	"bytes"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"mediahub/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

func wants(fields []string, name string) bool {
	return len(fields) == 0 || slices.Contains(fields, name)
}

func wantsAny(fields []string, names ...string) bool {
	for _, name := range names {
		if wants(fields, name) {
			return true
		}
	}
	return false
}

func group(pattern *regexp.Regexp, raw []byte) (string, bool) {
	groups := pattern.FindSubmatch(raw)
	if len(groups) < 2 {
		return "", false
	}
	return string(groups[1]), true
}

func number(s string) (int, bool) {
	s = strings.NewReplacer(",", "", ".", "", " ", "").Replace(htmlutil.CleanText(s))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func document(raw []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(raw))
}
