package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// RawItem is one unparsed entry of a listing page.
type RawItem struct {
	Raw string
	// Fields holds the values extracted from markup entries.
	Fields map[string]string
	// Record holds a structured entry.
	Record map[string]any
	// Markers is the set of class names carried by a markup entry.
	Markers string
}

// Raw is a fetched page. Hint overrides the container hint of the strategy
// for this page only.
type Raw struct {
	Body []byte
	Hint Hint
}

// Hint locates the fragment of a page that holds the listing.
type Hint func(page string) (string, bool)

var containerRegex = regexp.MustCompile(`(?s)class="container(.*)`)

// ContainerHint is the default hint, everything after the main container.
func ContainerHint(page string) (string, bool) {
	groups := containerRegex.FindStringSubmatch(page)
	if len(groups) < 2 {
		return "", false
	}
	return groups[1], true
}

// DocumentHint uses the whole page.
func DocumentHint(page string) (string, bool) {
	return page, true
}

// AfterHint uses everything after the first occurrence of marker.
func AfterHint(marker string) Hint {
	return func(page string) (string, bool) {
		_, after, found := strings.Cut(page, marker)
		return after, found
	}
}

// Strategy parses a page into raw items and decides which of them are
// surfaced. The set of strategies is closed: JSONListing, MarkupListing,
// ReferenceListing, FeedListing and Empty.
type Strategy interface {
	Name() string
	Parse(raw Raw) ([]RawItem, error)
	Keep(item RawItem) bool
}

const noResultCode = "2001"

// JSONListing parses the structured search endpoint.
type JSONListing struct{}

func (JSONListing) Name() string { return "json_listing" }

func (s JSONListing) Parse(raw Raw) ([]RawItem, error) {
	var payload struct {
		Code   any              `json:"code"`
		Videos []map[string]any `json:"videos"`
	}
	err := json.Unmarshal(raw.Body, &payload)
	if err != nil {
		return nil, &ParseFailure{Strategy: s.Name(), Reason: "decode payload", Err: err}
	}
	if payload.Code != nil && fmt.Sprint(payload.Code) == noResultCode {
		return nil, ErrEndOfSequence
	}
	if payload.Videos == nil {
		return nil, &ParseFailure{Strategy: s.Name(), Reason: "payload has no videos"}
	}

	items := make([]RawItem, len(payload.Videos))
	for i, record := range payload.Videos {
		items[i] = RawItem{Record: record}
	}
	return items, nil
}

func (JSONListing) Keep(RawItem) bool { return true }

var (
	videoBlockRegex = regexp.MustCompile(`(?s)<li.*?videoblock(.*?)</li`)
	videoFieldRegex = regexp.MustCompile(`(?s)id="(.*?)".*?-vkey="(.*?)".*?title="(.*?)".*?src="(.*?)".*?</div`)
	previewRegex    = regexp.MustCompile(`(?s)-mediabook="(.*?)"`)
	classRegex      = regexp.MustCompile(`class="(.*?)"`)
	userLinkRegex   = regexp.MustCompile(`(?s)userLink.*?="(.*?)".*?src="(.*?)"`)
	feedItemRegex   = regexp.MustCompile(`(?s)feedItemSection"(.*?)</section`)
)

// PremiumMarker flags listing entries that only premium accounts can open.
const PremiumMarker = "premiumIcon"

func container(s Strategy, raw Raw, hint Hint) (string, error) {
	if raw.Hint != nil {
		hint = raw.Hint
	}
	if hint == nil {
		hint = ContainerHint
	}
	fragment, found := hint(string(raw.Body))
	if !found {
		return "", &ParseFailure{Strategy: s.Name(), Reason: "listing container not found"}
	}
	return fragment, nil
}

// MarkupListing parses a listing of media entries out of markup.
type MarkupListing struct {
	Hint Hint
	// Suppress hides entries carrying this marker, ex. PremiumMarker.
	Suppress string
}

func (MarkupListing) Name() string { return "markup_listing" }

func (s MarkupListing) Parse(raw Raw) ([]RawItem, error) {
	fragment, err := container(s, raw, s.Hint)
	if err != nil {
		return nil, err
	}

	blocks := videoBlockRegex.FindAllStringSubmatch(fragment, -1)
	items := make([]RawItem, 0, len(blocks))
	for _, block := range blocks {
		token := block[1]
		fields := map[string]string{}
		groups := videoFieldRegex.FindStringSubmatch(token)
		if len(groups) == 5 {
			fields["id"] = groups[1]
			fields["key"] = groups[2]
			fields["title"] = groups[3]
			fields["image"] = groups[4]
		}
		preview := previewRegex.FindStringSubmatch(token)
		if len(preview) == 2 {
			fields["preview"] = preview[1]
		}

		var markers []string
		for _, class := range classRegex.FindAllStringSubmatch(token, -1) {
			markers = append(markers, class[1])
		}
		items = append(items, RawItem{
			Raw:     token,
			Fields:  fields,
			Markers: strings.Join(markers, " "),
		})
	}
	return items, nil
}

func (s MarkupListing) Keep(item RawItem) bool {
	if s.Suppress == "" {
		return true
	}
	return !strings.Contains(item.Markers, s.Suppress)
}

// ReferenceListing parses a listing of users into lightweight references.
type ReferenceListing struct {
	Hint Hint
}

func (ReferenceListing) Name() string { return "reference_listing" }

func (s ReferenceListing) Parse(raw Raw) ([]RawItem, error) {
	fragment, err := container(s, raw, s.Hint)
	if err != nil {
		return nil, err
	}

	matches := userLinkRegex.FindAllStringSubmatch(fragment, -1)
	items := make([]RawItem, len(matches))
	for i, m := range matches {
		items[i] = RawItem{
			Raw:    m[0],
			Fields: map[string]string{"url": m[1], "avatar": m[2]},
		}
	}
	return items, nil
}

func (ReferenceListing) Keep(RawItem) bool { return true }

// FeedListing parses the sections of an activity feed.
type FeedListing struct{}

func (FeedListing) Name() string { return "feed_listing" }

func (FeedListing) Parse(raw Raw) ([]RawItem, error) {
	matches := feedItemRegex.FindAllStringSubmatch(string(raw.Body), -1)
	items := make([]RawItem, len(matches))
	for i, m := range matches {
		items[i] = RawItem{Raw: m[1]}
	}
	return items, nil
}

func (FeedListing) Keep(RawItem) bool { return true }

// Empty is a listing known to have no entries, it never fetches anything.
type Empty struct{}

func (Empty) Name() string { return "empty" }

func (Empty) Parse(Raw) ([]RawItem, error) { return nil, ErrEndOfSequence }

func (Empty) Keep(RawItem) bool { return false }
