package entity

import "strings"

// Namespace is the data source backing a field.
type Namespace string

const (
	// API fields come from the structured endpoint.
	API Namespace = "api"
	// Scrape fields are extracted from the entity's own page.
	Scrape Namespace = "scrape"
)

// Key identifies a cached field. A Key without a namespace is a combinator
// that is resolved through the entity's ResolutionPolicy.
type Key struct {
	Namespace Namespace
	Field     string
}

func APIKey(field string) Key {
	return Key{Namespace: API, Field: field}
}

func ScrapeKey(field string) Key {
	return Key{Namespace: Scrape, Field: field}
}

// Field is a combinator key.
func Field(field string) Key {
	return Key{Field: field}
}

func (k Key) IsCombinator() bool {
	return k.Namespace == ""
}

func (k Key) String() string {
	if k.IsCombinator() {
		return k.Field
	}
	return string(k.Namespace) + ":" + k.Field
}

// ParseKey parses "api:<field>", "scrape:<field>" or a bare combinator field.
func ParseKey(s string) Key {
	ns, field, found := strings.Cut(s, ":")
	if !found {
		return Field(s)
	}
	switch Namespace(ns) {
	case API, Scrape:
		return Key{Namespace: Namespace(ns), Field: field}
	}
	return Field(s)
}

// ResolutionPolicy picks the namespace a combinator key resolves to.
type ResolutionPolicy func(pageWarm bool) Namespace

// PreferWarmPage resolves to Scrape when the page has already been fetched
// and to API otherwise.
func PreferWarmPage(pageWarm bool) Namespace {
	if pageWarm {
		return Scrape
	}
	return API
}
