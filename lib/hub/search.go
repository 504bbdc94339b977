package hub

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"mediahub/internal/query"
)

// SearchOptions narrows a markup search. Empty fields are left out of the
// query string.
type SearchOptions struct {
	// Production is "professional" or "homemade".
	Production string
	// Category is the numeric id of a category.
	Category          string
	ExcludeCategories []string
	// Sort is the platform sort code (ex. "mv" most viewed, "tr" top rated).
	Sort string
	// Period applies to Sort (ex. "w" week, "m" month, "a" all time).
	Period string
	HD     bool
	// Premium keeps the entries only premium accounts can open.
	Premium bool
}

func (o SearchOptions) values(q string) url.Values {
	values := url.Values{"search": {q}}
	set(values, "p", o.Production)
	set(values, "filter_category", o.Category)
	set(values, "exclude_category", strings.Join(o.ExcludeCategories, "-"))
	set(values, "o", o.Sort)
	set(values, "t", o.Period)
	if o.HD {
		values.Set("hd", "1")
	}
	return values
}

// APISearchOptions narrows a structured search.
type APISearchOptions struct {
	Category string
	Tags     []string
	// Sort is one of "newest", "mostviewed", "rating".
	Sort   string
	Period string
}

func (o APISearchOptions) values(q string) url.Values {
	values := url.Values{"search": {q}}
	set(values, "category", o.Category)
	for _, tag := range o.Tags {
		values.Add("tags[]", tag)
	}
	set(values, "ordering", o.Sort)
	set(values, "period", o.Period)
	return values
}

// UserSearch narrows a user search.
type UserSearch struct {
	Username string
	Country  string
	City     string
	MinAge   int
	MaxAge   int
	Gender   string
	// Sort is the platform sort code (ex. "popular", "newest").
	Sort     string
	IsOnline bool
	IsModel  bool
	HasVideo bool
}

func (o UserSearch) values() url.Values {
	values := url.Values{}
	set(values, "username", o.Username)
	set(values, "country", o.Country)
	set(values, "city", o.City)
	if o.MinAge > 0 {
		values.Set("age1", strconv.Itoa(o.MinAge))
	}
	if o.MaxAge > 0 {
		values.Set("age2", strconv.Itoa(o.MaxAge))
	}
	set(values, "gender", o.Gender)
	set(values, "o", o.Sort)
	if o.IsOnline {
		values.Set("online", "1")
	}
	if o.IsModel {
		values.Set("isPornhubModel", "1")
	}
	if o.HasVideo {
		values.Set("videos", "1")
	}
	return values
}

func set(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

// listingTemplate appends the page parameter to target and its encoded
// values, the placeholder itself is left unescaped.
func listingTemplate(target string, values url.Values) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	if encoded := values.Encode(); encoded != "" {
		target += sep + encoded
		sep = "&"
	}
	return target + sep + "page=" + query.PagePlaceholder
}

func (c *Client) videoQuery(target string, listing query.MarkupListing) *query.Query[*Video] {
	return query.New(
		query.URLSource{Fetcher: c.http, Template: listingTemplate(target, nil), Store: c.store},
		listing,
		c.videoFromListing,
		query.WithCounter(query.ShowingCounter),
	)
}

var errEmptySearch = errors.New("search query is empty")

// Search lists the videos matching q on the markup search.
func (c *Client) Search(q string, opts SearchOptions) (*query.Query[*Video], error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errEmptySearch
	}
	listing := query.MarkupListing{Suppress: query.PremiumMarker}
	if opts.Premium {
		listing.Suppress = ""
	}
	return query.New(
		query.URLSource{
			Fetcher:  c.http,
			Template: listingTemplate("video/search", opts.values(q)),
			Store:    c.store,
		},
		listing,
		c.videoFromListing,
		query.WithCounter(query.ShowingCounter),
	), nil
}

// SearchAPI lists the videos matching q on the structured search, the
// videos come with their structured fields already set.
func (c *Client) SearchAPI(q string, opts APISearchOptions) (*query.Query[*Video], error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errEmptySearch
	}
	return query.New(
		query.URLSource{
			Fetcher:  c.http,
			Template: listingTemplate("webmasters/search", opts.values(q)),
			Store:    c.store,
		},
		query.JSONListing{},
		c.videoFromRecord,
	), nil
}

// SearchUsers lists the users matching opts.
func (c *Client) SearchUsers(opts UserSearch) (*query.Query[*User], error) {
	return query.New(
		query.URLSource{
			Fetcher:  c.http,
			Template: listingTemplate("user/search", opts.values()),
			Store:    c.store,
		},
		query.ReferenceListing{},
		c.userFromListing,
	), nil
}
