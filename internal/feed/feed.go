// Package feed reads the syndication listing of the most recent videos.
package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"mediahub/internal/transport"
)

// Path is the location of the feed relative to the language host.
const Path = "video/webmasterss"

type Item struct {
	Link     string `xml:"link"`
	Title    string `xml:"title"`
	Duration string `xml:"duration"`
	Thumb    string `xml:"thumb"`
}

// Parse returns every <item> of the document in order, wherever it is
// nested.
func Parse(raw []byte) ([]Item, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.Strict = false

	var items []Item
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "item" {
			continue
		}

		var item Item
		err = decoder.DecodeElement(&item, &start)
		if err != nil {
			return nil, err
		}
		item.Link = strings.TrimSpace(item.Link)
		item.Title = strings.TrimSpace(item.Title)
		item.Duration = strings.TrimSpace(item.Duration)
		item.Thumb = strings.TrimSpace(item.Thumb)
		items = append(items, item)
	}
	return items, nil
}

type Fetcher interface {
	Call(ctx context.Context, req transport.Request) (transport.Response, error)
}

// Fetch fetches and parses the feed.
func Fetch(ctx context.Context, fetcher Fetcher) ([]Item, error) {
	res, err := fetcher.Call(ctx, transport.Get(Path))
	if err != nil {
		return nil, err
	}
	return Parse(res.Body)
}
