package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"mediahub/internal/transport"
	"mediahub/lib/htmlutil"
)

var (
	playlistDataRegex        = regexp.MustCompile(`(?s)id="playlistWrapper(.*?)playlistSectionWrapper"`)
	playlistSizeRegex        = regexp.MustCompile(`(?s)- (\d+).*?"avatarPosition`)
	playlistUnavailableRegex = regexp.MustCompile(`(?s): (\d+)</h5`)
	playlistLikesRegex       = regexp.MustCompile(`(?s)<span class="votesUp">(.*?)</span>`)
	playlistDislikesRegex    = regexp.MustCompile(`(?s)<span class="votesDown">(.*?)</span>`)
	playlistRatingRegex      = regexp.MustCompile(`(?s)<span class="percent">(.*?)%</span>`)
	playlistViewsRegex       = regexp.MustCompile(`(?s)<span class="count">(.*?)</span>`)
	playlistTitleRegex       = regexp.MustCompile(`(?s)id="watchPlaylist.*?>(.*?)<`)
	playlistAuthorRegex      = regexp.MustCompile(`(?s)data-type="user.*?href="(.*?)"`)
)

// PlaylistExtractor extracts the fields of a playlist landing page.
type PlaylistExtractor struct{}

func (PlaylistExtractor) Extract(ctx context.Context, fields []string, raw []byte) (map[string]any, error) {
	out := map[string]any{}

	if wants(fields, "token") {
		token, err := transport.FindToken(raw)
		if err == nil {
			out["token"] = token
		}
	}
	if wants(fields, "size") {
		size, found := group(playlistSizeRegex, raw)
		if n, ok := number(size); found && ok {
			out["size"] = n
		}
	}
	if wants(fields, "unavailable") {
		out["unavailable"] = 0
		hidden, found := group(playlistUnavailableRegex, raw)
		if n, ok := number(hidden); found && ok {
			out["unavailable"] = n
		}
	}

	data, found := group(playlistDataRegex, raw)
	if !found {
		return out, nil
	}
	fragment := []byte(data)

	counters := map[string]*regexp.Regexp{
		"likes":    playlistLikesRegex,
		"dislikes": playlistDislikesRegex,
		"views":    playlistViewsRegex,
	}
	for field, pattern := range counters {
		if !wants(fields, field) {
			continue
		}
		value, found := group(pattern, fragment)
		if n, ok := number(value); found && ok {
			out[field] = n
		}
	}

	if wants(fields, "rating") {
		value, found := group(playlistRatingRegex, fragment)
		if found {
			rating, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err == nil {
				out["rating"] = rating
			}
		}
	}
	if wants(fields, "title") {
		title, found := group(playlistTitleRegex, fragment)
		if found {
			out["title"] = htmlutil.CleanText(title)
		}
	}
	if wants(fields, "author") {
		author, found := group(playlistAuthorRegex, fragment)
		if found {
			out["author"] = author
		}
	}
	if wants(fields, "tags") {
		doc, err := document(fragment)
		if err != nil {
			return nil, err
		}
		out["tags"] = htmlutil.SelectionTexts(doc.Find(`[data-label^="tag"]`))
	}

	return out, nil
}
