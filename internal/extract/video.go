package extract

import (
	"context"
	"encoding/json"
	"regexp"

	"mediahub/lib/htmlutil"
)

var (
	flashvarsRegex = regexp.MustCompile(`var (flashvars_\d*) = ({.*});\n`)
	ldNameRegex    = regexp.MustCompile(`(?s)"name": "([^"]+)`)
	modelRegex     = regexp.MustCompile(`n class="usernameBadgesWrapper.*? href="(.*?)"  class="bolded">(.*?)<`)
	channelRegex   = regexp.MustCompile(`href="(.*?)" data-event="Video Underplayer".*?bolded">(.*?)<`)
	favoriteRegex  = regexp.MustCompile(`<div class=".*?js-favoriteBtn.*?active"`)
)

// FlashvarsFields are the fields read from the player configuration
// embedded in a video page.
var FlashvarsFields = []string{
	"mediaDefinitions",
	"video_title",
	"video_duration",
	"image_url",
	"isHD",
	"isVR",
	"hotspots",
	"embedCode",
	"playbackTracking",
	"isVertical",
}

// Author is the uploader of a video as linked from its page.
type Author struct {
	Name string
	URL  string
}

// VideoExtractor extracts the fields of a video page.
type VideoExtractor struct{}

func (VideoExtractor) Extract(ctx context.Context, fields []string, raw []byte) (map[string]any, error) {
	out := map[string]any{}

	if wantsAny(fields, FlashvarsFields...) || wants(fields, "video_id") {
		flashvars, found, err := Flashvars(raw)
		if err != nil {
			return nil, err
		}
		if found {
			for k, v := range flashvars {
				out[k] = v
			}
			tracking, ok := flashvars["playbackTracking"].(map[string]any)
			if ok && tracking["video_id"] != nil {
				out["video_id"] = tracking["video_id"]
			}
		}
	}

	if wants(fields, "title") {
		title, found, err := videoTitle(raw)
		if err != nil {
			return nil, err
		}
		if found {
			out["title"] = title
		}
	}

	if wants(fields, "author") {
		author, found := videoAuthor(raw)
		if found {
			out["author"] = author
		}
	}

	if wants(fields, "is_favorite") {
		out["is_favorite"] = favoriteRegex.Match(raw)
	}

	return out, nil
}

// Flashvars decodes the player configuration of a video page.
func Flashvars(raw []byte) (map[string]any, bool, error) {
	groups := flashvarsRegex.FindSubmatch(raw)
	if len(groups) < 3 {
		return nil, false, nil
	}
	var flashvars map[string]any
	err := json.Unmarshal(groups[2], &flashvars)
	if err != nil {
		return nil, false, err
	}
	return flashvars, true, nil
}

func videoTitle(raw []byte) (string, bool, error) {
	doc, err := document(raw)
	if err != nil {
		return "", false, err
	}
	title, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	if ok && title != "" {
		return htmlutil.CleanText(title), true, nil
	}
	title, ok = group(ldNameRegex, raw)
	if ok {
		return htmlutil.CleanText(title), true, nil
	}
	return "", false, nil
}

func videoAuthor(raw []byte) (Author, bool) {
	for _, pattern := range []*regexp.Regexp{modelRegex, channelRegex} {
		groups := pattern.FindSubmatch(raw)
		if len(groups) == 3 {
			return Author{
				URL:  string(groups[1]),
				Name: htmlutil.CleanText(string(groups[2])),
			}, true
		}
	}
	return Author{}, false
}
