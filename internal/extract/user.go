package extract

import (
	"context"
	"regexp"

	"mediahub/lib/htmlutil"
)

var (
	bioRegex    = regexp.MustCompile(`(?s)"aboutMeSection.*?"title.*?<div>\s*(.*?)\s*</`)
	infoRegex   = regexp.MustCompile(`(?s)infoPiece".*?span>\s*(.*?):.*?smallInfo">\s*(.*?)\s*</`)
	avatarRegex = regexp.MustCompile(`(?s)previewAvatarPicture">.*?src="(.*?)"`)
)

// UserExtractor extracts the fields of a user page.
//
// The labels of "info" depend on the language of the page.
type UserExtractor struct{}

func (UserExtractor) Extract(ctx context.Context, fields []string, raw []byte) (map[string]any, error) {
	out := map[string]any{}

	if wants(fields, "bio") {
		bio, found := group(bioRegex, raw)
		if found {
			out["bio"] = htmlutil.CleanText(bio)
		}
	}

	if wants(fields, "info") {
		info := map[string]string{}
		for _, pair := range infoRegex.FindAllSubmatch(raw, -1) {
			info[htmlutil.CleanText(string(pair[1]))] = htmlutil.CleanText(string(pair[2]))
		}
		out["info"] = info
	}

	if wants(fields, "avatar") {
		avatar, found := group(avatarRegex, raw)
		if found {
			out["avatar"] = avatar
		}
	}

	return out, nil
}
