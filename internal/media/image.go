package media

import (
	"context"
	"errors"
	"net/url"
	"path"

	"mediahub/internal/components/telemetry"
	"mediahub/internal/transport"
)

const report_image_download = "image.download"

// Image is a hosted picture (thumbnail, avatar) optionally mirrored on
// alternate servers.
type Image struct {
	URL     string
	Name    string
	Servers []string
}

// Ext is the file extension of the primary url, ex. ".jpg".
func (i Image) Ext() string {
	parsed, err := url.Parse(i.URL)
	if err != nil {
		return ""
	}
	return path.Ext(parsed.Path)
}

// DownloadImage writes the image to dest (a directory means
// "<dir>/<name><ext>"). Alternate servers are tried in order when the
// primary url fails.
func DownloadImage(ctx context.Context, fetcher Fetcher, image Image, dest string, tel telemetry.API) (string, error) {
	dest = ResolveDestination(dest, image.Name+image.Ext())

	var errs []error
	for _, target := range append([]string{image.URL}, image.Servers...) {
		res, err := fetcher.Call(ctx, transport.Get(target))
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			tel.ReportWarning(report_image_download, err, target)
			errs = append(errs, err)
			continue
		}
		err = WriteAtomic(dest, res.Body)
		if err != nil {
			return "", err
		}
		return dest, nil
	}
	return "", errors.Join(errs...)
}
