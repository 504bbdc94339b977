package hub

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"mediahub/internal/entity"
	"mediahub/internal/extract"
	"mediahub/internal/media"
	"mediahub/internal/query"
	"mediahub/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	videoPath    = "view_video.php?viewkey="
	videoAPIPath = "webmasters/video_by_id?id="
	dateLayout   = "2006-01-02 15:04:05"
)

var videoKind = entity.Kind{Name: "video", Record: "video"}

var (
	viewkeyRegex = regexp.MustCompile(`viewkey=([a-zA-Z\d]+)`)
	bareKeyRegex = regexp.MustCompile(`^[a-zA-Z\d]+$`)
)

// VideoKey extracts the view key out of a video url, a "viewkey=<key>"
// fragment or a bare key.
func VideoKey(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	groups := viewkeyRegex.FindStringSubmatch(ref)
	if len(groups) == 2 {
		return groups[1], nil
	}
	if bareKeyRegex.MatchString(ref) {
		return ref, nil
	}
	return "", &InvalidReference{Kind: "video", Reference: ref}
}

// Like is the rating of a video.
type Like struct {
	Up    int
	Down  int
	Ratio float64
}

// Video is a lazily resolved video. Fields are fetched on first use and
// cached until Refresh.
type Video struct {
	client *Client
	entity *entity.Entity
	key    string
	// listing is the entry the video was read from, if any.
	listing *query.RawItem
	// watched is set on videos read from the viewing history.
	watched bool

	// AllowSimulation enables Simulate on this video.
	AllowSimulation bool
}

// Video returns the video designated by ref without fetching anything.
func (c *Client) Video(ref string) (*Video, error) {
	key, err := VideoKey(ref)
	if err != nil {
		return nil, err
	}
	locator := videoPath + key
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		locator = ref
	}
	return c.newVideo(key, c.http.Resolve(locator)), nil
}

func (c *Client) newVideo(key, locator string) *Video {
	source := sourceFuncs{
		api: func(ctx context.Context, e *entity.Entity) (map[string]any, error) {
			return c.fetchJSON(ctx, videoAPIPath+key)
		},
		page: c.fetchPage,
	}
	e := entity.New(videoKind, locator, source, extract.VideoExtractor{}, map[entity.Key]any{
		entity.APIKey("key"): key,
	})
	if c.cfg.ScrapeFirst {
		e.Policy = func(bool) entity.Namespace { return entity.Scrape }
	}
	return &Video{client: c, entity: e, key: key}
}

// videoFromListing builds a video out of a markup listing entry, the title
// and thumbnail of the entry are kept as structured fields.
func (c *Client) videoFromListing(item query.RawItem) (*Video, error) {
	key := item.Fields["key"]
	if key == "" {
		return nil, &query.ParseFailure{Strategy: "markup_listing", Reason: "entry has no key"}
	}
	video := c.newVideo(key, c.http.Resolve(videoPath+key))
	video.listing = &item
	if title := item.Fields["title"]; title != "" {
		video.entity.Set(entity.APIKey("title"), htmlutil.CleanText(title))
	}
	if image := item.Fields["image"]; image != "" {
		video.entity.Set(entity.APIKey("thumb"), image)
	}
	return video, nil
}

// videoFromRecord builds a video out of a structured listing entry, every
// field of the entry is kept.
func (c *Client) videoFromRecord(item query.RawItem) (*Video, error) {
	ref := toString(item.Record["url"])
	if ref == "" {
		ref = toString(item.Record["video_id"])
	}
	video, err := c.Video(ref)
	if err != nil {
		return nil, err
	}
	for field, v := range item.Record {
		video.entity.Set(entity.APIKey(field), v)
	}
	return video, nil
}

func (v *Video) String() string {
	return fmt.Sprintf("video(%s)", v.key)
}

func (v *Video) Key() string {
	return v.key
}

func (v *Video) URL() string {
	return v.entity.Locator
}

// Entity exposes the underlying entity, for raw field access.
func (v *Video) Entity() *entity.Entity {
	return v.entity
}

// Refresh drops every cached field except the key.
func (v *Video) Refresh() {
	v.entity.Refresh()
}

// Fetch returns a raw field, see entity.ParseKey for the key syntax.
func (v *Video) Fetch(ctx context.Context, key string) (any, error) {
	return v.entity.Fetch(ctx, entity.ParseKey(key))
}

func (v *Video) fetchString(ctx context.Context, key entity.Key) (string, error) {
	value, err := v.entity.Fetch(ctx, key)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", fmt.Errorf("%s: %w: %s", v, entity.ErrFieldMissing, key)
	}
	return toString(value), nil
}

func (v *Video) Title(ctx context.Context) (string, error) {
	title, err := v.fetchString(ctx, entity.Field("title"))
	if err != nil {
		return "", err
	}
	return htmlutil.CleanText(title), nil
}

// Duration reads the seconds of the player when the page is used and the
// clock notation of the structured endpoint otherwise.
func (v *Video) Duration(ctx context.Context) (time.Duration, error) {
	if v.entity.Resolve(entity.Field("duration")).Namespace == entity.Scrape {
		value, err := v.entity.Fetch(ctx, entity.ScrapeKey("video_duration"))
		if err != nil {
			return 0, err
		}
		seconds, err := toInt(value)
		if err != nil {
			return 0, fmt.Errorf("%s: duration: %w", v, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	value, err := v.fetchString(ctx, entity.APIKey("duration"))
	if err != nil {
		return 0, err
	}
	return parseClock(value)
}

func (v *Video) Tags(ctx context.Context) ([]string, error) {
	value, err := v.entity.Fetch(ctx, entity.APIKey("tags"))
	if err != nil {
		return nil, err
	}
	return names(value, "tag_name"), nil
}

func (v *Video) Categories(ctx context.Context) ([]string, error) {
	value, err := v.entity.Fetch(ctx, entity.APIKey("categories"))
	if err != nil {
		return nil, err
	}
	return names(value, "category"), nil
}

// Performers returns the names of the performers credited on the video.
func (v *Video) Performers(ctx context.Context) ([]string, error) {
	value, err := v.entity.Fetch(ctx, entity.APIKey("pornstars"))
	if err != nil {
		return nil, err
	}
	return names(value, "pornstar_name"), nil
}

func (v *Video) Views(ctx context.Context) (int, error) {
	value, err := v.entity.Fetch(ctx, entity.APIKey("views"))
	if err != nil {
		return 0, err
	}
	return toInt(value)
}

// Rating splits the ratings count according to the positive percentage.
func (v *Video) Rating(ctx context.Context) (Like, error) {
	value, err := v.entity.Fetch(ctx, entity.APIKey("rating"))
	if err != nil {
		return Like{}, err
	}
	percent, err := toFloat(value)
	if err != nil {
		return Like{}, fmt.Errorf("%s: rating: %w", v, err)
	}
	value, err = v.entity.Fetch(ctx, entity.APIKey("ratings"))
	if err != nil {
		return Like{}, err
	}
	count, err := toFloat(value)
	if err != nil {
		return Like{}, fmt.Errorf("%s: ratings: %w", v, err)
	}

	ratio := percent / 100
	return Like{
		Up:    int(ratio*count + 0.5),
		Down:  int((1-ratio)*count + 0.5),
		Ratio: ratio,
	}, nil
}

// Date is the publication date, in the platform's local time.
func (v *Video) Date(ctx context.Context) (time.Time, error) {
	value, err := v.fetchString(ctx, entity.APIKey("publish_date"))
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(dateLayout, value)
}

// Orientation is the audience segment of the video (ex. straight).
func (v *Video) Orientation(ctx context.Context) (string, error) {
	return v.fetchString(ctx, entity.APIKey("segment"))
}

func (v *Video) Author(ctx context.Context) (extract.Author, error) {
	return entity.FetchAs[extract.Author](ctx, v.entity, entity.ScrapeKey("author"))
}

// IsFavorite reports whether the logged account has the video in its
// favorites.
func (v *Video) IsFavorite(ctx context.Context) (bool, error) {
	return entity.FetchAs[bool](ctx, v.entity, entity.ScrapeKey("is_favorite"))
}

func (v *Video) IsVertical(ctx context.Context) (bool, error) {
	value, err := v.entity.Fetch(ctx, entity.ScrapeKey("isVertical"))
	if err != nil {
		return false, err
	}
	return toBool(value), nil
}

func (v *Video) IsHD(ctx context.Context) (bool, error) {
	value, err := v.entity.Fetch(ctx, entity.ScrapeKey("isHD"))
	if err != nil {
		return false, err
	}
	return toBool(value), nil
}

// Hotspots returns the most watched offsets of the video, in seconds.
func (v *Video) Hotspots(ctx context.Context) ([]int, error) {
	value, err := v.entity.Fetch(ctx, entity.ScrapeKey("hotspots"))
	if err != nil {
		return nil, err
	}
	raw, _ := value.([]any)
	out := make([]int, 0, len(raw))
	for _, r := range raw {
		n, err := toInt(r)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Embed returns the embedding markup of the player.
func (v *Video) Embed(ctx context.Context) (string, error) {
	return v.fetchString(ctx, entity.ScrapeKey("embedCode"))
}

// Thumbnail prefers the image of the player, falling back to the thumbnail
// of the structured endpoint and its mirrors.
func (v *Video) Thumbnail(ctx context.Context) (media.Image, error) {
	name := "thumb-" + v.key
	if url, ok := v.entity.Cached(entity.ScrapeKey("image_url")); ok {
		return media.Image{URL: toString(url), Name: name}, nil
	}

	url, err := v.fetchString(ctx, entity.APIKey("thumb"))
	if err != nil {
		return media.Image{}, err
	}
	thumbs, _ := v.entity.Cached(entity.APIKey("thumbs"))
	servers := names(thumbs, "src")
	servers = slices.DeleteFunc(servers, func(s string) bool { return s == url })
	return media.Image{URL: url, Name: name, Servers: servers}, nil
}

// Qualities returns the levels the player offers, adaptive entries without
// a numeric level are skipped.
func (v *Video) Qualities(ctx context.Context) (media.Definitions, error) {
	value, err := v.entity.Fetch(ctx, entity.ScrapeKey("mediaDefinitions"))
	if err != nil {
		return nil, err
	}
	entries, _ := value.([]any)
	defs := media.Definitions{}
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		level, ok := qualityLevel(entry["quality"])
		if !ok {
			continue
		}
		url := toString(entry["videoUrl"])
		if url == "" {
			continue
		}
		defs[level] = url
	}
	if len(defs) == 0 {
		return nil, media.ErrNoQualities
	}
	return defs, nil
}

func qualityLevel(v any) (int, bool) {
	switch value := v.(type) {
	case float64:
		return int(value), true
	case string:
		if value == "" || strings.Trim(value, "0123456789") != "" {
			return 0, false
		}
		n, err := toInt(value)
		return n, err == nil
	}
	return 0, false
}

// Segments resolves the ordered segment urls of the given quality.
func (v *Video) Segments(ctx context.Context, q media.Quality) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Video.Segments", trace.WithAttributes(
		attribute.String("key", v.key),
		attribute.String("quality", q.String()),
	))
	defer span.End()

	defs, err := v.Qualities(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read qualities")
		return nil, err
	}
	master, err := q.Select(defs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to select quality")
		return nil, err
	}
	segments, err := media.ResolveManifest(ctx, v.client.http, master)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve manifest")
		return nil, err
	}
	return segments, nil
}

// Download retrieves the video at quality q and writes it to path. A
// directory path receives "<key>.mp4". A nil strategy uses the configured
// concurrent strategy.
//
// The sequential strategy reloads the video page to get fresh segment urls
// when it restarts. When segments are missing from the written file the path
// is returned along with a *media.IncompleteArtifact.
func (v *Video) Download(ctx context.Context, path string, q media.Quality, strategy media.Strategy, progress media.Progress) (string, error) {
	if strategy == nil {
		strategy = v.client.Strategy(false)
	}
	segments, err := v.Segments(ctx, q)
	if err != nil {
		return "", err
	}
	job := media.NewJob(v.key, q, segments, path, progress)
	job.Refresh = func(ctx context.Context) ([]string, error) {
		v.Refresh()
		return v.Segments(ctx, q)
	}
	return media.Download(ctx, v.client.http, job, strategy)
}

// IsFreePremium reports whether the video belongs to the free premium
// selection, which only listings expose.
func (v *Video) IsFreePremium(ctx context.Context) (bool, error) {
	item, err := v.Simulate(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(item.Markers, "phpFreeBlock"), nil
}

// Preview returns the animated preview shown when hovering the video in
// listings.
func (v *Video) Preview(ctx context.Context) (media.Image, error) {
	item, err := v.Simulate(ctx)
	if err != nil {
		return media.Image{}, err
	}
	preview := item.Fields["preview"]
	if preview == "" {
		return media.Image{}, fmt.Errorf("%s: %w: preview", v, entity.ErrFieldMissing)
	}
	return media.Image{URL: preview, Name: "preview-" + v.key}, nil
}
