package hub

import (
	"context"
	"regexp"
	"strings"

	"mediahub/internal/entity"
	"mediahub/internal/extract"
	"mediahub/internal/query"
)

var playlistKind = entity.Kind{Name: "playlist"}

var playlistRefRegex = regexp.MustCompile(`^(?:.*playlist/)?(\d+)/?$`)

// Playlist is a query over the videos of a playlist, its own fields are read
// from the landing page the first page of videos comes from.
type Playlist struct {
	*query.Query[*Video]

	client *Client
	entity *entity.Entity
	id     string
}

// Playlist returns the playlist designated by ref, a playlist url or id.
func (c *Client) Playlist(ref string) (*Playlist, error) {
	groups := playlistRefRegex.FindStringSubmatch(strings.TrimSpace(ref))
	if len(groups) != 2 {
		return nil, &InvalidReference{Kind: "playlist", Reference: ref}
	}
	id := groups[1]

	source := &query.ChunkedSource{
		Fetcher: c.http,
		Landing: "playlist/" + id,
		Chunk:   "playlist/viewChunked?id=" + id + "&token=" + query.TokenPlaceholder + "&page=" + query.PagePlaceholder,
	}
	pageSource := sourceFuncs{
		page: func(ctx context.Context, e *entity.Entity) ([]byte, error) {
			return source.LandingPage(ctx)
		},
	}
	e := entity.New(playlistKind, c.http.Resolve("playlist/"+id), pageSource, extract.PlaylistExtractor{}, map[entity.Key]any{
		entity.ScrapeKey("id"): id,
	})
	e.Policy = func(bool) entity.Namespace { return entity.Scrape }

	return &Playlist{
		Query:  query.New(source, query.MarkupListing{}, c.videoFromListing),
		client: c,
		entity: e,
		id:     id,
	}, nil
}

func (p *Playlist) ID() string {
	return p.id
}

func (p *Playlist) URL() string {
	return p.entity.Locator
}

func (p *Playlist) Title(ctx context.Context) (string, error) {
	return entity.FetchAs[string](ctx, p.entity, entity.ScrapeKey("title"))
}

// Size is the number of videos the playlist declares, hidden ones included.
func (p *Playlist) Size(ctx context.Context) (int, error) {
	return entity.FetchAs[int](ctx, p.entity, entity.ScrapeKey("size"))
}

// Unavailable is the number of videos hidden from the listing.
func (p *Playlist) Unavailable(ctx context.Context) (int, error) {
	return entity.FetchAs[int](ctx, p.entity, entity.ScrapeKey("unavailable"))
}

func (p *Playlist) Views(ctx context.Context) (int, error) {
	return entity.FetchAs[int](ctx, p.entity, entity.ScrapeKey("views"))
}

func (p *Playlist) Rating(ctx context.Context) (Like, error) {
	up, err := entity.FetchAs[int](ctx, p.entity, entity.ScrapeKey("likes"))
	if err != nil {
		return Like{}, err
	}
	down, err := entity.FetchAs[int](ctx, p.entity, entity.ScrapeKey("dislikes"))
	if err != nil {
		return Like{}, err
	}
	percent, err := entity.FetchAs[float64](ctx, p.entity, entity.ScrapeKey("rating"))
	if err != nil {
		return Like{}, err
	}
	return Like{Up: up, Down: down, Ratio: percent / 100}, nil
}

func (p *Playlist) Tags(ctx context.Context) ([]string, error) {
	return entity.FetchAs[[]string](ctx, p.entity, entity.ScrapeKey("tags"))
}

// Author resolves the owner of the playlist.
func (p *Playlist) Author(ctx context.Context) (*User, error) {
	ref, err := entity.FetchAs[string](ctx, p.entity, entity.ScrapeKey("author"))
	if err != nil {
		return nil, err
	}
	return p.client.User(ctx, ref)
}
