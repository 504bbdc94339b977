package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"mediahub/internal/entity"
	"mediahub/internal/extract"
	"mediahub/internal/media"
	"mediahub/internal/query"
	"mediahub/internal/transport"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var userKind = entity.Kind{Name: "user"}

// UserTypes are the kinds of users a bare name is probed against, in order.
var UserTypes = []string{"model", "pornstar", "channels"}

var userURLRegex = regexp.MustCompile(`/(model|pornstar|channels|user|users)/([^/?#]+)`)

// recentSectionHint skips the featured videos of a performer page.
var recentSectionHint = query.AfterHint(`id="mostRecentVideosSection`)

// User is a lazily resolved user page.
type User struct {
	client *Client
	entity *entity.Entity
	name   string
	kind   string

	mutex   sync.Mutex
	support *querySupport
}

// querySupport records which listings a user page offers.
type querySupport struct {
	videos string
	upload string
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "/")
}

// User returns the user designated by ref, a user url or a name. A name is
// probed against every kind of UserTypes until one exists.
func (c *Client) User(ctx context.Context, ref string) (*User, error) {
	ref = strings.TrimSpace(ref)
	if isURL(ref) {
		groups := userURLRegex.FindStringSubmatch(ref)
		if len(groups) != 3 {
			return nil, &InvalidReference{Kind: "user", Reference: ref}
		}
		return c.newUser(groups[2], groups[1], c.http.Resolve(ref), ""), nil
	}

	name := strings.Join(strings.Fields(ref), "-")
	if name == "" {
		return nil, &InvalidReference{Kind: "user", Reference: ref}
	}
	if locator, ok := c.users.Get(name); ok {
		return c.userFromLocator(name, locator), nil
	}

	ctx, span := tracer.Start(ctx, "User.Guess", trace.WithAttributes(
		attribute.String("name", name),
	))
	defer span.End()

	for _, kind := range UserTypes {
		locator, found, err := c.exists(ctx, kind+"/"+name)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to probe user")
			return nil, err
		}
		if found {
			c.tel.ReportDebug("guessed user type", name, kind)
			c.users.Add(name, locator)
			return c.newUser(name, kind, locator, ""), nil
		}
	}

	err := &UserNotFound{Name: ref}
	c.tel.ReportWarning(report_client_user, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, "user not found")
	return nil, err
}

func (c *Client) userFromLocator(name, locator string) *User {
	kind := ""
	if groups := userURLRegex.FindStringSubmatch(locator); len(groups) == 3 {
		kind = groups[1]
	}
	return c.newUser(name, kind, locator, "")
}

// exists issues a HEAD request and returns the final url when the target
// exists.
func (c *Client) exists(ctx context.Context, target string) (string, bool, error) {
	res, err := c.http.Call(ctx, transport.Request{Target: target, Method: http.MethodHead})
	if err != nil {
		return "", false, err
	}
	if !res.IsSuccess() {
		return "", false, nil
	}
	if res.URL != "" {
		return res.URL, true, nil
	}
	return c.http.Resolve(target), true, nil
}

func (c *Client) newUser(name, kind, locator, avatar string) *User {
	source := sourceFuncs{page: c.fetchPage}
	e := entity.New(userKind, locator, source, extract.UserExtractor{}, map[entity.Key]any{
		entity.ScrapeKey("name"): name,
		entity.ScrapeKey("type"): kind,
	})
	e.Policy = func(bool) entity.Namespace { return entity.Scrape }
	if avatar != "" {
		e.Set(entity.ScrapeKey("avatar"), avatar)
	}
	return &User{client: c, entity: e, name: name, kind: kind}
}

// userFromListing builds a user out of a reference listing entry.
func (c *Client) userFromListing(item query.RawItem) (*User, error) {
	ref := item.Fields["url"]
	groups := userURLRegex.FindStringSubmatch(ref)
	if len(groups) != 3 {
		return nil, &InvalidReference{Kind: "user", Reference: ref}
	}
	return c.newUser(groups[2], groups[1], c.http.Resolve(ref), item.Fields["avatar"]), nil
}

// FindUser searches users by name and returns the closest match.
func (c *Client) FindUser(ctx context.Context, name string) (*User, error) {
	users, err := c.SearchUsers(UserSearch{Username: name})
	if err != nil {
		return nil, err
	}
	candidates, err := users.Page(ctx, 0)
	if err != nil && !errors.Is(err, query.ErrEndOfSequence) {
		return nil, err
	}

	var best *User
	bestScore := -1.0
	target := strings.ToLower(name)
	for _, candidate := range candidates {
		score := matchr.JaroWinkler(target, strings.ToLower(candidate.Name()), false)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if best == nil {
		return nil, &UserNotFound{Name: name}
	}
	return best, nil
}

func (u *User) String() string {
	return fmt.Sprintf("%s(%s)", u.kind, u.name)
}

func (u *User) Name() string {
	return u.name
}

// Type is the kind of user page (model, pornstar, channels, users...).
func (u *User) Type() string {
	return u.kind
}

func (u *User) URL() string {
	return u.entity.Locator
}

func (u *User) Entity() *entity.Entity {
	return u.entity
}

func (u *User) Refresh() {
	u.entity.Refresh()
	u.mutex.Lock()
	u.support = nil
	u.mutex.Unlock()
}

func (u *User) Bio(ctx context.Context) (string, error) {
	return entity.FetchAs[string](ctx, u.entity, entity.ScrapeKey("bio"))
}

// Info returns the detail table of the user page. Its labels depend on the
// language of the page.
func (u *User) Info(ctx context.Context) (map[string]string, error) {
	return entity.FetchAs[map[string]string](ctx, u.entity, entity.ScrapeKey("info"))
}

func (u *User) Avatar(ctx context.Context) (media.Image, error) {
	url, err := entity.FetchAs[string](ctx, u.entity, entity.ScrapeKey("avatar"))
	if err != nil {
		return media.Image{}, err
	}
	return media.Image{URL: url, Name: u.name + "-avatar"}, nil
}

func (u *User) supports(ctx context.Context) (querySupport, error) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	if u.support != nil {
		return *u.support, nil
	}

	support := querySupport{}
	videos := strings.TrimRight(u.URL(), "/") + "/videos"
	_, found, err := u.client.exists(ctx, videos)
	if err != nil {
		return querySupport{}, err
	}
	if found {
		support.videos = videos
	}
	if u.kind == "pornstar" {
		upload := videos + "/upload"
		_, found, err = u.client.exists(ctx, upload)
		if err != nil {
			return querySupport{}, err
		}
		if found {
			support.upload = upload
		}
	}
	u.support = &support
	return support, nil
}

// Videos lists the videos featured on the user page.
func (u *User) Videos(ctx context.Context) (*query.Query[*Video], error) {
	support, err := u.supports(ctx)
	if err != nil {
		return nil, err
	}
	target := support.videos
	if target == "" {
		target = u.URL()
	}
	listing := query.MarkupListing{Suppress: query.PremiumMarker}
	if support.upload != "" {
		listing.Hint = recentSectionHint
	}
	return u.client.videoQuery(target, listing), nil
}

// Uploads lists the videos uploaded by the user, users that do not expose
// their uploads return an empty query.
func (u *User) Uploads(ctx context.Context) (*query.Query[*Video], error) {
	support, err := u.supports(ctx)
	if err != nil {
		return nil, err
	}
	if support.upload == "" {
		u.client.tel.ReportDebug("user does not expose uploads", u.String())
		return query.NewEmpty[*Video](), nil
	}
	return u.client.videoQuery(support.upload, query.MarkupListing{Suppress: query.PremiumMarker}), nil
}
