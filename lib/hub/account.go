package hub

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"mediahub/internal/media"
	"mediahub/internal/query"
)

// Account is the logged in account.
type Account struct {
	client *Client

	Name    string
	Avatar  media.Image
	Premium bool
	// User is the public page of the account.
	User *User
}

func newAccount(c *Client, raw map[string]any) *Account {
	name := toString(raw["username"])
	return &Account{
		client:  c,
		Name:    name,
		Avatar:  media.Image{URL: toString(raw["avatar"]), Name: "avatar"},
		Premium: toString(raw["premium_redirect_cookie"]) != "0",
		User:    c.newUser(name, "users", c.http.Resolve("users/"+name), ""),
	}
}

func (a *Account) String() string {
	return fmt.Sprintf("account(%s)", a.Name)
}

// allowRecommendations records the cookie consent recommendations depend on.
func (a *Account) allowRecommendations(ctx context.Context) error {
	token, err := a.client.grantedToken(ctx)
	if err != nil {
		return err
	}
	target := "user/log_user_cookie_consent?" + url.Values{
		"token":            {token},
		"cookie_selection": {"3"},
		"site_id":          {"1"},
	}.Encode()
	payload, err := a.client.fetchJSON(ctx, target)
	if err != nil {
		return err
	}
	if !toBool(payload["success"]) {
		return &ActionFailed{Action: "cookie consent", Message: toString(payload["message"])}
	}
	return nil
}

// Recommended lists the videos recommended to the account.
func (a *Account) Recommended(ctx context.Context) (*query.Query[*Video], error) {
	err := a.allowRecommendations(ctx)
	if err != nil {
		return nil, err
	}
	return a.client.videoQuery("recommended", query.MarkupListing{}), nil
}

// Watched lists the viewing history, every video of it is marked as watched.
func (a *Account) Watched() *query.Query[*Video] {
	c := a.client
	return query.New(
		query.URLSource{Fetcher: c.http, Template: listingTemplate("users/"+a.Name+"/videos/recent", nil)},
		query.MarkupListing{},
		func(item query.RawItem) (*Video, error) {
			video, err := c.videoFromListing(item)
			if err != nil {
				return nil, err
			}
			video.watched = true
			return video, nil
		},
	)
}

// Liked lists the favorite videos of the account.
func (a *Account) Liked() *query.Query[*Video] {
	return a.client.videoQuery("users/"+a.Name+"/videos/favorites", query.MarkupListing{})
}

// Subscriptions returns the users the account is subscribed to, with their
// avatars already set.
func (a *Account) Subscriptions(ctx context.Context) ([]*User, error) {
	users := query.New(
		query.URLSource{Fetcher: a.client.http, Template: "users/" + a.Name + "/subscriptions"},
		query.ReferenceListing{Hint: query.DocumentHint},
		a.client.userFromListing,
	)
	subscriptions, err := users.Page(ctx, 0)
	if err != nil && !errors.Is(err, query.ErrEndOfSequence) {
		return nil, err
	}
	return subscriptions, nil
}

// FeedEntry is a section of the activity feed.
type FeedEntry struct {
	Raw string
	// Users are the urls of the users the entry links to.
	Users []string
	// Videos are the keys of the videos the entry links to.
	Videos []string
}

func feedEntry(item query.RawItem) (FeedEntry, error) {
	entry := FeedEntry{Raw: item.Raw}
	seen := map[string]bool{}
	for _, groups := range viewkeyRegex.FindAllStringSubmatch(item.Raw, -1) {
		if !seen[groups[1]] {
			seen[groups[1]] = true
			entry.Videos = append(entry.Videos, groups[1])
		}
	}
	for _, groups := range userURLRegex.FindAllStringSubmatch(item.Raw, -1) {
		ref := strings.TrimSuffix(groups[0], "/")
		if !seen[ref] {
			seen[ref] = true
			entry.Users = append(entry.Users, ref)
		}
	}
	return entry, nil
}

// Feed lists the activity feed of the account.
func (a *Account) Feed() *query.Query[FeedEntry] {
	return query.New(
		query.URLSource{Fetcher: a.client.http, Template: listingTemplate("feeds", nil)},
		query.FeedListing{},
		feedEntry,
	)
}

// Watched reports whether the logged account has viewed the video. Without
// a listing entry from the history, the entry is obtained by Simulate.
func (v *Video) Watched(ctx context.Context) (bool, error) {
	if v.client.Account() == nil {
		return false, ErrNotLogged
	}
	if v.watched {
		return true, nil
	}
	item, err := v.Simulate(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(item.Raw, `class="watchedVideoText`), nil
}
