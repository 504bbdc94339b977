package hub

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"mediahub/internal/components/assert"
	"mediahub/internal/components/telemetry"
	"mediahub/internal/entity"
	"mediahub/internal/feed"
	"mediahub/internal/media"
	"mediahub/internal/query"
	"mediahub/internal/transport"

	"github.com/dgraph-io/badger/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("mediahub.lib.hub")

const (
	report_client_login    = "client.login"
	report_client_user     = "client.user"
	report_client_simulate = "client.simulate"
	report_client_feed     = "client.feed"
)

type Option func(*Client)

// WithSolver sets the solver used to answer inline challenges.
func WithSolver(solver transport.ChallengeSolver) Option {
	return func(c *Client) {
		c.solver = solver
	}
}

// Client is the entrypoint to the platform. It is safe for concurrent use,
// the entities it returns are not.
type Client struct {
	cfg Config
	// root is handed to the components, tel is scoped to the client.
	root   telemetry.API
	tel    telemetry.API
	solver transport.ChallengeSolver

	http  *transport.Client
	db    *badger.DB
	store query.Store
	// users caches the url a bare user name resolved to.
	users *expirable.LRU[string, string]

	mutex   sync.Mutex
	account *Account
	granted string
}

// New creates a client, logging in when the config carries credentials.
func New(ctx context.Context, cfg Config, tel telemetry.API, opts ...Option) (*Client, error) {
	assert.NotNil(tel)

	cfg, err := Complete(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:   cfg,
		root:  tel,
		tel:   telemetry.NewScopedAPI("hub", tel),
		users: expirable.NewLRU[string, string](1024, nil, time.Hour),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http, err = transport.New(cfg.Transport, c.solver, tel)
	if err != nil {
		return nil, err
	}

	if cfg.CacheDir != "" {
		c.db, err = badger.Open(badger.DefaultOptions(cfg.CacheDir).WithLogger(nil))
		if err != nil {
			return nil, fmt.Errorf("open page store: %w", err)
		}
		root, err := url.Parse(c.http.Resolve(""))
		if err != nil {
			c.db.Close()
			return nil, err
		}
		c.store = query.NewBadgerStore(c.db, root, cfg.CacheTTL)
	}

	if cfg.Email != "" {
		_, err = c.Login(ctx, cfg.Email, cfg.Password)
		if err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Close releases the page store.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Transport exposes the underlying transport client.
func (c *Client) Transport() *transport.Client {
	return c.http
}

// Strategy returns the configured retrieval strategy.
func (c *Client) Strategy(sequential bool) media.Strategy {
	return media.NewStrategy(c.cfg.Media, sequential, c.root)
}

// Login authenticates the session. The granted token of a previous session
// is dropped.
func (c *Client) Login(ctx context.Context, email, password string) (*Account, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	result, err := c.http.Login(ctx, email, password)
	if err != nil {
		c.tel.ReportWarning(report_client_login, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login")
		return nil, err
	}

	account := newAccount(c, result.Raw)
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.account = account
	c.granted = ""
	return account, nil
}

// Account returns the logged in account, or nil.
func (c *Client) Account() *Account {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.account
}

// grantedToken returns the token authorizing account actions, fetching it
// once per session.
func (c *Client) grantedToken(ctx context.Context) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.account == nil {
		return "", ErrNotLogged
	}
	if c.granted != "" {
		return c.granted, nil
	}
	token, err := c.http.Token(ctx)
	if err != nil {
		return "", err
	}
	c.granted = token
	return token, nil
}

// Feed fetches the syndication feed of the latest videos, each video comes
// with its title, duration and thumbnail already set.
func (c *Client) Feed(ctx context.Context) ([]*Video, error) {
	items, err := feed.Fetch(ctx, c.http)
	if err != nil {
		return nil, err
	}
	videos := make([]*Video, 0, len(items))
	for _, item := range items {
		video, err := c.Video(item.Link)
		if err != nil {
			c.tel.ReportWarning(report_client_feed, err, item.Link)
			continue
		}
		video.entity.Set(entity.APIKey("title"), item.Title)
		video.entity.Set(entity.APIKey("duration"), item.Duration)
		video.entity.Set(entity.APIKey("thumb"), item.Thumb)
		videos = append(videos, video)
	}
	return videos, nil
}

// sourceFuncs adapts a pair of functions to entity.Source.
type sourceFuncs struct {
	api  func(ctx context.Context, e *entity.Entity) (map[string]any, error)
	page func(ctx context.Context, e *entity.Entity) ([]byte, error)
}

func (s sourceFuncs) FetchAPI(ctx context.Context, e *entity.Entity) (map[string]any, error) {
	if s.api == nil {
		return nil, ErrNoStructuredEndpoint
	}
	return s.api(ctx, e)
}

func (s sourceFuncs) FetchPage(ctx context.Context, e *entity.Entity) ([]byte, error) {
	return s.page(ctx, e)
}

// fetchPage fetches the entity's own page.
func (c *Client) fetchPage(ctx context.Context, e *entity.Entity) ([]byte, error) {
	res, err := c.http.Call(ctx, transport.Get(e.Locator))
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

func (c *Client) fetchJSON(ctx context.Context, target string) (map[string]any, error) {
	res, err := c.http.Call(ctx, transport.Get(target))
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	err = res.JSON(&payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	return payload, nil
}
