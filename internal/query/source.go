package query

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"mediahub/internal/transport"
)

// PagePlaceholder is substituted with the 1-based page number in url templates.
const PagePlaceholder = "{page}"

// Fetcher is the subset of the transport used by page sources.
type Fetcher interface {
	Call(ctx context.Context, req transport.Request) (transport.Response, error)
}

// Source returns the raw content of a page given its 0-based index.
type Source interface {
	RawPage(ctx context.Context, index int) (Raw, error)
}

// URLSource fetches pages from a url template containing PagePlaceholder.
type URLSource struct {
	Fetcher  Fetcher
	Template string
	// Store, when set, is consulted before issuing a call.
	Store Store
}

func (s URLSource) Target(index int) string {
	return strings.ReplaceAll(s.Template, PagePlaceholder, strconv.Itoa(index+1))
}

func (s URLSource) RawPage(ctx context.Context, index int) (Raw, error) {
	target := s.Target(index)
	if s.Store != nil {
		body, err := s.Store.Get(ctx, target)
		if err == nil {
			return Raw{Body: body}, nil
		}
		if !errors.Is(err, ErrNotStored) {
			return Raw{}, err
		}
	}

	body, err := fetchListingPage(ctx, s.Fetcher, target)
	if err != nil {
		return Raw{}, err
	}
	if s.Store != nil {
		err = s.Store.Set(ctx, target, body)
		if err != nil {
			return Raw{}, err
		}
	}
	return Raw{Body: body}, nil
}

// fetchListingPage fetches a listing page, a 404 marks the end of the listing.
func fetchListingPage(ctx context.Context, fetcher Fetcher, target string) ([]byte, error) {
	res, err := fetcher.Call(ctx, transport.Request{Target: target, Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrEndOfSequence
	}
	return res.Body, nil
}

// ChunkedSource serves the first page from a landing page and the following
// pages from a chunk endpoint authenticated by the token of the landing page.
//
// Chunk must contain PagePlaceholder and TokenPlaceholder.
type ChunkedSource struct {
	Fetcher Fetcher
	Landing string
	Chunk   string

	mutex   sync.Mutex
	landing []byte
	token   string
}

const TokenPlaceholder = "{token}"

// LandingPage returns the landing page, fetching it once.
func (s *ChunkedSource) LandingPage(ctx context.Context) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.landingPage(ctx)
}

func (s *ChunkedSource) landingPage(ctx context.Context) ([]byte, error) {
	if s.landing != nil {
		return s.landing, nil
	}
	res, err := s.Fetcher.Call(ctx, transport.Get(s.Landing))
	if err != nil {
		return nil, err
	}
	s.landing = res.Body
	return s.landing, nil
}

func (s *ChunkedSource) RawPage(ctx context.Context, index int) (Raw, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	landing, err := s.landingPage(ctx)
	if err != nil {
		return Raw{}, err
	}
	if index == 0 {
		return Raw{Body: landing, Hint: ContainerHint}, nil
	}

	if s.token == "" {
		s.token, err = transport.FindToken(landing)
		if err != nil {
			return Raw{}, err
		}
	}
	target := strings.NewReplacer(
		PagePlaceholder, strconv.Itoa(index+1),
		TokenPlaceholder, s.token,
	).Replace(s.Chunk)

	body, err := fetchListingPage(ctx, s.Fetcher, target)
	if err != nil {
		return Raw{}, err
	}
	return Raw{Body: body, Hint: DocumentHint}, nil
}

// EmptySource never returns a page.
type EmptySource struct{}

func (EmptySource) RawPage(context.Context, int) (Raw, error) {
	return Raw{}, ErrEndOfSequence
}
