package entity

import (
	"context"
	"fmt"
	"sync"

	"mediahub/internal/components/assert"
)

// Source fetches the raw material an entity is resolved from.
type Source interface {
	// FetchAPI returns the decoded payload of the structured endpoint.
	FetchAPI(ctx context.Context, e *Entity) (map[string]any, error)
	// FetchPage returns the entity's own page.
	FetchPage(ctx context.Context, e *Entity) ([]byte, error)
}

// Extractor derives scrape fields from a raw page. It may return more fields
// than requested and omits the fields it could not find.
type Extractor interface {
	Extract(ctx context.Context, fields []string, raw []byte) (map[string]any, error)
}

type ExtractorFunc func(ctx context.Context, fields []string, raw []byte) (map[string]any, error)

func (f ExtractorFunc) Extract(ctx context.Context, fields []string, raw []byte) (map[string]any, error) {
	return f(ctx, fields, raw)
}

// Kind describes a type of entity.
type Kind struct {
	Name string
	// Record is the key of the structured payload holding the entity's
	// fields, the whole payload is used when empty.
	Record string
}

// Entity is a remote object whose fields are resolved lazily and cached
// under their namespace. Fields present at construction form the identity
// set and survive Refresh.
//
// Field resolution is serialized per entity.
type Entity struct {
	Kind    Kind
	Locator string
	Policy  ResolutionPolicy

	source    Source
	extractor Extractor

	mutex    sync.Mutex
	store    map[Key]any
	identity map[Key]any
	page     []byte
	warm     bool

	// fetchedAPI is set once the structured payload has been merged, so a
	// field it did not carry does not trigger another call.
	fetchedAPI bool
}

func New(kind Kind, locator string, source Source, extractor Extractor, identity map[Key]any) *Entity {
	assert.NotNil(source)
	assert.NotNil(extractor)
	assert.NotEmptyStr(locator)

	e := &Entity{
		Kind:      kind,
		Locator:   locator,
		Policy:    PreferWarmPage,
		source:    source,
		extractor: extractor,
		identity:  make(map[Key]any, len(identity)),
	}
	for k, v := range identity {
		e.identity[k] = v
	}
	e.reset()
	return e
}

func (e *Entity) reset() {
	e.store = make(map[Key]any, len(e.identity))
	for k, v := range e.identity {
		e.store[k] = v
	}
	e.page = nil
	e.warm = false
	e.fetchedAPI = false
}

// Refresh drops every non-identity field and the cached page.
func (e *Entity) Refresh() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.reset()
}

// Resolve returns the concrete key a combinator resolves to right now.
func (e *Entity) Resolve(key Key) Key {
	if !key.IsCombinator() {
		return key
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.resolve(key)
}

func (e *Entity) resolve(key Key) Key {
	if !key.IsCombinator() {
		return key
	}
	return Key{Namespace: e.Policy(e.warm), Field: key.Field}
}

// Cached returns a field without resolving it.
func (e *Entity) Cached(key Key) (any, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	v, ok := e.store[e.resolve(key)]
	return v, ok
}

// Set stores a value obtained elsewhere (ex. from a listing). Existing
// fields are never overwritten, the return value reports whether v was stored.
func (e *Entity) Set(key Key, v any) bool {
	assert.NotEmptyStr(string(key.Namespace))

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if _, exists := e.store[key]; exists {
		return false
	}
	e.store[key] = v
	return true
}

// Warm reports whether the entity page has been fetched.
func (e *Entity) Warm() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.warm
}

// Page returns the entity page, fetching it on first use.
func (e *Entity) Page(ctx context.Context) ([]byte, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	err := e.warmPage(ctx)
	if err != nil {
		return nil, err
	}
	return e.page, nil
}

// Fetch returns the value of key, resolving and caching it on first use.
//
// An api field triggers one call to the structured endpoint which caches
// every field it returns. A scrape field fetches the page once and asks the
// extractor for the requested field only, so a field that cannot be
// extracted fails only when it is requested.
func (e *Entity) Fetch(ctx context.Context, key Key) (any, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	key = e.resolve(key)
	if v, ok := e.store[key]; ok {
		return v, nil
	}

	switch key.Namespace {
	case API:
		if e.fetchedAPI {
			return nil, nil
		}
		err := e.fetchAPI(ctx)
		if err != nil {
			return nil, err
		}
	case Scrape:
		err := e.fetchScrape(ctx, key.Field)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown namespace %q", key.Namespace)
	}

	v, ok := e.store[key]
	if !ok {
		if key.Namespace == Scrape {
			return nil, &ExtractionFailure{Locator: e.Locator, Field: key.Field, Err: ErrFieldMissing}
		}
		return nil, nil
	}
	return v, nil
}

func (e *Entity) merge(ns Namespace, fields map[string]any) {
	for field, v := range fields {
		k := Key{Namespace: ns, Field: field}
		if _, exists := e.store[k]; exists {
			continue
		}
		e.store[k] = v
	}
}

func (e *Entity) fetchAPI(ctx context.Context) error {
	payload, err := e.source.FetchAPI(ctx, e)
	if err != nil {
		return err
	}
	err = CheckPayload(e.Locator, payload)
	if err != nil {
		return err
	}

	fields := payload
	if e.Kind.Record != "" {
		record, ok := payload[e.Kind.Record].(map[string]any)
		if !ok {
			return fmt.Errorf("%s: structured payload has no %q record", e.Locator, e.Kind.Record)
		}
		fields = record
	}
	e.merge(API, fields)
	e.fetchedAPI = true
	return nil
}

func (e *Entity) warmPage(ctx context.Context) error {
	if e.warm {
		return nil
	}
	page, err := e.source.FetchPage(ctx, e)
	if err != nil {
		return err
	}
	e.page = page
	e.warm = true
	return nil
}

func (e *Entity) fetchScrape(ctx context.Context, field string) error {
	err := e.warmPage(ctx)
	if err != nil {
		return err
	}
	fields, err := e.extractor.Extract(ctx, []string{field}, e.page)
	if err != nil {
		return &ExtractionFailure{Locator: e.Locator, Field: field, Err: err}
	}
	e.merge(Scrape, fields)
	return nil
}

// FetchAs is Fetch with a type assertion on the result.
func FetchAs[T any](ctx context.Context, e *Entity, key Key) (T, error) {
	var zero T
	v, err := e.Fetch(ctx, key)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: field %s has type %T, expected %T", e.Locator, key, v, zero)
	}
	return out, nil
}
