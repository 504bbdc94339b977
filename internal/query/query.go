package query

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"sync"

	"mediahub/internal/components/assert"
)

// Converter turns a raw item into the value surfaced by a query.
type Converter[T any] func(item RawItem) (T, error)

// Counter reads the total number of entries of a listing from its first page.
type Counter func(page []byte) (int, bool)

var counterRegex = regexp.MustCompile(`(?s)showing(?:Counter|Info).*?">.*?(\d+)\s*</`)

// ShowingCounter reads the "showing N" counter rendered on listing pages.
func ShowingCounter(page []byte) (int, bool) {
	groups := counterRegex.FindSubmatch(page)
	if len(groups) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(string(groups[1]))
	if err != nil {
		return 0, false
	}
	return n, true
}

type Option func(*settings)

type settings struct {
	counter Counter
}

// WithCounter replaces the counter used by Len.
func WithCounter(counter Counter) Option {
	return func(s *settings) {
		s.counter = counter
	}
}

type page[T any] struct {
	items []T
	err   error
}

// Query is a remote listing resolved lazily page by page. Each page index is
// fetched at most once, parsed pages are memoized for the life of the query.
type Query[T any] struct {
	source   Source
	strategy Strategy
	convert  Converter[T]
	settings settings

	mutex sync.Mutex
	raws  map[int]Raw
	pages map[int]page[T]
}

func New[T any](source Source, strategy Strategy, convert Converter[T], opts ...Option) *Query[T] {
	assert.NotNil(source)
	assert.NotNil(strategy)
	assert.NotNil(convert)

	s := settings{counter: ShowingCounter}
	for _, opt := range opts {
		opt(&s)
	}
	return &Query[T]{
		source:   source,
		strategy: strategy,
		convert:  convert,
		settings: s,
		raws:     map[int]Raw{},
		pages:    map[int]page[T]{},
	}
}

// NewEmpty is a query with no entries.
func NewEmpty[T any]() *Query[T] {
	return New(EmptySource{}, Empty{}, func(RawItem) (T, error) {
		var zero T
		return zero, nil
	})
}

func (q *Query[T]) isEmpty() bool {
	_, ok := q.strategy.(Empty)
	return ok
}

func (q *Query[T]) raw(ctx context.Context, index int) (Raw, error) {
	if raw, ok := q.raws[index]; ok {
		return raw, nil
	}
	raw, err := q.source.RawPage(ctx, index)
	if err != nil {
		return Raw{}, err
	}
	q.raws[index] = raw
	return raw, nil
}

// Page returns the items of the page at index (0-based). ErrEndOfSequence is
// returned past the last page: when the server does not know the page or
// when the page holds no entry.
func (q *Query[T]) Page(ctx context.Context, index int) ([]T, error) {
	if index < 0 {
		return nil, ErrEndOfSequence
	}
	if q.isEmpty() {
		return nil, ErrEndOfSequence
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	if cached, ok := q.pages[index]; ok {
		return cached.items, cached.err
	}

	items, err := q.resolve(ctx, index)
	if errors.Is(err, ErrEndOfSequence) {
		q.pages[index] = page[T]{err: ErrEndOfSequence}
		return nil, ErrEndOfSequence
	}
	if err != nil {
		return nil, err
	}
	q.pages[index] = page[T]{items: items}
	return items, nil
}

func (q *Query[T]) resolve(ctx context.Context, index int) ([]T, error) {
	raw, err := q.raw(ctx, index)
	if err != nil {
		return nil, err
	}
	rawItems, err := q.strategy.Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(rawItems) == 0 {
		return nil, ErrEndOfSequence
	}

	items := make([]T, 0, len(rawItems))
	for _, rawItem := range rawItems {
		if !q.strategy.Keep(rawItem) {
			continue
		}
		item, err := q.convert(rawItem)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Items iterates every item of every page in order, a new iterator reuses
// the pages already fetched.
func (q *Query[T]) Items() *Iterator[T] {
	return &Iterator[T]{query: q}
}

// Sample collects up to max items accepted by predicate and every filter,
// max <= 0 collects everything. No page past the one holding the last
// accepted item is fetched.
func (q *Query[T]) Sample(ctx context.Context, max int, predicate func(T) bool, filters ...func(T) bool) ([]T, error) {
	var out []T
	it := q.Items()
	for it.Next(ctx) {
		item := it.Item()
		if predicate != nil && !predicate(item) {
			continue
		}
		accepted := true
		for _, filter := range filters {
			if !filter(item) {
				accepted = false
				break
			}
		}
		if !accepted {
			continue
		}
		out = append(out, item)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, it.Err()
}

// Len reads the total number of entries from the first page, ErrLenUnsupported
// is returned when the page carries no counter.
func (q *Query[T]) Len(ctx context.Context) (int, error) {
	if q.isEmpty() {
		return 0, nil
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	raw, err := q.raw(ctx, 0)
	if errors.Is(err, ErrEndOfSequence) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, ok := q.settings.counter(raw.Body)
	if !ok {
		return 0, ErrLenUnsupported
	}
	return n, nil
}

// Iterator walks the items of a query. It stops silently at the end of the
// listing, Err reports any other failure.
type Iterator[T any] struct {
	query *Query[T]
	index int
	items []T
	pos   int
	item  T
	err   error
	done  bool
}

func (it *Iterator[T]) Next(ctx context.Context) bool {
	for !it.done {
		if it.pos < len(it.items) {
			it.item = it.items[it.pos]
			it.pos++
			return true
		}

		err := ctx.Err()
		if err != nil {
			it.err = err
			it.done = true
			return false
		}

		items, err := it.query.Page(ctx, it.index)
		if errors.Is(err, ErrEndOfSequence) {
			it.done = true
			return false
		}
		if err != nil {
			it.err = err
			it.done = true
			return false
		}
		it.items = items
		it.pos = 0
		it.index++
	}
	return false
}

func (it *Iterator[T]) Item() T {
	return it.item
}

func (it *Iterator[T]) Err() error {
	return it.err
}

// Collect drains an iterator.
func Collect[T any](ctx context.Context, it *Iterator[T]) ([]T, error) {
	var out []T
	for it.Next(ctx) {
		out = append(out, it.Item())
	}
	return out, it.Err()
}
