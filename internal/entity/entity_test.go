package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	payload   map[string]any
	page      []byte
	apiCalls  int
	pageCalls int
}

func (s *fakeSource) FetchAPI(ctx context.Context, e *Entity) (map[string]any, error) {
	s.apiCalls++
	return s.payload, nil
}

func (s *fakeSource) FetchPage(ctx context.Context, e *Entity) ([]byte, error) {
	s.pageCalls++
	return s.page, nil
}

var videoKind = Kind{Name: "video", Record: "video"}

// titleExtractor only knows how to extract the title, every other field is absent.
var titleExtractor = ExtractorFunc(func(ctx context.Context, fields []string, raw []byte) (map[string]any, error) {
	return map[string]any{"title": string(raw)}, nil
})

func newVideo(source *fakeSource) *Entity {
	return New(videoKind, "https://www.example.com/view?key=abc", source, titleExtractor, map[Key]any{
		ScrapeKey("key"): "abc",
	})
}

func TestParseKey(t *testing.T) {
	testCases := []struct {
		raw    string
		expect Key
	}{
		{raw: "api:title", expect: APIKey("title")},
		{raw: "scrape:mediaDefinitions", expect: ScrapeKey("mediaDefinitions")},
		{raw: "title", expect: Field("title")},
		{raw: "other:title", expect: Field("other:title")},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, ParseKey(test.raw))
		require.Equal(t, test.raw, test.expect.String())
	}
}

func TestFetchAPIMergesBatch(t *testing.T) {
	source := &fakeSource{payload: map[string]any{
		"video": map[string]any{"title": "first", "views": float64(3)},
	}}
	video := newVideo(source)

	title, err := video.Fetch(context.Background(), APIKey("title"))
	require.Nil(t, err)
	require.Equal(t, "first", title)

	views, err := video.Fetch(context.Background(), APIKey("views"))
	require.Nil(t, err)
	require.Equal(t, float64(3), views)

	title, err = video.Fetch(context.Background(), APIKey("title"))
	require.Nil(t, err)
	require.Equal(t, "first", title)

	missing, err := video.Fetch(context.Background(), APIKey("missing"))
	require.Nil(t, err)
	require.Nil(t, missing)

	require.Equal(t, 1, source.apiCalls)
	require.Equal(t, 0, source.pageCalls)
}

func TestRefreshRefetchesOnce(t *testing.T) {
	source := &fakeSource{payload: map[string]any{
		"video": map[string]any{"title": "first"},
	}}
	video := newVideo(source)

	_, err := video.Fetch(context.Background(), APIKey("title"))
	require.Nil(t, err)
	require.Equal(t, 1, source.apiCalls)

	video.Refresh()

	key, ok := video.Cached(ScrapeKey("key"))
	require.True(t, ok)
	require.Equal(t, "abc", key)
	_, ok = video.Cached(APIKey("title"))
	require.False(t, ok)

	source.payload = map[string]any{"video": map[string]any{"title": "second"}}
	title, err := video.Fetch(context.Background(), APIKey("title"))
	require.Nil(t, err)
	require.Equal(t, "second", title)
	_, err = video.Fetch(context.Background(), APIKey("title"))
	require.Nil(t, err)
	require.Equal(t, 2, source.apiCalls)
}

func TestCombinatorPrefersWarmPage(t *testing.T) {
	source := &fakeSource{
		payload: map[string]any{"video": map[string]any{"title": "from api"}},
		page:    []byte("from page"),
	}
	video := newVideo(source)

	require.Equal(t, APIKey("title"), video.Resolve(Field("title")))
	title, err := video.Fetch(context.Background(), Field("title"))
	require.Nil(t, err)
	require.Equal(t, "from api", title)

	_, err = video.Page(context.Background())
	require.Nil(t, err)

	require.Equal(t, ScrapeKey("title"), video.Resolve(Field("title")))
	title, err = video.Fetch(context.Background(), Field("title"))
	require.Nil(t, err)
	require.Equal(t, "from page", title)

	require.Equal(t, 1, source.apiCalls)
	require.Equal(t, 1, source.pageCalls)
}

func TestScrapeFailureIsPerField(t *testing.T) {
	source := &fakeSource{page: []byte("a title")}
	video := newVideo(source)

	title, err := video.Fetch(context.Background(), ScrapeKey("title"))
	require.Nil(t, err)
	require.Equal(t, "a title", title)

	_, err = video.Fetch(context.Background(), ScrapeKey("duration"))
	var failure *ExtractionFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, "duration", failure.Field)
	require.ErrorIs(t, err, ErrFieldMissing)

	title, err = video.Fetch(context.Background(), ScrapeKey("title"))
	require.Nil(t, err)
	require.Equal(t, "a title", title)
	require.Equal(t, 1, source.pageCalls)
}

func TestExtractorError(t *testing.T) {
	source := &fakeSource{page: []byte("<html>")}
	broken := ExtractorFunc(func(ctx context.Context, fields []string, raw []byte) (map[string]any, error) {
		return nil, errors.New("markup changed")
	})
	video := New(videoKind, "https://www.example.com/view?key=abc", source, broken, nil)

	_, err := video.Fetch(context.Background(), ScrapeKey("title"))
	var failure *ExtractionFailure
	require.True(t, errors.As(err, &failure))
	require.True(t, video.Warm())
}

func TestUnavailable(t *testing.T) {
	testCases := []struct {
		payload    map[string]any
		restricted bool
	}{
		{payload: map[string]any{"code": "2002", "message": "blocked"}, restricted: true},
		{payload: map[string]any{"code": float64(2002), "message": "blocked"}, restricted: true},
		{payload: map[string]any{"code": "2001", "message": "removed"}, restricted: false},
	}

	for _, test := range testCases {
		source := &fakeSource{payload: test.payload}
		video := newVideo(source)

		_, err := video.Fetch(context.Background(), APIKey("title"))
		var unavailable *Unavailable
		require.True(t, errors.As(err, &unavailable))
		require.Equal(t, test.restricted, unavailable.Restricted())
		require.Equal(t, test.restricted, errors.Is(err, ErrRegionRestricted))
	}
}

func TestSetDoesNotOverwrite(t *testing.T) {
	video := newVideo(&fakeSource{})

	require.True(t, video.Set(APIKey("title"), "listing title"))
	require.False(t, video.Set(APIKey("title"), "other"))

	title, err := FetchAs[string](context.Background(), video, APIKey("title"))
	require.Nil(t, err)
	require.Equal(t, "listing title", title)

	_, err = FetchAs[int](context.Background(), video, APIKey("title"))
	require.NotNil(t, err)
}
