package extract

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const videoPage = `<html><head><meta property="og:title" content="A &amp; B clip"></head><body>
<script>
var flashvars_123 = {"video_title":"A & B","video_duration":"125","mediaDefinitions":[{"quality":"720","videoUrl":"https://cdn.example.net/720/master.m3u8"}],"playbackTracking":{"video_id":42},"isVertical":"false"};
</script>
<div class="userInfo"><span class="usernameBadgesWrapper"><a rel="" href="/model/alice"  class="bolded">Alice</a></span></div>
<div class="favorite-btn js-favoriteBtn active"></div>
</body></html>`

func TestVideoExtractor(t *testing.T) {
	fields, err := VideoExtractor{}.Extract(context.Background(), nil, []byte(videoPage))
	require.Nil(t, err)

	require.Equal(t, "A & B clip", fields["title"])
	require.Equal(t, "A & B", fields["video_title"])
	require.Equal(t, "125", fields["video_duration"])
	require.Equal(t, float64(42), fields["video_id"])
	require.Equal(t, true, fields["is_favorite"])
	require.Empty(t, cmp.Diff(Author{Name: "Alice", URL: "/model/alice"}, fields["author"]))

	definitions, ok := fields["mediaDefinitions"].([]any)
	require.True(t, ok)
	require.Len(t, definitions, 1)
}

func TestVideoExtractorRequestedFields(t *testing.T) {
	fields, err := VideoExtractor{}.Extract(context.Background(), []string{"title"}, []byte(videoPage))
	require.Nil(t, err)
	require.Empty(t, cmp.Diff(map[string]any{"title": "A & B clip"}, fields))
}

func TestVideoExtractorFallbacks(t *testing.T) {
	page := `<html><script type="application/ld+json">{"name": "Fallback &amp; title"}</script>
<div class="video-actions"><a href="/channels/brand" data-event="Video Underplayer" class="x"><span class="bolded">Brand</span></a></div>
<div class="favorite-btn js-favoriteBtn"></div></html>`

	fields, err := VideoExtractor{}.Extract(context.Background(), nil, []byte(page))
	require.Nil(t, err)
	require.Equal(t, "Fallback & title", fields["title"])
	require.Equal(t, false, fields["is_favorite"])
	require.Empty(t, cmp.Diff(Author{Name: "Brand", URL: "/channels/brand"}, fields["author"]))

	_, found := fields["mediaDefinitions"]
	require.False(t, found)
}

func TestVideoExtractorBrokenFlashvars(t *testing.T) {
	page := "<script>\nvar flashvars_1 = {\"video_title\": };\n</script>"
	_, err := VideoExtractor{}.Extract(context.Background(), []string{"video_title"}, []byte(page))
	require.NotNil(t, err)
}

func TestUserExtractor(t *testing.T) {
	page := `<html><body>
<div class="aboutMeSection sectionDimensions"><div class="title">About Alice</div><div>  Hello &amp; welcome  </div></div>
<div class="infoPiece"><span>Gender:</span> <span class="smallInfo">Female</span></div>
<div class="infoPiece"><span>City:</span><span class="smallInfo"> Paris </span></div>
<div class="previewAvatarPicture"><img src="https://img.example.net/avatar.jpg" alt=""></div>
</body></html>`

	fields, err := UserExtractor{}.Extract(context.Background(), nil, []byte(page))
	require.Nil(t, err)

	expected := map[string]any{
		"bio":    "Hello & welcome",
		"info":   map[string]string{"Gender": "Female", "City": "Paris"},
		"avatar": "https://img.example.net/avatar.jpg",
	}
	require.Empty(t, cmp.Diff(expected, fields))

	fields, err = UserExtractor{}.Extract(context.Background(), []string{"bio"}, []byte("<html></html>"))
	require.Nil(t, err)
	require.Empty(t, fields)
}

func TestPlaylistExtractor(t *testing.T) {
	page := `<html><body>
<div id="playlistWrapper" class="playlist">
<h1 id="watchPlaylist" class="title">My &amp; list</h1>
<div class="votes"><span class="votesUp">1,204</span><span class="votesDown">36</span><span class="percent">97%</span></div>
<span class="count">12,345</span>
<a data-type="user" class="author" href="/users/bob">bob</a>
<a data-label="tag" href="/playlists?t=a">Tag One</a><a data-label="tag_2" href="#"> two </a>
</div><div class="playlistSectionWrapper">
<span>Videos - 24</span><div class="avatarPosition"></div>
<h5>Hidden videos: 3</h5>
</div>
<script>var token = "tok-xyz",</script>
</body></html>`

	fields, err := PlaylistExtractor{}.Extract(context.Background(), nil, []byte(page))
	require.Nil(t, err)

	expected := map[string]any{
		"token":       "tok-xyz",
		"size":        24,
		"unavailable": 3,
		"likes":       1204,
		"dislikes":    36,
		"rating":      97.0,
		"views":       12345,
		"title":       "My & list",
		"author":      "/users/bob",
		"tags":        []string{"Tag One", "two"},
	}
	require.Empty(t, cmp.Diff(expected, fields))
}

func TestPlaylistExtractorMissingData(t *testing.T) {
	fields, err := PlaylistExtractor{}.Extract(context.Background(), nil, []byte("<html></html>"))
	require.Nil(t, err)
	require.Empty(t, cmp.Diff(map[string]any{"unavailable": 0}, fields))
}
