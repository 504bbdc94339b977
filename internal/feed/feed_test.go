package feed

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const document = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Latest videos</title>
	<item>
		<title>First &amp; foremost</title>
		<link>https://www.example.com/view_video.php?viewkey=ph1</link>
		<duration>12:04</duration>
		<thumb>https://img.example.net/1.jpg</thumb>
	</item>
	<item>
		<title><![CDATA[Second]]></title>
		<link> https://www.example.com/view_video.php?viewkey=ph2 </link>
		<duration>3:10</duration>
		<thumb>https://img.example.net/2.jpg</thumb>
	</item>
</channel>
</rss>`

func TestParse(t *testing.T) {
	items, err := Parse([]byte(document))
	require.Nil(t, err)

	expected := []Item{
		{
			Title:    "First & foremost",
			Link:     "https://www.example.com/view_video.php?viewkey=ph1",
			Duration: "12:04",
			Thumb:    "https://img.example.net/1.jpg",
		},
		{
			Title:    "Second",
			Link:     "https://www.example.com/view_video.php?viewkey=ph2",
			Duration: "3:10",
			Thumb:    "https://img.example.net/2.jpg",
		},
	}
	require.Empty(t, cmp.Diff(expected, items))
}

func TestParseEmpty(t *testing.T) {
	items, err := Parse([]byte(`<rss><channel></channel></rss>`))
	require.Nil(t, err)
	require.Empty(t, items)

	_, err = Parse([]byte(`<rss><channel><item><title>unterminated`))
	require.NotNil(t, err)
}
