package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "  plain  ", expected: "plain"},
		{in: "Tom &amp; Jerry", expected: "Tom & Jerry"},
		{in: "line\n\n\t  break", expected: "line break"},
		{in: "bell\x07 ring", expected: "bell ring"},
		{in: "", expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, CleanText(test.in), test.in)
	}
}

func TestSelectionTexts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<a data-label="tag"> Some
				<b>One</b></a>
			<a data-label="tag">   </a>
			<a data-label="tag">Other &amp; more</a>
		</div>`))
	require.Nil(t, err)

	texts := SelectionTexts(doc.Find(`[data-label="tag"]`))
	if diff := cmp.Diff([]string{"Some One", "Other & more"}, texts); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, "Other & more", NodeText(doc.Find("a").Last().Nodes[0]))
	require.Equal(t, "", GetText(nil))
}
