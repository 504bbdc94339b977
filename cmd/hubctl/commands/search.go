package commands

import (
	"fmt"
	"strings"

	"mediahub/internal/query"
	"mediahub/lib/hub"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchMax     int
	searchAPI     bool
	searchSort    string
	searchPeriod  string
	searchHD      bool
	searchPremium bool
)

func init() {
	flags := searchCmd.Flags()
	flags.IntVarP(&searchMax, "max", "n", 20, "Maximum number of results, 0 lists everything.")
	flags.BoolVar(&searchAPI, "api", false, "Use the structured search endpoint.")
	flags.StringVar(&searchSort, "sort", "", "Sort code of the platform (ex. mv, tr) or, with --api, newest, mostviewed, rating.")
	flags.StringVar(&searchPeriod, "period", "", "Period the sort applies to (ex. w, m, a).")
	flags.BoolVar(&searchHD, "hd", false, "Only list HD videos.")
	flags.BoolVar(&searchPremium, "premium", false, "Keep the entries reserved to premium accounts.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <terms>...",
	Short: "Searches videos.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		terms := strings.Join(args, " ")

		var results *query.Query[*hub.Video]
		var err error
		if searchAPI {
			results, err = client.SearchAPI(terms, hub.APISearchOptions{
				Sort:   searchSort,
				Period: searchPeriod,
			})
		} else {
			results, err = client.Search(terms, hub.SearchOptions{
				Sort:    searchSort,
				Period:  searchPeriod,
				HD:      searchHD,
				Premium: searchPremium,
			})
		}
		if err != nil {
			return err
		}

		if total, err := results.Len(cmd.Context()); err == nil {
			fmt.Printf("%s results\n", count(total))
		}
		videos, err := results.Sample(cmd.Context(), searchMax, nil)
		if err != nil {
			return err
		}
		printVideoList(cmd, videos)
		return nil
	},
}

// printVideoList only shows the fields listings provide, so no video page is
// fetched.
func printVideoList(cmd *cobra.Command, videos []*hub.Video) {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Key", "Title"})
	for i, video := range videos {
		title, err := video.Title(cmd.Context())
		t.AppendRow(table.Row{i + 1, video.Key(), field("title", title, err, plain)})
	}
	t.Render()
}
