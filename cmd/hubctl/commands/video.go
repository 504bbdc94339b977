package commands

import (
	"fmt"
	"slices"
	"strconv"

	"mediahub/internal/extract"
	"mediahub/internal/media"
	"mediahub/lib/hub"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(videoCmd)
}

var videoCmd = &cobra.Command{
	Use:   "video <url or key>...",
	Short: "Prints the details of videos.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, ref := range args {
			video, err := client.Video(ref)
			if err != nil {
				return err
			}
			printVideo(cmd, video)
		}
		return nil
	},
}

func printVideo(cmd *cobra.Command, v *hub.Video) {
	ctx := cmd.Context()
	t := newTable()
	t.SetTitle(v.URL())

	title, err := v.Title(ctx)
	t.AppendRow(table.Row{"Title", field("title", title, err, plain)})
	duration, err := v.Duration(ctx)
	t.AppendRow(table.Row{"Duration", field("duration", duration, err, clock)})
	views, err := v.Views(ctx)
	t.AppendRow(table.Row{"Views", field("views", views, err, count)})
	rating, err := v.Rating(ctx)
	t.AppendRow(table.Row{"Rating", field("rating", rating, err, func(l hub.Like) string {
		return fmt.Sprintf("%.0f%% (%s up, %s down)", l.Ratio*100, count(l.Up), count(l.Down))
	})})
	date, err := v.Date(ctx)
	t.AppendRow(table.Row{"Published", field("date", date, err, since)})
	author, err := v.Author(ctx)
	t.AppendRow(table.Row{"Author", field("author", author, err, func(a extract.Author) string {
		return a.Name
	})})
	tags, err := v.Tags(ctx)
	t.AppendRow(table.Row{"Tags", field("tags", tags, err, list)})
	categories, err := v.Categories(ctx)
	t.AppendRow(table.Row{"Categories", field("categories", categories, err, list)})
	performers, err := v.Performers(ctx)
	t.AppendRow(table.Row{"Performers", field("performers", performers, err, list)})
	qualities, err := v.Qualities(ctx)
	t.AppendRow(table.Row{"Qualities", field("qualities", qualities, err, formatQualities)})
	thumbnail, err := v.Thumbnail(ctx)
	t.AppendRow(table.Row{"Thumbnail", field("thumbnail", thumbnail, err, func(i media.Image) string {
		return i.URL
	})})

	t.Render()
}

func formatQualities(defs media.Definitions) string {
	levels := make([]int, 0, len(defs))
	for level := range defs {
		levels = append(levels, level)
	}
	slices.Sort(levels)

	out := make([]string, len(levels))
	for i, level := range levels {
		out[i] = strconv.Itoa(level) + "p"
	}
	return list(out)
}
