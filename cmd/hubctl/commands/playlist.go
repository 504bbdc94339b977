package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var playlistMax int

func init() {
	playlistCmd.Flags().IntVarP(&playlistMax, "max", "n", 20, "Maximum number of videos, 0 lists everything.")
	rootCmd.AddCommand(playlistCmd)
}

var playlistCmd = &cobra.Command{
	Use:   "playlist <url or id>",
	Short: "Prints a playlist and its videos.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		playlist, err := client.Playlist(args[0])
		if err != nil {
			return err
		}

		t := newTable()
		t.SetTitle(playlist.URL())
		title, err := playlist.Title(ctx)
		t.AppendRow(table.Row{"Title", field("title", title, err, plain)})
		size, err := playlist.Size(ctx)
		t.AppendRow(table.Row{"Videos", field("size", size, err, count)})
		hidden, err := playlist.Unavailable(ctx)
		t.AppendRow(table.Row{"Unavailable", field("unavailable", hidden, err, count)})
		views, err := playlist.Views(ctx)
		t.AppendRow(table.Row{"Views", field("views", views, err, count)})
		tags, err := playlist.Tags(ctx)
		t.AppendRow(table.Row{"Tags", field("tags", tags, err, list)})
		t.Render()

		videos, err := playlist.Sample(ctx, playlistMax, nil)
		if err != nil {
			return fmt.Errorf("list playlist videos: %w", err)
		}
		printVideoList(cmd, videos)
		return nil
	},
}
