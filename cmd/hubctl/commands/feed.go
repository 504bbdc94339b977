package commands

import (
	"context"
	"log/slog"
	"sync"

	"mediahub/internal/components/chrono"
	"mediahub/lib/hub"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var feedWatch string

func init() {
	feedCmd.Flags().StringVar(&feedWatch, "watch", "", `Poll the feed on this cron schedule (ex. "@every 15m") and print new videos.`)
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Prints the latest videos of the syndication feed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		seen := map[string]bool{}
		err := printFeed(ctx, seen)
		if err != nil || feedWatch == "" {
			return err
		}

		var mutex sync.Mutex
		cron := chrono.NewStandardCron(tel)
		err = cron.Cron(feedWatch, func() {
			mutex.Lock()
			defer mutex.Unlock()
			err := printFeed(ctx, seen)
			if err != nil && ctx.Err() == nil {
				slog.Warn("failed to poll feed", "err", err)
			}
		})
		if err != nil {
			return err
		}
		<-ctx.Done()
		<-cron.Stop().Done()
		return nil
	},
}

// printFeed prints the feed videos missing from seen and adds them to it.
func printFeed(ctx context.Context, seen map[string]bool) error {
	videos, err := client.Feed(ctx)
	if err != nil {
		return err
	}

	var fresh []*hub.Video
	for _, video := range videos {
		if !seen[video.Key()] {
			seen[video.Key()] = true
			fresh = append(fresh, video)
		}
	}
	if len(fresh) == 0 {
		slog.Debug("no new videos in feed")
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"Key", "Title", "Duration"})
	for _, video := range fresh {
		title, err := video.Title(ctx)
		titleCell := field("title", title, err, plain)
		duration, err := video.Duration(ctx)
		t.AppendRow(table.Row{video.Key(), titleCell, field("duration", duration, err, clock)})
	}
	t.Render()
	return nil
}
