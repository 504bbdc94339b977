package commands

import (
	"errors"
	"slices"

	"mediahub/lib/hub"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	userVideos  int
	userUploads bool
)

func init() {
	userCmd.Flags().IntVarP(&userVideos, "videos", "n", 0, "Also list this many of the user's videos.")
	userCmd.Flags().BoolVar(&userUploads, "uploads", false, "List the videos the user uploaded rather than appears in.")
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:   "user <url or name>",
	Short: "Prints a user page, a bare name is looked up among every kind of user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := client.User(ctx, args[0])
		var notFound *hub.UserNotFound
		if errors.As(err, &notFound) {
			user, err = client.FindUser(ctx, args[0])
		}
		if err != nil {
			return err
		}

		t := newTable()
		t.SetTitle(user.URL())
		t.AppendRow(table.Row{"Name", user.Name()})
		t.AppendRow(table.Row{"Type", user.Type()})
		bio, err := user.Bio(ctx)
		t.AppendRow(table.Row{"Bio", field("bio", bio, err, plain)})
		info, err := user.Info(ctx)
		if err == nil {
			keys := make([]string, 0, len(info))
			for k := range info {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				t.AppendRow(table.Row{k, info[k]})
			}
		}
		t.Render()

		if userVideos <= 0 {
			return nil
		}
		listing := user.Videos
		if userUploads {
			listing = user.Uploads
		}
		videos, err := listing(ctx)
		if err != nil {
			return err
		}
		sample, err := videos.Sample(ctx, userVideos, nil)
		if err != nil {
			return err
		}
		printVideoList(cmd, sample)
		return nil
	},
}
