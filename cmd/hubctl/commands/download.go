package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediahub/internal/media"
	"mediahub/lib/hub"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"
)

var (
	downloadQuality    string
	downloadOut        string
	downloadSequential bool
	downloadWorkers    int
	downloadThumbnail  bool
)

func init() {
	flags := downloadCmd.Flags()
	flags.StringVarP(&downloadQuality, "quality", "q", "best", "best, worst, median or a level like 720p.")
	flags.StringVarP(&downloadOut, "out", "o", ".", "Destination file, or a directory receiving <key>.mp4.")
	flags.BoolVar(&downloadSequential, "sequential", false, "Fetch segments one at a time with retries.")
	flags.IntVarP(&downloadWorkers, "workers", "w", 0, "Number of concurrent segment fetches, defaults to the config.")
	flags.BoolVar(&downloadThumbnail, "thumbnail", false, "Also save the thumbnail next to the video.")
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <url or key>...",
	Short: "Downloads videos.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quality, err := media.ParseQuality(downloadQuality)
		if err != nil {
			return err
		}
		opts := cfg.Media
		if downloadWorkers > 0 {
			opts.Workers = downloadWorkers
		}
		strategy := media.NewStrategy(opts, downloadSequential, tel)

		pw := progress.NewWriter()
		pw.SetOutputWriter(os.Stderr)
		pw.SetAutoStop(false)
		pw.SetTrackerLength(30)
		pw.SetUpdateFrequency(200 * time.Millisecond)
		pw.Style().Visibility.ETA = true
		go pw.Render()
		defer pw.Stop()

		var failed, incomplete []string
		for _, ref := range args {
			video, err := client.Video(ref)
			if err != nil {
				return err
			}
			path, err := downloadVideo(cmd, pw, video, quality, strategy)
			var gaps *media.IncompleteArtifact
			if errors.As(err, &gaps) {
				slog.Warn("segments missing", "video", video.Key(), "path", path, "missing", gaps.Failed, "total", gaps.Total)
				incomplete = append(incomplete, video.Key())
			} else if err != nil {
				slog.Error("download failed", "video", video.Key(), "err", err)
				failed = append(failed, video.Key())
				continue
			}
			if info, err := os.Stat(path); err == nil {
				slog.Info("downloaded", "video", video.Key(), "path", path, "size", humanize.Bytes(uint64(info.Size())))
			}
			if downloadThumbnail {
				saveThumbnail(cmd, video, path)
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d downloads failed: %v", len(failed), len(args), failed)
		}
		if len(incomplete) > 0 {
			return fmt.Errorf("%d of %d downloads are missing segments: %v", len(incomplete), len(args), incomplete)
		}
		return nil
	},
}

func downloadVideo(cmd *cobra.Command, pw progress.Writer, video *hub.Video, quality media.Quality, strategy media.Strategy) (string, error) {
	tracker := &progress.Tracker{
		Message: fmt.Sprintf("%s (%s)", video.Key(), quality),
		Units:   progress.UnitsDefault,
	}
	pw.AppendTracker(tracker)

	path, err := video.Download(cmd.Context(), downloadOut, quality, strategy, func(done, total int) {
		tracker.UpdateTotal(int64(total))
		tracker.SetValue(int64(done))
	})
	if err != nil {
		tracker.MarkAsErrored()
		return path, err
	}
	tracker.MarkAsDone()
	return path, nil
}

func saveThumbnail(cmd *cobra.Command, video *hub.Video, videoPath string) {
	image, err := video.Thumbnail(cmd.Context())
	if err != nil {
		slog.Warn("no thumbnail", "video", video.Key(), "err", err)
		return
	}
	dest := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + image.Ext()
	_, err = media.DownloadImage(cmd.Context(), client.Transport(), image, dest, tel)
	if err != nil {
		slog.Warn("failed to save thumbnail", "video", video.Key(), "err", err)
	}
}
