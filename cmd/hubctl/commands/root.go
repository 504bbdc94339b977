package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mediahub/internal/components/telemetry"
	"mediahub/lib/hub"
	otelsetup "mediahub/lib/telemetry"

	"github.com/spf13/cobra"
)

const configName = "mediahub.json5"

var (
	configPath  string
	host        string
	language    string
	dumpDir     string
	verbose     bool
	scrapeFirst bool
)

// set up by the root command before any subcommand runs
var (
	cfg       hub.Config
	tel       telemetry.API
	client    *hub.Client
	providers otelsetup.Telemetry
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to the config file, defaults to the closest "+configName+".")
	flags.StringVar(&host, "host", "", "Root url of the platform, overrides the config.")
	flags.StringVar(&language, "language", "", "Language of the host to use (ex. en, fr).")
	flags.StringVar(&dumpDir, "dump", "", "Write every http exchange into this directory.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print debug logs.")
	flags.BoolVar(&scrapeFirst, "scrape-first", false, "Read fields from video pages before the structured endpoint.")
}

var rootCmd = &cobra.Command{
	Use:           "hubctl",
	Short:         "hubctl browses, searches and downloads from a video platform.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		otelsetup.InitSlog(os.Stderr, verbose)

		var err error
		providers, err = otelsetup.SetupFromEnv(cmd.Context(), "hubctl")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
		otelsetup.InstrumentPerfStats(cmd.Context(), 10*time.Second)
		tel = telemetry.SlogAPI{}

		cfg, err = loadConfig()
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Transport.Timeout*2)
		defer cancel()
		client, err = hub.New(ctx, cfg, tel)
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		if account := client.Account(); account != nil {
			slog.Info("logged in", "account", account.Name, "premium", account.Premium)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if client != nil {
			err := client.Close()
			if err != nil {
				slog.Warn("failed to close client", "err", err)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := providers.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

// loadConfig reads the config file, a missing file is only an error when
// the host is not given on the command line.
func loadConfig() (hub.Config, error) {
	var c hub.Config
	var err error
	if configPath != "" {
		c, err = hub.ReadConfigFile(configPath)
	} else {
		c, err = hub.ReadConfig(configName)
		if errors.Is(err, os.ErrNotExist) && host != "" {
			c, err = hub.DefaultConfig(), nil
		}
	}
	if err != nil {
		return hub.Config{}, err
	}

	if host != "" {
		c.Transport.Host = host
	}
	if language != "" {
		c.Transport.Language = language
	}
	if dumpDir != "" {
		c.Transport.DumpDir = dumpDir
	}
	if scrapeFirst {
		c.ScrapeFirst = true
	}
	return hub.Complete(c)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
