package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediahub/internal/media"

	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	require.Equal(t, "0:07", clock(7*time.Second))
	require.Equal(t, "12:05", clock(12*time.Minute+5*time.Second))
	require.Equal(t, "1:02:03", clock(time.Hour+2*time.Minute+3*time.Second))
}

func TestFormatQualities(t *testing.T) {
	require.Equal(t, "240p, 720p, 1080p", formatQualities(media.Definitions{
		1080: "a", 240: "b", 720: "c",
	}))
	require.Equal(t, "-", formatQualities(nil))
}

func TestLoadConfig(t *testing.T) {
	t.Cleanup(func() {
		configPath, host, language, dumpDir, scrapeFirst = "", "", "", "", false
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json5")
	err := os.WriteFile(path, []byte(`{
		// comments are fine
		transport: { host: "https://www.example.com/", language: "fr" },
		media: { workers: 4 },
	}`), 0644)
	require.Nil(t, err)

	configPath = path
	c, err := loadConfig()
	require.Nil(t, err)
	require.Equal(t, "https://www.example.com/", c.Transport.Host)
	require.Equal(t, "fr", c.Transport.Language)
	require.Equal(t, 4, c.Media.Workers)
	require.Equal(t, media.DefaultOptions().Attempts, c.Media.Attempts)

	host = "https://www.other.com/"
	language = "de"
	scrapeFirst = true
	c, err = loadConfig()
	require.Nil(t, err)
	require.Equal(t, "https://www.other.com/", c.Transport.Host)
	require.Equal(t, "de", c.Transport.Language)
	require.True(t, c.ScrapeFirst)
}
