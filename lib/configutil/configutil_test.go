package configutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/titanous/json5"
)

type testConfig struct {
	Language string `json:"language"`
	Workers  int    `json:"workers"`
	Bypass   bool   `json:"bypass"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.True(t, os.IsNotExist(err))

	err = os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// comments are allowed
		language: "fr",
		workers: 20,
	}`), 0600)
	require.Nil(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.Nil(t, err)
	require.Equal(t, testConfig{Language: "fr", Workers: 20}, cfg)

	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{workers: 4, bypass: true}`), 0600)
	require.Nil(t, err)

	cfg, err = ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.Nil(t, err)
	require.Equal(t, testConfig{Language: "fr", Workers: 4, Bypass: true}, cfg)
}

func TestWithDefaults(t *testing.T) {
	cfg, err := WithDefaults(
		testConfig{Workers: 3},
		testConfig{Language: "en", Workers: 20},
	)
	require.Nil(t, err)
	require.Equal(t, testConfig{Language: "en", Workers: 3}, cfg)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "dir/mediahub.local.json5", localPath("dir/mediahub.json5"))
	require.Equal(t, "noext.local", localPath("noext"))
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.Nil(t, os.MkdirAll(nested, 0777))
	err := os.WriteFile(filepath.Join(root, "walked.json5"), []byte(`{language: "jp"}`), 0600)
	require.Nil(t, err)

	cwd, err := os.Getwd()
	require.Nil(t, err)
	require.Nil(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(cwd) })

	cfg, err := ReadRecursively[testConfig]("walked.json5")
	require.Nil(t, err)
	require.Equal(t, "jp", cfg.Language)

	_, err = ReadRecursively[testConfig]("never-written-anywhere.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}

type restartConfig struct {
	Restarts *int  `json:"restarts"`
	Label    string `json:"label"`
}

func TestWithDefaultsKeepsExplicitZero(t *testing.T) {
	zero, three := 0, 3
	cfg, err := WithDefaults(restartConfig{Restarts: &zero}, restartConfig{Restarts: &three, Label: "x"})
	require.Nil(t, err)
	require.Equal(t, 0, *cfg.Restarts)
	require.Equal(t, "x", cfg.Label)

	cfg, err = WithDefaults(restartConfig{}, restartConfig{Restarts: &three})
	require.Nil(t, err)
	require.Equal(t, 3, *cfg.Restarts)
}

func TestReadConfigLocalZeroOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "restarts.json5"), []byte(`{restarts: 5, label: "base"}`), 0600)
	require.Nil(t, err)
	err = os.WriteFile(filepath.Join(dir, "restarts.local.json5"), []byte(`{restarts: 0}`), 0600)
	require.Nil(t, err)

	cfg, err := ReadConfig[restartConfig](filepath.Join(dir, "restarts.json5"))
	require.Nil(t, err)
	require.Equal(t, 0, *cfg.Restarts)
	require.Equal(t, "base", cfg.Label)
}

func TestDuration(t *testing.T) {
	cases := []struct {
		input    string
		expected time.Duration
		fails    bool
	}{
		{input: `{delay: "400ms"}`, expected: 400 * time.Millisecond},
		{input: `{delay: "1m30s"}`, expected: 90 * time.Second},
		{input: `{delay: 2000000}`, expected: 2 * time.Millisecond},
		{input: `{delay: null}`, expected: 0},
		{input: `{}`, expected: 0},
		{input: `{delay: "soon"}`, fails: true},
		{input: `{delay: true}`, fails: true},
	}

	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			var out struct {
				Delay Duration `json:"delay"`
			}
			err := json5.Unmarshal([]byte(c.input), &out)
			if c.fails {
				require.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			require.Equal(t, c.expected, out.Delay.Std())
		})
	}
}
