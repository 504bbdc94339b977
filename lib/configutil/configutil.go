// Package configutil reads json5 config files with an optional local
// override next to them.
package configutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localPath returns the override of path, "dir/name.json5" becomes
// "dir/name.local.json5".
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// decodeFile decodes path into out. A missing or empty file leaves out
// untouched and reports false.
func decodeFile[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(contents) == 0) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json5.Unmarshal(contents, out); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads the file at path and merges "<name>.local.<ext>" over
// it, fields set in the local file win. os.ErrNotExist is returned when
// neither exists.
func ReadConfig[T any](path string) (T, error) {
	var cfg T
	found, err := decodeFile(path, &cfg)
	if err != nil {
		return cfg, err
	}

	override := localPath(path)
	var local T
	foundLocal, err := decodeFile(override, &local)
	if err != nil {
		return cfg, err
	}
	if !found && !foundLocal {
		return cfg, os.ErrNotExist
	}
	if foundLocal {
		if err := mergo.Merge(&cfg, local, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return cfg, err
		}
		slog.Debug("merged local config overrides", "path", override)
	}
	return cfg, nil
}

// ReadRecursively looks for name in the cwd, then in each parent up to the
// filesystem root, and reads the first one found with ReadConfig.
func ReadRecursively[T any](name string) (T, error) {
	var zero T
	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		cfg, err := ReadConfig[T](filepath.Join(dir, name))
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}

// WithDefaults fills every zero field of cfg with the corresponding field of
// defaults. A non nil pointer counts as set even when it points to a zero
// value.
func WithDefaults[T any](cfg T, defaults T) (T, error) {
	err := mergo.Merge(&cfg, defaults, mergo.WithoutDereference)
	return cfg, err
}
