// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package settings provides the process-wide runtime settings,
// loaded from a TOML or YAML file.
package settings

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"cogentcore.org/core/base/errors"
	"github.com/jinzhu/copier"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable naming the settings file.
const EnvVar = "CORTEX_SETTINGS"

// DefaultFile is the settings file used when [EnvVar] is not set.
const DefaultFile = "~/.config/cortex/settings.toml"

// Settings are the runtime settings.
type Settings struct {
	Render RenderSettings `toml:"render" yaml:"render"`
	Scene  SceneSettings  `toml:"scene" yaml:"scene"`
	Log    LogSettings    `toml:"log" yaml:"log"`
}

// RenderSettings are the defaults for renderer back ends.
type RenderSettings struct {

	// AutomaticInstancing is the default for back ends that
	// deduplicate geometry by hash.
	AutomaticInstancing bool `toml:"automaticInstancing" yaml:"automaticInstancing"`

	// ProceduralReentrant is the default for whether procedurals
	// may be expanded on other goroutines.
	ProceduralReentrant bool `toml:"proceduralReentrant" yaml:"proceduralReentrant"`

	// ProceduralThreads is the maximum number of goroutines used
	// to expand procedurals.
	ProceduralThreads int `toml:"proceduralThreads" yaml:"proceduralThreads"`
}

// SceneSettings are the defaults for scene files.
type SceneSettings struct {

	// MaxSharedScenes is the number of scenes kept open by the
	// shared scene registry.
	MaxSharedScenes int `toml:"maxSharedScenes" yaml:"maxSharedScenes"`

	// ReadThreads is the default number of goroutines for parallel reads.
	ReadThreads int `toml:"readThreads" yaml:"readThreads"`

	// WatchSharedFiles makes the shared registry drop scenes whose
	// files change on disk.
	WatchSharedFiles bool `toml:"watchSharedFiles" yaml:"watchSharedFiles"`

	// SearchPaths are directories searched for relative scene files.
	SearchPaths []string `toml:"searchPaths" yaml:"searchPaths"`
}

// LogSettings configure logging.
type LogSettings struct {

	// Level is the minimum level logged: debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`
}

// Default returns the default settings.
func Default() *Settings {
	return &Settings{
		Render: RenderSettings{
			AutomaticInstancing: true,
			ProceduralReentrant: true,
			ProceduralThreads:   runtime.NumCPU(),
		},
		Scene: SceneSettings{
			MaxSharedScenes: 200,
			ReadThreads:     runtime.NumCPU(),
		},
		Log: LogSettings{Level: "info"},
	}
}

// Clone returns a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	n := &Settings{}
	errors.Log(copier.CopyWithOption(n, s, copier.Option{DeepCopy: true}))
	return n
}

// Load reads settings from the given file, starting from the
// defaults so that missing keys keep their default values. The
// format is chosen by extension.
func Load(path string) (*Settings, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields().Decode(s)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(s)
	default:
		return nil, fmt.Errorf("settings: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("settings: %s: %w", path, err)
	}
	return s, nil
}

// Save writes the settings to the given file, in the format chosen
// by its extension.
func Save(path string, s *Settings) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	var b []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		b, err = toml.Marshal(s)
	case ".yaml", ".yml":
		b, err = yaml.Marshal(s)
	default:
		return fmt.Errorf("settings: unsupported file type %q", ext)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

var (
	loadOnce sync.Once
	current  atomic.Pointer[Settings]
)

// Get returns the process-wide settings. On first use they are loaded
// from the file named by [EnvVar], or [DefaultFile] if it exists.
// The returned value must not be modified; use [Set] instead.
func Get() *Settings {
	loadOnce.Do(func() {
		if current.Load() == nil {
			current.Store(loadDefault())
		}
	})
	return current.Load()
}

// Set replaces the process-wide settings.
func Set(s *Settings) {
	loadOnce.Do(func() {})
	current.Store(s)
}

func loadDefault() *Settings {
	path := os.Getenv(EnvVar)
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	s, err := Load(path)
	switch {
	case err == nil:
		return s
	case !explicit && errors.Is(err, os.ErrNotExist):
	default:
		slog.Warn("settings: using defaults", "err", err)
	}
	return Default()
}
