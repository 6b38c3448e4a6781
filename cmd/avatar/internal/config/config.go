// Package config loads the avatar CLI configuration.
//
// The configuration is a single YAML file, by default ~/.avatar/config.yaml:
//
//	audio:
//	  sample_rate: 16000
//	  channels: 1
//	  workers: 0
//	  dirs: {raw: audio/raw, profiles: audio/profiles, tts_fast: audio/tts_fast, tts_hq: audio/tts_hq}
//	database:
//	  path: app.db
//	archive:
//	  kind: s3
//	  bucket: avatar-artifacts
//	  prefix: prod
//	log:
//	  level: info
//	  format: text
//
// A missing file yields the defaults. AVATAR_* environment variables
// override file values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/avatar/pkg/audio/pcm"
)

// Environment variables consulted by Load.
const (
	EnvDBPath     = "AVATAR_DB_PATH"
	EnvSampleRate = "AVATAR_SAMPLE_RATE"
	EnvChannels   = "AVATAR_CHANNELS"
	EnvWorkers    = "AVATAR_WORKERS"
	EnvLogLevel   = "AVATAR_LOG_LEVEL"
	EnvAudioDir   = "AVATAR_AUDIO_DIR"
)

// Archive kinds.
const (
	ArchiveNone  = ""
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// Config is the root configuration.
type Config struct {
	Audio    Audio    `yaml:"audio" json:"audio"`
	Database Database `yaml:"database" json:"database"`
	Archive  Archive  `yaml:"archive" json:"archive"`
	Log      Log      `yaml:"log" json:"log"`

	// File is the path Load read, empty when defaults were used.
	File string `yaml:"-" json:"file,omitempty"`
}

// Audio configures normalization.
type Audio struct {
	SampleRate int  `yaml:"sample_rate" json:"sample_rate"`
	Channels   int  `yaml:"channels" json:"channels"`
	Workers    int  `yaml:"workers" json:"workers"`
	Dirs       Dirs `yaml:"dirs" json:"dirs"`
}

// Dirs are where audio artifacts are written, one directory per kind.
type Dirs struct {
	Raw      string `yaml:"raw" json:"raw"`
	Profiles string `yaml:"profiles" json:"profiles"`
	TTSFast  string `yaml:"tts_fast" json:"tts_fast"`
	TTSHQ    string `yaml:"tts_hq" json:"tts_hq"`
}

// All returns every configured directory.
func (d Dirs) All() []string {
	return []string{d.Raw, d.Profiles, d.TTSFast, d.TTSHQ}
}

// Database configures the SQLite store.
type Database struct {
	Path string `yaml:"path" json:"path"`
}

// Archive configures where normalized artifacts are copied after conversion.
type Archive struct {
	Kind     string `yaml:"kind" json:"kind"`
	Dir      string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Bucket   string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// Enabled reports whether archiving is configured.
func (a Archive) Enabled() bool {
	return a.Kind != ArchiveNone
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// SlogLevel maps Level onto slog. Validate rejects unknown names.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Audio: Audio{
			SampleRate: pcm.L16Mono16K.SampleRate,
			Channels:   pcm.L16Mono16K.Channels,
			Dirs:       dirsUnder("audio"),
		},
		Database: Database{Path: "app.db"},
		Log:      Log{Level: "info", Format: "text"},
	}
}

func dirsUnder(base string) Dirs {
	return Dirs{
		Raw:      filepath.Join(base, "raw"),
		Profiles: filepath.Join(base, "profiles"),
		TTSFast:  filepath.Join(base, "tts_fast"),
		TTSHQ:    filepath.Join(base, "tts_hq"),
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg.File = path
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup(EnvAudioDir); ok && v != "" {
		c.Audio.Dirs = dirsUnder(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	ints := []struct {
		env string
		dst *int
	}{
		{EnvSampleRate, &c.Audio.SampleRate},
		{EnvChannels, &c.Audio.Channels},
		{EnvWorkers, &c.Audio.Workers},
	}
	for _, e := range ints {
		v, ok := lookup(e.env)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", e.env, v)
		}
		*e.dst = n
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.Channels < 1 {
		errs = append(errs, fmt.Errorf("audio.channels must be at least 1, got %d", c.Audio.Channels))
	}
	if c.Audio.Workers < 0 {
		errs = append(errs, fmt.Errorf("audio.workers must not be negative, got %d", c.Audio.Workers))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	switch c.Archive.Kind {
	case ArchiveNone:
	case ArchiveLocal:
		if c.Archive.Dir == "" {
			errs = append(errs, errors.New("archive.dir is required for local archives"))
		}
	case ArchiveS3:
		if c.Archive.Bucket == "" {
			errs = append(errs, errors.New("archive.bucket is required for s3 archives"))
		}
	default:
		errs = append(errs, fmt.Errorf("archive.kind %q is not local or s3", c.Archive.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Target returns the normalization target format.
func (c *Config) Target() pcm.Format {
	return pcm.Format{SampleRate: c.Audio.SampleRate, Channels: c.Audio.Channels, Depth: 16}
}

// EnsureDirs creates the audio directories and the database's parent.
func (c *Config) EnsureDirs() error {
	dirs := append(c.Audio.Dirs.All(), filepath.Dir(c.Database.Path))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}
