package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/avatar/cmd/avatar/internal/config"
	"github.com/haivivi/avatar/pkg/artifact"
	"github.com/haivivi/avatar/pkg/audio/normalize"
	"github.com/haivivi/avatar/pkg/cli"
	"github.com/haivivi/avatar/pkg/convdb"
)

var (
	// Global flags
	configFile   string
	outputFormat string
	outputFile   string
	verbose      bool

	// Loaded by initConfig before every command runs.
	globalConfig  *config.Config
	configLoadErr error
	logger        *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Audio and conversation data plane for the avatar assistant",
	Long: `avatar - normalize audio, record conversation turns and manage voice profiles.

Configuration is read from ~/.avatar/config.yaml unless --config is given.
AVATAR_* environment variables override file values.

Examples:
  # Normalize a recording to 16 kHz mono
  avatar audio convert recording.mp3 audio/raw/s1-1.wav

  # Record a turn and read the session back
  avatar turn save --session s1 --turn 1 --user-audio audio/raw/s1-1.wav --ai-text "Hi!"
  avatar turn history s1 -o table

  # Register a voice profile from a reference sample
  avatar voice add alice alice.mp3`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.avatar/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml, json, table, raw")
	rootCmd.PersistentFlags().StringVar(&outputFile, "output-file", "", "write results to a file instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

func initConfig() {
	globalConfig, configLoadErr = nil, nil

	path := configFile
	if path == "" {
		if p, err := cli.NewPaths(); err == nil {
			path = p.ConfigFile()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		// Reported by GetConfig so that commands like 'avatar version'
		// still work with a broken config.
		configLoadErr = err
		logger = newLogger(os.Stderr, config.Default().Log)
		return
	}
	globalConfig = cfg
	logger = newLogger(os.Stderr, cfg.Log)
}

func newLogger(w io.Writer, lc config.Log) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// GetConfig returns the loaded configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		return nil, fmt.Errorf("config not loaded")
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

func getLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// printResult writes v in the format chosen with -o, to stdout or
// --output-file.
func printResult(v any) error {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.Output(v, cli.OutputOptions{Format: format, File: outputFile})
}

func newNormalizer(cfg *config.Config) (*normalize.Normalizer, error) {
	return normalize.New(normalize.Options{Target: cfg.Target(), Logger: getLogger()})
}

// newArchive returns the configured archive, or nil when archiving is off.
func newArchive(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	a := cfg.Archive
	if !a.Enabled() {
		return nil, nil
	}
	switch a.Kind {
	case config.ArchiveLocal:
		l, err := artifact.NewLocal(a.Dir)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.ArchiveS3:
		client, err := artifact.NewS3Client(ctx, artifact.S3Options{Region: a.Region, Endpoint: a.Endpoint})
		if err != nil {
			return nil, err
		}
		return artifact.NewS3(client, a.Bucket, a.Prefix), nil
	default:
		return nil, nil
	}
}

// withStore creates the data directories, migrates the configured database
// and runs fn against it.
func withStore(ctx context.Context, fn func(*convdb.Store) error) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	if err := convdb.Migrate(ctx, cfg.Database.Path); err != nil {
		return err
	}
	return convdb.With(ctx, cfg.Database.Path, fn, convdb.WithLogger(getLogger()))
}
