package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/avatar/pkg/artifact"
	"github.com/haivivi/avatar/pkg/audio/normalize"
	"github.com/haivivi/avatar/pkg/cli"
)

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Normalize, validate and inspect audio files",
	Long: `Audio commands.

Conversion decodes WAV or MP3 input, mixes it to the target channel count,
resamples it and writes 16-bit PCM WAV. The target defaults to the
audio.sample_rate and audio.channels config values (16 kHz mono).`,
}

// ---------------------------------------------------------------------------
// convert
// ---------------------------------------------------------------------------

var (
	convertRate       int
	convertChannels   int
	convertArchiveKey string
)

type convertResult struct {
	Output   string            `json:"output" yaml:"output"`
	Report   *normalize.Report `json:"report" yaml:"report"`
	Archived string            `json:"archived,omitempty" yaml:"archived,omitempty"`
}

func (r convertResult) Headers() []string {
	return []string{"OUTPUT", "RATE", "CH", "DURATION", "SIZE", "RATIO"}
}

func (r convertResult) Rows() [][]string {
	return [][]string{reportRow(r.Output, r.Report)}
}

func reportRow(output string, rep *normalize.Report) []string {
	return []string{
		output,
		fmt.Sprintf("%d → %d", rep.OriginalSampleRate, rep.ConvertedSampleRate),
		fmt.Sprintf("%d → %d", rep.OriginalChannels, rep.ConvertedChannels),
		cli.FormatSeconds(rep.ConvertedDuration),
		cli.FormatBytes(rep.OutputSize),
		fmt.Sprintf("%.2f", rep.SizeRatio),
	}
}

var audioConvertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert an audio file to the canonical WAV format",
	Example: `  avatar audio convert in.mp3 out.wav
  avatar audio convert in.wav out.wav --rate 24000
  avatar audio convert in.wav audio/raw/s1-1.wav --archive-key sessions/s1/1-user.wav`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		n, err := newNormalizer(cfg)
		if err != nil {
			return err
		}

		target := n.Target()
		if convertRate > 0 {
			target.SampleRate = convertRate
		}
		if convertChannels > 0 {
			target.Channels = convertChannels
		}

		var store artifact.Store
		if convertArchiveKey != "" {
			if store, err = newArchive(cmd.Context(), cfg); err != nil {
				return err
			}
			if store == nil {
				return errors.New("--archive-key needs archive.kind to be configured")
			}
		}

		out, report, err := n.Convert(args[0], args[1], target)
		if err != nil {
			return err
		}
		res := convertResult{Output: out, Report: report}

		if store != nil {
			size, err := artifact.Archive(cmd.Context(), store, out, convertArchiveKey)
			if err != nil {
				return err
			}
			getLogger().Info("audio.archived", "key", convertArchiveKey, "size", size)
			res.Archived = convertArchiveKey
		}
		return printResult(res)
	},
}

// ---------------------------------------------------------------------------
// convert-batch
// ---------------------------------------------------------------------------

type batchItem struct {
	Input  string            `json:"input" yaml:"input"`
	Output string            `json:"output,omitempty" yaml:"output,omitempty"`
	Report *normalize.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string            `json:"error,omitempty" yaml:"error,omitempty"`
}

type batchResult []batchItem

func (b batchResult) Headers() []string {
	return []string{"INPUT", "OUTPUT", "DURATION", "SIZE", "ERROR"}
}

func (b batchResult) Rows() [][]string {
	rows := make([][]string, 0, len(b))
	for _, it := range b {
		if it.Report == nil {
			rows = append(rows, []string{it.Input, "-", "-", "-", it.Error})
			continue
		}
		rows = append(rows, []string{
			it.Input,
			it.Output,
			cli.FormatSeconds(it.Report.ConvertedDuration),
			cli.FormatBytes(it.Report.OutputSize),
			"",
		})
	}
	return rows
}

// batchOutput maps in.mp3 to <dir>/in.wav.
func batchOutput(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+normalize.Extension)
}

var audioConvertBatchCmd = &cobra.Command{
	Use:   "convert-batch <output-dir> <input>...",
	Short: "Convert many files concurrently",
	Long: `Convert every input into <output-dir>, keeping base names and using
the .wav extension. At most audio.workers conversions run at once
(0 means one per CPU). All inputs are attempted; the command fails if
any conversion failed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		n, err := newNormalizer(cfg)
		if err != nil {
			return err
		}

		outDir, inputs := args[0], args[1:]
		jobs := make([]normalize.Job, len(inputs))
		for i, in := range inputs {
			jobs[i] = normalize.Job{Input: in, Output: batchOutput(outDir, in)}
		}

		pool := normalize.NewPool(n, cfg.Audio.Workers)
		getLogger().Debug("audio.batch.start", "jobs", len(jobs), "workers", pool.Size())
		results, _ := pool.ConvertAll(cmd.Context(), jobs)

		out := make(batchResult, len(results))
		failed := 0
		for i, r := range results {
			out[i] = batchItem{Input: jobs[i].Input, Output: r.Output, Report: r.Report}
			if r.Err != nil {
				out[i].Error = r.Err.Error()
				failed++
			}
		}
		if err := printResult(out); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d conversions failed", failed, len(jobs))
		}
		return nil
	},
}

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

type validation struct {
	Path  string `json:"path" yaml:"path"`
	Valid bool   `json:"valid" yaml:"valid"`
}

type validationResult []validation

func (v validationResult) Headers() []string { return []string{"PATH", "VALID"} }

func (v validationResult) Rows() [][]string {
	rows := make([][]string, len(v))
	for i, it := range v {
		mark := "✓"
		if !it.Valid {
			mark = "✗"
		}
		rows[i] = []string{it.Path, mark}
	}
	return rows
}

var audioValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check that files are in the canonical format",
	Long: `Check that each file is a .wav file in the configured target format.
The command fails if any file does not pass.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		n, err := newNormalizer(cfg)
		if err != nil {
			return err
		}

		res := make(validationResult, len(args))
		invalid := 0
		for i, path := range args {
			res[i] = validation{Path: path, Valid: n.Validate(path)}
			if !res[i].Valid {
				invalid++
			}
		}
		if err := printResult(res); err != nil {
			return err
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d files are not %s", invalid, len(args), n.Target())
		}
		return nil
	},
}

// ---------------------------------------------------------------------------
// info
// ---------------------------------------------------------------------------

type infoResult normalize.Info

func (r infoResult) Headers() []string {
	return []string{"PATH", "CONTAINER", "RATE", "CH", "BITS", "DURATION", "SIZE"}
}

func (r infoResult) Rows() [][]string {
	return [][]string{{
		r.Path,
		r.Container,
		fmt.Sprintf("%d", r.SampleRate),
		fmt.Sprintf("%d", r.Channels),
		fmt.Sprintf("%d", r.BitDepth),
		cli.FormatSeconds(r.Duration),
		cli.FormatBytes(r.Size),
	}}
}

var audioInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show the format of an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := normalize.Probe(args[0])
		if err != nil {
			return err
		}
		return printResult((*infoResult)(info))
	},
}

func init() {
	audioConvertCmd.Flags().IntVar(&convertRate, "rate", 0, "target sample rate (default from config)")
	audioConvertCmd.Flags().IntVar(&convertChannels, "channels", 0, "target channel count (default from config)")
	audioConvertCmd.Flags().StringVar(&convertArchiveKey, "archive-key", "", "also copy the output to the configured archive under this key")

	audioCmd.AddCommand(audioConvertCmd)
	audioCmd.AddCommand(audioConvertBatchCmd)
	audioCmd.AddCommand(audioValidateCmd)
	audioCmd.AddCommand(audioInfoCmd)
	rootCmd.AddCommand(audioCmd)
}
