package normalize

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/haivivi/avatar/pkg/audio/codec/wav"
	"github.com/haivivi/avatar/pkg/audio/pcm"
	"github.com/haivivi/avatar/pkg/audio/resampler"
)

// Extension is the file extension of canonical artifacts.
const Extension = ".wav"

// Canonical is the format Validate checks against.
var Canonical = pcm.L16Mono16K

// Options configures a Normalizer.
type Options struct {
	// Target is the output format used by ConvertDefault and
	// Normalizer.Validate. A zero value means Canonical; a zero Depth
	// means 16-bit.
	Target pcm.Format

	// Logger receives conversion events. Nil means slog.Default().
	Logger *slog.Logger
}

// Normalizer converts audio files into a fixed target format.
//
// A Normalizer holds no mutable state and is safe for concurrent use as long
// as concurrent conversions write to different output paths.
type Normalizer struct {
	target pcm.Format
	log    *slog.Logger
}

// New returns a Normalizer for opts. It fails when the target format is not
// a usable 16-bit PCM format.
func New(opts Options) (*Normalizer, error) {
	target := opts.Target
	if target == (pcm.Format{}) {
		target = Canonical
	}
	target, err := checkTarget(target)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{target: target, log: log}, nil
}

// Target returns the configured output format.
func (n *Normalizer) Target() pcm.Format {
	return n.target
}

// ConvertDefault converts input to the configured target format.
func (n *Normalizer) ConvertDefault(input, output string) (string, *Report, error) {
	return n.Convert(input, output, n.target)
}

// Convert decodes input, mixes it to target.Channels, resamples it to
// target.SampleRate and writes a 16-bit PCM WAVE file at output. It returns
// output and a report of the conversion.
//
// On failure no file is left at output. Parent directories of output may
// have been created.
func (n *Normalizer) Convert(input, output string, target pcm.Format) (string, *Report, error) {
	n.log.Info("audio.convert.start",
		"input", input,
		"output", output,
		"sample_rate", target.SampleRate,
		"channels", target.Channels,
	)

	report, err := n.convert(input, output, target)
	if err != nil {
		n.log.Error("audio.convert.failed", "input", input, "output", output, "error", err)
		return "", nil, err
	}

	n.log.Info("audio.convert.complete",
		"output", output,
		"original_sample_rate", report.OriginalSampleRate,
		"original_channels", report.OriginalChannels,
		"original_duration", report.OriginalDuration,
		"converted_duration", report.ConvertedDuration,
		"output_size", report.OutputSize,
		"size_ratio", report.SizeRatio,
	)
	return output, report, nil
}

func (n *Normalizer) convert(input, output string, target pcm.Format) (*Report, error) {
	if _, err := os.Stat(input); err != nil {
		return nil, &ConversionError{Op: "stat", Path: input, Err: err}
	}

	target, err := checkTarget(target)
	if err != nil {
		return nil, &ConversionError{Op: "convert", Path: input, Err: err}
	}

	src, err := decodeFile(input)
	if err != nil {
		return nil, &ConversionError{Op: "decode", Path: input, Err: err}
	}

	buf := src.buf.Remix(target.Channels)
	buf, err = resampler.Resample(buf, target.SampleRate)
	if err != nil {
		return nil, &ConversionError{Op: "resample", Path: input, Err: err}
	}

	size, err := writeAtomic(output, buf)
	if err != nil {
		return nil, &ConversionError{Op: "encode", Path: output, Err: err}
	}

	ratio := 0.0
	if size > 0 {
		ratio = round2(float64(src.size) / float64(size))
	}
	return &Report{
		OriginalSampleRate:  src.buf.SampleRate,
		OriginalChannels:    src.buf.Channels,
		OriginalDuration:    round2(src.buf.Seconds()),
		ConvertedSampleRate: buf.SampleRate,
		ConvertedChannels:   buf.Channels,
		ConvertedDuration:   round2(buf.Seconds()),
		OutputSize:          size,
		SizeRatio:           ratio,
		OriginalFrames:      src.buf.Frames(),
		ConvertedFrames:     buf.Frames(),
	}, nil
}

// writeAtomic encodes buf into a hidden sibling of path and renames it into
// place once the header is complete.
func writeAtomic(path string, buf *pcm.Buffer) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	if err := wav.Encode(f, buf); err != nil {
		f.Close()
		os.Remove(tmp)
		return 0, err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	fi, err := os.Stat(tmp)
	if err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return fi.Size(), nil
}

// Validate reports whether path is a canonical artifact for the configured
// target: decodable, matching rate and channel count, with a .wav
// extension. It never fails; problems are logged and yield false.
func (n *Normalizer) Validate(path string) bool {
	return validate(n.log, path, n.target)
}

// Validate reports whether path is a 16 kHz mono WAVE file. Decode errors
// yield false.
func Validate(path string) bool {
	return validate(slog.Default(), path, Canonical)
}

func validate(log *slog.Logger, path string, target pcm.Format) bool {
	info, err := Probe(path)
	if err != nil {
		log.Warn("audio.validate.failed", "path", path, "error", err)
		return false
	}

	ext := strings.EqualFold(filepath.Ext(path), Extension)
	valid := info.SampleRate == target.SampleRate &&
		info.Channels == target.Channels &&
		info.Container == ContainerWAV &&
		ext
	log.Info("audio.validate",
		"path", path,
		"sample_rate", info.SampleRate,
		"channels", info.Channels,
		"extension", filepath.Ext(path),
		"valid", valid,
	)
	return valid
}

// Convert converts input to target using a normalizer that logs to
// slog.Default().
func Convert(input, output string, target pcm.Format) (string, *Report, error) {
	n := &Normalizer{target: Canonical, log: slog.Default()}
	return n.Convert(input, output, target)
}

func checkTarget(f pcm.Format) (pcm.Format, error) {
	if f.Depth == 0 {
		f.Depth = 16
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	if f.Depth != 16 {
		return f, fmt.Errorf("%w: output depth must be 16, got %d", ErrInvalidFormat, f.Depth)
	}
	return f, nil
}
