package pcm

import (
	"errors"
	"fmt"
)

// Common canonical formats.
var (
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K = Format{SampleRate: 16000, Channels: 1, Depth: 16}
	// L16Mono24K represents audio/L16; rate=24000; channels=1
	L16Mono24K = Format{SampleRate: 24000, Channels: 1, Depth: 16}
	// L16Mono48K represents audio/L16; rate=48000; channels=1
	L16Mono48K = Format{SampleRate: 48000, Channels: 1, Depth: 16}
)

// ErrInvalidFormat is returned by Format.Validate.
var ErrInvalidFormat = errors.New("pcm: invalid format")

// Format describes linear PCM audio: sample rate, channel count and bit depth
// of each sample.
type Format struct {
	SampleRate int
	Channels   int
	Depth      int
}

// Validate reports whether the format can describe real audio.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels < 1 {
		return fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidFormat, f.Channels)
	}
	switch f.Depth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidFormat, f.Depth)
	}
	return nil
}

// String returns the MIME-style description, e.g.
// "audio/L16; rate=16000; channels=1".
func (f Format) String() string {
	return fmt.Sprintf("audio/L%d; rate=%d; channels=%d", f.Depth, f.SampleRate, f.Channels)
}
