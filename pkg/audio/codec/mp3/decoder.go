// Package mp3 decodes MPEG-1/2 Layer III audio.
//
// Decoding is pure Go. The decoder always yields interleaved 16-bit stereo,
// so mono sources are reported with two identical channels.
package mp3

import (
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/haivivi/avatar/pkg/audio/pcm"
)

// Channels is the channel count of every decoded stream.
const Channels = 2

// ErrNotMP3 is returned when the input has neither an ID3 tag nor an MPEG
// audio frame header.
var ErrNotMP3 = errors.New("mp3: not an MPEG audio stream")

// IsMP3 reports whether head starts with an ID3v2 tag or an MPEG audio frame
// sync word.
func IsMP3(head []byte) bool {
	if len(head) >= 3 && string(head[:3]) == "ID3" {
		return true
	}
	if len(head) < 2 || head[0] != 0xFF || head[1]&0xE0 != 0xE0 {
		return false
	}
	// Layer bits 01 mean Layer III.
	return head[1]&0x06 == 0x02
}

// Decoder reads PCM from an MP3 stream.
type Decoder struct {
	d *mp3.Decoder
}

// NewDecoder parses the first frame of r and returns a decoder positioned at
// the start of the audio.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMP3, err)
	}
	return &Decoder{d: d}, nil
}

// SampleRate returns the sample rate of the stream.
func (d *Decoder) SampleRate() int {
	return d.d.SampleRate()
}

// Read reads decoded PCM data into p.
// The output format is interleaved int16 stereo, little-endian.
func (d *Decoder) Read(p []byte) (int, error) {
	return d.d.Read(p)
}

// Decode reads the whole stream into a normalised sample buffer.
func Decode(r io.Reader) (*pcm.Buffer, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("mp3: decode: %w", err)
	}

	frameBytes := Channels * 2
	raw = raw[:len(raw)-len(raw)%frameBytes]
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(raw[2*i]) | int16(raw[2*i+1])<<8
	}
	return pcm.FromInt16(samples, d.SampleRate(), Channels), nil
}
