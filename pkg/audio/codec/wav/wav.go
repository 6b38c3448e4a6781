// Package wav reads and writes RIFF/WAVE files holding linear PCM.
//
// Decoding accepts 8, 16, 24 and 32-bit integer samples with any channel
// count. Encoding always produces 16-bit signed little-endian PCM with the
// canonical 44-byte header.
package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/haivivi/avatar/pkg/audio/pcm"
)

// HeaderSize is the size of the header written by Encode.
const HeaderSize = 44

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

var (
	// ErrNotWAV is returned when the input is not a RIFF/WAVE stream.
	ErrNotWAV = errors.New("wav: not a RIFF/WAVE stream")

	// ErrUnsupported is returned for WAVE encodings other than integer PCM.
	ErrUnsupported = errors.New("wav: unsupported encoding")
)

// Header describes the stream parameters found in a WAVE file.
type Header struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Format returns the header as a pcm.Format.
func (h Header) Format() pcm.Format {
	return pcm.Format{SampleRate: h.SampleRate, Channels: h.Channels, Depth: h.BitDepth}
}

// IsWAV reports whether head starts with a RIFF/WAVE signature.
func IsWAV(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[0:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WAVE"))
}

// Decode reads a whole WAVE stream into a normalised sample buffer.
func Decode(r io.ReadSeeker) (*pcm.Buffer, Header, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, Header{}, ErrNotWAV
	}

	h := Header{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	if d.WavAudioFormat != formatPCM && d.WavAudioFormat != formatExtensible {
		return nil, h, fmt.Errorf("%w: format tag %d", ErrUnsupported, d.WavAudioFormat)
	}
	if err := h.Format().Validate(); err != nil {
		return nil, h, err
	}

	ib, err := d.FullPCMBuffer()
	if err != nil {
		return nil, h, fmt.Errorf("wav: read samples: %w", err)
	}

	scale := float64(int64(1) << (h.BitDepth - 1))
	data := make([]float64, len(ib.Data)-len(ib.Data)%h.Channels)
	for i := range data {
		s := ib.Data[i]
		if h.BitDepth == 8 {
			s -= 128
		}
		data[i] = float64(s) / scale
	}
	return &pcm.Buffer{SampleRate: h.SampleRate, Channels: h.Channels, Data: data}, h, nil
}

// Encode writes buf as a 16-bit PCM WAVE stream.
func Encode(w io.WriteSeeker, buf *pcm.Buffer) error {
	if buf.SampleRate <= 0 || buf.Channels <= 0 {
		return fmt.Errorf("wav: invalid buffer format %d Hz x %d", buf.SampleRate, buf.Channels)
	}

	enc := wav.NewEncoder(w, buf.SampleRate, 16, buf.Channels, formatPCM)
	samples := buf.Int16()
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: buf.Channels, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		enc.Close()
		return fmt.Errorf("wav: write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: finalize header: %w", err)
	}
	return nil
}
