package normalize

import (
	"bytes"
	"fmt"
	"os"

	"github.com/haivivi/avatar/pkg/audio/codec/mp3"
	"github.com/haivivi/avatar/pkg/audio/codec/wav"
	"github.com/haivivi/avatar/pkg/audio/pcm"
)

// Container tags reported in Info.
const (
	ContainerWAV = "wav"
	ContainerMP3 = "mp3"
)

// Info describes an audio file on disk.
type Info struct {
	Path       string  `json:"path" yaml:"path"`
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	Channels   int     `json:"channels" yaml:"channels"`
	BitDepth   int     `json:"bit_depth" yaml:"bit_depth"`
	Duration   float64 `json:"duration" yaml:"duration"`
	Frames     int     `json:"frames" yaml:"frames"`
	Container  string  `json:"container" yaml:"container"`
	Size       int64   `json:"size" yaml:"size"`
}

// Format returns the PCM format of the decoded stream.
func (i *Info) Format() pcm.Format {
	return pcm.Format{SampleRate: i.SampleRate, Channels: i.Channels, Depth: i.BitDepth}
}

// Probe decodes path and describes it.
func Probe(path string) (*Info, error) {
	d, err := decodeFile(path)
	if err != nil {
		return nil, &ConversionError{Op: "probe", Path: path, Err: err}
	}
	return d.info(path), nil
}

type decoded struct {
	buf       *pcm.Buffer
	container string
	depth     int
	size      int64
}

func (d *decoded) info(path string) *Info {
	return &Info{
		Path:       path,
		SampleRate: d.buf.SampleRate,
		Channels:   d.buf.Channels,
		BitDepth:   d.depth,
		Duration:   d.buf.Seconds(),
		Frames:     d.buf.Frames(),
		Container:  d.container,
		Size:       d.size,
	}
}

// decodeFile sniffs the container from the first bytes and decodes the
// whole file.
func decodeFile(path string) (*decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := &decoded{size: int64(len(data))}

	switch {
	case wav.IsWAV(data):
		buf, h, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		d.buf, d.container, d.depth = buf, ContainerWAV, h.BitDepth
	case mp3.IsMP3(data):
		buf, err := mp3.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		d.buf, d.container, d.depth = buf, ContainerMP3, 16
	default:
		return nil, ErrUnknownContainer
	}

	if d.buf.SampleRate <= 0 || d.buf.Channels <= 0 {
		return nil, fmt.Errorf("%w: %d Hz x %d channels", ErrInvalidFormat, d.buf.SampleRate, d.buf.Channels)
	}
	return d, nil
}
