package pcm

import "math"

// Buffer holds interleaved samples normalised to [-1, 1].
//
// Frame i, channel c lives at Data[i*Channels+c].
type Buffer struct {
	SampleRate int
	Channels   int
	Data       []float64
}

// Frames returns the number of complete frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Seconds returns the buffer duration in seconds.
func (b *Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Downmix averages all channels into a single channel. A mono buffer is
// returned unchanged.
func (b *Buffer) Downmix() *Buffer {
	if b.Channels <= 1 {
		return b
	}
	n := b.Frames()
	out := make([]float64, n)
	ch := b.Channels
	for i := range n {
		var sum float64
		for _, s := range b.Data[i*ch : i*ch+ch] {
			sum += s
		}
		out[i] = sum / float64(ch)
	}
	return &Buffer{SampleRate: b.SampleRate, Channels: 1, Data: out}
}

// Remix returns a buffer with the requested channel count. Reduction averages
// every input channel into mono first; expansion duplicates the mono signal
// into each output channel.
func (b *Buffer) Remix(channels int) *Buffer {
	if channels == b.Channels {
		return b
	}
	mono := b.Downmix()
	if channels == 1 {
		return mono
	}
	n := mono.Frames()
	out := make([]float64, n*channels)
	for i, s := range mono.Data {
		for c := range channels {
			out[i*channels+c] = s
		}
	}
	return &Buffer{SampleRate: b.SampleRate, Channels: channels, Data: out}
}

// FromInt16 builds a buffer from interleaved 16-bit samples.
func FromInt16(samples []int16, sampleRate, channels int) *Buffer {
	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = float64(s) / 32768.0
	}
	return &Buffer{SampleRate: sampleRate, Channels: channels, Data: data}
}

// Int16 quantises the buffer to interleaved 16-bit samples, rounding to the
// nearest step and clipping at full scale.
func (b *Buffer) Int16() []int16 {
	out := make([]int16, len(b.Data))
	for i, s := range b.Data {
		out[i] = ToInt16(s)
	}
	return out
}

// ToInt16 converts one normalised sample to 16-bit.
func ToInt16(s float64) int16 {
	v := math.Round(s * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
