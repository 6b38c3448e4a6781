package resampler

import (
	"errors"
	"fmt"
	"math"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/haivivi/avatar/pkg/audio/pcm"
)

// ErrInvalidRate is returned when a source or target rate is not positive.
var ErrInvalidRate = errors.New("resampler: invalid sample rate")

// minTailFrames is the smallest run of silence fed after the signal so the
// filter drains its delay line.
const minTailFrames = 4096

// minLeadFrames is the smallest run of silence fed before the signal. The
// filter pipeline may emit output ahead of its input; the lead absorbs that
// so no signal is lost at the start.
const minLeadFrames = 1024

// Resample converts buf to rate. Each channel is filtered independently and
// the result is aligned with the input in time.
//
// The output always holds exactly round(frames*rate/buf.SampleRate) frames so
// the converted duration matches the source within one output sample. A buffer
// already at rate is returned unchanged.
func Resample(buf *pcm.Buffer, rate int) (*pcm.Buffer, error) {
	if buf.SampleRate <= 0 || rate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, buf.SampleRate, rate)
	}
	if buf.Channels <= 0 {
		return nil, fmt.Errorf("resampler: invalid channel count %d", buf.Channels)
	}
	if buf.SampleRate == rate {
		return buf, nil
	}

	ch := buf.Channels
	inFrames := buf.Frames()
	want := OutputFrames(inFrames, buf.SampleRate, rate)
	if inFrames == 0 {
		return &pcm.Buffer{SampleRate: rate, Channels: ch}, nil
	}

	delay, err := pipelineDelay(buf.SampleRate, rate)
	if err != nil {
		return nil, err
	}

	r, err := newResampler(buf.SampleRate, rate, ch)
	if err != nil {
		return nil, err
	}

	lead, tail := padding(buf.SampleRate)
	planes := make([][]float64, ch)
	for c := range planes {
		plane := make([]float64, lead+inFrames+tail)
		for i := range inFrames {
			plane[lead+i] = buf.Data[i*ch+c]
		}
		planes[c] = plane
	}

	outPlanes, err := r.ProcessMulti(planes)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	ratio := float64(rate) / float64(buf.SampleRate)
	start := max(int(math.Round(float64(lead)*ratio+delay)), 0)
	data := make([]float64, want*ch)
	for c, plane := range outPlanes {
		for i := range want {
			if j := start + i; j < len(plane) {
				data[i*ch+c] = plane[j]
			}
		}
	}
	return &pcm.Buffer{SampleRate: rate, Channels: ch, Data: data}, nil
}

// OutputFrames returns the number of frames Resample produces for frames
// input frames converted from src to dst.
func OutputFrames(frames, src, dst int) int {
	if src <= 0 {
		return 0
	}
	return int(math.Round(float64(frames) * float64(dst) / float64(src)))
}

func newResampler(src, dst, channels int) (resampling.Resampler, error) {
	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(src),
		OutputRate: float64(dst),
		Channels:   channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	return r, nil
}

// padding returns the silence, in input frames, placed before and after the
// signal.
func padding(src int) (lead, tail int) {
	return max(src/10, minLeadFrames), max(src/4, minTailFrames)
}

type ratePair struct{ src, dst int }

var delays sync.Map // ratePair -> float64

// pipelineDelay returns how many output frames the filter output lags the
// ideal position for a src to dst conversion. It is negative when the output
// runs early. The value is measured once per rate pair by pushing a smooth
// pulse through a mono pipeline and locating its peak.
func pipelineDelay(src, dst int) (float64, error) {
	key := ratePair{src, dst}
	if d, ok := delays.Load(key); ok {
		return d.(float64), nil
	}

	r, err := newResampler(src, dst, 1)
	if err != nil {
		return 0, err
	}

	// 2 ms wide Gaussian, band-limited well below any speech rate's Nyquist.
	sigma := max(float64(src)*0.002, 2)
	lead, tail := padding(src)
	center := lead + int(6*sigma)
	input := make([]float64, center+int(6*sigma)+tail)
	for i := range input {
		x := (float64(i) - float64(center)) / sigma
		input[i] = 0.5 * math.Exp(-x*x/2)
	}

	output, err := r.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resample error: %w", err)
	}
	peak, ok := peakPosition(output)
	if !ok {
		return 0, fmt.Errorf("resampler: cannot measure delay for %d -> %d", src, dst)
	}

	d := peak - float64(center)*float64(dst)/float64(src)
	delays.Store(key, d)
	return d, nil
}

// peakPosition returns the fractional index of the largest sample, refined
// with a parabola through its neighbours.
func peakPosition(x []float64) (float64, bool) {
	if len(x) == 0 {
		return 0, false
	}
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	if x[best] <= 0 {
		return 0, false
	}
	if best == 0 || best == len(x)-1 {
		return float64(best), true
	}
	a, b, c := x[best-1], x[best], x[best+1]
	den := a - 2*b + c
	if den == 0 {
		return float64(best), true
	}
	return float64(best) + 0.5*(a-c)/den, true
}
