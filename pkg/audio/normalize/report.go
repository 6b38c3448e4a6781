package normalize

import "math"

// Report describes one successful conversion.
//
// Durations are seconds rounded to two decimals. The frame counts are exact
// and let callers check duration drift below the rounding step.
type Report struct {
	OriginalSampleRate  int     `json:"original_sample_rate" yaml:"original_sample_rate"`
	OriginalChannels    int     `json:"original_channels" yaml:"original_channels"`
	OriginalDuration    float64 `json:"original_duration" yaml:"original_duration"`
	ConvertedSampleRate int     `json:"converted_sample_rate" yaml:"converted_sample_rate"`
	ConvertedChannels   int     `json:"converted_channels" yaml:"converted_channels"`
	ConvertedDuration   float64 `json:"converted_duration" yaml:"converted_duration"`
	OutputSize          int64   `json:"output_size" yaml:"output_size"`
	SizeRatio           float64 `json:"size_ratio" yaml:"size_ratio"`
	OriginalFrames      int     `json:"original_frames" yaml:"original_frames"`
	ConvertedFrames     int     `json:"converted_frames" yaml:"converted_frames"`
}

// DurationDrift returns |converted - original| in seconds computed from the
// exact frame counts.
func (r *Report) DurationDrift() float64 {
	if r.OriginalSampleRate <= 0 || r.ConvertedSampleRate <= 0 {
		return 0
	}
	orig := float64(r.OriginalFrames) / float64(r.OriginalSampleRate)
	conv := float64(r.ConvertedFrames) / float64(r.ConvertedSampleRate)
	return math.Abs(conv - orig)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
