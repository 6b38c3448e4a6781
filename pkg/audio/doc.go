// Package audio is the umbrella for the audio sub-packages:
//
//   - pcm: PCM formats and float sample buffers
//   - codec/wav, codec/mp3: container decoding and WAV encoding
//   - resampler: sample rate conversion
//   - normalize: file conversion to the canonical format, validation and
//     a bounded worker pool
//
// Example usage:
//
//	import "github.com/haivivi/avatar/pkg/audio/normalize"
//
//	out, report, err := normalize.Convert("in.mp3", "out.wav", pcm.L16Mono16K)
package audio
