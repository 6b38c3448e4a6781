// Package pcm describes linear PCM audio and holds decoded sample buffers.
//
// Key types:
//   - Format: sample rate, channel count and bit depth of a PCM stream
//   - Buffer: interleaved samples normalised to [-1, 1], with channel
//     down-mixing and up-mixing
//
// Example usage:
//
//	// The canonical speech-to-text format
//	format := pcm.L16Mono16K
//
//	// Reject nonsense before decoding or resampling
//	if err := format.Validate(); err != nil { ... }
//
//	// Average a stereo buffer into mono
//	mono := buf.Remix(1)
package pcm
