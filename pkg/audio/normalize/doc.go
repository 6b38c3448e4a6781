// Package normalize turns arbitrary captured audio into the canonical form
// consumed by speech recognition: 16-bit signed PCM in a WAVE container at a
// fixed sample rate and channel count (16 kHz mono by default).
//
// Inputs may be WAVE (8/16/24/32-bit integer PCM, any channel count) or MP3.
// Conversion down-mixes by plain averaging across channels, resamples with a
// band-limited filter and writes the result atomically. Every successful
// conversion yields a Report.
//
// Validate is a non-failing conformance check; it returns false for anything
// it cannot decode.
//
// Conversions are CPU bound. Services that handle many sessions should run
// them through a Pool:
//
//	n, _ := normalize.New(normalize.Options{Logger: logger})
//	pool := normalize.NewPool(n, 4)
//	out, report, err := pool.Convert(ctx, "raw/turn1.wav", "norm/turn1.wav")
package normalize
