// Package resampler converts decoded audio between sample rates using a pure
// Go polyphase resampler.
//
// Resampling works on whole pcm.Buffer values and keeps the channel layout.
// Each channel is filtered on its own and the output is aligned in time with
// the input.
// The output length is fixed by the rate ratio, so callers can rely on the
// converted duration matching the source.
//
// Example usage:
//
//	out, err := resampler.Resample(buf, 16000)
//	if err != nil {
//	    return err
//	}
package resampler
