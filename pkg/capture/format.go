package capture

import "errors"

// ErrAudioFormat is returned when a capture source hands the buffer samples
// that don't look like the declared mono Float32 contract (clipped/saturated
// blocks are the most common symptom of a misconfigured device).
var ErrAudioFormat = errors.New("capture: audio format mismatch")

// clipThreshold is the fraction of samples that may sit at full scale before
// a block is considered saturated rather than just loud.
const clipThreshold = 0.2

// clipFraction computes the fraction of samples at or past digital full
// scale. Adapted from the correlation engine's calculateEnergy/bytesToSamples
// primitives: here the signal is already float32, so the energy walk reduces
// to a clip count instead of a cross-correlation.
func clipFraction(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	clipped := 0
	for _, s := range samples {
		if s >= 0.999 || s <= -0.999 {
			clipped++
		}
	}
	return float64(clipped) / float64(len(samples))
}

// CheckFormat returns ErrAudioFormat if a captured block looks saturated
// across more than clipThreshold of its samples, the signature of a device
// feeding a format the declared sample contract didn't expect (e.g. an
// integer PCM stream misread as float, or a channel-count mismatch duplicating
// energy).
func CheckFormat(samples []float32) error {
	if clipFraction(samples) > clipThreshold {
		return ErrAudioFormat
	}
	return nil
}
