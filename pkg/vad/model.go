// Package vad turns a stream of fixed-size audio frames into speech_start /
// speech_end segment events, driven by an opaque per-frame speech model.
package vad

import "math"

// Model is the opaque per-frame speech-probability source the segmenter
// runs hysteresis over (spec's "variant point"). RMSModel is the
// no-dependency default; SileroModel backs it with an ONNX model for callers
// that want real speech detection instead of an energy heuristic.
type Model interface {
	// SpeechProbability returns a value in [0,1] for one frame.
	SpeechProbability(frame []float32) (float64, error)
	Reset()
}

// RMSModel is a lightweight, dependency-free Model based on RMS energy,
// generalized from the teacher's RMSVAD.calculateRMS. It returns the RMS
// value directly as a pseudo-probability; callers calibrate Enter/Exit
// thresholds in the same units (typically 0.01-0.2 for speech at normal mic
// gain).
type RMSModel struct{}

// NewRMSModel constructs the default energy-based model.
func NewRMSModel() *RMSModel { return &RMSModel{} }

func (m *RMSModel) SpeechProbability(frame []float32) (float64, error) {
	if len(frame) == 0 {
		return 0, nil
	}
	var sum float64
	for _, s := range frame {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(frame))), nil
}

func (m *RMSModel) Reset() {}
