package vad

import (
	"errors"

	"github.com/diktilo-ai/diktilo-core/pkg/capture"
)

// ErrFrameSize is returned when a frame doesn't match the segmenter's
// configured frame size, the segmenter's stand-in for "sample-rate mismatch
// fails-with AudioFormat" (spec 4.2 edge case): a source feeding frames of
// the wrong width is the observable symptom of a declared-rate mismatch.
var ErrFrameSize = errors.New("vad: frame size does not match configured sample rate/frame size")

// EventType distinguishes segmenter output events.
type EventType int

const (
	SpeechStart EventType = iota
	SpeechEnd
)

// Event is emitted by ProcessFrame. Segment and sample offsets are only set
// on SpeechEnd.
type Event struct {
	Type           EventType
	Segment        []float32
	StartSample    int64
	EndSample      int64
	EndedBySilence bool
}

// Config holds the hysteresis and timing parameters for the segmenter.
type Config struct {
	FrameSize      int
	SampleRate     int
	EnterThreshold float64
	ExitThreshold  float64
	// MinConfirmFrames debounces onset, generalized from the teacher RMSVAD's
	// minConfirmed consecutive-frame requirement.
	MinConfirmFrames int
	ExitHoldMs       int
	PadMs            int
}

// DefaultConfig mirrors the teacher's RMSVAD defaults (7-frame confirm,
// 500ms silence hold) adapted into the enter/exit/pad vocabulary this
// segmenter speaks.
func DefaultConfig(sampleRate, frameSize int) Config {
	return Config{
		FrameSize:        frameSize,
		SampleRate:       sampleRate,
		EnterThreshold:   0.02,
		ExitThreshold:    0.015,
		MinConfirmFrames: 7,
		ExitHoldMs:       500,
		PadMs:            300,
	}
}

// Segmenter turns a stream of fixed-size frames into speech_start/speech_end
// events, reading audio back out of the owning CaptureBuffer rather than
// keeping its own copy: unlike the teacher's standalone smart-turn segmenter
// (which has no backing store and must keep a pre-speech ring buffer), every
// sample the segmenter will ever need to emit is already retained in buf, so
// a span is just a pair of sample offsets until finalize time.
type Segmenter struct {
	cfg   Config
	model Model
	buf   *capture.Buffer

	active           bool
	confirmFrames    int
	belowExitSamples int64
	spanStart        int64
}

// New builds a Segmenter bound to buf, whose contents the segmenter slices
// from when it finalizes a span.
func New(cfg Config, model Model, buf *capture.Buffer) *Segmenter {
	return &Segmenter{cfg: cfg, model: model, buf: buf}
}

func (s *Segmenter) padSamples() int64 {
	return int64(s.cfg.PadMs) * int64(s.cfg.SampleRate) / 1000
}

func (s *Segmenter) exitHoldSamples() int64 {
	return int64(s.cfg.ExitHoldMs) * int64(s.cfg.SampleRate) / 1000
}

// ProcessFrame feeds one frame (samples starting at absolute sample offset
// startSample within the CaptureBuffer) through the model and hysteresis
// state machine.
func (s *Segmenter) ProcessFrame(samples []float32, startSample int64) ([]Event, error) {
	if len(samples) != s.cfg.FrameSize {
		return nil, ErrFrameSize
	}
	prob, err := s.model.SpeechProbability(samples)
	if err != nil {
		return nil, err
	}
	endSample := startSample + int64(len(samples))

	if !s.active {
		if prob >= s.cfg.EnterThreshold {
			s.confirmFrames++
			if s.confirmFrames < s.cfg.MinConfirmFrames {
				return nil, nil
			}
			s.confirmFrames = 0
			s.active = true
			s.belowExitSamples = 0
			spanStart := startSample - s.padSamples()
			if last := s.buf.LastSegmentEnd(); spanStart < last {
				spanStart = last
			}
			if spanStart < 0 {
				spanStart = 0
			}
			s.spanStart = spanStart
			return []Event{{Type: SpeechStart, StartSample: s.spanStart}}, nil
		}
		s.confirmFrames = 0
		return nil, nil
	}

	// Active: track trailing silence for exit hysteresis.
	if prob < s.cfg.ExitThreshold {
		s.belowExitSamples += int64(len(samples))
	} else {
		s.belowExitSamples = 0
	}

	endedBySilence := s.belowExitSamples >= s.exitHoldSamples()
	forcedLimit := s.buf.AtHardLimit() || s.buf.AtSoftLimit()

	if !endedBySilence && !forcedLimit {
		return nil, nil
	}

	ev := s.finalize(endSample, endedBySilence)
	events := []Event{ev}

	if forcedLimit && !endedBySilence {
		// Soft/hard limit cuts reopen immediately so a long utterance without
		// silence keeps flowing through the recognizer in bounded spans
		// (spec S6: both segments continue in order after a hard-limit cut).
		s.active = true
		s.confirmFrames = 0
		s.belowExitSamples = 0
		s.spanStart = endSample
		events = append(events, Event{Type: SpeechStart, StartSample: endSample})
	}
	return events, nil
}

func (s *Segmenter) finalize(endSample int64, endedBySilence bool) Event {
	segment := s.buf.Slice(s.spanStart, endSample)
	s.buf.MarkSegmentEmitted(endSample)
	s.buf.AdvanceChunk()
	s.active = false
	s.confirmFrames = 0
	s.belowExitSamples = 0
	return Event{
		Type:           SpeechEnd,
		Segment:        segment,
		StartSample:    s.spanStart,
		EndSample:      endSample,
		EndedBySilence: endedBySilence,
	}
}

// Reset clears all hysteresis state and the underlying model's state,
// without touching the CaptureBuffer.
func (s *Segmenter) Reset() {
	s.active = false
	s.confirmFrames = 0
	s.belowExitSamples = 0
	s.spanStart = 0
	s.model.Reset()
}

// Active reports whether the segmenter currently considers speech ongoing.
// speech_end without a prior speech_start is therefore a caller-side no-op:
// nothing in Segmenter can emit SpeechEnd while active is false.
func (s *Segmenter) Active() bool { return s.active }
