package vad

import (
	"testing"

	"github.com/diktilo-ai/diktilo-core/pkg/capture"
)

const frameSize = 4

func loudFrame() []float32 {
	return []float32{0.5, -0.5, 0.5, -0.5}
}

func quietFrame() []float32 {
	return []float32{0.001, -0.001, 0.001, -0.001}
}

func feed(t *testing.T, buf *capture.Buffer, seg *Segmenter, frame []float32) []Event {
	t.Helper()
	start := buf.Stats().ProcessedSamples
	buf.Append(frame)
	evs, err := seg.ProcessFrame(frame, start)
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	return evs
}

func newTestSegmenter() (*capture.Buffer, *Segmenter) {
	buf := capture.New(capture.Limits{SampleRate: 16000, SoftLimitSamples: 1 << 30, HardLimitSamples: 1 << 30})
	cfg := Config{
		FrameSize:        frameSize,
		SampleRate:       16000,
		EnterThreshold:   0.3,
		ExitThreshold:    0.2,
		MinConfirmFrames: 2,
		ExitHoldMs:       1, // 16 samples at 16kHz; trips after 4 frames of silence
		PadMs:            0,
	}
	return buf, New(cfg, NewRMSModel(), buf)
}

func TestSpeechStartRequiresConfirmFrames(t *testing.T) {
	buf, seg := newTestSegmenter()

	if evs := feed(t, buf, seg, loudFrame()); len(evs) != 0 {
		t.Fatalf("expected no event on first loud frame (confirm=2), got %+v", evs)
	}
	evs := feed(t, buf, seg, loudFrame())
	if len(evs) != 1 || evs[0].Type != SpeechStart {
		t.Fatalf("expected SpeechStart on second confirm frame, got %+v", evs)
	}
	if !seg.Active() {
		t.Fatalf("expected segmenter active after SpeechStart")
	}
}

func TestSpeechEndAfterSilenceHold(t *testing.T) {
	buf, seg := newTestSegmenter()
	feed(t, buf, seg, loudFrame())
	feed(t, buf, seg, loudFrame()) // triggers SpeechStart

	var last []Event
	for i := 0; i < 10; i++ {
		last = feed(t, buf, seg, quietFrame())
		if len(last) > 0 {
			break
		}
	}
	if len(last) != 1 || last[0].Type != SpeechEnd || !last[0].EndedBySilence {
		t.Fatalf("expected SpeechEnd by silence, got %+v", last)
	}
	if len(last[0].Segment) == 0 {
		t.Fatalf("expected non-empty segment on finalize")
	}
	if seg.Active() {
		t.Fatalf("expected segmenter inactive after SpeechEnd")
	}
}

func TestNoSpeechEndWithoutPriorStart(t *testing.T) {
	buf, seg := newTestSegmenter()
	evs := feed(t, buf, seg, quietFrame())
	if len(evs) != 0 {
		t.Fatalf("expected no events from silence with no active speech, got %+v", evs)
	}
	if seg.Active() {
		t.Fatalf("segmenter should not be active")
	}
}

func TestWrongFrameSizeFails(t *testing.T) {
	buf, seg := newTestSegmenter()
	_, err := seg.ProcessFrame([]float32{1, 2, 3}, 0)
	if err != ErrFrameSize {
		t.Fatalf("expected ErrFrameSize, got %v", err)
	}
	_ = buf
}

func TestHardLimitForcesEmitAndReopens(t *testing.T) {
	buf := capture.New(capture.Limits{SampleRate: 16000, SoftLimitSamples: 1 << 30, HardLimitSamples: 8})
	cfg := Config{
		FrameSize:        frameSize,
		SampleRate:       16000,
		EnterThreshold:   0.3,
		ExitThreshold:    0.2,
		MinConfirmFrames: 1,
		ExitHoldMs:       10000,
		PadMs:            0,
	}
	seg := New(cfg, NewRMSModel(), buf)

	evs := feed(t, buf, seg, loudFrame())
	if len(evs) != 1 || evs[0].Type != SpeechStart {
		t.Fatalf("expected immediate SpeechStart with MinConfirmFrames=1, got %+v", evs)
	}

	evs = feed(t, buf, seg, loudFrame())
	foundEnd, foundRestart := false, false
	for _, e := range evs {
		if e.Type == SpeechEnd {
			foundEnd = true
			if e.EndedBySilence {
				t.Fatalf("hard-limit cut should not be EndedBySilence")
			}
		}
		if e.Type == SpeechStart {
			foundRestart = true
		}
	}
	if !foundEnd || !foundRestart {
		t.Fatalf("expected forced SpeechEnd+SpeechStart pair at hard limit, got %+v", evs)
	}
	if !seg.Active() {
		t.Fatalf("expected segmenter to remain active after hard-limit reopen")
	}
}
