package supervisor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diktilo-ai/diktilo-core/pkg/audio"
	"github.com/diktilo-ai/diktilo-core/pkg/capture"
	"github.com/diktilo-ai/diktilo-core/pkg/diktlog"
	"github.com/diktilo-ai/diktilo-core/pkg/providers/injector"
	"github.com/diktilo-ai/diktilo-core/pkg/providers/transcriber"
	"github.com/diktilo-ai/diktilo-core/pkg/providers/transformer"
	"github.com/diktilo-ai/diktilo-core/pkg/segment"
	"github.com/diktilo-ai/diktilo-core/pkg/vad"
)

func writeTempWav(samples []float32) (string, error) {
	f, err := os.CreateTemp("", "dictation-segment-*.wav")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(audio.WavFromSamples(samples, capture.DefaultLimits().SampleRate)); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// CaptureController is the audio producer lane's control surface: Start
// begins streaming from the mic, Stop halts it. Owning the raw device lifecycle is
// kept out of this package, since the real-time producer must run on its
// own OS thread and never block on the supervisor (spec 5).
type CaptureController interface {
	Start() error
	Stop() error
}

// Config holds the tunables the Flow Supervisor needs beyond the wiring of
// its collaborators.
type Config struct {
	AIEnabled         bool
	WritingStyle      string
	CompletionTimeout time.Duration
	Actions           []*segment.Action
}

// Supervisor orchestrates one dictation session at a time.
type Supervisor struct {
	mu      sync.Mutex
	status  FlowStatus
	session *Session

	buf     *capture.Buffer
	seg     *vad.Segmenter
	store   *segment.Store
	capture CaptureController

	recognizer transcriber.Plugin
	secrets    transcriber.SecretFetcher
	transform  transformer.Transformer
	inject     injector.TextInjector

	cfg    Config
	logger diktlog.Logger
	events chan Event

	pendingAllSegmentHandlers []timedHandler

	// skipTransform and skipAllTransforms are set for the remainder of a
	// session once a matched action's SkipsTransformation / SkipsAllTransforms
	// flag fires (spec 4.7). skipAllTransforms implies skipTransform and also
	// suppresses the default text-cleaning pass.
	skipTransform     bool
	skipAllTransforms bool
}

// timedHandler pairs an apply_to_all_segments handler with the phase
// (before/after AI transform) its owning Action declared.
type timedHandler struct {
	handler *segment.Handler
	timing  segment.Timing
}

func New(
	buf *capture.Buffer,
	seg *vad.Segmenter,
	store *segment.Store,
	capCtl CaptureController,
	recognizer transcriber.Plugin,
	secrets transcriber.SecretFetcher,
	transform transformer.Transformer,
	inject injector.TextInjector,
	cfg Config,
	logger diktlog.Logger,
) *Supervisor {
	if cfg.CompletionTimeout == 0 {
		cfg.CompletionTimeout = DefaultCompletionTimeout
	}
	if logger == nil {
		logger = diktlog.NoOpLogger{}
	}
	return &Supervisor{
		status:     Idle,
		buf:        buf,
		seg:        seg,
		store:      store,
		capture:    capCtl,
		recognizer: recognizer,
		secrets:    secrets,
		transform:  transform,
		inject:     inject,
		cfg:        cfg,
		logger:     logger,
		events:     make(chan Event, 64),
	}
}

func (s *Supervisor) Status() FlowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Supervisor) Events() <-chan Event { return s.events }

func (s *Supervisor) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("supervisor: event channel full, dropping", "type", ev.Type)
	}
}

func (s *Supervisor) transitionTo(status FlowStatus) {
	s.mu.Lock()
	s.status = status
	sessionUID := ""
	if s.session != nil {
		sessionUID = s.session.UID
	}
	s.mu.Unlock()
	s.emit(Event{Type: EventStatusChanged, Status: status, Session: sessionUID})
}

func (s *Supervisor) fail(err error) {
	s.logger.Error("supervisor: flow failed", "error", err)
	s.transitionTo(Error)
	s.emit(Event{Type: EventError, Status: Error, Err: err})
	s.teardownSession()
}

// Start begins a new dictation session. Idle -> Starting -> Recording.
func (s *Supervisor) Start(mode Mode) error {
	s.mu.Lock()
	if s.status != Idle {
		s.mu.Unlock()
		return ErrNotIdle
	}
	s.status = Starting
	s.mu.Unlock()
	s.emit(Event{Type: EventStatusChanged, Status: Starting})

	selected, hasSelection, originalClipboard, err := s.inject.GetSelectedText()
	if err != nil {
		s.fail(fmt.Errorf("selection probe: %w", err))
		return err
	}

	// Context supplements SelectedText: when the probe found no active
	// selection, the clipboard contents observed at session start are the
	// next-best grounding signal to hand the AI transformer.
	context := ""
	if !hasSelection {
		context = originalClipboard
	}

	sess := &Session{
		UID:               uuid.NewString(),
		Mode:              mode,
		StartedAt:         time.Now(),
		HadSelection:      hasSelection,
		SelectedText:      selected,
		Context:           context,
		OriginalClipboard: originalClipboard,
	}
	if hasSelection {
		s.store.AppendSelected(selected, selected, true)
	}

	s.buf.Reset()
	s.seg.Reset()
	s.store.Clear()

	if err := s.capture.Start(); err != nil {
		s.fail(fmt.Errorf("start capture: %w", err))
		return err
	}

	if rt, ok := s.recognizer.(transcriber.RealtimePlugin); ok {
		if err := rt.StartStream(transcriber.Callbacks{OnUpdate: s.onRecognizerUpdate}); err != nil {
			s.fail(fmt.Errorf("start recognizer stream: %w", err))
			return err
		}
	}

	s.mu.Lock()
	s.session = sess
	s.status = Recording
	s.skipTransform = false
	s.skipAllTransforms = false
	s.pendingAllSegmentHandlers = nil
	s.mu.Unlock()
	s.emit(Event{Type: EventStatusChanged, Status: Recording, Session: sess.UID})
	return nil
}

// OnAudioFrame is called by the audio producer lane for every captured
// frame; it appends to the buffer, drives the segmenter, and reacts to
// speech-start/speech-end events.
func (s *Supervisor) OnAudioFrame(samples []float32) error {
	s.mu.Lock()
	recording := s.status == Recording
	s.mu.Unlock()
	if !recording {
		return nil
	}

	if err := capture.CheckFormat(samples); err != nil {
		s.fail(fmt.Errorf("capture frame: %w", err))
		return err
	}

	startSample := s.buf.Stats().ProcessedSamples
	s.buf.Append(samples)

	events, err := s.seg.ProcessFrame(samples, startSample)
	if err != nil {
		return err
	}
	for _, ev := range events {
		s.handleSegmenterEvent(ev)
	}
	return nil
}

func (s *Supervisor) handleSegmenterEvent(ev vad.Event) {
	if ev.Type == vad.SpeechEnd {
		s.dispatchSegment(ev.Segment)
	}
}

// dispatchSegment hands one closed span to the active recognizer. For a
// batch plugin it appends the InProgress placeholder synchronously, before
// spawning the transient transcribe worker, so a caller checking "does the
// store have any segments yet" right after this call (the PTT fallback
// protocol in RequestStop) never races the worker goroutine. A realtime
// plugin instead drives its own segment lifecycle through onRecognizerUpdate.
func (s *Supervisor) dispatchSegment(audioSegment []float32) {
	if bp, ok := s.recognizer.(transcriber.BatchPlugin); ok {
		id := s.store.AppendInProgress("")
		go func() {
			text, err := s.transcribeBatch(bp, audioSegment)
			if err != nil {
				s.logger.Error("supervisor: batch transcription failed", "error", err)
				text = ""
			}
			s.store.Promote(id, text, true)
			s.runDrainedHandlers(id)
			s.applyActions(id, text)
		}()
		return
	}
	if rt, ok := s.recognizer.(transcriber.RealtimePlugin); ok {
		if err := rt.ProcessAudioSegment(audioSegment); err != nil {
			s.logger.Error("supervisor: streaming segment failed", "error", err)
		}
	}
}

// transcribeBatch stages one segment's audio as a temp WAV file, since
// BatchPlugin's contract is file-based (spec 4.4's transcribe_file), then
// hands the path to the plugin and cleans up afterward.
func (s *Supervisor) transcribeBatch(bp transcriber.BatchPlugin, samples []float32) (string, error) {
	path, err := writeTempWav(samples)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)
	return bp.TranscribeFile(path)
}

func (s *Supervisor) onRecognizerUpdate(evt transcriber.UpdateEvent) {
	for _, seg := range evt.Segments {
		completed := seg.Completed != nil && *seg.Completed
		if seg.Type == "transcribed" {
			s.onTranscribed(seg.Text, completed)
		} else {
			s.store.AppendInProgress(seg.Text)
		}
	}
}

func (s *Supervisor) onTranscribed(text string, completed bool) {
	id := s.store.AppendTranscribed(text, completed)
	if !completed {
		return
	}
	s.runDrainedHandlers(id)
	s.applyActions(id, text)
}
