package supervisor

import (
	"fmt"
	"strings"

	"github.com/diktilo-ai/diktilo-core/pkg/providers/transcriber"
	"github.com/diktilo-ai/diktilo-core/pkg/providers/transformer"
	"github.com/diktilo-ai/diktilo-core/pkg/segment"
)

// ClipboardRestorer is implemented by injectors that can restore a
// previously observed clipboard value directly, without staging a paste.
type ClipboardRestorer interface {
	RestoreClipboard(text string) error
}

// RequestStop implements the race-free PTT/toggle stop protocol (spec 4.7):
// stop_capture resolves synchronously within this call, and if no segment
// was ever emitted, the full session buffer is fed to the recognizer as
// fallback audio *before* the supervisor asks "are there segments to
// process". There is no second, event-based delivery path for that audio.
func (s *Supervisor) RequestStop() error {
	s.mu.Lock()
	if s.status != Recording {
		s.mu.Unlock()
		return ErrWrongState
	}
	s.status = Finishing
	s.mu.Unlock()
	s.emit(Event{Type: EventStatusChanged, Status: Finishing})

	if err := s.capture.Stop(); err != nil {
		s.logger.Warn("supervisor: capture stop reported an error", "error", err)
	}

	if s.buf.Stats().SegmentCount == 0 {
		fallback := s.buf.FullSinceSessionStart()
		if len(fallback) > 0 {
			s.dispatchSegment(fallback)
		}
	}

	if rt, ok := s.recognizer.(transcriber.RealtimePlugin); ok {
		if err := rt.StopStream(); err != nil {
			s.logger.Warn("supervisor: recognizer stop reported an error", "error", err)
		}
	}

	return s.proceedPastFinishing()
}

func (s *Supervisor) proceedPastFinishing() error {
	snap := s.store.Snapshot()
	if len(snap.Segments) == 0 {
		s.completeSession()
		return nil
	}

	s.transitionTo(Transcribing)
	if !s.store.WaitForCompleted(s.cfg.CompletionTimeout) {
		s.logger.Error("supervisor: wait_for_completed timed out, proceeding with partial segments")
	}

	s.runAllSegmentHandlers(segment.TimingBeforeAI)

	s.mu.Lock()
	skipTransform := s.skipTransform
	skipAllTransforms := s.skipAllTransforms
	sess := s.session
	s.mu.Unlock()

	text := s.concatenatedText()
	if !skipAllTransforms {
		text = defaultTextClean(text)
	}

	aiStage := s.cfg.AIEnabled && !skipTransform && !s.recognizerOverridesAI()
	if aiStage {
		s.transitionTo(Transforming)
		req := transformer.Request{Text: text, WritingStyle: s.cfg.WritingStyle}
		if sess != nil {
			req.SelectedText = sess.SelectedText
			req.Context = sess.Context
		}
		transformed, err := s.transform.Transform(req)
		if err != nil {
			s.logger.Warn("supervisor: AI transform failed, falling back to raw text", "error", err)
		} else {
			text = transformed
		}
	}

	s.runAllSegmentHandlers(segment.TimingAfterAI)

	s.transitionTo(Injecting)
	if err := s.inject.Inject(text); err != nil {
		s.fail(fmt.Errorf("inject: %w", err))
		return err
	}

	s.completeSession()
	return nil
}

func (s *Supervisor) recognizerOverridesAI() bool {
	return s.recognizer != nil && s.recognizer.Capabilities().OverridesAITransformation
}

// concatenatedText joins every Transcribed segment's text in insertion order.
// Resolves spec's Open Question on multi-segment sessions in favor of the
// simplest behavior consistent with "display and injection preserve order".
func (s *Supervisor) concatenatedText() string {
	snap := s.store.Snapshot()
	out := ""
	for _, seg := range snap.Segments {
		if seg.Kind != segment.KindTranscribed {
			continue
		}
		if out != "" {
			out += " "
		}
		out += seg.Text
	}
	return out
}

// defaultTextClean is the baseline whitespace tidy-up (trim, and collapse
// every run of whitespace to one space) applied to
// every injected session unless an action's skips_all_transforms flag opts
// it out (spec 4.7: "even default text-cleaning actions ... are skipped").
func defaultTextClean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func (s *Supervisor) runAllSegmentHandlers(timing segment.Timing) {
	s.mu.Lock()
	handlers := s.pendingAllSegmentHandlers
	s.mu.Unlock()

	for _, th := range handlers {
		if th.timing != timing {
			continue
		}
		s.runHandler(th.handler, "")
	}
}

func (s *Supervisor) completeSession() {
	s.transitionTo(Complete)
	s.teardownSession()
}

// Cancel drops the session, stops capture and the recognizer, discards
// segments, and restores the user's clipboard. Idempotent: calling it when
// there is no active session is a no-op, not an error.
func (s *Supervisor) Cancel() error {
	s.mu.Lock()
	if s.status == Idle {
		s.mu.Unlock()
		return nil
	}
	sess := s.session
	s.mu.Unlock()

	if s.capture != nil {
		_ = s.capture.Stop()
	}
	if rt, ok := s.recognizer.(transcriber.RealtimePlugin); ok {
		_ = rt.StopStream()
	}
	s.store.Clear()

	if sess != nil {
		if restorer, ok := s.inject.(ClipboardRestorer); ok {
			if err := restorer.RestoreClipboard(sess.OriginalClipboard); err != nil {
				s.logger.Warn("supervisor: failed to restore clipboard on cancel", "error", err)
			}
		}
	}

	s.transitionTo(Idle)
	s.teardownSession()
	return nil
}

func (s *Supervisor) teardownSession() {
	s.mu.Lock()
	s.session = nil
	s.skipTransform = false
	s.skipAllTransforms = false
	s.pendingAllSegmentHandlers = nil
	if s.status == Complete || s.status == Error {
		s.status = Idle
	}
	s.mu.Unlock()
}
