package supervisor

import (
	"fmt"
	"os/exec"
	"regexp"
	"runtime"

	"github.com/diktilo-ai/diktilo-core/pkg/providers/transformer"
	"github.com/diktilo-ai/diktilo-core/pkg/segment"
)

// applyActions tests a freshly completed Transcribed segment against the
// configured action set in order (spec 4.7 "Action interception").
func (s *Supervisor) applyActions(segmentID, text string) {
	for _, a := range s.cfg.Actions {
		if !a.Matches(text) {
			continue
		}

		s.runHandlers(a, segmentID, text)

		if a.SkipsAllTransforms {
			s.mu.Lock()
			s.skipTransform = true
			s.skipAllTransforms = true
			s.mu.Unlock()
		} else if a.SkipsTransformation {
			s.mu.Lock()
			s.skipTransform = true
			s.mu.Unlock()
		}

		if a.ClosesTranscription {
			// The matched text was a command, not dictation content: drop it
			// from the store so it never reaches concatenatedText, then force
			// the Recording -> Finishing transition ourselves instead of
			// waiting for a hotkey release (spec 4.7: "without awaiting
			// further audio").
			s.store.Remove(segmentID)
			s.mu.Lock()
			recording := s.status == Recording
			s.mu.Unlock()
			if recording {
				if err := s.RequestStop(); err != nil {
					s.logger.Warn("supervisor: auto-stop on closes_transcription action failed", "error", err)
				}
			}
		}
		// First matching action wins; spec doesn't call for evaluating
		// further actions against the same segment once one has matched.
		return
	}
}

// runDrainedHandlers executes the side-effecting work of handlers that were
// queued with apply_to_next_segment and have just drained onto segmentID
// (pkg/segment's Store only applies the text-mutating SegmentOp kinds at
// drain time; everything else — OpenURL, shell, TransformText, ... — is
// executed here, exactly once, via the same dispatch runHandler already uses
// for immediate handlers).
func (s *Supervisor) runDrainedHandlers(segmentID string) {
	for _, h := range s.store.TakeDrained() {
		if h.Kind == segment.HandlerSegmentOp {
			continue
		}
		s.runHandler(&h, segmentID)
	}
}

func (s *Supervisor) runHandlers(a *segment.Action, segmentID, normalized string) {
	for i := range a.Handlers {
		h := &a.Handlers[i]

		if h.ApplyToNextSegment {
			s.store.EnqueuePendingHandlers([]segment.Handler{*h})
			continue
		}
		if a.ApplyToAllSegments {
			s.mu.Lock()
			s.pendingAllSegmentHandlers = append(s.pendingAllSegmentHandlers, timedHandler{handler: h, timing: a.Timing})
			s.mu.Unlock()
			continue
		}

		success := s.runHandler(h, segmentID)
		if success && h.StopOnSuccess {
			return
		}
	}
}

func (s *Supervisor) runHandler(h *segment.Handler, segmentID string) bool {
	var err error
	switch h.Kind {
	case segment.HandlerOpenURL:
		err = openPath(h.URL)
	case segment.HandlerOpenApp:
		err = openPath(h.AppName)
	case segment.HandlerQuitApp:
		err = quitApp(h.AppName)
	case segment.HandlerExecuteShell:
		err = exec.Command(shellName(), shellFlag(), h.ShellCommand).Run()
	case segment.HandlerSegmentOp:
		err = s.runSegmentOp(h)
	case segment.HandlerTransformText:
		err = s.runTransformText(h, segmentID)
	case segment.HandlerCleanURL:
		err = s.runCleanURL(segmentID)
	}
	if err != nil {
		s.logger.Error("supervisor: handler failed", "kind", h.Kind, "error", err)
		return false
	}
	return true
}

func (s *Supervisor) runSegmentOp(h *segment.Handler) error {
	switch h.SegmentOp {
	case segment.SegmentOpDeleteLast:
		s.store.DeleteLast(h.DeleteCount)
	case segment.SegmentOpClear:
		s.store.Clear()
	case segment.SegmentOpReplaceLast:
		s.store.ReplaceLast(h.ReplaceText)
	case segment.SegmentOpLowercaseFirstChar:
		s.store.LowercaseFirstChar()
	}
	return nil
}

func (s *Supervisor) runTransformText(h *segment.Handler, segmentID string) error {
	if s.transform == nil {
		return nil
	}
	snap := s.store.Snapshot()
	if len(snap.Segments) == 0 {
		return nil
	}
	last := snap.Segments[len(snap.Segments)-1]

	out, err := s.transform.Transform(transformer.Request{
		Text:    last.Text,
		Context: h.TransformPrompt,
	})
	if err != nil {
		return err
	}
	s.store.ReplaceLast(out)
	return nil
}

var urlQueryPattern = regexp.MustCompile(`\?.*$`)

func (s *Supervisor) runCleanURL(segmentID string) error {
	snap := s.store.Snapshot()
	if len(snap.Segments) == 0 {
		return nil
	}
	last := snap.Segments[len(snap.Segments)-1]
	s.store.ReplaceLast(urlQueryPattern.ReplaceAllString(last.Text, ""))
	return nil
}

func shellName() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}
	return "/bin/sh"
}

func shellFlag() string {
	if runtime.GOOS == "windows" {
		return "-Command"
	}
	return "-c"
}

func openPath(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", target).Run()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Run()
	default:
		return exec.Command("xdg-open", target).Run()
	}
}

func quitApp(name string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("osascript", "-e", fmt.Sprintf(`tell application %q to quit`, name)).Run()
	default:
		return exec.Command("pkill", "-f", name).Run()
	}
}
