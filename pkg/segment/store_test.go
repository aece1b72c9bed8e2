package segment

import (
	"testing"
	"time"
)

func TestAppendInProgressThenPromote(t *testing.T) {
	s := New(0)
	id := s.AppendInProgress("hello wor")
	if ok := s.UpdateInProgress(id, "hello world"); !ok {
		t.Fatalf("expected update to find in-progress segment")
	}
	if ok := s.Promote(id, "hello world", true); !ok {
		t.Fatalf("expected promote to succeed")
	}
	snap := s.Snapshot()
	if len(snap.Segments) != 1 || snap.Segments[0].Kind != KindTranscribed || !snap.Segments[0].Completed {
		t.Fatalf("unexpected snapshot: %+v", snap.Segments)
	}
}

func TestPendingQueueDrainsExactlyOnceOntoNextTranscribed(t *testing.T) {
	s := New(0)
	s.EnqueuePendingHandlers([]Handler{{Kind: HandlerSegmentOp, SegmentOp: SegmentOpLowercaseFirstChar}})

	s.AppendTranscribed("About the weather", true)
	snap := s.Snapshot()
	if snap.Segments[0].Text != "about the weather" {
		t.Fatalf("expected drained lowercase handler applied, got %q", snap.Segments[0].Text)
	}

	drained := s.TakeDrained()
	if len(drained) != 1 {
		t.Fatalf("expected exactly one drained handler recorded, got %d", len(drained))
	}

	// Second Transcribed append must NOT re-apply the already-drained handler.
	s.AppendTranscribed("Second segment", true)
	snap = s.Snapshot()
	if snap.Segments[1].Text != "Second segment" {
		t.Fatalf("queue should be empty after first drain, got %q", snap.Segments[1].Text)
	}
}

func TestSubscribePublishesOnMutation(t *testing.T) {
	s := New(0)
	var got Snapshot
	calls := 0
	s.Subscribe(func(snap Snapshot) {
		got = snap
		calls++
	})
	s.AppendTranscribed("hi", true)
	if calls != 1 {
		t.Fatalf("expected 1 publish, got %d", calls)
	}
	if len(got.Segments) != 1 || got.Segments[0].Text != "hi" {
		t.Fatalf("unexpected snapshot delivered to subscriber: %+v", got)
	}
}

func TestWaitForCompletedReturnsTrueWhenAlreadyDone(t *testing.T) {
	s := New(0)
	s.AppendTranscribed("done", true)
	if !s.WaitForCompleted(50 * time.Millisecond) {
		t.Fatalf("expected immediate completion")
	}
}

func TestWaitForCompletedTimesOutOnIncomplete(t *testing.T) {
	s := New(0)
	s.AppendTranscribed("pending", false)
	if s.WaitForCompleted(30 * time.Millisecond) {
		t.Fatalf("expected timeout since segment never completes")
	}
}

func TestWaitForCompletedWakesOnLateCompletion(t *testing.T) {
	s := New(0)
	id := s.AppendInProgress("partial")
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Promote(id, "final", true)
	}()
	if !s.WaitForCompleted(500 * time.Millisecond) {
		t.Fatalf("expected completion to be observed before timeout")
	}
}

func TestDeleteLastAndClear(t *testing.T) {
	s := New(0)
	s.AppendTranscribed("a", true)
	s.AppendTranscribed("b", true)
	s.DeleteLast(1)
	if len(s.Snapshot().Segments) != 1 {
		t.Fatalf("expected 1 segment after DeleteLast(1)")
	}
	s.Clear()
	if len(s.Snapshot().Segments) != 0 {
		t.Fatalf("expected 0 segments after Clear")
	}
}

func TestRemoveDropsOnlyTheNamedSegment(t *testing.T) {
	s := New(0)
	s.AppendTranscribed("keep me", true)
	id := s.AppendTranscribed("open safari", true)
	s.AppendTranscribed("also keep me", true)

	if ok := s.Remove(id); !ok {
		t.Fatalf("expected Remove to find the segment")
	}
	snap := s.Snapshot()
	if len(snap.Segments) != 2 {
		t.Fatalf("expected 2 segments remaining, got %d", len(snap.Segments))
	}
	for _, seg := range snap.Segments {
		if seg.Text == "open safari" {
			t.Fatalf("removed segment still present: %+v", snap.Segments)
		}
	}

	if ok := s.Remove(id); ok {
		t.Fatalf("expected second Remove of the same id to report not found")
	}
}

func TestActionCompileAndMatch(t *testing.T) {
	a := &Action{
		ID:      "open-app",
		Enabled: true,
		MatchPatterns: []Pattern{
			{Prefix: "open "},
		},
	}
	if err := a.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !a.Matches("Open Safari") {
		t.Fatalf("expected case-insensitive prefix match")
	}
	if a.Matches("close safari") {
		t.Fatalf("unexpected match")
	}
}

func TestActionCompileRejectsMissingID(t *testing.T) {
	a := &Action{MatchPatterns: []Pattern{{Prefix: "open "}}}
	if err := a.Compile(); err == nil {
		t.Fatalf("expected error for action without id")
	}
}
