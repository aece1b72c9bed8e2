package segment

import (
	"sync"
	"time"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
)

// Snapshot is the read-only view of store state published to subscribers,
// the store's one-directional publish mechanism (spec 9: "the store
// publishes read-only snapshots via a subscribe-with-callback interface").
type Snapshot struct {
	Segments []Segment
}

// Store is the canonical ordered list of Segments plus the FIFO
// pending_action_queue that drains onto the next Transcribed append. Mutated
// only on the supervisor goroutine per spec 5; the mutex exists so
// read-only callers (tests, diagnostics) can snapshot safely.
type Store struct {
	mu            sync.RWMutex
	segments      []Segment
	pendingQueue  []Handler
	subscribers   []func(Snapshot)
	completedCond *sync.Cond

	// recent is a bounded LRU of the most recently Transcribed segments,
	// keyed by ID. The store only writes to it; action-pattern matching does
	// not consult it.
	recent *lru.Cache[string, Segment]

	// lastDrained stashes the handlers drained by the most recent
	// Promote/AppendTranscribed call so the supervisor can execute their
	// side-effecting work exactly once via TakeDrained.
	lastDrained []Handler
}

// New creates an empty Store. recentCacheSize bounds the recent-segment
// cache; 0 or less selects 64.
func New(recentCacheSize int) *Store {
	if recentCacheSize <= 0 {
		recentCacheSize = 64
	}
	cache, _ := lru.New[string, Segment](recentCacheSize)
	s := &Store{recent: cache}
	s.completedCond = sync.NewCond(&s.mu)
	return s
}

// Subscribe registers a callback invoked with a Snapshot after every
// mutation. Callbacks are invoked synchronously on the caller's goroutine
// (the supervisor thread), matching spec 9's "invoked on the supervisor
// thread only."
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) publishLocked() {
	snap := Snapshot{Segments: append([]Segment(nil), s.segments...)}
	for _, fn := range s.subscribers {
		fn(snap)
	}
}

// AppendInProgress adds a new InProgress segment. At most one InProgress
// segment may exist at a time; callers must UpdateInProgress an existing one
// rather than calling AppendInProgress twice without a Promote in between,
// but Store does not itself reject a second call — the supervisor is the
// sole mutator and is responsible for honoring the invariant.
func (s *Store) AppendInProgress(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.segments = append(s.segments, Segment{
		ID:        id,
		Kind:      KindInProgress,
		Text:      text,
		Timestamp: time.Now(),
	})
	s.publishLocked()
	return id
}

// UpdateInProgress replaces the text of an existing InProgress segment.
func (s *Store) UpdateInProgress(id, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.segments {
		if s.segments[i].ID == id && s.segments[i].Kind == KindInProgress {
			s.segments[i].Text = text
			s.publishLocked()
			return true
		}
	}
	return false
}

// Promote converts an InProgress segment into Transcribed in place,
// preserving its ID and position, then drains the pending queue onto it.
func (s *Store) Promote(id, finalText string, completed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.segments {
		if s.segments[i].ID == id && s.segments[i].Kind == KindInProgress {
			s.segments[i].Kind = KindTranscribed
			s.segments[i].Text = finalText
			s.segments[i].Completed = completed
			s.drainPendingLocked(&s.segments[i])
			s.recent.Add(s.segments[i].ID, s.segments[i])
			s.publishLocked()
			s.completedCond.Broadcast()
			return true
		}
	}
	return false
}

// AppendTranscribed appends a new final (or partial-final) Transcribed
// segment directly, draining the pending queue onto it per spec 4.3.
func (s *Store) AppendTranscribed(text string, completed bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg := Segment{
		ID:        uuid.New().String(),
		Kind:      KindTranscribed,
		Text:      text,
		Timestamp: time.Now(),
		Completed: completed,
	}
	s.drainPendingLocked(&seg)
	s.segments = append(s.segments, seg)
	s.recent.Add(seg.ID, seg)
	s.publishLocked()
	s.completedCond.Broadcast()
	return seg.ID
}

// AppendSelected records the pre-dictation selection context. Never
// injected; acts as context for the AI transformer.
func (s *Store) AppendSelected(text, originalText string, hasSelection bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.segments = append(s.segments, Segment{
		ID:           id,
		Kind:         KindSelected,
		Text:         text,
		OriginalText: originalText,
		HasSelection: hasSelection,
		Timestamp:    time.Now(),
	})
	s.publishLocked()
	return id
}

// drainPendingLocked applies the queued handlers' text-mutating effects onto
// seg in enqueue order, then empties the queue. Only the SegmentOp handlers
// relevant to a single newly-appended segment (ReplaceLast / lowercase) make
// sense to apply at drain time; side-effecting handlers (OpenURL, shell,
// ...) were already queued specifically because they target "the next
// segment" as their operand and are executed by the supervisor, which reads
// them via TakeDrained after this call — the store itself never
// performs file/process/URL side effects.
func (s *Store) drainPendingLocked(seg *Segment) {
	if len(s.pendingQueue) == 0 {
		return
	}
	for _, h := range s.pendingQueue {
		applySegmentOp(seg, h)
	}
	s.lastDrained = append([]Handler(nil), s.pendingQueue...)
	s.pendingQueue = s.pendingQueue[:0]
}

func applySegmentOp(seg *Segment, h Handler) {
	if h.Kind != HandlerSegmentOp {
		return
	}
	switch h.SegmentOp {
	case SegmentOpLowercaseFirstChar:
		if seg.Text != "" {
			r := []rune(seg.Text)
			seg.Text = stringsToLowerFirst(r)
		}
	case SegmentOpReplaceLast:
		seg.Text = h.ReplaceText
	}
}

func stringsToLowerFirst(r []rune) string {
	if len(r) == 0 {
		return ""
	}
	out := make([]rune, len(r))
	copy(out, r)
	out[0] = unicode.ToLower(out[0])
	return string(out)
}

// EnqueuePendingHandlers appends handlers to the FIFO queue that drains onto
// the next Transcribed append (spec 8(4): exactly once, queue empty after).
func (s *Store) EnqueuePendingHandlers(handlers []Handler) {
	if len(handlers) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingQueue = append(s.pendingQueue, handlers...)
}

// TakeDrained returns and clears the handlers most recently drained by a
// Promote/AppendTranscribed call, so the supervisor can execute their
// side-effecting work exactly once.
func (s *Store) TakeDrained() []Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.lastDrained
	s.lastDrained = nil
	return d
}

// Remove drops the segment with the given id, regardless of position. Used
// to exclude a command segment (one whose text was consumed by a
// closes_transcription action) from the text later concatenated for
// injection, without disturbing any dictation segments around it.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.segments {
		if s.segments[i].ID == id {
			s.segments = append(s.segments[:i], s.segments[i+1:]...)
			s.publishLocked()
			return true
		}
	}
	return false
}

// DeleteLast removes the last n segments.
func (s *Store) DeleteLast(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		return
	}
	if n > len(s.segments) {
		n = len(s.segments)
	}
	s.segments = s.segments[:len(s.segments)-n]
	s.publishLocked()
}

// Clear removes every segment.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = nil
	s.pendingQueue = nil
	s.lastDrained = nil
	s.publishLocked()
	s.completedCond.Broadcast()
}

// ReplaceLast overwrites the text of the last segment.
func (s *Store) ReplaceLast(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.segments) == 0 {
		return false
	}
	s.segments[len(s.segments)-1].Text = text
	s.publishLocked()
	return true
}

// LowercaseFirstChar lowercases the first character of the last segment.
func (s *Store) LowercaseFirstChar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.segments) == 0 {
		return false
	}
	last := &s.segments[len(s.segments)-1]
	last.Text = stringsToLowerFirst([]rune(last.Text))
	s.publishLocked()
	return true
}

// Snapshot returns a read-only copy of the current segment list.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Segments: append([]Segment(nil), s.segments...)}
}

// WaitForCompleted blocks until every Transcribed segment has
// Completed == true, or timeout elapses, whichever comes first. Returns true
// if completion was reached before timeout.
func (s *Store) WaitForCompleted(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	done := make(chan struct{})
	go func() {
		s.mu.Lock()
		for !s.allCompletedLocked() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				s.mu.Unlock()
				return
			}
			timer := time.AfterFunc(remaining, s.completedCond.Broadcast)
			s.completedCond.Wait()
			timer.Stop()
		}
		s.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		s.mu.Lock()
		ok := s.allCompletedLocked()
		s.mu.Unlock()
		return ok
	}
}

func (s *Store) allCompletedLocked() bool {
	for _, seg := range s.segments {
		if seg.Kind == KindTranscribed && !seg.Completed {
			return false
		}
	}
	return true
}
