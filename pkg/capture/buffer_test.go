package capture

import "testing"

func mkSamples(n int, from float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = from + float32(i)
	}
	return s
}

func TestAppendAndFullSinceSessionStart(t *testing.T) {
	b := New(DefaultLimits())
	b.Append(mkSamples(4, 0))
	b.Append(mkSamples(3, 100))

	got := b.FullSinceSessionStart()
	if len(got) != 7 {
		t.Fatalf("expected 7 samples, got %d", len(got))
	}
	want := append(mkSamples(4, 0), mkSamples(3, 100)...)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestSliceClampsOutOfRange(t *testing.T) {
	b := New(DefaultLimits())
	b.Append(mkSamples(5, 0))

	if got := b.Slice(-10, 1000); len(got) != 5 {
		t.Fatalf("expected clamp to 5 samples, got %d", len(got))
	}
	if got := b.Slice(10, 20); len(got) != 0 {
		t.Fatalf("expected empty slice past processed samples, got %d", len(got))
	}
}

func TestCurrentChunkAfterAdvance(t *testing.T) {
	b := New(DefaultLimits())
	b.Append(mkSamples(5, 0))
	b.AdvanceChunk()
	b.Append(mkSamples(3, 50))

	got := b.CurrentChunk()
	if len(got) != 3 {
		t.Fatalf("expected current chunk to only hold post-advance samples, got %d", len(got))
	}
}

func TestTailSinceLastSegment(t *testing.T) {
	b := New(DefaultLimits())
	b.Append(mkSamples(10, 0))
	if _, ok := b.TailSinceLastSegment(); !ok {
		t.Fatalf("expected tail present before any segment marked")
	}
	b.MarkSegmentEmitted(10)
	if _, ok := b.TailSinceLastSegment(); ok {
		t.Fatalf("expected no tail once last_segment_end_sample == processed_samples")
	}
}

func TestAtSoftAndHardLimit(t *testing.T) {
	limits := Limits{SampleRate: 16000, SoftLimitSamples: 5, HardLimitSamples: 10}
	b := New(limits)
	b.Append(mkSamples(4, 0))
	if b.AtSoftLimit() {
		t.Fatalf("should not be at soft limit yet")
	}
	b.Append(mkSamples(2, 0))
	if !b.AtSoftLimit() {
		t.Fatalf("expected soft limit reached")
	}
	if b.AtHardLimit() {
		t.Fatalf("should not be at hard limit yet")
	}
	b.Append(mkSamples(10, 0))
	if !b.AtHardLimit() {
		t.Fatalf("expected hard limit reached")
	}
}

func TestTrimHistoryRetainsSinceOldestWatermark(t *testing.T) {
	limits := Limits{SampleRate: 16000, SoftLimitSamples: 100, HardLimitSamples: 10}
	b := New(limits)
	b.Append(mkSamples(5, 0))
	b.Append(mkSamples(5, 5))
	b.Append(mkSamples(5, 10))
	b.MarkSegmentEmitted(5)

	before := b.Slice(5, 15)
	b.TrimHistory()
	after := b.Slice(5, 15)

	if len(before) != len(after) {
		t.Fatalf("trim changed retained slice length: before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("trim mutated sample %d: before=%v after=%v", i, before[i], after[i])
		}
	}
}

func TestResetClearsEverything(t *testing.T) {
	b := New(DefaultLimits())
	b.Append(mkSamples(5, 0))
	b.MarkSegmentEmitted(5)
	b.Reset()

	stats := b.Stats()
	if stats.ProcessedSamples != 0 || stats.SegmentCount != 0 || stats.RetainedSamples != 0 {
		t.Fatalf("expected zeroed stats after reset, got %+v", stats)
	}
}

func TestStatsRetainedSamplesBoundedByHardLimit(t *testing.T) {
	limits := Limits{SampleRate: 16000, SoftLimitSamples: 1000, HardLimitSamples: 20}
	b := New(limits)
	for i := 0; i < 10; i++ {
		b.Append(mkSamples(5, 0))
		b.TrimHistory()
	}
	stats := b.Stats()
	if stats.RetainedSamples > limits.HardLimitSamples+5 {
		t.Fatalf("retained samples %d exceed hard limit + one chunk", stats.RetainedSamples)
	}
}

func TestCheckFormatFlagsSaturatedBlock(t *testing.T) {
	clipped := make([]float32, 100)
	for i := range clipped {
		clipped[i] = 1.0
	}
	if err := CheckFormat(clipped); err != ErrAudioFormat {
		t.Fatalf("expected ErrAudioFormat for saturated block, got %v", err)
	}

	quiet := mkSamples(100, 0)
	for i := range quiet {
		quiet[i] = 0.01
	}
	if err := CheckFormat(quiet); err != nil {
		t.Fatalf("expected no error for quiet block, got %v", err)
	}
}
