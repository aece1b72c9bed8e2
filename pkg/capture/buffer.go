// Package capture owns raw microphone audio for the lifetime of a dictation
// session: an append-only sequence of chunks plus the counters the VAD
// segmenter and Flow Supervisor read to decide when to cut a segment.
package capture

import "sync"

// AudioChunk is a contiguous block of mono, 32-bit-float PCM samples at a
// fixed sample rate. Never mutated after Append.
type AudioChunk struct {
	Samples     []float32
	StartSample int64
}

func (c AudioChunk) endSample() int64 { return c.StartSample + int64(len(c.Samples)) }

// Limits bounds the in-memory history a CaptureBuffer retains and the chunk
// sizes the segmenter uses to force an emission.
type Limits struct {
	SampleRate       int
	SoftLimitSamples int64
	HardLimitSamples int64
}

// DefaultLimits mirrors a 16 kHz capture with a soft cut at 15s and a hard
// cut at 30s of continuous, silence-free audio.
func DefaultLimits() Limits {
	const sampleRate = 16000
	return Limits{
		SampleRate:       sampleRate,
		SoftLimitSamples: int64(15 * sampleRate),
		HardLimitSamples: int64(30 * sampleRate),
	}
}

// Buffer is a single-writer (audio producer), single-reader (segmenter/flow)
// store of session audio. Its mutex stands in for the atomic counter updates
// the design calls for: every counter mutation and every slice read takes the
// same lock, so the supervisor never observes a torn combination of the two.
type Buffer struct {
	limits Limits

	mu                   sync.Mutex
	chunks               []AudioChunk
	processedSamples     int64
	chunkStartSample     int64
	lastSegmentEndSample int64
	segmentCount         int64
}

// New creates an empty CaptureBuffer for one session.
func New(limits Limits) *Buffer {
	return &Buffer{limits: limits}
}

// Append records a newly captured chunk, stamping its StartSample with the
// buffer's processed-sample count at the time of the call. The buffer assumes
// a single writer; two producers appending concurrently are not supported.
func (b *Buffer) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	chunk := AudioChunk{Samples: samples, StartSample: b.processedSamples}
	b.chunks = append(b.chunks, chunk)
	b.processedSamples += int64(len(samples))
}

// Slice returns a zero-gap concatenation of samples in [start, end).
// Out-of-range bounds are clamped to what is actually retained.
func (b *Buffer) Slice(start, end int64) []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sliceLocked(start, end)
}

func (b *Buffer) sliceLocked(start, end int64) []float32 {
	if end > b.processedSamples {
		end = b.processedSamples
	}
	if start < 0 {
		start = 0
	}
	if start >= end || len(b.chunks) == 0 {
		return nil
	}

	out := make([]float32, 0, end-start)
	for _, c := range b.chunks {
		cEnd := c.endSample()
		if cEnd <= start {
			continue
		}
		if c.StartSample >= end {
			break
		}
		lo := start - c.StartSample
		if lo < 0 {
			lo = 0
		}
		hi := end - c.StartSample
		if hi > int64(len(c.Samples)) {
			hi = int64(len(c.Samples))
		}
		out = append(out, c.Samples[lo:hi]...)
	}
	return out
}

// CurrentChunk returns samples captured since the last AdvanceChunk call.
func (b *Buffer) CurrentChunk() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sliceLocked(b.chunkStartSample, b.processedSamples)
}

// TailSinceLastSegment returns samples captured since the last emitted
// segment ended, or (nil, false) if there are none.
func (b *Buffer) TailSinceLastSegment() ([]float32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastSegmentEndSample >= b.processedSamples {
		return nil, false
	}
	return b.sliceLocked(b.lastSegmentEndSample, b.processedSamples), true
}

// FullSinceSessionStart returns every sample captured this session.
func (b *Buffer) FullSinceSessionStart() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sliceLocked(0, b.processedSamples)
}

// AtSoftLimit reports whether the current (un-advanced) chunk has reached the
// soft limit, at which the segmenter should force-emit at the next frame
// boundary and reopen immediately.
func (b *Buffer) AtSoftLimit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processedSamples-b.chunkStartSample >= b.limits.SoftLimitSamples
}

// AtHardLimit reports whether the current chunk must be force-emitted
// unconditionally.
func (b *Buffer) AtHardLimit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processedSamples-b.chunkStartSample >= b.limits.HardLimitSamples
}

// AdvanceChunk marks the current position as the start of the next chunk,
// then trims history that has fallen behind the hard limit.
func (b *Buffer) AdvanceChunk() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunkStartSample = b.processedSamples
	b.trimHistoryLocked()
}

// MarkSegmentEmitted records that a segment ending at endSample has been
// handed off to the recognizer, advancing last_segment_end_sample and the
// segment counter.
func (b *Buffer) MarkSegmentEmitted(endSample int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if endSample > b.lastSegmentEndSample {
		b.lastSegmentEndSample = endSample
	}
	b.segmentCount++
}

// TrimHistory discards leading chunks that fall entirely before
// processed_samples - HardLimitSamples, rebasing nothing else (offsets stay
// absolute; only retained chunk data shrinks).
func (b *Buffer) TrimHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trimHistoryLocked()
}

func (b *Buffer) trimHistoryLocked() {
	retainFrom := b.processedSamples - b.limits.HardLimitSamples
	if m := min64(b.chunkStartSample, b.lastSegmentEndSample); m < retainFrom {
		retainFrom = m
	}
	if retainFrom <= 0 {
		return
	}
	i := 0
	for i < len(b.chunks) && b.chunks[i].endSample() <= retainFrom {
		i++
	}
	if i > 0 {
		b.chunks = append([]AudioChunk(nil), b.chunks[i:]...)
	}
}

// Reset drops all captured audio and counters, ready for a new session.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = nil
	b.processedSamples = 0
	b.chunkStartSample = 0
	b.lastSegmentEndSample = 0
	b.segmentCount = 0
}

// Stats is a read-only snapshot used by tests and diagnostics to check the
// memory invariant (retained samples <= hard_limit + one in-flight chunk)
// without reaching into buffer internals.
type Stats struct {
	ProcessedSamples     int64
	ChunkStartSample     int64
	LastSegmentEndSample int64
	SegmentCount         int64
	RetainedSamples      int64
}

// LastSegmentEnd returns the sample offset one past the last segment handed
// to a recognizer, used by the segmenter to rebase a new span's start when
// successive segments touch.
func (b *Buffer) LastSegmentEnd() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSegmentEndSample
}

func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	var retained int64
	for _, c := range b.chunks {
		retained += int64(len(c.Samples))
	}
	return Stats{
		ProcessedSamples:     b.processedSamples,
		ChunkStartSample:     b.chunkStartSample,
		LastSegmentEndSample: b.lastSegmentEndSample,
		SegmentCount:         b.segmentCount,
		RetainedSamples:      retained,
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
