package audio

import "testing"

func TestFloat32PCM16RoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.999, -0.999}
	pcm := Float32ToPCM16(samples)
	back := PCM16ToFloat32(pcm)

	if len(back) != len(samples) {
		t.Fatalf("length mismatch: got %d want %d", len(back), len(samples))
	}
	for i := range samples {
		diff := float64(back[i] - samples[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.001 {
			t.Fatalf("sample %d round-trip drift too large: got %v want %v", i, back[i], samples[i])
		}
	}
}

func TestFloat32ToPCM16Clamps(t *testing.T) {
	pcm := Float32ToPCM16([]float32{2.0, -2.0})
	back := PCM16ToFloat32(pcm)
	if back[0] < 0.99 || back[1] > -0.99 {
		t.Fatalf("expected clamped samples near full scale, got %v", back)
	}
}

func TestWavFromSamplesHasHeader(t *testing.T) {
	wav := WavFromSamples([]float32{0, 0.1, -0.1}, 16000)
	if len(wav) != 44+6 {
		t.Fatalf("expected 44-byte header + 6 bytes PCM16, got %d", len(wav))
	}
}
