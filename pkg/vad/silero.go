package vad

import (
	"os"

	"github.com/streamer45/silero-vad-go/speech"
	ort "github.com/yalue/onnxruntime_go"
)

// EnvONNXRuntimeLib names the environment variable read before initializing
// ONNX, mirroring the teacher-adjacent smart-turn engine's lookup for a
// platform-specific libonnxruntime path.
const EnvONNXRuntimeLib = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// SileroModel backs Model with the Silero VAD ONNX graph via
// streamer45/silero-vad-go, the same detector mattermost-calls-transcriber
// wires into its live-captions pipeline. It buffers samples internally and
// issues window-sized Detect calls as the segmenter streams frames in.
type SileroModel struct {
	detector *speech.Detector
	window   []float32
	winSize  int
}

// SileroConfig mirrors speech.DetectorConfig's tunables.
type SileroConfig struct {
	ModelPath            string
	SampleRate           int
	WindowSize           int
	Threshold            float32
	MinSilenceDurationMs int
	SpeechPadMs          int
}

// DefaultSileroConfig matches the window/threshold constants
// mattermost-calls-transcriber uses for live captions.
func DefaultSileroConfig(modelPath string) SileroConfig {
	return SileroConfig{
		ModelPath:            modelPath,
		SampleRate:           16000,
		WindowSize:           512,
		Threshold:            0.5,
		MinSilenceDurationMs: 350,
		SpeechPadMs:          200,
	}
}

// NewSileroModel initializes the ONNX runtime environment (if not already
// initialized by the caller) and opens a Silero detector session.
func NewSileroModel(cfg SileroConfig) (*SileroModel, error) {
	if path := os.Getenv(EnvONNXRuntimeLib); path != "" {
		ort.SetSharedLibraryPath(path)
	}
	// InitializeEnvironment is idempotent-safe to call more than once per
	// process in onnxruntime_go; ignore "already initialized" style errors by
	// only surfacing failures from detector creation, which will fail loudly
	// if the environment truly never initialized.
	_ = ort.InitializeEnvironment()

	d, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            cfg.ModelPath,
		SampleRate:           cfg.SampleRate,
		WindowSize:           cfg.WindowSize,
		Threshold:            cfg.Threshold,
		MinSilenceDurationMs: cfg.MinSilenceDurationMs,
		SpeechPadMs:          cfg.SpeechPadMs,
	})
	if err != nil {
		return nil, err
	}
	return &SileroModel{detector: d, winSize: cfg.WindowSize}, nil
}

// SpeechProbability accumulates frames until a full detector window is
// available, then runs Detect on that window and reports 1 if the detector
// found any speech segment in it, 0 otherwise. A call that does not complete
// a window returns 0.
func (m *SileroModel) SpeechProbability(frame []float32) (float64, error) {
	m.window = append(m.window, frame...)
	if len(m.window) < m.winSize {
		return 0, nil
	}
	segs, err := m.detector.Detect(m.window[:m.winSize])
	m.window = m.window[m.winSize:]
	if err != nil {
		return 0, err
	}
	if len(segs) == 0 {
		return 0, nil
	}
	return 1, nil
}

func (m *SileroModel) Reset() {
	m.window = m.window[:0]
	_ = m.detector.Reset()
}

// Close releases the ONNX detector session.
func (m *SileroModel) Close() error {
	return m.detector.Destroy()
}
