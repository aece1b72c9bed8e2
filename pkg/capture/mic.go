package capture

import (
	"math"

	"github.com/gen2brain/malgo"

	"github.com/diktilo-ai/diktilo-core/pkg/audio"
	"github.com/diktilo-ai/diktilo-core/pkg/diktlog"
)

// MicSource drives a capture-only malgo device and appends every incoming
// block to a Buffer as mono float32 samples. It mirrors the duplex device
// setup in the teacher's cmd/agent/main.go, minus the playback half: a
// dictation engine never needs an output lane competing with the mic.
type MicSource struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	buf    *Buffer
	logger diktlog.Logger

	sampleRate int
}

// MicConfig selects the device sample rate; channels are fixed at 1 (mono)
// to match the internal Float32 mono contract.
type MicConfig struct {
	SampleRate int
}

// NewMicSource opens the default capture device and starts pushing samples
// into buf. Call Close to release the device.
func NewMicSource(cfg MicConfig, buf *Buffer, logger diktlog.Logger) (*MicSource, error) {
	if logger == nil {
		logger = &diktlog.NoOpLogger{}
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	m := &MicSource{ctx: mctx, buf: buf, logger: logger, sampleRate: cfg.SampleRate}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: m.onSamples,
	})
	if err != nil {
		mctx.Uninit()
		return nil, err
	}
	m.device = device
	return m, nil
}

// onSamples is invoked on malgo's real-time audio thread. It must never
// block: decode to float32 and append, nothing else.
func (m *MicSource) onSamples(_, pInput []byte, _ uint32) {
	if len(pInput) == 0 {
		return
	}
	m.buf.Append(audio.PCM16ToFloat32(pInput))
}

// Start begins streaming audio into the buffer.
func (m *MicSource) Start() error {
	return m.device.Start()
}

// Stop pauses the device without releasing it, so the supervisor can Start
// it again on the next session. Satisfies supervisor.CaptureController.
func (m *MicSource) Stop() error {
	return m.device.Stop()
}

// Close stops the device and releases the malgo context.
func (m *MicSource) Close() {
	if m.device != nil {
		m.device.Uninit()
	}
	if m.ctx != nil {
		m.ctx.Uninit()
	}
}

// RMS computes the root-mean-square energy of a float32 mono block, used by
// callers (e.g. a meter or a clipping guard) that want a cheap loudness
// estimate without re-walking the buffer.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
