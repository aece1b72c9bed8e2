package audio

import "encoding/binary"

// Float32ToPCM16 encodes mono float32 samples in [-1,1] to little-endian
// 16-bit PCM, the format batch recognizers expect inside a WAV container.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := s * 32768.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// PCM16ToFloat32 decodes little-endian 16-bit PCM into mono float32 samples
// in [-1,1].
func PCM16ToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		raw := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		out[i] = float32(raw) / 32768.0
	}
	return out
}

// Int32ToFloat32 converts 32-bit signed PCM samples (as found in some WAV
// inputs) to float32 in [-1,1] by dividing by 2^31, per the internal audio
// format's int-source conversion rule.
func Int32ToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		raw := int32(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
		out[i] = float32(float64(raw) / 2147483648.0)
	}
	return out
}

// WavFromSamples assembles a minimal PCM16 WAV file from mono float32
// samples for recognizers that require on-disk/batch input.
func WavFromSamples(samples []float32, sampleRate int) []byte {
	return NewWavBuffer(Float32ToPCM16(samples), sampleRate)
}
