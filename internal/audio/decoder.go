package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
)

// DecodeFunc turns a track path into interleaved transport-format samples.
type DecodeFunc func(ctx context.Context, path string) ([]float32, error)

// DecodeFile runs FFmpeg to decode an audio file to raw PCM float32 samples.
// Returns interleaved stereo samples at 48kHz.
func DecodeFile(ctx context.Context, path string) ([]float32, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	return BytesToSamples(out), nil
}

// BytesToSamples converts little-endian float32 bytes to samples. A
// trailing partial sample is dropped.
func BytesToSamples(buf []byte) []float32 {
	samples := make([]float32, len(buf)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return samples
}

// SamplesToBytes converts float32 samples to little-endian bytes.
func SamplesToBytes(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}
