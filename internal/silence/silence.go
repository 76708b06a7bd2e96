// Package silence inserts blocks of zero samples before and after tracks
// flowing through a host's audio chain.
//
// The host drives an Engine synchronously with OnChunk, OnEndOfTrack and
// OnEndOfPlayback. Silence is handed back through Host.InsertChunk and
// belongs to the host from then on.
package silence

import "math"

// Format describes the interleaved layout of a chunk. The zero value means
// no chunk has been seen yet.
type Format struct {
	Channels    uint32
	ChannelMask uint32
	SampleRate  uint32
}

// Valid reports whether the format can size a buffer.
func (f Format) Valid() bool {
	return f.Channels > 0 && f.SampleRate > 0
}

// Chunk is a block of interleaved samples.
type Chunk struct {
	Samples []float32
	Frames  int // samples per channel
	Format  Format
}

// Host is the playback chain the engine is inserted into.
type Host interface {
	// CurrentTrackPath returns the location of the track being played, or
	// false if the host cannot tell.
	CurrentTrackPath() (string, bool)
	// InsertChunk places c in the stream at the current position.
	InsertChunk(c Chunk)
}

// SampleCount returns the interleaved sample total for seconds of audio:
// floor(channels * sampleRate * seconds). It is zero when channels is zero
// or seconds is not positive.
func SampleCount(seconds float64, channels, sampleRate uint32) int {
	if channels == 0 || seconds <= 0 {
		return 0
	}
	return int(math.Floor(float64(channels) * float64(sampleRate) * seconds))
}

func sampleCountMillis(ms, channels, sampleRate uint32) int {
	return int(uint64(channels) * uint64(sampleRate) * uint64(ms) / 1000)
}
