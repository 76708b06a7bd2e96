package audio

import (
	"time"

	"github.com/satindergrewal/affix/internal/silence"
)

const (
	SampleRate    = 48000
	Channels      = 2
	ChannelMask   = 0x3 // front left | front right
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 4     // bytes per frame (float32 = 4 bytes)
)

// TransportFormat is the format every decoded track is converted to.
var TransportFormat = silence.Format{
	Channels:    Channels,
	ChannelMask: ChannelMask,
	SampleRate:  SampleRate,
}

// TrackInfo identifies a queued track.
type TrackInfo struct {
	ID   string
	Path string
	Name string // display name, usually the file name
}
