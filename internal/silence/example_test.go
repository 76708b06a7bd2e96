package silence_test

import (
	"fmt"

	"github.com/satindergrewal/affix/internal/preset"
	"github.com/satindergrewal/affix/internal/silence"
)

type printHost struct{ path string }

func (h printHost) CurrentTrackPath() (string, bool) { return h.path, true }

func (h printHost) InsertChunk(c silence.Chunk) {
	fmt.Printf("silence: %d frames\n", c.Frames)
}

func ExampleEngine() {
	f := silence.Format{Channels: 2, ChannelMask: 0x3, SampleRate: 44100}
	e := silence.New(printHost{path: "/music/album/01.flac"}, preset.Params{
		PreSilenceMS:  100,
		PostSilenceMS: 2000,
	})

	e.OnChunk(silence.Chunk{Samples: make([]float32, 2048), Frames: 1024, Format: f})
	e.OnEndOfTrack()
	// Output:
	// silence: 4410 frames
	// silence: 88200 frames
}

func ExampleSampleCount() {
	fmt.Println(silence.SampleCount(0.5, 2, 48000))
	fmt.Println(silence.SampleCount(0, 2, 48000))
	// Output:
	// 48000
	// 0
}
