package audio

// framer cuts a stream of arbitrary-length sample runs into fixed frames.
// A partial frame is carried into the next write, so a track's tail and
// the following silence share a frame rather than producing a short one.
type framer struct {
	size    int
	pending []float32
}

func newFramer(size int) *framer {
	return &framer{size: size, pending: make([]float32, 0, size)}
}

// write appends samples and calls emit for each completed frame. Each
// emitted frame is a fresh slice. It stops early and returns false if emit
// does.
func (f *framer) write(samples []float32, emit func([]float32) bool) bool {
	for len(samples) > 0 {
		n := min(f.size-len(f.pending), len(samples))
		f.pending = append(f.pending, samples[:n]...)
		samples = samples[n:]

		if len(f.pending) < f.size {
			continue
		}
		frame := make([]float32, f.size)
		copy(frame, f.pending)
		f.pending = f.pending[:0]
		if !emit(frame) {
			return false
		}
	}
	return true
}

// flush zero-pads a partial frame to full size and emits it. It does
// nothing when no samples are waiting.
func (f *framer) flush(emit func([]float32) bool) bool {
	if len(f.pending) == 0 {
		return true
	}
	frame := make([]float32, f.size)
	copy(frame, f.pending)
	f.pending = f.pending[:0]
	return emit(frame)
}

// buffered returns the number of samples waiting for a full frame.
func (f *framer) buffered() int {
	return len(f.pending)
}
