package audio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/affix/internal/preset"
	"github.com/satindergrewal/affix/internal/silence"
)

type decodedTrack struct {
	info    TrackInfo
	samples []float32
}

// Pipeline decodes queued tracks, runs them through the silence engine and
// outputs PCM frames at real-time rate.
type Pipeline struct {
	trackCh chan TrackInfo
	frameCh chan []float32
	skipCh  chan struct{}

	decode   DecodeFunc
	interval time.Duration
	log      *zap.Logger

	// Owned by the Run goroutine.
	engine *silence.Engine
	framer *framer
	outbox []silence.Chunk

	mu            sync.RWMutex
	currentTrack  TrackInfo
	trackPosition time.Duration
	trackDuration time.Duration
	excluded      bool
	params        preset.Params
	pending       *preset.Params
}

var _ silence.Host = (*Pipeline)(nil)

// NewPipeline creates an audio pipeline whose engine starts with params.
func NewPipeline(params preset.Params, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		trackCh:  make(chan TrackInfo, 8),
		frameCh:  make(chan []float32, 100),
		skipCh:   make(chan struct{}, 1),
		decode:   DecodeFile,
		interval: FrameDuration,
		log:      log,
		framer:   newFramer(FrameSamples),
		params:   params.Clone(),
	}
	p.engine = silence.New(p, params, silence.WithLogger(log.Named("silence")))
	return p
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pipeline) Frames() <-chan []float32 {
	return p.frameCh
}

// Enqueue adds a track to the pipeline's playback queue.
func (p *Pipeline) Enqueue(t TrackInfo) {
	p.trackCh <- t
}

// QueueSize returns the number of tracks waiting in the queue.
func (p *Pipeline) QueueSize() int {
	return len(p.trackCh)
}

// Skip interrupts the current track. No post-silence is inserted.
func (p *Pipeline) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// SetParams schedules new silence parameters. They take effect before the
// next track starts; the track playing now is unaffected.
func (p *Pipeline) SetParams(params preset.Params) {
	c := params.Clone()
	p.mu.Lock()
	p.pending = &c
	p.mu.Unlock()
}

// SetPreset schedules the parameters stored in b. Blobs owned by another
// component are refused with silence.ErrForeignPreset.
func (p *Pipeline) SetPreset(b preset.Blob) error {
	params, err := silence.ParamsFromBlob(b)
	if err != nil {
		return err
	}
	p.SetParams(params)
	return nil
}

// Params returns the parameters the next track will be played with.
func (p *Pipeline) Params() preset.Params {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.pending != nil {
		return p.pending.Clone()
	}
	return p.params.Clone()
}

// Status returns current playback info.
func (p *Pipeline) Status() (track TrackInfo, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTrack, p.trackPosition, p.trackDuration
}

// Excluded reports whether the current track is exempt from silence.
func (p *Pipeline) Excluded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.excluded
}

// CurrentTrackPath implements silence.Host.
func (p *Pipeline) CurrentTrackPath() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTrack.Path, p.currentTrack.Path != ""
}

// InsertChunk implements silence.Host. The chunk is delivered ahead of
// whatever the pipeline was about to send.
func (p *Pipeline) InsertChunk(c silence.Chunk) {
	p.outbox = append(p.outbox, c)
}

// Run starts the pipeline. Blocks until ctx is cancelled. Whenever no
// decoded track is waiting, the last partial frame is zero-padded and sent
// so the end of the queue is heard; a partial frame still buffered at
// cancellation is dropped.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)
	defer p.engine.OnEndOfPlayback()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Background decoder: converts file paths to decoded PCM
	decodedCh := make(chan *decodedTrack, 4)
	go func() {
		defer close(decodedCh)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-p.trackCh:
				if !ok {
					return
				}
				samples, err := p.decode(ctx, t.Path)
				if err != nil {
					p.log.Warn("decode failed", zap.String("path", t.Path), zap.Error(err))
					continue
				}
				select {
				case decodedCh <- &decodedTrack{info: t, samples: samples}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case dt, ok := <-decodedCh:
			if !ok {
				p.drain(ctx, ticker)
				return
			}
			p.applyPendingParams()
			p.playTrack(ctx, ticker, dt)
			if len(decodedCh) == 0 {
				p.drain(ctx, ticker)
			}
		}
	}
}

func (p *Pipeline) applyPendingParams() {
	p.mu.Lock()
	next := p.pending
	p.pending = nil
	if next != nil {
		p.params = *next
	}
	p.mu.Unlock()

	if next != nil {
		p.engine.Configure(*next)
	}
}

// playTrack feeds a decoded track through the engine chunk by chunk, with
// any silence the engine inserts delivered in stream order.
func (p *Pipeline) playTrack(ctx context.Context, ticker *time.Ticker, dt *decodedTrack) {
	samples := dt.samples
	totalFrames := len(samples) / Channels
	if totalFrames == 0 {
		p.log.Warn("empty track skipped", zap.String("path", dt.info.Path))
		return
	}

	p.setTrack(dt.info, totalFrames)
	p.log.Info("now playing", zap.String("id", dt.info.ID), zap.String("path", dt.info.Path), zap.Int("frames", totalFrames))

	for off := 0; off < totalFrames*Channels; off += FrameSamples {
		end := min(off+FrameSamples, totalFrames*Channels)
		c := silence.Chunk{
			Samples: samples[off:end],
			Frames:  (end - off) / Channels,
			Format:  TransportFormat,
		}

		keep := p.engine.OnChunk(c)
		if off == 0 {
			p.setExcluded(p.engine.Excluded())
		}
		if !p.flushOutbox(ctx, ticker) {
			p.abortTrack()
			return
		}
		if keep && !p.write(ctx, ticker, c.Samples) {
			p.abortTrack()
			return
		}
		p.updatePosition(end / Channels)
	}

	p.engine.OnEndOfTrack()
	if !p.flushOutbox(ctx, ticker) {
		p.abortTrack()
	}
}

func (p *Pipeline) flushOutbox(ctx context.Context, ticker *time.Ticker) bool {
	for len(p.outbox) > 0 {
		c := p.outbox[0]
		p.outbox = p.outbox[1:]
		if !p.write(ctx, ticker, c.Samples) {
			return false
		}
	}
	p.outbox = nil
	return true
}

func (p *Pipeline) write(ctx context.Context, ticker *time.Ticker, samples []float32) bool {
	return p.framer.write(samples, func(frame []float32) bool {
		return p.sendFrame(ctx, ticker, frame)
	})
}

// drain sends the framer's partial frame, padded with silence.
func (p *Pipeline) drain(ctx context.Context, ticker *time.Ticker) {
	p.framer.flush(func(frame []float32) bool {
		return p.sendFrame(ctx, ticker, frame)
	})
}

// abortTrack drops the rest of a track after a skip or shutdown.
func (p *Pipeline) abortTrack() {
	p.outbox = nil
	p.engine.Flush()
	p.setExcluded(false)
}

// sendFrame waits for the ticker then sends a frame. Returns false on skip or cancel.
func (p *Pipeline) sendFrame(ctx context.Context, ticker *time.Ticker, frame []float32) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.skipCh:
		p.log.Info("track skipped")
		return false
	case <-ticker.C:
	}

	select {
	case p.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) setTrack(info TrackInfo, totalFrames int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentTrack = info
	p.trackPosition = 0
	p.trackDuration = time.Duration(totalFrames) * time.Second / SampleRate
}

func (p *Pipeline) setExcluded(v bool) {
	p.mu.Lock()
	p.excluded = v
	p.mu.Unlock()
}

func (p *Pipeline) updatePosition(frame int) {
	p.mu.Lock()
	p.trackPosition = time.Duration(frame) * time.Second / SampleRate
	p.mu.Unlock()
}
