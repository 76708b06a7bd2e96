package silence

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/affix/internal/pathfilter"
	"github.com/satindergrewal/affix/internal/preset"
)

// ErrForeignPreset is returned for a preset blob owned by another component.
var ErrForeignPreset = errors.New("silence: preset belongs to another component")

type state int

const (
	awaitingFirstChunk state = iota
	streaming
)

func (s state) String() string {
	if s == streaming {
		return "streaming"
	}
	return "awaiting-first-chunk"
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine is the per-stream silence state machine. It is not safe for
// concurrent use; the host serialises all calls.
type Engine struct {
	host   Host
	log    *zap.Logger
	params preset.Params
	filter pathfilter.Filter

	state    state
	format   Format
	excluded bool
}

// New returns an engine configured with p.
func New(host Host, p preset.Params, opts ...Option) *Engine {
	e := &Engine{host: host, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.Configure(p)
	return e
}

// NewFromBlob decodes b and returns an engine configured with it.
func NewFromBlob(host Host, b preset.Blob, opts ...Option) (*Engine, error) {
	p, err := ParamsFromBlob(b)
	if err != nil {
		return nil, err
	}
	return New(host, p, opts...), nil
}

// ParamsFromBlob decodes a blob owned by the silence stage.
func ParamsFromBlob(b preset.Blob) (preset.Params, error) {
	if b.Owner != preset.OwnerID {
		return preset.Params{}, fmt.Errorf("%w: owner %s", ErrForeignPreset, b.Owner)
	}
	p, err := preset.Decode(b.Data)
	if err != nil {
		return preset.Params{}, fmt.Errorf("decode preset: %w", err)
	}
	return p, nil
}

// Configure replaces the parameters. Call it between tracks only; a track
// in progress keeps its exclusion decision.
func (e *Engine) Configure(p preset.Params) {
	e.params = p.Clone()
	e.filter = pathfilter.New(e.params.SkipSubpaths)
	e.log.Info("silence configured",
		zap.Uint32("pre_ms", e.params.PreSilenceMS),
		zap.Uint32("post_ms", e.params.PostSilenceMS),
		zap.Strings("skip_subpaths", e.filter.Fragments()),
	)
}

// SetPreset configures the engine from a stored blob. A blob owned by
// another component is ignored and reported with ErrForeignPreset.
func (e *Engine) SetPreset(b preset.Blob) error {
	p, err := ParamsFromBlob(b)
	if err != nil {
		return err
	}
	e.Configure(p)
	return nil
}

// Params returns a copy of the current parameters.
func (e *Engine) Params() preset.Params {
	return e.params.Clone()
}

// Format returns the format captured from the current track's first chunk.
func (e *Engine) Format() Format {
	return e.format
}

// Excluded reports whether the current track matched a skip fragment.
func (e *Engine) Excluded() bool {
	return e.excluded
}

// Streaming reports whether the current track's first chunk has been seen.
func (e *Engine) Streaming() bool {
	return e.state == streaming
}

// Latency is always zero: chunks pass through untouched.
func (e *Engine) Latency() time.Duration {
	return 0
}

// NeedsTrackChangeMark reports that the engine relies on OnEndOfTrack.
func (e *Engine) NeedsTrackChangeMark() bool {
	return true
}

// OnChunk observes a chunk from the host. On a track's first chunk with a
// usable format it captures the format, decides exclusion and inserts
// pre-silence ahead of the chunk. Chunks without a format pass through and
// the engine keeps waiting. The chunk itself is never modified; the return
// value is always true (keep the chunk).
func (e *Engine) OnChunk(c Chunk) bool {
	if e.state != awaitingFirstChunk {
		return true
	}
	if !c.Format.Valid() {
		return true
	}
	e.state = streaming
	e.format = c.Format

	path, ok := e.host.CurrentTrackPath()
	e.excluded = ok && e.filter.Matches(path)
	if e.excluded {
		e.log.Debug("track excluded from silence", zap.String("path", path))
		return true
	}
	e.emit(e.params.PreSilenceMS)
	return true
}

// OnEndOfTrack appends post-silence unless the track was excluded, then
// waits for the next track's first chunk.
func (e *Engine) OnEndOfTrack() {
	if !e.excluded {
		e.emit(e.params.PostSilenceMS)
	}
	e.reset()
}

// OnEndOfPlayback abandons the current track without emitting anything.
func (e *Engine) OnEndOfPlayback() {
	e.reset()
}

// Flush drops track state after a seek or manual track change. The next
// chunk is treated as a track start.
func (e *Engine) Flush() {
	e.log.Debug("flush", zap.Stringer("state", e.state))
	e.reset()
}

func (e *Engine) reset() {
	e.state = awaitingFirstChunk
	e.excluded = false
}

// emit inserts ms of silence at the captured format. Nothing is inserted
// when the format is unknown or the duration rounds to zero frames.
func (e *Engine) emit(ms uint32) {
	f := e.format
	if !f.Valid() {
		return
	}
	total := sampleCountMillis(ms, f.Channels, f.SampleRate)
	if total == 0 {
		return
	}
	frames := total / int(f.Channels)
	if frames == 0 {
		return
	}
	e.host.InsertChunk(Chunk{
		Samples: make([]float32, frames*int(f.Channels)),
		Frames:  frames,
		Format:  f,
	})
}
