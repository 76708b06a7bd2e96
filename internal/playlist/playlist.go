package playlist

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satindergrewal/affix/internal/audio"
)

// Extensions lists the file types the feeder picks up, lower case.
var Extensions = []string{".flac", ".mp3", ".wav", ".ogg", ".opus", ".m4a", ".aac"}

const defaultPoll = time.Second

// Queue is the part of the audio pipeline the feeder fills.
type Queue interface {
	Enqueue(t audio.TrackInfo)
	QueueSize() int
}

// Config holds feeder parameters.
type Config struct {
	Dir         string
	BufferAhead int           // tracks to keep queued
	Shuffle     bool          // shuffle each pass
	Loop        bool          // start over after the last track
	Poll        time.Duration // wait between queue checks, default 1s
}

// Status is the current state of the feeder. Tracks counts the files found
// by the last scan; Remaining counts those not yet queued this pass.
type Status struct {
	Dir       string `json:"dir"`
	Tracks    int    `json:"tracks"`
	Remaining int    `json:"remaining"`
	Pass      int    `json:"pass"`
	QueueSize int    `json:"queue_size"`
	Done      bool   `json:"done"`
}

// Feeder walks a music directory and keeps the pipeline queue topped up.
type Feeder struct {
	queue Queue
	cfg   Config
	log   *zap.Logger

	mu        sync.RWMutex
	tracks    int
	remaining int
	pass      int
	done      bool
}

// NewFeeder creates a feeder for q.
func NewFeeder(q Queue, cfg Config, log *zap.Logger) *Feeder {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BufferAhead < 1 {
		cfg.BufferAhead = 1
	}
	if cfg.Poll <= 0 {
		cfg.Poll = defaultPoll
	}
	return &Feeder{queue: q, cfg: cfg, log: log}
}

// Status returns the feeder state.
func (f *Feeder) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Status{
		Dir:       f.cfg.Dir,
		Tracks:    f.tracks,
		Remaining: f.remaining,
		Pass:      f.pass,
		QueueSize: f.queue.QueueSize(),
		Done:      f.done,
	}
}

// Run feeds tracks until ctx is cancelled, or until one pass completes when
// looping is off. The directory is rescanned at the start of every pass.
func (f *Feeder) Run(ctx context.Context) {
	f.log.Info("playlist feeder started",
		zap.String("dir", f.cfg.Dir),
		zap.Bool("shuffle", f.cfg.Shuffle),
		zap.Bool("loop", f.cfg.Loop))

	var next []string
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if len(next) == 0 {
			if f.passes() > 0 && !f.cfg.Loop {
				f.finish()
				return
			}
			paths, err := Scan(f.cfg.Dir)
			if err != nil || len(paths) == 0 {
				f.log.Warn("no tracks to play", zap.String("dir", f.cfg.Dir), zap.Error(err))
				if !f.sleep(ctx) {
					return
				}
				continue
			}
			if f.cfg.Shuffle {
				rand.Shuffle(len(paths), func(i, j int) { paths[i], paths[j] = paths[j], paths[i] })
			}
			next = paths
			f.startPass(len(paths))
		}

		if f.queue.QueueSize() >= f.cfg.BufferAhead {
			if !f.sleep(ctx) {
				return
			}
			continue
		}

		t := Track(next[0])
		next = next[1:]
		f.setRemaining(len(next))
		f.log.Debug("track queued", zap.String("id", t.ID), zap.String("path", t.Path))
		f.queue.Enqueue(t)
	}
}

// Track builds the queue entry for path with a fresh ID.
func Track(path string) audio.TrackInfo {
	base := filepath.Base(path)
	return audio.TrackInfo{
		ID:   uuid.NewString(),
		Path: path,
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// Scan returns every audio file under dir, sorted by path.
func Scan(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsAudio(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	slices.Sort(paths)
	return paths, nil
}

// IsAudio reports whether path has one of Extensions, ignoring case.
func IsAudio(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

func (f *Feeder) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(f.cfg.Poll):
		return true
	}
}

func (f *Feeder) passes() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pass
}

func (f *Feeder) startPass(n int) {
	f.mu.Lock()
	f.pass++
	f.tracks = n
	f.remaining = n
	pass := f.pass
	f.mu.Unlock()
	f.log.Info("playlist pass", zap.Int("pass", pass), zap.Int("tracks", n))
}

func (f *Feeder) setRemaining(n int) {
	f.mu.Lock()
	f.remaining = n
	f.mu.Unlock()
}

func (f *Feeder) finish() {
	f.mu.Lock()
	f.done = true
	f.mu.Unlock()
	f.log.Info("playlist finished")
}
