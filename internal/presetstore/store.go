// Package presetstore keeps preset blobs on disk, one file per owner, and
// reports changes to them.
package presetstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satindergrewal/affix/internal/preset"
)

const fileExt = ".preset"

// ErrNotFound is returned by Load for an owner with no stored blob and no
// built-in default.
var ErrNotFound = errors.New("presetstore: no preset stored")

// Store is a directory of preset files named <owner>.preset.
type Store struct {
	dir string
	log *zap.Logger
}

// Open creates dir if needed and returns a store rooted there.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preset dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file that holds owner's blob.
func (s *Store) Path(owner uuid.UUID) string {
	return filepath.Join(s.dir, owner.String()+fileExt)
}

// Load returns owner's stored blob. When nothing is stored, the silence
// stage's own owner gets the default preset; any other owner gets
// ErrNotFound.
func (s *Store) Load(owner uuid.UUID) (preset.Blob, error) {
	data, err := os.ReadFile(s.Path(owner))
	if errors.Is(err, os.ErrNotExist) {
		if owner == preset.OwnerID {
			return preset.DefaultBlob(), nil
		}
		return preset.Blob{}, fmt.Errorf("%w: %s", ErrNotFound, owner)
	}
	if err != nil {
		return preset.Blob{}, fmt.Errorf("read preset: %w", err)
	}
	return preset.Blob{Owner: owner, Data: data}, nil
}

// LoadParams decodes the silence preset. A missing file yields defaults
// and no error. A blob that does not decode is logged and replaced with
// defaults; the returned error is the decode failure so callers can tell
// the user. That includes files written by SaveParams, whose version tag
// Decode does not read.
func (s *Store) LoadParams() (preset.Params, error) {
	path := s.Path(preset.OwnerID)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return preset.Default(), nil
	}
	if err != nil {
		return preset.Default(), fmt.Errorf("read preset: %w", err)
	}
	p, err := preset.Decode(data)
	if err != nil {
		s.log.Warn("stored preset invalid, using defaults",
			zap.String("path", path), zap.Error(err))
		return preset.Default(), err
	}
	return p, nil
}

// Save writes b atomically.
func (s *Store) Save(b preset.Blob) error {
	tmp, err := os.CreateTemp(s.dir, "."+b.Owner.String()+"-*")
	if err != nil {
		return fmt.Errorf("create temp preset: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b.Data); err != nil {
		tmp.Close()
		return fmt.Errorf("write preset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close preset: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(b.Owner)); err != nil {
		return fmt.Errorf("rename preset: %w", err)
	}
	s.log.Info("preset saved", zap.String("owner", b.Owner.String()), zap.Int("bytes", len(b.Data)))
	return nil
}

// SaveParams encodes p and stores it under the silence stage's owner.
func (s *Store) SaveParams(p preset.Params) error {
	return s.Save(preset.NewBlob(p))
}

// Watch calls fn with the fresh blob each time owner's file is written,
// created or renamed into place. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, owner uuid.UUID, fn func(preset.Blob)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: Save replaces the file by rename.
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	target := filepath.Clean(s.Path(owner))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			b, err := s.Load(owner)
			if err != nil {
				s.log.Warn("reload preset", zap.Error(err))
				continue
			}
			fn(b)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("preset watcher error", zap.Error(err))
		}
	}
}
