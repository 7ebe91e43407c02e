package ml

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// ModelStore hands out the model behind a single artifact path. Loaded models
// are cached until the artifact changes on disk; with caching disabled every
// call reads the artifact again.
type ModelStore struct {
	modelType string
	path      string
	cache     *lru.Cache[string, MLModel]
	logger    *zap.Logger

	// bumped on every invalidation so a load racing with a rewrite is not cached
	generation atomic.Uint64
}

func NewModelStore(modelType, path string, cacheSize int, logger *zap.Logger) (*ModelStore, error) {
	if path == "" {
		return nil, fmt.Errorf("model path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &ModelStore{
		modelType: modelType,
		path:      filepath.Clean(path),
		logger:    logger.Named("model_store"),
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, MLModel](cacheSize)
		if err != nil {
			return nil, err
		}
		store.cache = cache
	}
	return store, nil
}

func (s *ModelStore) Path() string { return s.path }

// Model returns the current model or a *ModelLoadError. Failed loads are not
// cached, so an artifact written later is picked up by the next call.
func (s *ModelStore) Model() (MLModel, error) {
	if s.cache != nil {
		if model, ok := s.cache.Get(s.path); ok {
			return model, nil
		}
	}
	generation := s.generation.Load()
	model, err := LoadModel(s.modelType, s.path)
	if err != nil {
		s.logger.Error("Error loading the model", zap.String("path", s.path), zap.Error(err))
		return nil, err
	}
	if s.cache != nil && s.generation.Load() == generation {
		s.cache.Add(s.path, model)
	}
	s.logger.Debug("model loaded", zap.String("path", s.path))
	return model, nil
}

func (s *ModelStore) Invalidate() {
	s.generation.Add(1)
	if s.cache != nil && s.cache.Remove(s.path) {
		s.logger.Info("model cache invalidated", zap.String("path", s.path))
	}
}

func (s *ModelStore) cached() bool {
	return s.cache != nil && s.cache.Contains(s.path)
}

// Watch evicts the cached model whenever the artifact is written, replaced or
// removed. The artifact directory is watched rather than the file so atomic
// renames are seen. Watching stops when ctx is done.
func (s *ModelStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					s.Invalidate()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("artifact watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
