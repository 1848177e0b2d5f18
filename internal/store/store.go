// Package store keeps the collection of matches as a single JSON blob in a
// key-value backend. Every mutation rewrites the whole collection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/danijoha94/vintertour/internal/models"
)

// Key is the backend entry holding the serialized match collection.
const Key = "matches"

// ErrCorrupt wraps decode failures of the stored collection.
var ErrCorrupt = errors.New("stored matches are not valid")

// Backend is the key-value storage the store writes through.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type MatchStore struct {
	mu      sync.Mutex
	backend Backend
	logger  *zap.Logger
}

// New returns a store over backend. A nil logger disables logging.
func New(backend Backend, logger *zap.Logger) *MatchStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchStore{backend: backend, logger: logger}
}

// List returns all matches in storage order. A missing entry is an empty
// collection.
func (s *MatchStore) List(ctx context.Context) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the match with id. ok is false when there is none.
func (s *MatchStore) Get(ctx context.Context, id int) (m models.Match, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.load(ctx)
	if err != nil {
		return models.Match{}, false, err
	}
	i := indexOf(matches, id)
	if i < 0 {
		return models.Match{}, false, nil
	}
	return matches[i], true, nil
}

// Create stores m under the next free id and returns the stored record.
// Any id set on m is replaced.
func (s *MatchStore) Create(ctx context.Context, m models.Match) (models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.load(ctx)
	if err != nil {
		return models.Match{}, err
	}

	m = m.Clone()
	m.ID = nextID(matches)
	matches = append(matches, m)
	if err := s.save(ctx, matches); err != nil {
		return models.Match{}, err
	}

	s.logger.Info("Created match", zap.Int("match_id", m.ID), zap.String("title", m.Title))
	return m.Clone(), nil
}

// Update merges patch over the match with id. When no such match exists ok
// is false and nothing is written.
func (s *MatchStore) Update(ctx context.Context, id int, patch models.MatchPatch) (m models.Match, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.load(ctx)
	if err != nil {
		return models.Match{}, false, err
	}
	i := indexOf(matches, id)
	if i < 0 {
		s.logger.Debug("Update of unknown match", zap.Int("match_id", id))
		return models.Match{}, false, nil
	}

	matches[i] = patch.Apply(matches[i])
	matches[i].ID = id
	if err := s.save(ctx, matches); err != nil {
		return models.Match{}, false, err
	}

	s.logger.Debug("Updated match", zap.Int("match_id", id))
	return matches[i].Clone(), true, nil
}

// Modify reads the match with id, builds a patch from it with fn and writes
// the result while holding the store lock, so edits based on the current
// record do not overwrite each other. An error from fn is returned as is and
// nothing is written. ok is false when there is no such match.
func (s *MatchStore) Modify(ctx context.Context, id int, fn func(models.Match) (models.MatchPatch, error)) (m models.Match, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.load(ctx)
	if err != nil {
		return models.Match{}, false, err
	}
	i := indexOf(matches, id)
	if i < 0 {
		return models.Match{}, false, nil
	}

	patch, err := fn(matches[i].Clone())
	if err != nil {
		return models.Match{}, true, err
	}

	matches[i] = patch.Apply(matches[i])
	matches[i].ID = id
	if err := s.save(ctx, matches); err != nil {
		return models.Match{}, true, err
	}

	s.logger.Debug("Modified match", zap.Int("match_id", id))
	return matches[i].Clone(), true, nil
}

// Delete removes the match with id and reports whether one was removed.
func (s *MatchStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	kept := matches[:0]
	for _, m := range matches {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(matches) {
		return false, nil
	}

	if err := s.save(ctx, kept); err != nil {
		return false, err
	}
	s.logger.Info("Deleted match", zap.Int("match_id", id))
	return true, nil
}

func (s *MatchStore) load(ctx context.Context) ([]models.Match, error) {
	data, ok, err := s.backend.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	if !ok {
		return []models.Match{}, nil
	}

	var matches []models.Match
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return matches, nil
}

func (s *MatchStore) save(ctx context.Context, matches []models.Match) error {
	data, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("encode matches: %w", err)
	}
	if err := s.backend.Put(ctx, Key, data); err != nil {
		return fmt.Errorf("save matches: %w", err)
	}
	return nil
}

func indexOf(matches []models.Match, id int) int {
	for i, m := range matches {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func nextID(matches []models.Match) int {
	highest := 0
	for _, m := range matches {
		if m.ID > highest {
			highest = m.ID
		}
	}
	return highest + 1
}
