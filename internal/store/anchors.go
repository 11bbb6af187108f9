package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"memgarden/internal/model"
)

const anchorsFile = "anchors.json"

type anchorDocument struct {
	Anchors []model.AnchorRef `json:"anchors"`
}

// JSONAnchorStore implements AnchorStore against a single JSON document.
// Anchors are retained even when no memory owns them: the garden is
// anchor-durable, and orphans only go away via an explicit Delete.
type JSONAnchorStore struct {
	path string
	log  *zap.Logger

	mu     sync.Mutex
	loaded bool
	cache  []model.AnchorRef
}

// NewJSONAnchorStore opens the anchor collection under dir, creating the
// directory if needed.
func NewJSONAnchorStore(dir string, log *zap.Logger) (*JSONAnchorStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONAnchorStore{
		path: filepath.Join(dir, anchorsFile),
		log:  log,
	}, nil
}

func (s *JSONAnchorStore) load() error {
	if s.loaded {
		return nil
	}
	var doc anchorDocument
	found, err := readDocument(s.path, &doc)
	if err != nil {
		return err
	}
	if found {
		s.log.Debug("loaded anchors from disk", zap.Int("count", len(doc.Anchors)))
	}
	s.cache = doc.Anchors
	s.loaded = true
	return nil
}

func (s *JSONAnchorStore) persist() error {
	return writeDocument(s.path, anchorDocument{Anchors: s.cache})
}

func (s *JSONAnchorStore) Add(ctx context.Context, a *model.AnchorRef) (*model.AnchorRef, error) {
	if a.AnchorID == "" {
		return nil, &ValidationError{Field: "anchor_id", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	if s.indexOf(a.AnchorID) >= 0 {
		return nil, &ValidationError{Field: "anchor_id", Reason: "already exists"}
	}

	cp := *a
	if cp.LastSeenAt == 0 {
		cp.LastSeenAt = time.Now().UTC().Unix()
	}
	s.cache = append(s.cache, cp)

	if err := s.persist(); err != nil {
		s.log.Error("anchor added in cache but not persisted",
			zap.String("anchor_id", cp.AnchorID), zap.Error(err))
		return nil, err
	}
	return &cp, nil
}

// Update upserts the anchor: a re-observed anchor whose ref was lost still
// gets a durable entry.
func (s *JSONAnchorStore) Update(ctx context.Context, a *model.AnchorRef) (*model.AnchorRef, error) {
	if a.AnchorID == "" {
		return nil, &ValidationError{Field: "anchor_id", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}

	cp := *a
	if cp.LastSeenAt == 0 {
		cp.LastSeenAt = time.Now().UTC().Unix()
	}
	if idx := s.indexOf(cp.AnchorID); idx >= 0 {
		s.cache[idx] = cp
	} else {
		s.cache = append(s.cache, cp)
	}

	if err := s.persist(); err != nil {
		s.log.Error("anchor updated in cache but not persisted",
			zap.String("anchor_id", cp.AnchorID), zap.Error(err))
		return nil, err
	}
	return &cp, nil
}

func (s *JSONAnchorStore) Delete(ctx context.Context, anchorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false, err
	}

	idx := s.indexOf(anchorID)
	if idx < 0 {
		return false, nil
	}
	s.cache = append(s.cache[:idx], s.cache[idx+1:]...)

	if err := s.persist(); err != nil {
		s.log.Error("anchor deleted in cache but not persisted",
			zap.String("anchor_id", anchorID), zap.Error(err))
		return false, err
	}
	return true, nil
}

func (s *JSONAnchorStore) GetByID(ctx context.Context, anchorID string) (*model.AnchorRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	idx := s.indexOf(anchorID)
	if idx < 0 {
		return nil, fmt.Errorf("anchor %s: %w", anchorID, ErrNotFound)
	}
	cp := s.cache[idx]
	return &cp, nil
}

func (s *JSONAnchorStore) GetAll(ctx context.Context) ([]model.AnchorRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]model.AnchorRef, len(s.cache))
	copy(out, s.cache)
	return out, nil
}

func (s *JSONAnchorStore) indexOf(anchorID string) int {
	for i := range s.cache {
		if s.cache[i].AnchorID == anchorID {
			return i
		}
	}
	return -1
}
