package store

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"memgarden/internal/model"
)

const memoriesFile = "memories.json"

type memoryDocument struct {
	Memories []model.Memory `json:"memories"`
}

// JSONMemoryStore implements MemoryStore against a single JSON document.
type JSONMemoryStore struct {
	path    string
	media   BlobRemover // may be nil; then deletes do not cascade
	log     *zap.Logger
	entropy *rand.Rand

	mu     sync.Mutex
	loaded bool
	cache  []model.Memory
}

// NewJSONMemoryStore opens the memory collection under dir, creating the
// directory if needed. The collection itself loads lazily on first use.
func NewJSONMemoryStore(dir string, media BlobRemover, log *zap.Logger) (*JSONMemoryStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONMemoryStore{
		path:    filepath.Join(dir, memoriesFile),
		media:   media,
		log:     log,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (s *JSONMemoryStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// load performs the cold read of the whole collection. Callers hold s.mu.
func (s *JSONMemoryStore) load() error {
	if s.loaded {
		return nil
	}
	var doc memoryDocument
	found, err := readDocument(s.path, &doc)
	if err != nil {
		return err
	}
	if found {
		s.log.Debug("loaded memories from disk", zap.Int("count", len(doc.Memories)))
	}
	s.cache = doc.Memories
	s.loaded = true
	return nil
}

// persist rewrites the whole collection. Callers hold s.mu.
func (s *JSONMemoryStore) persist() error {
	return writeDocument(s.path, memoryDocument{Memories: s.cache})
}

func (s *JSONMemoryStore) Add(ctx context.Context, m *model.Memory) (*model.Memory, error) {
	if strings.TrimSpace(m.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Unix()
	cp := *m
	if cp.ID == "" {
		cp.ID = s.newID()
	}
	if cp.CreatedAt == 0 {
		cp.CreatedAt = now
	}
	if cp.ModifiedAt < cp.CreatedAt {
		cp.ModifiedAt = cp.CreatedAt
	}

	s.cache = append(s.cache, cp)
	if err := s.persist(); err != nil {
		s.log.Error("memory added in cache but not persisted",
			zap.String("id", cp.ID), zap.Error(err))
		return nil, err
	}
	s.log.Debug("memory added", zap.String("id", cp.ID))
	return &cp, nil
}

func (s *JSONMemoryStore) Update(ctx context.Context, m *model.Memory) (*model.Memory, error) {
	if strings.TrimSpace(m.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}

	idx := s.indexOf(m.ID)
	if idx < 0 {
		return nil, fmt.Errorf("memory %s: %w", m.ID, ErrNotFound)
	}

	cp := *m
	cp.CreatedAt = s.cache[idx].CreatedAt
	cp.ModifiedAt = time.Now().UTC().Unix() // server-assigned
	s.cache[idx] = cp

	if err := s.persist(); err != nil {
		s.log.Error("memory updated in cache but not persisted",
			zap.String("id", cp.ID), zap.Error(err))
		return nil, err
	}
	return &cp, nil
}

func (s *JSONMemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	s.removeBlobs(&s.cache[idx])
	s.cache = append(s.cache[:idx], s.cache[idx+1:]...)

	if err := s.persist(); err != nil {
		s.log.Error("memory deleted in cache but not persisted",
			zap.String("id", id), zap.Error(err))
		return false, err
	}
	s.log.Debug("memory deleted", zap.String("id", id))
	return true, nil
}

func (s *JSONMemoryStore) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("memory %s: %w", id, ErrNotFound)
	}
	cp := s.cache[idx]
	return &cp, nil
}

func (s *JSONMemoryStore) GetAll(ctx context.Context) ([]model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]model.Memory, len(s.cache))
	copy(out, s.cache)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID // ULIDs sort by creation time
	})
	return out, nil
}

func (s *JSONMemoryStore) GetByAnchor(ctx context.Context, anchorID string) ([]model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	var out []model.Memory
	for _, m := range s.cache {
		if m.AnchorID == anchorID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *JSONMemoryStore) indexOf(id string) int {
	for i := range s.cache {
		if s.cache[i].ID == id {
			return i
		}
	}
	return -1
}

// removeBlobs cascades a delete into the media store. Best effort: a blob
// that fails to delete is logged and the record deletion proceeds.
func (s *JSONMemoryStore) removeBlobs(m *model.Memory) {
	if s.media == nil {
		return
	}
	for _, rel := range []string{m.PhotoPath, m.AudioPath} {
		if rel == "" {
			continue
		}
		if _, err := s.media.Delete(rel); err != nil {
			s.log.Warn("failed to delete media blob for memory",
				zap.String("id", m.ID), zap.String("path", rel), zap.Error(err))
		}
	}
}
