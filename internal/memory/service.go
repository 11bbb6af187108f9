// Package memory implements the lifecycle rules for garden records: what
// may reach durable storage and how media travels with it. Media blobs
// are written before the record so a failed blob write never leaves a
// dangling reference.
package memory

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"memgarden/internal/media"
	"memgarden/internal/model"
	"memgarden/internal/store"
)

// Hard caps on media payloads. Oversized media rejects the whole save
// operation; nothing is truncated.
const (
	MaxPhotoBytes = 2 * 1024 * 1024
	MaxAudioBytes = 1536 * 1024
)

// Service enforces domain invariants in front of the record store.
type Service struct {
	records store.MemoryStore
	blobs   *media.BlobStore
	log     *zap.Logger
	entropy *rand.Rand
}

// NewService wires the lifecycle service to its stores.
func NewService(records store.MemoryStore, blobs *media.BlobStore, log *zap.Logger) *Service {
	return &Service{
		records: records,
		blobs:   blobs,
		log:     log,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// AddParams carries a new memory plus optional media payloads.
type AddParams struct {
	Title    string
	Note     string
	AnchorID string
	Position model.Vec3
	Rotation model.Quat
	Photo    []byte
	Audio    []byte
}

func (s *Service) validateMedia(photo, audio []byte) error {
	if len(photo) > MaxPhotoBytes {
		return &store.ValidationError{Field: "photo", Reason: "exceeds 2 MiB limit"}
	}
	if len(audio) > MaxAudioBytes {
		return &store.ValidationError{Field: "audio", Reason: "exceeds 1.5 MiB limit"}
	}
	return nil
}

// Add validates, writes media blobs, then persists the record. If any
// blob write fails the whole operation fails and no record is created.
func (s *Service) Add(ctx context.Context, p AddParams) (*model.Memory, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, &store.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := s.validateMedia(p.Photo, p.Audio); err != nil {
		return nil, err
	}

	id := s.newID()
	var photoPath, audioPath string
	var err error

	if len(p.Photo) > 0 {
		photoPath, err = s.blobs.Save(p.Photo, id, media.KindPhoto)
		if err != nil {
			return nil, fmt.Errorf("save photo: %w", err)
		}
	}
	if len(p.Audio) > 0 {
		audioPath, err = s.blobs.Save(p.Audio, id, media.KindAudio)
		if err != nil {
			s.discard(photoPath)
			return nil, fmt.Errorf("save audio: %w", err)
		}
	}

	now := time.Now().UTC().Unix()
	m := &model.Memory{
		ID:            id,
		Title:         p.Title,
		Note:          p.Note,
		AnchorID:      p.AnchorID,
		PhotoPath:     photoPath,
		AudioPath:     audioPath,
		LocalPosition: p.Position,
		LocalRotation: p.Rotation,
		CreatedAt:     now,
		ModifiedAt:    now,
	}

	added, err := s.records.Add(ctx, m)
	if err != nil {
		s.discard(photoPath)
		s.discard(audioPath)
		return nil, err
	}
	return added, nil
}

// Update edits an existing memory. Non-nil media payloads replace the
// stored blobs; the old blobs are removed only after the record update
// lands.
func (s *Service) Update(ctx context.Context, m *model.Memory, newPhoto, newAudio []byte) (*model.Memory, error) {
	if strings.TrimSpace(m.Title) == "" {
		return nil, &store.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := s.validateMedia(newPhoto, newAudio); err != nil {
		return nil, err
	}

	cp := *m
	var oldPhoto, oldAudio string
	var err error

	if len(newPhoto) > 0 {
		oldPhoto = cp.PhotoPath
		cp.PhotoPath, err = s.blobs.Save(newPhoto, cp.ID, media.KindPhoto)
		if err != nil {
			return nil, fmt.Errorf("save photo: %w", err)
		}
	}
	if len(newAudio) > 0 {
		oldAudio = cp.AudioPath
		cp.AudioPath, err = s.blobs.Save(newAudio, cp.ID, media.KindAudio)
		if err != nil {
			if len(newPhoto) > 0 {
				s.discard(cp.PhotoPath)
			}
			return nil, fmt.Errorf("save audio: %w", err)
		}
	}

	updated, err := s.records.Update(ctx, &cp)
	if err != nil {
		if len(newPhoto) > 0 {
			s.discard(cp.PhotoPath)
		}
		if len(newAudio) > 0 {
			s.discard(cp.AudioPath)
		}
		return nil, err
	}

	if oldPhoto != "" && oldPhoto != updated.PhotoPath {
		s.discard(oldPhoto)
	}
	if oldAudio != "" && oldAudio != updated.AudioPath {
		s.discard(oldAudio)
	}
	return updated, nil
}

// Delete removes a memory; the store cascades the blob deletes.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.records.Delete(ctx, id)
}

// Get returns a single memory by id.
func (s *Service) Get(ctx context.Context, id string) (*model.Memory, error) {
	return s.records.GetByID(ctx, id)
}

// List returns every memory, newest first.
func (s *Service) List(ctx context.Context) ([]model.Memory, error) {
	return s.records.GetAll(ctx)
}

// ListByAnchor returns the memories owned by an anchor.
func (s *Service) ListByAnchor(ctx context.Context, anchorID string) ([]model.Memory, error) {
	return s.records.GetByAnchor(ctx, anchorID)
}

// discard best-effort removes a blob written during a failed operation.
func (s *Service) discard(relPath string) {
	if relPath == "" {
		return
	}
	if _, err := s.blobs.Delete(relPath); err != nil {
		s.log.Warn("failed to discard orphaned media blob",
			zap.String("path", relPath), zap.Error(err))
	}
}
