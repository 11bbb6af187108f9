package memory

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"memgarden/internal/anchor"
	"memgarden/internal/media"
	"memgarden/internal/model"
	"memgarden/internal/store"
	"memgarden/internal/worldmap"
)

func newTestService(t *testing.T) (*Service, *media.BlobStore, string) {
	t.Helper()
	dir := t.TempDir()
	blobs := media.NewBlobStore(dir, zap.NewNop())
	records, err := store.NewJSONMemoryStore(dir, blobs, zap.NewNop())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return NewService(records, blobs, zap.NewNop()), blobs, dir
}

func TestAddRequiresTitle(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)

	_, err := s.Add(ctx, AddParams{Title: "  "})
	if !store.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestPhotoSizeBoundary(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)

	// Exactly at the cap is accepted.
	m, err := s.Add(ctx, AddParams{Title: "big photo", Photo: make([]byte, MaxPhotoBytes)})
	if err != nil {
		t.Fatalf("photo at cap rejected: %v", err)
	}
	if m.PhotoPath == "" {
		t.Error("expected photo path set")
	}

	// One byte over is rejected.
	_, err = s.Add(ctx, AddParams{Title: "too big", Photo: make([]byte, MaxPhotoBytes+1)})
	if !store.IsValidation(err) {
		t.Errorf("expected ValidationError over cap, got %v", err)
	}
}

func TestAudioSizeBoundary(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService(t)

	if _, err := s.Add(ctx, AddParams{Title: "clip", Audio: make([]byte, MaxAudioBytes)}); err != nil {
		t.Fatalf("audio at cap rejected: %v", err)
	}
	_, err := s.Add(ctx, AddParams{Title: "long clip", Audio: make([]byte, MaxAudioBytes+1)})
	if !store.IsValidation(err) {
		t.Errorf("expected ValidationError over cap, got %v", err)
	}
}

func TestAddWritesBlobsBeforeRecord(t *testing.T) {
	ctx := context.Background()
	s, blobs, _ := newTestService(t)

	m, err := s.Add(ctx, AddParams{
		Title: "with media",
		Photo: []byte("jpeg"),
		Audio: []byte("m4a"),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if m.PhotoPath == "" || m.AudioPath == "" {
		t.Fatalf("expected media paths set: %+v", m)
	}
	for _, rel := range []string{m.PhotoPath, m.AudioPath} {
		if _, err := os.Stat(blobs.Resolve(rel)); err != nil {
			t.Errorf("blob %s missing: %v", rel, err)
		}
	}
}

func TestBlobFailureAbortsAdd(t *testing.T) {
	ctx := context.Background()
	s, _, dir := newTestService(t)

	// A file where the photos directory should go makes every photo
	// write fail.
	if err := os.WriteFile(filepath.Join(dir, "photos"), []byte{}, 0o644); err != nil {
		t.Fatalf("block photos dir: %v", err)
	}

	_, err := s.Add(ctx, AddParams{Title: "doomed", Photo: []byte("jpeg")})
	if err == nil {
		t.Fatal("expected add to fail with blob write failure")
	}

	all, listErr := s.List(ctx)
	if listErr != nil {
		t.Fatalf("list: %v", listErr)
	}
	if len(all) != 0 {
		t.Errorf("expected no record after failed blob write, got %d", len(all))
	}
}

func TestAudioFailureDiscardsSavedPhoto(t *testing.T) {
	ctx := context.Background()
	s, _, dir := newTestService(t)

	if err := os.WriteFile(filepath.Join(dir, "audio"), []byte{}, 0o644); err != nil {
		t.Fatalf("block audio dir: %v", err)
	}

	_, err := s.Add(ctx, AddParams{Title: "half saved", Photo: []byte("jpeg"), Audio: []byte("m4a")})
	if err == nil {
		t.Fatal("expected add to fail")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "photos"))
	if err == nil && len(entries) != 0 {
		t.Errorf("expected photo blob discarded, found %d files", len(entries))
	}
}

func TestUpdateReplacesMedia(t *testing.T) {
	ctx := context.Background()
	s, blobs, _ := newTestService(t)

	m, err := s.Add(ctx, AddParams{Title: "v1", Photo: []byte("old jpeg")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	oldPath := m.PhotoPath

	updated, err := s.Update(ctx, m, []byte("new jpeg"), nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PhotoPath == oldPath {
		t.Error("expected a new photo path")
	}
	if _, err := os.Stat(blobs.Resolve(oldPath)); !os.IsNotExist(err) {
		t.Error("expected old photo blob removed")
	}
	data, err := os.ReadFile(blobs.Resolve(updated.PhotoPath))
	if err != nil || !bytes.Equal(data, []byte("new jpeg")) {
		t.Errorf("new blob content: %q err=%v", data, err)
	}
}

func TestUpdateUnknownIDDiscardsNewBlob(t *testing.T) {
	ctx := context.Background()
	s, _, dir := newTestService(t)

	ghost := &model.Memory{ID: "ghost", Title: "ghost"}
	_, err := s.Update(ctx, ghost, []byte("jpeg"), nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "photos"))
	if err == nil && len(entries) != 0 {
		t.Errorf("expected blob discarded after failed update, found %d files", len(entries))
	}
}

// stubTracking is the minimal live platform for scenario tests.
type stubTracking struct{}

type stubHandle struct{ pose model.Pose }

func (h *stubHandle) Pose() model.Pose { return h.pose }

func (stubTracking) CreateAnchor(ctx context.Context, pose model.Pose) (anchor.Handle, error) {
	return &stubHandle{pose: pose}, nil
}
func (stubTracking) RemoveAnchor(h anchor.Handle) {}

func (stubTracking) ExportState(ctx context.Context) ([]byte, error) { return nil, nil }

func (stubTracking) ImportState(ctx context.Context, data []byte) error { return nil }

func (stubTracking) StatePersistenceSupported() bool { return false }

func TestParkBenchScenario(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	log := zap.NewNop()

	blobs := media.NewBlobStore(dir, log)
	records, err := store.NewJSONMemoryStore(dir, blobs, log)
	if err != nil {
		t.Fatalf("create record store: %v", err)
	}
	anchors, err := store.NewJSONAnchorStore(dir, log)
	if err != nil {
		t.Fatalf("create anchor store: %v", err)
	}
	service := NewService(records, blobs, log)
	registry := anchor.NewRegistry(stubTracking{}, anchors, worldmap.NewNoopSnapshotStore(log), log)
	registry.StartSession()

	// Place an anchor and attach a memory with a photo.
	p1 := model.Pose{Position: model.Vec3{X: 2, Z: -1}, Rotation: model.IdentityQuat()}
	ref, err := registry.CreateAnchor(ctx, p1, "")
	if err != nil {
		t.Fatalf("create anchor: %v", err)
	}
	registry.Flush()

	m, err := service.Add(ctx, AddParams{
		Title:    "Park bench",
		AnchorID: ref.AnchorID,
		Photo:    []byte("bench photo"),
	})
	if err != nil {
		t.Fatalf("add memory: %v", err)
	}

	owned, err := service.ListByAnchor(ctx, ref.AnchorID)
	if err != nil {
		t.Fatalf("list by anchor: %v", err)
	}
	if len(owned) != 1 || owned[0].Title != "Park bench" {
		t.Fatalf("expected exactly the park bench memory, got %+v", owned)
	}

	// Delete the memory: the anchor query empties and the photo is gone.
	deleted, err := service.Delete(ctx, m.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%t err=%v", deleted, err)
	}

	owned, _ = service.ListByAnchor(ctx, ref.AnchorID)
	if len(owned) != 0 {
		t.Errorf("expected no memories for anchor, got %d", len(owned))
	}
	if _, err := os.Stat(blobs.Resolve(m.PhotoPath)); !os.IsNotExist(err) {
		t.Error("expected photo blob removed from disk")
	}

	// The anchor itself is retained: the garden is anchor-durable.
	if _, err := anchors.GetByID(ctx, ref.AnchorID); err != nil {
		t.Errorf("anchor ref must outlive its memories: %v", err)
	}
}
