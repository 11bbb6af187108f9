package worldmap

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
)

func TestSaveOverwritesSlot(t *testing.T) {
	s := NewFileSnapshotStore(t.TempDir(), zap.NewNop())

	if err := s.Save([]byte("first map")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save([]byte("second map")); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(data, []byte("second map")) {
		t.Errorf("expected latest snapshot, got %q", data)
	}
}

func TestExists(t *testing.T) {
	s := NewFileSnapshotStore(t.TempDir(), zap.NewNop())

	if s.Exists() {
		t.Error("expected no snapshot before save")
	}
	if err := s.Save([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !s.Exists() {
		t.Error("expected snapshot after save")
	}
}

func TestLoadAbsent(t *testing.T) {
	s := NewFileSnapshotStore(t.TempDir(), zap.NewNop())

	data, err := s.Load()
	if err != nil {
		t.Fatalf("load absent: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil for absent snapshot, got %d bytes", len(data))
	}
}

func TestNoopStore(t *testing.T) {
	s := NewNoopSnapshotStore(zap.NewNop())

	if s.Exists() {
		t.Error("noop store must never report a snapshot")
	}
	if err := s.Save([]byte("map")); err != nil {
		t.Errorf("noop save must not error: %v", err)
	}
	data, err := s.Load()
	if err != nil || data != nil {
		t.Errorf("noop load: data=%v err=%v", data, err)
	}
}
