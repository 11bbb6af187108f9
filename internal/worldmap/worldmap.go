// Package worldmap persists the platform tracking snapshot: an opaque
// serialized capture of the tracking subsystem's spatial map. One slot
// only; every save overwrites the previous snapshot. Validity is decided
// by the platform deserializer at import time, never here.
package worldmap

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const snapshotFile = "ar_worldmap.dat"

// SnapshotStore persists the single tracking snapshot slot.
type SnapshotStore interface {
	Save(data []byte) error
	Load() ([]byte, error)
	Exists() bool
}

// FileSnapshotStore keeps the snapshot in one file under the garden root.
type FileSnapshotStore struct {
	path string
	log  *zap.Logger
}

// NewFileSnapshotStore creates a snapshot store under dir.
func NewFileSnapshotStore(dir string, log *zap.Logger) *FileSnapshotStore {
	return &FileSnapshotStore{
		path: filepath.Join(dir, snapshotFile),
		log:  log,
	}
}

// Save overwrites the snapshot slot atomically.
func (s *FileSnapshotStore) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	s.log.Info("tracking snapshot saved", zap.Int("bytes", len(data)))
	return nil
}

// Load returns the stored snapshot, or nil when none exists.
func (s *FileSnapshotStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Exists reports whether a snapshot slot is occupied.
func (s *FileSnapshotStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// NoopSnapshotStore is the stub for platforms without snapshot support.
// Saves and loads are logged no-ops; callers branch on Exists rather than
// catching errors.
type NoopSnapshotStore struct {
	log *zap.Logger
}

// NewNoopSnapshotStore creates the platform-unsupported stub.
func NewNoopSnapshotStore(log *zap.Logger) *NoopSnapshotStore {
	return &NoopSnapshotStore{log: log}
}

func (s *NoopSnapshotStore) Save(data []byte) error {
	s.log.Warn("tracking snapshot save not supported on this platform")
	return nil
}

func (s *NoopSnapshotStore) Load() ([]byte, error) {
	s.log.Warn("tracking snapshot load not supported on this platform")
	return nil, nil
}

func (s *NoopSnapshotStore) Exists() bool {
	return false
}
