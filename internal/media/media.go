// Package media stores photo and audio payloads on local disk, addressed
// by paths relative to the garden root. It is pure mechanism: size policy
// lives in the memory lifecycle service, not here.
package media

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Kind selects the blob subdirectory and file extension.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindAudio Kind = "audio"
)

func (k Kind) dir() string {
	if k == KindAudio {
		return "audio"
	}
	return "photos"
}

func (k Kind) ext() string {
	if k == KindAudio {
		return ".m4a"
	}
	return ".jpg"
}

func (k Kind) valid() bool {
	return k == KindPhoto || k == KindAudio
}

// BlobStore writes media payloads under <root>/photos and <root>/audio.
// Filenames carry the owner id plus a ULID suffix so repeated saves for
// the same owner never collide.
type BlobStore struct {
	root string
	log  *zap.Logger

	mu      sync.Mutex // guards entropy
	entropy *rand.Rand
}

// NewBlobStore creates a blob store rooted at the garden data directory.
func NewBlobStore(root string, log *zap.Logger) *BlobStore {
	return &BlobStore{
		root:    root,
		log:     log,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *BlobStore) newSuffix() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), b.entropy).String()
}

// Save writes data and returns the path relative to the garden root.
func (b *BlobStore) Save(data []byte, ownerID string, kind Kind) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
	if ownerID == "" {
		return "", fmt.Errorf("media owner id must not be empty")
	}

	dir := filepath.Join(b.root, kind.dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", kind.dir(), err)
	}

	name := ownerID + "_" + b.newSuffix() + kind.ext()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s blob: %w", kind, err)
	}

	rel := filepath.Join(kind.dir(), name)
	b.log.Debug("media blob saved", zap.String("path", rel), zap.Int("bytes", len(data)))
	return rel, nil
}

// Resolve maps a relative blob path to its absolute location on disk.
func (b *BlobStore) Resolve(relPath string) string {
	return filepath.Join(b.root, relPath)
}

// Delete removes a blob. Idempotent: a missing file reports false with no
// error. Paths pointing outside the garden root are rejected.
func (b *BlobStore) Delete(relPath string) (bool, error) {
	cleaned := filepath.Clean(relPath)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return false, fmt.Errorf("blob path escapes garden root: %s", relPath)
	}

	err := os.Remove(filepath.Join(b.root, cleaned))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete blob: %w", err)
	}
	b.log.Debug("media blob deleted", zap.String("path", cleaned))
	return true, nil
}
