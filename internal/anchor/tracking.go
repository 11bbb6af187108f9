package anchor

import (
	"context"

	"memgarden/internal/model"
)

// Handle is a live platform anchor. It is valid only while the tracking
// session that produced it is alive; durability belongs to AnchorRef.
type Handle interface {
	Pose() model.Pose
}

// TrackingService is the platform collaborator that owns the live
// tracking session. Export/Import may be unsupported; callers must check
// StatePersistenceSupported and branch rather than treat absence as an
// error.
type TrackingService interface {
	// CreateAnchor allocates a live anchor at pose. May fail; the
	// registry then persists nothing.
	CreateAnchor(ctx context.Context, pose model.Pose) (Handle, error)

	// RemoveAnchor releases a live anchor.
	RemoveAnchor(h Handle)

	// ExportState serializes the platform's internal spatial map.
	// Unbounded latency: it grows with the device feature map.
	ExportState(ctx context.Context) ([]byte, error)

	// ImportState initializes tracking from a previously exported map.
	// The platform deserializer decides validity.
	ImportState(ctx context.Context, data []byte) error

	// StatePersistenceSupported reports whether Export/Import work on
	// this platform.
	StatePersistenceSupported() bool
}
