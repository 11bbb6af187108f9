// Package anchor bridges transient platform anchor handles to durable
// AnchorRef identity and drives the relocalization protocol across
// sessions. The registry exclusively owns the live-handle map; everything
// else goes through its operations.
package anchor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"memgarden/internal/model"
	"memgarden/internal/store"
	"memgarden/internal/worldmap"
)

// State of the relocalization machine.
type State int

const (
	// StateCold is the initial state: no tracking session yet.
	StateCold State = iota
	// StateAttemptingRestore means a snapshot import is in flight.
	StateAttemptingRestore
	// StateTracking accepts anchor creation and found events.
	StateTracking
	// StateDegraded means no live session backs the durable refs; their
	// poses are approximate hints until the user re-scans.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "cold"
	case StateAttemptingRestore:
		return "attempting_restore"
	case StateTracking:
		return "tracking"
	case StateDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FoundEvent is emitted when the platform re-observes an anchor whose id
// already exists in the durable store.
type FoundEvent struct {
	Ref    model.AnchorRef
	Handle Handle
}

// Registry is the runtime bridge between live platform anchors and the
// durable anchor store.
type Registry struct {
	tracking  TrackingService
	anchors   store.AnchorStore
	snapshots worldmap.SnapshotStore
	log       *zap.Logger

	mu        sync.Mutex
	state     State
	live      map[string]Handle
	sessionID string

	found chan FoundEvent
	wg    sync.WaitGroup
}

// NewRegistry wires the registry to its collaborators. It starts Cold;
// call RestoreTrackingState and StartSession to bring it up.
func NewRegistry(tracking TrackingService, anchors store.AnchorStore, snapshots worldmap.SnapshotStore, log *zap.Logger) *Registry {
	return &Registry{
		tracking:  tracking,
		anchors:   anchors,
		snapshots: snapshots,
		log:       log,
		state:     StateCold,
		live:      make(map[string]Handle),
		found:     make(chan FoundEvent, 16),
	}
}

// State returns the current relocalization state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SessionID identifies the current tracking session. Empty until a
// session starts.
func (r *Registry) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// Found delivers relocalization found events. The channel is buffered; a
// slow consumer drops events (logged), never blocks the registry.
func (r *Registry) Found() <-chan FoundEvent {
	return r.found
}

func (r *Registry) setState(next State) {
	r.mu.Lock()
	prev := r.state
	r.state = next
	r.mu.Unlock()
	if prev != next {
		r.log.Info("relocalization state changed",
			zap.Stringer("from", prev), zap.Stringer("to", next))
	}
}

// RestoreTrackingState attempts to initialize tracking from the saved
// snapshot, once, at startup. Returns false with no error when there is
// nothing to restore (no snapshot, or no platform support). A snapshot
// the platform rejects leaves the registry Degraded; call StartSession to
// continue with a fresh session.
func (r *Registry) RestoreTrackingState(ctx context.Context) (bool, error) {
	if !r.tracking.StatePersistenceSupported() {
		r.log.Info("tracking snapshot restore unavailable on this platform")
		return false, nil
	}
	if !r.snapshots.Exists() {
		r.log.Info("no tracking snapshot to restore")
		return false, nil
	}

	r.setState(StateAttemptingRestore)

	data, err := r.snapshots.Load()
	if err != nil || len(data) == 0 {
		r.log.Warn("tracking snapshot unreadable", zap.Error(err))
		r.setState(StateDegraded)
		return false, nil
	}
	if err := r.tracking.ImportState(ctx, data); err != nil {
		r.log.Warn("platform rejected tracking snapshot", zap.Error(err))
		r.setState(StateDegraded)
		return false, nil
	}

	r.mu.Lock()
	r.sessionID = uuid.NewString()
	r.mu.Unlock()
	r.setState(StateTracking)
	r.log.Info("tracking snapshot restored", zap.Int("bytes", len(data)))
	return true, nil
}

// StartSession begins a fresh tracking session from Cold or Degraded.
// Idempotent while Tracking.
func (r *Registry) StartSession() {
	r.mu.Lock()
	if r.state == StateTracking {
		r.mu.Unlock()
		return
	}
	r.sessionID = uuid.NewString()
	r.mu.Unlock()
	r.setState(StateTracking)
}

// TrackingLost is called by platform glue when tracking drops after being
// established. Live handles die with the session; durable refs keep their
// last-known poses.
func (r *Registry) TrackingLost() {
	r.mu.Lock()
	n := len(r.live)
	r.live = make(map[string]Handle)
	r.mu.Unlock()
	r.log.Warn("tracking lost, live anchor handles invalidated", zap.Int("dropped", n))
	r.setState(StateDegraded)
}

// CreateAnchor allocates a live platform anchor at pose and persists a
// matching AnchorRef. All-or-nothing at creation: a platform failure
// persists nothing. The durable write is fire-and-forget; the caller
// gets the live anchor immediately, and a write failure only costs
// durability across restarts (logged, not retried).
func (r *Registry) CreateAnchor(ctx context.Context, pose model.Pose, suggestedID string) (*model.AnchorRef, error) {
	r.mu.Lock()
	if r.state != StateTracking {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("create anchor: no tracking session (state %s)", state)
	}
	session := r.sessionID
	r.mu.Unlock()

	h, err := r.tracking.CreateAnchor(ctx, pose)
	if err != nil {
		return nil, fmt.Errorf("platform anchor creation failed: %w", err)
	}

	id := suggestedID
	if id == "" {
		id = uuid.NewString()
	}
	ref := &model.AnchorRef{
		AnchorID:      id,
		WorldPosition: pose.Position,
		WorldRotation: pose.Rotation,
		SessionID:     session,
		LastSeenAt:    time.Now().UTC().Unix(),
	}

	r.mu.Lock()
	r.live[id] = h
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.anchors.Add(context.Background(), ref); err != nil {
			r.log.Error("anchor live but not persisted; it will not survive restart",
				zap.String("anchor_id", id), zap.Error(err))
		}
	}()

	r.log.Debug("anchor created", zap.String("anchor_id", id))
	return ref, nil
}

// RemoveAnchor drops the live handle (if any) and deletes the durable
// ref. Works in Degraded too, where only the durable entry exists.
func (r *Registry) RemoveAnchor(ctx context.Context, id string) {
	r.mu.Lock()
	h, ok := r.live[id]
	delete(r.live, id)
	r.mu.Unlock()

	if ok {
		r.tracking.RemoveAnchor(h)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.anchors.Delete(context.Background(), id); err != nil {
			r.log.Error("failed to delete durable anchor ref",
				zap.String("anchor_id", id), zap.Error(err))
		}
	}()
}

// LiveAnchor returns the live handle for id, if one is registered. It
// never recreates a handle; re-placement after a rescan is the caller's
// decision.
func (r *Registry) LiveAnchor(id string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.live[id]
	return h, ok
}

// ClearAll drops every live handle, releasing the platform anchors.
// Durable refs are untouched. Used on session reset.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	handles := r.live
	r.live = make(map[string]Handle)
	r.mu.Unlock()

	for _, h := range handles {
		r.tracking.RemoveAnchor(h)
	}
	r.log.Info("all live anchors cleared", zap.Int("count", len(handles)))
}

// HandleRelocalized is called by platform glue when the session
// re-observes an anchor. If the id matches a durable ref, the live handle
// is registered, a drifted pose is written back, and a found event is
// emitted.
func (r *Registry) HandleRelocalized(ctx context.Context, id string, h Handle, pose model.Pose) {
	ref, err := r.anchors.GetByID(ctx, id)
	if err != nil {
		r.log.Debug("re-observed anchor has no durable ref, ignoring",
			zap.String("anchor_id", id))
		return
	}

	r.mu.Lock()
	r.live[id] = h
	r.mu.Unlock()

	if ref.WorldPosition != pose.Position || ref.WorldRotation != pose.Rotation {
		ref.WorldPosition = pose.Position
		ref.WorldRotation = pose.Rotation
		ref.LastSeenAt = time.Now().UTC().Unix()
		if _, err := r.anchors.Update(ctx, ref); err != nil {
			r.log.Warn("failed to persist drifted anchor pose",
				zap.String("anchor_id", id), zap.Error(err))
		}
	}

	select {
	case r.found <- FoundEvent{Ref: *ref, Handle: h}:
	default:
		r.log.Warn("found event dropped, consumer too slow",
			zap.String("anchor_id", id))
	}
	r.log.Info("anchor relocalized", zap.String("anchor_id", id))
}

// SaveTrackingState exports the platform spatial map into the snapshot
// slot. A no-op on platforms without support.
func (r *Registry) SaveTrackingState(ctx context.Context) error {
	if !r.tracking.StatePersistenceSupported() {
		r.log.Debug("tracking snapshot save unavailable on this platform")
		return nil
	}

	data, err := r.tracking.ExportState(ctx)
	if err != nil {
		return fmt.Errorf("export tracking state: %w", err)
	}
	if len(data) == 0 {
		r.log.Warn("platform exported empty tracking state, nothing saved")
		return nil
	}
	return r.snapshots.Save(data)
}

// Flush blocks until queued durable writes have completed. Tests and
// orderly shutdown use it; normal operation never waits.
func (r *Registry) Flush() {
	r.wg.Wait()
}
