package model

// AnchorRef is the durable identity of a spatial anchor. It outlives the
// platform anchor handle, which dies with the tracking session; the pose
// here is the last one observed, not a live value.
type AnchorRef struct {
	AnchorID      string `json:"anchor_id"`
	WorldPosition Vec3   `json:"world_position"`
	WorldRotation Quat   `json:"world_rotation"`
	SessionID     string `json:"session_id,omitempty"`
	LastSeenAt    int64  `json:"last_seen_at"`
}

// Pose returns the last-known world pose of the anchor.
func (a *AnchorRef) Pose() Pose {
	return Pose{Position: a.WorldPosition, Rotation: a.WorldRotation}
}
