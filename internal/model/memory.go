// Package model defines the core garden data types.
package model

// Vec3 is a world- or anchor-space position.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Quat is a rotation quaternion.
type Quat struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

// IdentityQuat returns the no-rotation quaternion.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// Pose is a position plus rotation pair.
type Pose struct {
	Position Vec3 `json:"position"`
	Rotation Quat `json:"rotation"`
}

// Memory is a user-authored record attached to a physical anchor.
// PhotoPath and AudioPath are relative paths into the media blob store.
type Memory struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Note          string `json:"note,omitempty"`
	PhotoPath     string `json:"photo_path,omitempty"`
	AudioPath     string `json:"audio_path,omitempty"`
	AnchorID      string `json:"anchor_id,omitempty"`
	LocalPosition Vec3   `json:"local_position"`
	LocalRotation Quat   `json:"local_rotation"`
	CreatedAt     int64  `json:"created_at"`
	ModifiedAt    int64  `json:"modified_at"`
}
