package orientation

import (
	"math"

	"github.com/relabs-tech/attitude_computer/internal/quaternion"
)

// Pose is the human-readable orientation: Tait-Bryan angles in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Attitude is the full fused-orientation message published over MQTT:
// the unit quaternion estimate plus its Euler breakdown and timestamp.
type Attitude struct {
	Q    quaternion.Quaternion `json:"q"`
	Pose Pose                  `json:"pose"`
	Time string                `json:"time"` // RFC3339
}

// PoseFromQuaternion converts a unit quaternion to intrinsic Z-Y-X
// (yaw, pitch, roll) angles in degrees. Pitch is clamped to ±90° at the
// gimbal singularity.
func PoseFromQuaternion(q quaternion.Quaternion) Pose {
	rollRad := math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))

	sinPitch := 2 * (q.W*q.Y - q.Z*q.X)
	var pitchRad float64
	switch {
	case sinPitch >= 1:
		pitchRad = math.Pi / 2
	case sinPitch <= -1:
		pitchRad = -math.Pi / 2
	default:
		pitchRad = math.Asin(sinPitch)
	}

	yawRad := math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
		Yaw:   yawRad * 180.0 / math.Pi,
	}
}
