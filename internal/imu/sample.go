package imu

import "math"

// Vector3 is a tri-axial sensor reading. Gyroscope vectors are in rad/s;
// accelerometer and magnetometer vectors may be in any consistent unit,
// the filter only uses their direction.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean norm of the vector.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// IsFinite reports whether all three components are finite.
func (v Vector3) IsFinite() bool {
	return !(math.IsNaN(v.X) || math.IsInf(v.X, 0) ||
		math.IsNaN(v.Y) || math.IsInf(v.Y, 0) ||
		math.IsNaN(v.Z) || math.IsInf(v.Z, 0))
}

// Sample is one timestamped set of inertial measurements, in the units
// the attitude filter consumes.
type Sample struct {
	Time  float64 `json:"t"`    // seconds, stream-relative
	Gyro  Vector3 `json:"gyro"` // rad/s
	Accel Vector3 `json:"accel"`
	Mag   Vector3 `json:"mag"`
	// HasMag tells consumers whether Mag carries a reading; samples
	// without one are fused accel+gyro only.
	HasMag bool `json:"has_mag"`
}

// Source is anything that can provide samples over time: the SPI IMU,
// a dataset replay, a mock.
type Source interface {
	Next() (Sample, error)
}
