// Package quaternion implements the small amount of quaternion algebra
// the attitude filter needs: Hamilton products, conjugation and
// normalization of unit orientation quaternions and of pure (0,x,y,z)
// vector quaternions.
package quaternion

import "math"

// Quaternion is an orientation quaternion in w,x,y,z order. Orientation
// quaternions are kept at unit norm by their producers; nothing in this
// package renormalizes behind the caller's back.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity returns the no-rotation quaternion (1,0,0,0).
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// FromVector wraps a 3-vector as a pure quaternion (0,x,y,z).
func FromVector(x, y, z float64) Quaternion {
	return Quaternion{X: x, Y: y, Z: z}
}

// Prod returns the Hamilton product p*q. Not commutative.
func (p Quaternion) Prod(q Quaternion) Quaternion {
	return Quaternion{
		W: p.W*q.W - p.X*q.X - p.Y*q.Y - p.Z*q.Z,
		X: p.W*q.X + p.X*q.W + p.Y*q.Z - p.Z*q.Y,
		Y: p.W*q.Y - p.X*q.Z + p.Y*q.W + p.Z*q.X,
		Z: p.W*q.Z + p.X*q.Y - p.Y*q.X + p.Z*q.W,
	}
}

// Conj returns the conjugate, negating the vector part. For a unit
// quaternion this is the inverse rotation.
func (q Quaternion) Conj() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Norm returns the Euclidean norm of the four components.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalized returns q scaled to unit norm. The zero quaternion has no
// direction; callers must check Norm before dividing, as the result here
// would be NaN in every component.
func (q Quaternion) Normalized() Quaternion {
	n := q.Norm()
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// Add returns the componentwise sum p+q.
func (p Quaternion) Add(q Quaternion) Quaternion {
	return Quaternion{W: p.W + q.W, X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Scale returns q with every component multiplied by k.
func (q Quaternion) Scale(k float64) Quaternion {
	return Quaternion{W: k * q.W, X: k * q.X, Y: k * q.Y, Z: k * q.Z}
}

// IsFinite reports whether all four components are finite.
func (q Quaternion) IsFinite() bool {
	return !(math.IsNaN(q.W) || math.IsInf(q.W, 0) ||
		math.IsNaN(q.X) || math.IsInf(q.X, 0) ||
		math.IsNaN(q.Y) || math.IsInf(q.Y, 0) ||
		math.IsNaN(q.Z) || math.IsInf(q.Z, 0))
}

// AngleTo returns the rotation angle in radians between two unit
// quaternions, in [0, Pi]. q and -q describe the same rotation, so the
// dot product is folded to its absolute value.
func (p Quaternion) AngleTo(q Quaternion) float64 {
	dot := p.W*q.W + p.X*q.X + p.Y*q.Y + p.Z*q.Z
	if dot < 0 {
		dot = -dot
	}
	if dot > 1 {
		dot = 1 // rounding guard for Acos
	}
	return 2 * math.Acos(dot)
}

// FromEuler builds the quaternion for intrinsic Z-Y-X (yaw, pitch, roll)
// rotations, angles in radians.
func FromEuler(roll, pitch, yaw float64) Quaternion {
	cr := math.Cos(roll / 2)
	sr := math.Sin(roll / 2)
	cp := math.Cos(pitch / 2)
	sp := math.Sin(pitch / 2)
	cy := math.Cos(yaw / 2)
	sy := math.Sin(yaw / 2)

	return Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}
