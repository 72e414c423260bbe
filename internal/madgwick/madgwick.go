// Package madgwick implements Madgwick's gradient-descent orientation
// filter. Each update fuses one gyroscope sample with an accelerometer
// (and optionally magnetometer) sample and advances a caller-owned unit
// quaternion by one sample period.
//
// The filter holds no per-stream state: the whole estimate is the
// quaternion passed in and returned, so independent streams can share
// one Filter from separate goroutines.
package madgwick

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/attitude_computer/internal/imu"
	"github.com/relabs-tech/attitude_computer/internal/quaternion"
)

// Defaults match the canonical formulation: a 256 Hz sample stream and a
// modest correction gain.
const (
	DefaultBeta         = 0.1
	DefaultSamplePeriod = 1.0 / 256.0
)

// ErrNonFinite is returned when an input vector or quaternion carries
// NaN or Inf components, or a prior quaternion with zero norm. Feeding
// such values through the update would silently poison every later
// estimate, so the call fails instead.
var ErrNonFinite = errors.New("madgwick: non-finite input")

// Config carries the two filter parameters. A Config is immutable once
// handed to New; per-call overrides go through the ...With variants.
type Config struct {
	// Beta trades noisy-but-unbiased reference correction against
	// smooth-but-drifting gyro integration.
	Beta float64
	// SamplePeriod is the time between samples in seconds.
	SamplePeriod float64
}

// DefaultConfig returns the canonical gain and sample period.
func DefaultConfig() Config {
	return Config{Beta: DefaultBeta, SamplePeriod: DefaultSamplePeriod}
}

// Filter applies Madgwick updates with a fixed configuration.
type Filter struct {
	cfg Config
}

// New returns a filter with the given configuration. Zero-valued fields
// fall back to the defaults.
func New(cfg Config) *Filter {
	if cfg.Beta == 0 {
		cfg.Beta = DefaultBeta
	}
	if cfg.SamplePeriod == 0 {
		cfg.SamplePeriod = DefaultSamplePeriod
	}
	return &Filter{cfg: cfg}
}

// Config returns the filter's configuration.
func (f *Filter) Config() Config {
	return f.cfg
}

// UpdateIMU advances the orientation estimate q by one gyro+accel sample.
// gyro is in rad/s; accel in any consistent unit (only its direction is
// used). A zero-norm accel sample yields q unchanged: there is no gravity
// reference to correct against, and a transient dropout must not
// destabilize the estimate.
func (f *Filter) UpdateIMU(gyro, accel imu.Vector3, q quaternion.Quaternion) (quaternion.Quaternion, error) {
	return UpdateIMUWith(f.cfg, gyro, accel, q)
}

// UpdateMARG advances the orientation estimate q by one gyro+accel+mag
// sample. A zero-norm accel or mag sample yields q unchanged.
func (f *Filter) UpdateMARG(gyro, accel, mag imu.Vector3, q quaternion.Quaternion) (quaternion.Quaternion, error) {
	return UpdateMARGWith(f.cfg, gyro, accel, mag, q)
}

// UpdateIMUWith is UpdateIMU with an explicit per-call configuration.
func UpdateIMUWith(cfg Config, gyro, accel imu.Vector3, q quaternion.Quaternion) (quaternion.Quaternion, error) {
	if !gyro.IsFinite() || !accel.IsFinite() {
		return q, fmt.Errorf("gyro/accel sample: %w", ErrNonFinite)
	}
	if !q.IsFinite() {
		return q, fmt.Errorf("prior quaternion: %w", ErrNonFinite)
	}

	aNorm := accel.Norm()
	if aNorm == 0 {
		return q, nil
	}
	ax := accel.X / aNorm
	ay := accel.Y / aNorm
	az := accel.Z / aNorm

	if q.Norm() == 0 {
		return q, fmt.Errorf("prior quaternion has zero norm: %w", ErrNonFinite)
	}
	q = q.Normalized()
	qw, qx, qy, qz := q.W, q.X, q.Y, q.Z

	// Objective function: predicted gravity direction minus measurement.
	f1 := 2*(qx*qz-qw*qy) - ax
	f2 := 2*(qw*qx+qy*qz) - ay
	f3 := 2*(0.5-qx*qx-qy*qy) - az

	// step = Jt*F with the analytic 3x4 Jacobian of the gravity map.
	step := quaternion.Quaternion{
		W: -2*qy*f1 + 2*qx*f2,
		X: 2*qz*f1 + 2*qw*f2 - 4*qx*f3,
		Y: -2*qw*f1 + 2*qz*f2 - 4*qy*f3,
		Z: 2*qx*f1 + 2*qy*f2,
	}

	return integrate(cfg, gyro, q, step), nil
}

// UpdateMARGWith is UpdateMARG with an explicit per-call configuration.
func UpdateMARGWith(cfg Config, gyro, accel, mag imu.Vector3, q quaternion.Quaternion) (quaternion.Quaternion, error) {
	if !gyro.IsFinite() || !accel.IsFinite() || !mag.IsFinite() {
		return q, fmt.Errorf("gyro/accel/mag sample: %w", ErrNonFinite)
	}
	if !q.IsFinite() {
		return q, fmt.Errorf("prior quaternion: %w", ErrNonFinite)
	}

	aNorm := accel.Norm()
	if aNorm == 0 {
		return q, nil
	}
	ax := accel.X / aNorm
	ay := accel.Y / aNorm
	az := accel.Z / aNorm

	mNorm := mag.Norm()
	if mNorm == 0 {
		return q, nil
	}
	mx := mag.X / mNorm
	my := mag.Y / mNorm
	mz := mag.Z / mNorm

	if q.Norm() == 0 {
		return q, fmt.Errorf("prior quaternion has zero norm: %w", ErrNonFinite)
	}
	q = q.Normalized()
	qw, qx, qy, qz := q.W, q.X, q.Y, q.Z

	// Reference direction of Earth's magnetic field: rotate the reading
	// into the reference frame and fold all horizontal energy onto the
	// north axis, discarding declination.
	h := q.Prod(quaternion.FromVector(mx, my, mz).Prod(q.Conj()))
	bx := math.Sqrt(h.X*h.X + h.Y*h.Y)
	bz := h.Z

	// Objective function: gravity rows as in the IMU update, then the
	// predicted field from (bx, bz) minus the measurement.
	f1 := 2*(qx*qz-qw*qy) - ax
	f2 := 2*(qw*qx+qy*qz) - ay
	f3 := 2*(0.5-qx*qx-qy*qy) - az
	f4 := 2*bx*(0.5-qy*qy-qz*qz) + 2*bz*(qx*qz-qw*qy) - mx
	f5 := 2*bx*(qx*qy-qw*qz) + 2*bz*(qw*qx+qy*qz) - my
	f6 := 2*bx*(qw*qy+qx*qz) + 2*bz*(0.5-qx*qx-qy*qy) - mz

	// step = Jt*F with the 6x4 Jacobian; the first three columns of each
	// sum are the gravity rows, the rest the field rows.
	step := quaternion.Quaternion{
		W: -2*qy*f1 + 2*qx*f2 +
			-2*bz*qy*f4 + (-2*bx*qz+2*bz*qx)*f5 + 2*bx*qy*f6,
		X: 2*qz*f1 + 2*qw*f2 - 4*qx*f3 +
			2*bz*qz*f4 + (2*bx*qy+2*bz*qw)*f5 + (2*bx*qz-4*bz*qx)*f6,
		Y: -2*qw*f1 + 2*qz*f2 - 4*qy*f3 +
			(-4*bx*qy-2*bz*qw)*f4 + (2*bx*qx+2*bz*qz)*f5 + (2*bx*qw-4*bz*qy)*f6,
		Z: 2*qx*f1 + 2*qy*f2 +
			(-4*bx*qz+2*bz*qx)*f4 + (-2*bx*qw+2*bz*qy)*f5 + 2*bx*qx*f6,
	}

	return integrate(cfg, gyro, q, step), nil
}

// integrate blends the normalized descent step with gyro integration and
// advances q by one sample period. A zero-norm step means the estimate
// already matches the reference direction exactly; the original
// formulation divides by that norm regardless, so the correction term is
// skipped here instead of propagating NaN.
func integrate(cfg Config, gyro imu.Vector3, q, step quaternion.Quaternion) quaternion.Quaternion {
	qDot := q.Prod(quaternion.FromVector(gyro.X, gyro.Y, gyro.Z)).Scale(0.5)
	if n := step.Norm(); n > 0 {
		qDot = qDot.Add(step.Scale(-cfg.Beta / n))
	}
	return q.Add(qDot.Scale(cfg.SamplePeriod)).Normalized()
}
