package sensors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/attitude_computer/internal/imu"
)

func TestConvertRawAccelScaling(t *testing.T) {
	raw := imu.Raw{Ax: 16384, Ay: -16384, Az: 32767}

	// ±2g range: 16384 counts per g.
	s := ConvertRaw(raw, 0, 0, 1.5)
	assert.InDelta(t, 1.0, s.Accel.X, 1e-9)
	assert.InDelta(t, -1.0, s.Accel.Y, 1e-9)
	assert.InDelta(t, 2.0, s.Accel.Z, 1e-3)
	assert.Equal(t, 1.5, s.Time)

	// ±16g range scales the same counts up 8x.
	s = ConvertRaw(raw, 3, 0, 0)
	assert.InDelta(t, 8.0, s.Accel.X, 1e-9)
}

func TestConvertRawGyroScaling(t *testing.T) {
	raw := imu.Raw{Gx: 32768 / 2, Gy: -32768 / 4, Gz: 0}

	// ±250°/s: half scale is 125°/s.
	s := ConvertRaw(raw, 0, 0, 0)
	assert.InDelta(t, 125*math.Pi/180, s.Gyro.X, 1e-9)
	assert.InDelta(t, -62.5*math.Pi/180, s.Gyro.Y, 1e-9)
	assert.InDelta(t, 0, s.Gyro.Z, 1e-12)

	// ±2000°/s range multiplies by 8.
	s = ConvertRaw(raw, 0, 3, 0)
	assert.InDelta(t, 1000*math.Pi/180, s.Gyro.X, 1e-9)
}

func TestConvertRawRangeCodeMasked(t *testing.T) {
	raw := imu.Raw{Ax: 16384}
	a := ConvertRaw(raw, 0, 0, 0)
	b := ConvertRaw(raw, 4, 4, 0) // out-of-range codes wrap to 0
	assert.Equal(t, a.Accel, b.Accel)
}

func TestMockSourceProducesConsistentGravity(t *testing.T) {
	src := NewMockSource()
	for i := 0; i < 10; i++ {
		s, err := src.Next()
		assert.NoError(t, err)
		assert.True(t, s.HasMag)
		assert.InDelta(t, 1.0, s.Accel.Norm(), 1e-9)
		assert.True(t, s.Gyro.IsFinite())
		assert.Greater(t, s.Mag.Norm(), 0.0)
	}
}
