package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/attitude_computer/internal/imu"
)

type mockSource struct {
	start time.Time
}

// NewMockSource returns a synthetic sample source for development
// without hardware: the body sits roughly level under gravity, rocking
// slowly in roll, with a fixed earth-like magnetic field.
func NewMockSource() imu.Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (imu.Sample, error) {
	elapsed := time.Since(m.start).Seconds()

	roll := 0.2 * math.Sin(0.5*elapsed) // rad
	rollRate := 0.1 * math.Cos(0.5*elapsed)

	return imu.Sample{
		Time: elapsed,
		Gyro: imu.Vector3{X: rollRate},
		Accel: imu.Vector3{
			Y: math.Sin(roll),
			Z: math.Cos(roll),
		},
		// Field magnitudes in µT, roughly central Europe.
		Mag: imu.Vector3{
			X: 21.0,
			Y: math.Sin(roll) * -44.0,
			Z: math.Cos(roll) * -44.0,
		},
		HasMag: true,
	}, nil
}
