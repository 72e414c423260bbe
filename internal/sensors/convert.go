package sensors

import (
	"math"

	"github.com/relabs-tech/attitude_computer/internal/imu"
)

// Full-scale values per range code, from the MPU-9250 register map.
var (
	accelRangeG  = [4]float64{2, 4, 8, 16}
	gyroRangeDps = [4]float64{250, 500, 1000, 2000}
)

// ConvertRaw scales raw register counts into the units the filter
// consumes: accel in g, gyro in rad/s. Pure, so it is testable without
// hardware.
func ConvertRaw(raw imu.Raw, accelRange, gyroRange byte, t float64) imu.Sample {
	aScale := accelRangeG[accelRange&0x03] / 32768.0
	gScale := gyroRangeDps[gyroRange&0x03] / 32768.0 * math.Pi / 180.0

	return imu.Sample{
		Time: t,
		Accel: imu.Vector3{
			X: float64(raw.Ax) * aScale,
			Y: float64(raw.Ay) * aScale,
			Z: float64(raw.Az) * aScale,
		},
		Gyro: imu.Vector3{
			X: float64(raw.Gx) * gScale,
			Y: float64(raw.Gy) * gScale,
			Z: float64(raw.Gz) * gScale,
		},
	}
}
