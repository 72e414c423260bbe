package imu

// Raw is a single raw IMU sample in register counts, as read off the
// sensor before range scaling. Published on the raw telemetry topic for
// debugging.
type Raw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

type RawSource interface {
	ReadRaw() (Raw, error)
}
