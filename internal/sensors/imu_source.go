// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"log"
	"time"

	"github.com/relabs-tech/attitude_computer/internal/config"
	"github.com/relabs-tech/attitude_computer/internal/imu"
)

type imuSource struct {
	dev   *MPU9250
	start time.Time
}

// NewIMUSource initializes the MPU-9250 from the global configuration
// and returns it as a sample source for the fusion loop.
func NewIMUSource() (imu.Source, error) {
	cfg := config.Get()

	dev, err := NewMPU9250("main", cfg.IMUSPIDevice, cfg.IMUAccelRange, cfg.IMUGyroRange)
	if err != nil {
		return nil, err
	}

	log.Printf("main IMU: accelerometer range set to %d (±%dg)",
		cfg.IMUAccelRange, []int{2, 4, 8, 16}[cfg.IMUAccelRange])
	log.Printf("main IMU: gyroscope range set to %d (±%d°/s)",
		cfg.IMUGyroRange, []int{250, 500, 1000, 2000}[cfg.IMUGyroRange])

	return &imuSource{dev: dev, start: time.Now()}, nil
}

// Next reads one raw block off the sensor and scales it to filter units.
// The MPU-9250's magnetometer hangs off the internal I2C master, which
// this SPI-only driver leaves disabled, so samples never carry mag data
// and the producer fuses accel+gyro only.
func (s *imuSource) Next() (imu.Sample, error) {
	raw, err := s.dev.ReadRaw()
	if err != nil {
		return imu.Sample{}, err
	}
	return ConvertRaw(raw, s.dev.AccelRange(), s.dev.GyroRange(), time.Since(s.start).Seconds()), nil
}

// ReadRaw exposes the unscaled counts for the raw telemetry topic.
func (s *imuSource) ReadRaw() (imu.Raw, error) {
	return s.dev.ReadRaw()
}
