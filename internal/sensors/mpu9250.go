// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	"github.com/relabs-tech/attitude_computer/internal/imu"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MPU-9250 register addresses used by this driver.
const (
	regSmplrtDiv    = 0x19 // sample rate divider
	regConfig       = 0x1A // DLPF configuration
	regGyroConfig   = 0x1B // GYRO_FS_SEL in bits 4:3
	regAccelConfig  = 0x1C // ACCEL_FS_SEL in bits 4:3
	regAccelConfig2 = 0x1D
	regAccelXoutH   = 0x3B // start of the 14-byte accel/temp/gyro block
	regUserCtrl     = 0x6A
	regPwrMgmt1     = 0x6B
	regWhoAmI       = 0x75

	whoAmIMPU9250 = 0x71
	whoAmIMPU9255 = 0x73

	// PWR_MGMT_1 bits
	bitHReset     = 0x80
	bitClkselAuto = 0x01
	// USER_CTRL bits
	bitI2CIfDis = 0x10 // force SPI-only, disables the I2C slave interface
)

// MPU9250 drives the accelerometer and gyroscope of an MPU-9250 (or
// MPU-9255) over SPI.
type MPU9250 struct {
	name string
	port spi.PortCloser
	conn spi.Conn

	accelRange byte
	gyroRange  byte
}

// NewMPU9250 opens the SPI device and brings the chip out of sleep with
// the given full-scale range codes (0-3, see config docs).
func NewMPU9250(name, spiDev string, accelRange, gyroRange byte) (*MPU9250, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI open (%s): %w", name, spiDev, err)
	}

	conn, err := port.Connect(1*physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%s IMU: SPI connect: %w", name, err)
	}

	m := &MPU9250{
		name:       name,
		port:       port,
		conn:       conn,
		accelRange: accelRange & 0x03,
		gyroRange:  gyroRange & 0x03,
	}

	if err := m.init(); err != nil {
		port.Close()
		return nil, err
	}
	return m, nil
}

func (m *MPU9250) init() error {
	id, err := m.readReg(regWhoAmI)
	if err != nil {
		return fmt.Errorf("%s IMU: WHO_AM_I read: %w", m.name, err)
	}
	if id != whoAmIMPU9250 && id != whoAmIMPU9255 {
		return fmt.Errorf("%s IMU: unexpected WHO_AM_I 0x%02X (want 0x71 or 0x73)", m.name, id)
	}

	// Reset, wait for the device to settle, then select the best
	// available clock and cut the I2C slave interface.
	if err := m.writeReg(regPwrMgmt1, bitHReset); err != nil {
		return fmt.Errorf("%s IMU: reset: %w", m.name, err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := m.writeReg(regPwrMgmt1, bitClkselAuto); err != nil {
		return fmt.Errorf("%s IMU: clock select: %w", m.name, err)
	}
	if err := m.writeReg(regUserCtrl, bitI2CIfDis); err != nil {
		return fmt.Errorf("%s IMU: user control: %w", m.name, err)
	}

	// 41 Hz gyro DLPF, 1 kHz internal rate divided down to 200 Hz.
	if err := m.writeReg(regConfig, 0x03); err != nil {
		return fmt.Errorf("%s IMU: DLPF config: %w", m.name, err)
	}
	if err := m.writeReg(regSmplrtDiv, 0x04); err != nil {
		return fmt.Errorf("%s IMU: sample rate divider: %w", m.name, err)
	}

	if err := m.writeReg(regGyroConfig, m.gyroRange<<3); err != nil {
		return fmt.Errorf("%s IMU: gyro range: %w", m.name, err)
	}
	if err := m.writeReg(regAccelConfig, m.accelRange<<3); err != nil {
		return fmt.Errorf("%s IMU: accel range: %w", m.name, err)
	}
	// 41 Hz accel DLPF to match the gyro path.
	if err := m.writeReg(regAccelConfig2, 0x03); err != nil {
		return fmt.Errorf("%s IMU: accel DLPF: %w", m.name, err)
	}
	return nil
}

// ReadRaw burst-reads the accel/temp/gyro block in one transaction.
func (m *MPU9250) ReadRaw() (imu.Raw, error) {
	// 1 address byte + 14 data bytes (accel xyz, temp, gyro xyz).
	w := make([]byte, 15)
	r := make([]byte, 15)
	w[0] = regAccelXoutH | 0x80
	if err := m.conn.Tx(w, r); err != nil {
		return imu.Raw{}, fmt.Errorf("%s IMU: burst read: %w", m.name, err)
	}
	b := r[1:]
	return imu.Raw{
		Source: m.name,
		Ax:     int16(uint16(b[0])<<8 | uint16(b[1])),
		Ay:     int16(uint16(b[2])<<8 | uint16(b[3])),
		Az:     int16(uint16(b[4])<<8 | uint16(b[5])),
		// b[6:8] is the temperature, not used here.
		Gx: int16(uint16(b[8])<<8 | uint16(b[9])),
		Gy: int16(uint16(b[10])<<8 | uint16(b[11])),
		Gz: int16(uint16(b[12])<<8 | uint16(b[13])),
	}, nil
}

// AccelRange returns the configured accelerometer range code.
func (m *MPU9250) AccelRange() byte { return m.accelRange }

// GyroRange returns the configured gyroscope range code.
func (m *MPU9250) GyroRange() byte { return m.gyroRange }

// Close releases the SPI port.
func (m *MPU9250) Close() error {
	return m.port.Close()
}

func (m *MPU9250) readReg(reg byte) (byte, error) {
	w := []byte{reg | 0x80, 0}
	r := make([]byte, 2)
	if err := m.conn.Tx(w, r); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (m *MPU9250) writeReg(reg, val byte) error {
	return m.conn.Tx([]byte{reg, val}, nil)
}
