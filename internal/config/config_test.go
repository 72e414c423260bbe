package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attitude_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
# attitude computer configuration
MQTT_BROKER=tcp://localhost:1883
IMU_SOURCE=mock

FILTER_BETA=0.033
FILTER_SAMPLE_RATE_HZ=100
IMU_ACCEL_RANGE=2
IMU_GYRO_RANGE=1
TOPIC_ATTITUDE=boat/attitude
DISPLAY_UPDATE_INTERVAL=500
REPLAY_REALTIME=true
`))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "mock", cfg.IMUSource)
	assert.Equal(t, 0.033, cfg.FilterBeta)
	assert.Equal(t, 100.0, cfg.FilterSampleRateHz)
	assert.Equal(t, byte(2), cfg.IMUAccelRange)
	assert.Equal(t, byte(1), cfg.IMUGyroRange)
	assert.Equal(t, "boat/attitude", cfg.TopicAttitude)
	assert.Equal(t, 500, cfg.DisplayUpdateInterval)
	assert.True(t, cfg.ReplayRealtime)

	// Untouched keys keep their defaults.
	assert.Equal(t, "attitude-producer", cfg.MQTTClientIDProducer)
	assert.Equal(t, "attitude/pose", cfg.TopicPose)
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.Equal(t, 4800, cfg.HeadingBaudRate)
}

func TestLoadRequiresBroker(t *testing.T) {
	_, err := Load(writeConfig(t, "IMU_SOURCE=mock\n"))
	assert.ErrorContains(t, err, "MQTT_BROKER")
}

func TestLoadRequiresSPIDeviceForSPISource(t *testing.T) {
	_, err := Load(writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\nIMU_SOURCE=spi\n"))
	assert.ErrorContains(t, err, "IMU_SPI_DEVICE")

	cfg, err := Load(writeConfig(t,
		"MQTT_BROKER=tcp://localhost:1883\nIMU_SOURCE=spi\nIMU_SPI_DEVICE=/dev/spidev0.0\n"))
	require.NoError(t, err)
	assert.Equal(t, "/dev/spidev0.0", cfg.IMUSPIDevice)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "MQTT_BROKER=x\nIMU_SOURCE=mock\nNO_SUCH_KEY=1\n"))
	assert.ErrorContains(t, err, "unknown config key")

	// The display address is fixed by the panel driver, not configurable.
	_, err = Load(writeConfig(t, "MQTT_BROKER=x\nIMU_SOURCE=mock\nDISPLAY_I2C_ADDR=0x3D\n"))
	assert.ErrorContains(t, err, "unknown config key")
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	_, err := Load(writeConfig(t, "MQTT_BROKER tcp://localhost:1883\n"))
	assert.ErrorContains(t, err, "invalid config line 1")
}

func TestLoadValidatesRanges(t *testing.T) {
	base := "MQTT_BROKER=x\nIMU_SOURCE=mock\n"

	_, err := Load(writeConfig(t, base+"IMU_ACCEL_RANGE=4\n"))
	assert.ErrorContains(t, err, "IMU_ACCEL_RANGE")

	_, err = Load(writeConfig(t, base+"FILTER_SAMPLE_RATE_HZ=0\n"))
	assert.ErrorContains(t, err, "FILTER_SAMPLE_RATE_HZ")

	_, err = Load(writeConfig(t, base+"FILTER_BETA=-0.1\n"))
	assert.ErrorContains(t, err, "FILTER_BETA")

	_, err = Load(writeConfig(t, base+"IMU_SOURCE=i2c\n"))
	assert.ErrorContains(t, err, "IMU_SOURCE")

	_, err = Load(writeConfig(t, base+"DATASET_FORMAT=mat\n"))
	assert.ErrorContains(t, err, "DATASET_FORMAT")
}

func TestFilterConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t,
		"MQTT_BROKER=x\nIMU_SOURCE=mock\nFILTER_BETA=0.2\nFILTER_SAMPLE_RATE_HZ=200\n"))
	require.NoError(t, err)

	fc := cfg.FilterConfig()
	assert.Equal(t, 0.2, fc.Beta)
	assert.InDelta(t, 0.005, fc.SamplePeriod, 1e-12)
}
