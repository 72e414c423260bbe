package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/attitude_computer/internal/madgwick"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDReplay   string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTClientIDHeading  string

	// Topics
	TopicAttitude string
	TopicPose     string
	TopicIMURaw   string
	TopicEnv      string
	TopicHeading  string

	// Filter parameters
	FilterBeta         float64
	FilterSampleRateHz float64

	// IMU source: "spi" for the MPU-9250, "mock" for synthetic samples.
	IMUSource    string
	IMUSPIDevice string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte
	// Milliseconds between producer ticks.
	IMUSampleInterval int

	// Barometer (optional; empty disables the environment topic)
	BaroSPIDevice string

	// External NMEA compass
	HeadingSerialPort string
	HeadingBaudRate   int

	// Dataset replay
	DatasetPath    string
	DatasetFormat  string // "csv" or "eth"
	ReplayRealtime bool

	// Web server
	WebServerPort   int
	WebPushInterval int // milliseconds between websocket pushes

	// Display
	DisplayUpdateInterval int // milliseconds
}

// Package-level singleton, initialized once via InitGlobal and read via
// Get. The RWMutex lets the producer goroutines read concurrently.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config pre-filled with every value that has a
// sensible default; Load overrides from the file on top of it.
func defaults() *Config {
	return &Config{
		MQTTClientIDProducer: "attitude-producer",
		MQTTClientIDReplay:   "attitude-replay",
		MQTTClientIDConsole:  "attitude-console",
		MQTTClientIDWeb:      "attitude-web",
		MQTTClientIDDisplay:  "attitude-display",
		MQTTClientIDHeading:  "attitude-heading",

		TopicAttitude: "attitude/quaternion",
		TopicPose:     "attitude/pose",
		TopicIMURaw:   "attitude/imu/raw",
		TopicEnv:      "attitude/env",
		TopicHeading:  "attitude/heading",

		FilterBeta:         madgwick.DefaultBeta,
		FilterSampleRateHz: 1.0 / madgwick.DefaultSamplePeriod,

		IMUSource:         "spi",
		IMUSampleInterval: 10,

		HeadingBaudRate: 4800,

		DatasetFormat: "csv",

		WebServerPort:   8080,
		WebPushInterval: 100,

		DisplayUpdateInterval: 250,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_REPLAY":
		c.MQTTClientIDReplay = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_HEADING":
		c.MQTTClientIDHeading = value

	// Topics
	case "TOPIC_ATTITUDE":
		c.TopicAttitude = value
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_IMU_RAW":
		c.TopicIMURaw = value
	case "TOPIC_ENV":
		c.TopicEnv = value
	case "TOPIC_HEADING":
		c.TopicHeading = value

	// Filter
	case "FILTER_BETA":
		beta, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid FILTER_BETA %q: %w", value, err)
		}
		if beta < 0 {
			return fmt.Errorf("FILTER_BETA must be >= 0, got %g", beta)
		}
		c.FilterBeta = beta
	case "FILTER_SAMPLE_RATE_HZ":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid FILTER_SAMPLE_RATE_HZ %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("FILTER_SAMPLE_RATE_HZ must be > 0, got %g", rate)
		}
		c.FilterSampleRateHz = rate

	// IMU
	case "IMU_SOURCE":
		if value != "spi" && value != "mock" {
			return fmt.Errorf("IMU_SOURCE must be \"spi\" or \"mock\", got %q", value)
		}
		c.IMUSource = value
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)
	case "IMU_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("IMU_SAMPLE_INTERVAL must be > 0, got %d", interval)
		}
		c.IMUSampleInterval = interval

	// Barometer
	case "BARO_SPI_DEVICE":
		c.BaroSPIDevice = value

	// Heading
	case "HEADING_SERIAL_PORT":
		c.HeadingSerialPort = value
	case "HEADING_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HEADING_BAUD_RATE %q: %w", value, err)
		}
		c.HeadingBaudRate = rate

	// Dataset
	case "DATASET_PATH":
		c.DatasetPath = value
	case "DATASET_FORMAT":
		if value != "csv" && value != "eth" {
			return fmt.Errorf("DATASET_FORMAT must be \"csv\" or \"eth\", got %q", value)
		}
		c.DatasetFormat = value
	case "REPLAY_REALTIME":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid REPLAY_REALTIME %q: %w", value, err)
		}
		c.ReplayRealtime = b

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "WEB_PUSH_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_PUSH_INTERVAL %q: %w", value, err)
		}
		c.WebPushInterval = interval

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.IMUSource == "spi" && c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required when IMU_SOURCE=spi")
	}
	return nil
}

// FilterConfig converts the file values into the filter's configuration.
func (c *Config) FilterConfig() madgwick.Config {
	return madgwick.Config{
		Beta:         c.FilterBeta,
		SamplePeriod: 1.0 / c.FilterSampleRateHz,
	}
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
