package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/attitude_computer/internal/config"
	"github.com/relabs-tech/attitude_computer/internal/imu"
	"github.com/relabs-tech/attitude_computer/internal/madgwick"
	"github.com/relabs-tech/attitude_computer/internal/orientation"
	"github.com/relabs-tech/attitude_computer/internal/quaternion"
	"github.com/relabs-tech/attitude_computer/internal/sensors"
)

// RunAttitudeProducer reads the IMU, runs the Madgwick filter per tick,
// and publishes the fused attitude (plus raw and environment telemetry)
// over MQTT.
func RunAttitudeProducer() error {
	log.Println("starting attitude-computer producer")

	cfg := config.Get()

	// --- Choose sample source (mock vs real IMU) ---
	var (
		src       imu.Source
		rawReader imu.RawSource
		err       error
	)
	if cfg.IMUSource == "mock" {
		log.Println("using mock sample source")
		src = sensors.NewMockSource()
	} else {
		src, err = sensors.NewIMUSource()
		if err != nil {
			return err
		}
		// The SPI source can also hand out unscaled counts.
		if r, ok := src.(imu.RawSource); ok {
			rawReader = r
		}
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting fusion loop")

	filter := madgwick.New(cfg.FilterConfig())
	q := quaternion.Identity()

	var lastTickTime time.Time

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		// The filter integrates over the measured tick period, not the
		// nominal one, so a stalled tick doesn't under-rotate.
		period := filter.Config()
		if !lastTickTime.IsZero() {
			period.SamplePeriod = t.Sub(lastTickTime).Seconds()
		}
		lastTickTime = t

		sample, err := src.Next()
		if err != nil {
			log.Printf("error reading IMU: %v", err)
			continue
		}

		if sample.HasMag {
			q, err = madgwick.UpdateMARGWith(period, sample.Gyro, sample.Accel, sample.Mag, q)
		} else {
			q, err = madgwick.UpdateIMUWith(period, sample.Gyro, sample.Accel, q)
		}
		if err != nil {
			log.Printf("filter update rejected sample: %v", err)
			continue
		}

		pose := orientation.PoseFromQuaternion(q)
		att := orientation.Attitude{
			Q:    q,
			Pose: pose,
			Time: t.Format(time.RFC3339),
		}

		if payload, err := json.Marshal(att); err != nil {
			log.Printf("json marshal error (attitude): %v", err)
		} else if token := client.Publish(cfg.TopicAttitude, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (attitude): %v", token.Error())
			continue
		}

		if payload, err := json.Marshal(pose); err != nil {
			log.Printf("json marshal error (pose): %v", err)
		} else if token := client.Publish(cfg.TopicPose, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error (pose): %v", token.Error())
			continue
		}

		// Raw counts, straight off the bus, for debugging.
		if rawReader != nil {
			if raw, err := rawReader.ReadRaw(); err != nil {
				log.Printf("raw IMU read error: %v", err)
			} else if payload, err := json.Marshal(raw); err != nil {
				log.Printf("raw IMU marshal error: %v", err)
			} else {
				client.Publish(cfg.TopicIMURaw, 0, true, payload)
			}
		}

		// Environment (optional barometer).
		if cfg.BaroSPIDevice != "" {
			if envS, err := sensors.ReadEnv(); err != nil {
				log.Printf("env read error: %v", err)
			} else if payload, err := json.Marshal(envS); err != nil {
				log.Printf("env marshal error: %v", err)
			} else {
				client.Publish(cfg.TopicEnv, 0, true, payload)
			}
		}

		log.Printf("%s tick: R=%.2f P=%.2f Y=%.2f | q=(%.4f %.4f %.4f %.4f) | gyro=(%.3f %.3f %.3f)",
			t.Format(time.RFC3339),
			pose.Roll, pose.Pitch, pose.Yaw,
			q.W, q.X, q.Y, q.Z,
			sample.Gyro.X, sample.Gyro.Y, sample.Gyro.Z,
		)
	}
	return nil
}
