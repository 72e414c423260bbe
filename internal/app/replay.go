package app

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/attitude_computer/internal/config"
	"github.com/relabs-tech/attitude_computer/internal/dataset"
	"github.com/relabs-tech/attitude_computer/internal/madgwick"
	"github.com/relabs-tech/attitude_computer/internal/orientation"
	"github.com/relabs-tech/attitude_computer/internal/quaternion"
)

// RunReplay streams a recorded dataset through the filter, publishing
// the fused attitude over MQTT and, when the recording carries ground
// truth, logging angular-error statistics at the end.
func RunReplay() error {
	cfg := config.Get()
	if cfg.DatasetPath == "" {
		return errors.New("DATASET_PATH is required for replay")
	}

	d, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return err
	}
	log.Printf("replay: loaded %d samples from %s (mag=%v, groundtruth=%v)",
		d.Len(), cfg.DatasetPath, d.HasMag, len(d.Ref) > 0)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDReplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	filter := madgwick.New(cfg.FilterConfig())

	// Seed from ground truth when the recording has it, identity
	// otherwise.
	q := quaternion.Identity()
	if ref, ok := d.RefAt(d.Time[0], 0); ok {
		q = ref.Normalized()
	}

	var errorsRad []float64
	src := d.Samples()
	prevT := d.Time[0]

	for i := 0; ; i++ {
		sample, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		// Integrate over the recorded timestamps; the first sample has
		// no predecessor and uses the configured period.
		period := filter.Config()
		if dt := sample.Time - prevT; dt > 0 {
			period.SamplePeriod = dt
		}
		prevT = sample.Time

		if sample.HasMag {
			q, err = madgwick.UpdateMARGWith(period, sample.Gyro, sample.Accel, sample.Mag, q)
		} else {
			q, err = madgwick.UpdateIMUWith(period, sample.Gyro, sample.Accel, q)
		}
		if err != nil {
			log.Printf("replay: sample %d rejected: %v", i, err)
			continue
		}

		if ref, ok := d.RefAt(sample.Time, i); ok {
			errorsRad = append(errorsRad, q.AngleTo(ref.Normalized()))
		}

		att := orientation.Attitude{
			Q:    q,
			Pose: orientation.PoseFromQuaternion(q),
			Time: time.Now().Format(time.RFC3339),
		}
		if payload, err := json.Marshal(att); err != nil {
			log.Printf("replay: marshal error: %v", err)
		} else {
			client.Publish(cfg.TopicAttitude, 0, true, payload)
		}

		if cfg.ReplayRealtime {
			time.Sleep(time.Duration(period.SamplePeriod * float64(time.Second)))
		}
	}

	pose := orientation.PoseFromQuaternion(q)
	log.Printf("replay: done, final attitude R=%.2f P=%.2f Y=%.2f", pose.Roll, pose.Pitch, pose.Yaw)

	if len(errorsRad) > 0 {
		const toDeg = 180.0 / math.Pi
		mean := stat.Mean(errorsRad, nil)
		sigma := stat.StdDev(errorsRad, nil)
		worst := floats.Max(errorsRad)
		log.Printf("replay: angular error vs ground truth over %d samples: mean=%.2f° stddev=%.2f° max=%.2f°",
			len(errorsRad), mean*toDeg, sigma*toDeg, worst*toDeg)
	}
	return nil
}
