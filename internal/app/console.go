package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/attitude_computer/internal/config"
	"github.com/relabs-tech/attitude_computer/internal/env"
	"github.com/relabs-tech/attitude_computer/internal/imu"
	"github.com/relabs-tech/attitude_computer/internal/orientation"
)

// RunConsole subscribes to the attitude topics and prints everything it
// sees, one line per message.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	subscribe := func(topic string, handler mqtt.MessageHandler) error {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
		return nil
	}

	if err := subscribe(cfg.TopicAttitude, func(_ mqtt.Client, msg mqtt.Message) {
		var a orientation.Attitude
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("console: attitude unmarshal error: %v", err)
			return
		}
		fmt.Printf("[ATT ]  q=(%+.4f %+.4f %+.4f %+.4f)  ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f\n",
			a.Q.W, a.Q.X, a.Q.Y, a.Q.Z, a.Pose.Roll, a.Pose.Pitch, a.Pose.Yaw)
	}); err != nil {
		return err
	}

	if err := subscribe(cfg.TopicPose, func(_ mqtt.Client, msg mqtt.Message) {
		var p orientation.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: pose unmarshal error: %v", err)
			return
		}
		fmt.Printf("[POSE]  ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f\n", p.Roll, p.Pitch, p.Yaw)
	}); err != nil {
		return err
	}

	if err := subscribe(cfg.TopicIMURaw, func(_ mqtt.Client, msg mqtt.Message) {
		var r imu.Raw
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: raw IMU unmarshal error: %v", err)
			return
		}
		fmt.Printf("[IMU ]  ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d\n",
			r.Ax, r.Ay, r.Az, r.Gx, r.Gy, r.Gz)
	}); err != nil {
		return err
	}

	if err := subscribe(cfg.TopicEnv, func(_ mqtt.Client, msg mqtt.Message) {
		var e env.Sample
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("console: env unmarshal error: %v", err)
			return
		}
		fmt.Printf("[ENV ]  temp=%.1f°C  pressure=%.1fhPa  alt=%.0fm\n",
			e.Temperature, e.PressureHPa, e.Altitude)
	}); err != nil {
		return err
	}

	if err := subscribe(cfg.TopicHeading, func(_ mqtt.Client, msg mqtt.Message) {
		var h Heading
		if err := json.Unmarshal(msg.Payload(), &h); err != nil {
			log.Printf("console: heading unmarshal error: %v", err)
			return
		}
		fmt.Printf("[HDG ]  heading=%.1f° (%s)\n", h.Degrees, h.Source)
	}); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
