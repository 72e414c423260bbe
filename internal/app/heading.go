package app

import (
	"bufio"
	"encoding/json"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/attitude_computer/internal/config"
)

// Heading is a reference heading from an external NMEA talker, used to
// sanity-check the fused yaw against an independent instrument.
type Heading struct {
	Degrees float64 `json:"heading_deg"`
	Source  string  `json:"source"` // "hdt" or "rmc"
	Time    string  `json:"time"`   // RFC3339
}

// RunHeadingProducer opens the serial port of an external NMEA compass
// (or GPS with heading output), parses HDT sentences — falling back to
// RMC course over ground while the talker is moving — and publishes
// reference headings to MQTT.
func RunHeadingProducer() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDHeading)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("heading producer connected to MQTT broker at %s", cfg.MQTTBroker)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.HeadingSerialPort,
		BaudRate:              uint(cfg.HeadingBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("heading serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("heading read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy talkers and partial sentences are routine
			continue
		}

		var h Heading
		switch sentence.DataType() {
		case nmea.TypeHDT:
			m := sentence.(nmea.HDT)
			h = Heading{Degrees: m.Heading, Source: "hdt"}
		case nmea.TypeRMC:
			m := sentence.(nmea.RMC)
			// Course over ground is meaningless when stationary.
			if m.Speed < 0.5 {
				continue
			}
			h = Heading{Degrees: m.Course, Source: "rmc"}
		default:
			continue
		}
		h.Time = time.Now().UTC().Format(time.RFC3339)

		payload, err := json.Marshal(h)
		if err != nil {
			log.Printf("heading marshal error: %v", err)
			continue
		}

		token := client.Publish(cfg.TopicHeading, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("heading publish error: %v", token.Error())
			continue
		}

		log.Printf("published reference heading: %.1f° (%s)", h.Degrees, h.Source)
	}
}
