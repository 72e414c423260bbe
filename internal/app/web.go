package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/attitude_computer/internal/config"
	"github.com/relabs-tech/attitude_computer/internal/orientation"
)

// RunWeb serves the latest fused attitude: a JSON endpoint for polling
// and a websocket stream for the live 3D view.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu           sync.RWMutex
		lastAttitude orientation.Attitude
		haveAttitude bool
	)

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to the attitude topic and keep the latest message
	token := client.Subscribe(cfg.TopicAttitude, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var a orientation.Attitude
		if err := json.Unmarshal(msg.Payload(), &a); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastAttitude = a
		haveAttitude = true
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicAttitude)

	// 3) JSON API endpoint: latest attitude
	http.HandleFunc("/api/attitude", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveAttitude {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastAttitude); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 4) Websocket stream: push the latest attitude at a fixed rate
	upgrader := websocket.Upgrader{
		// The page is served from this same process on a LAN box.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	pushInterval := time.Duration(cfg.WebPushInterval) * time.Millisecond

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()
		log.Printf("websocket client connected: %s", r.RemoteAddr)

		ticker := time.NewTicker(pushInterval)
		defer ticker.Stop()

		for range ticker.C {
			mu.RLock()
			a := lastAttitude
			ok := haveAttitude
			mu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(a); err != nil {
				log.Printf("websocket client gone: %s", r.RemoteAddr)
				return
			}
		}
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
