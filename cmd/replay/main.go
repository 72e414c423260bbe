package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/attitude_computer/internal/app"
	"github.com/relabs-tech/attitude_computer/internal/config"
)

func main() {
	configPath := flag.String("config", "./attitude_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting attitude-computer dataset replay")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunReplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
