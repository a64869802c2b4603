package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"RangePulse/internal/di"
	"RangePulse/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		if !errors.Is(err, config.ErrConfigMissing) {
			log.Fatalf("config load failed: %v", err)
		}
		log.Printf("config: %v", err)
	}

	log.Printf("env=%s tf=%s symbols=%v", cfg.Environment, cfg.Scanner.Timeframe, cfg.Scanner.Symbols)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
