package main

import (
	"flag"
	"log"
	"os"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/internal/di"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/config"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		log.Fatalf("logger setup failed: %v", err)
	}

	log.Printf("env=%s workers=%d", cfg.Environment, cfg.Engine.Workers)

	// Wire DI: initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg, l)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	log.Printf("clickhouse: connected and schema ready - db: %s", cfg.ClickHouse.Database)

	// Run the feature refresh (blocks until done or signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		cleanup()
		os.Exit(1)
	}
}
