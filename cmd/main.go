package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/api"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/config"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/services"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to the configuration file")
		port       = flag.Int("port", 0, "Port to listen on, overrides the config file when set")
	)
	flag.Parse()

	var (
		cfg *config.ProxyConfig
		err error
	)
	if _, statErr := os.Stat(*configPath); os.IsNotExist(statErr) {
		logging.Warnf("Config file not found at %s, using built-in defaults", *configPath)
		cfg = config.Default()
		config.Replace(cfg)
	} else {
		cfg, err = config.Load(*configPath)
		if err != nil {
			logging.Fatalf("Failed to load config: %v", err)
		}
	}

	logging.Init(cfg.Logging.Level)
	defer logging.Sync()

	if *port != 0 {
		cfg.Server.Port = *port
	}

	svc, err := services.NewAnalysisService(cfg)
	if err != nil {
		logging.Fatalf("Failed to create analysis service: %v", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go svc.WatchConfigUpdates(ctx)

	logging.Infof("Starting secure proxy with config: %s", *configPath)
	if err := api.StartAnalysisAPI(cfg, svc); err != nil {
		logging.Fatalf("API server error: %v", err)
	}
}
