// Command onemeter-bridge runs the OneMeter pulse bridge: it loads
// configuration, wires one coordinator per configured device, and serves
// them until terminated.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"onemeter-bridge/pkg/builder"
	"onemeter-bridge/pkg/config"
	"onemeter-bridge/pkg/httpserver"
	"onemeter-bridge/pkg/logger"
	"onemeter-bridge/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ configuration error: %v\n", err)
		os.Exit(1)
	}

	logger.NewLogger(&cfg.Logging)
	logger.LogStartup("🚀 onemeter-bridge starting (version %s, %d device(s))", cfg.Version, len(cfg.Devices))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var collector metrics.MetricsCollector
	if cfg.HTTPServer.Enabled {
		collector = metrics.NewPrometheusMetrics()
	} else {
		collector = metrics.NewNullMetrics()
	}

	mqttSettings := config.NewMQTTSettings(cfg)

	apps := make([]*builder.Application, 0, len(cfg.Devices))
	for _, device := range cfg.Devices {
		app, err := builder.NewApplicationBuilder(device, mqttSettings).
			WithMetrics(collector).
			Build()
		if err != nil {
			logger.LogError("❌ failed to build device %s: %v", device.DeviceID, err)
			os.Exit(1)
		}
		apps = append(apps, app)
	}

	var wg sync.WaitGroup
	for _, app := range apps {
		wg.Add(1)
		go func(a *builder.Application) {
			defer wg.Done()
			if err := a.Start(ctx); err != nil {
				logger.LogError("❌ %v", err)
			}
		}(app)
	}
	wg.Wait()

	httpSrv := httpserver.New(
		httpserver.Config{Enabled: cfg.HTTPServer.Enabled, Port: cfg.HTTPServer.Port},
		func() string {
			if len(apps) == 0 {
				return "unattached"
			}
			return apps[0].Coordinator().State().String()
		},
		collector,
	)
	httpSrv.Start()

	<-ctx.Done()
	logger.LogInfo("🛑 shutdown signal received, detaching devices")

	for _, app := range apps {
		app.Stop()
	}
	if err := httpSrv.Stop(context.Background()); err != nil {
		logger.LogWarn("⚠️ http server shutdown: %v", err)
	}
}
