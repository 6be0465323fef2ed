package main

import (
	"flag"
	"log/slog"
	"os"

	colorcast "github.com/luminaide/colorcast"
)

func main() {
	configPath := flag.String("config", "colorcast.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := colorcast.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	if cfg.Token == "" {
		cfg.Token = os.Getenv("HA_AUTH_TOKEN")
	}

	app, err := colorcast.NewApp(*cfg)
	if err != nil {
		slog.Error("Error connecting to Home Assistant", "error", err)
		os.Exit(1)
	}

	defer func() {
		slog.Info("Shutting down...")
		if err := app.Close(); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	jobs := make([]colorcast.SyncJob, 0, len(cfg.SyncJobs))
	for _, jc := range cfg.SyncJobs {
		builder := colorcast.NewSyncJob().
			Entities(jc.Entities...).
			Every(jc.Every).
			WithServiceData(jc.ServiceData)
		if jc.URL != "" {
			builder = builder.FromURL(jc.URL)
		}
		if jc.Path != "" {
			builder = builder.FromPath(jc.Path)
		}
		if jc.StartingAt != "" {
			builder = builder.StartingAt(jc.StartingAt)
		}
		if jc.OnlyAfterDark {
			builder = builder.OnlyAfterDark()
		}
		jobs = append(jobs, builder.Build())
	}
	app.RegisterSyncJobs(jobs...)

	app.Start()
}
