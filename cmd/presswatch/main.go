package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/presswatch/browser"
	"github.com/hazyhaar/presswatch/classify"
	"github.com/hazyhaar/presswatch/config"
	"github.com/hazyhaar/presswatch/crawler"
	"github.com/hazyhaar/presswatch/detect"
	"github.com/hazyhaar/presswatch/harvest"
	"github.com/hazyhaar/presswatch/scrape"
	"github.com/hazyhaar/presswatch/store"
	"github.com/hazyhaar/presswatch/webapi"
)

func main() {
	cfgPath := env("PRESSWATCH_CONFIG", "presswatch.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Storage.
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := store.ApplySchema(db); err != nil {
		slog.Error("apply schema", "error", err)
		os.Exit(1)
	}
	st := store.NewStore(db)

	// Headless browser.
	driver := browser.NewDriver(cfg.Browser)
	if err := driver.Start(ctx); err != nil {
		slog.Error("start browser", "error", err)
		os.Exit(1)
	}
	defer driver.Close()

	// Pipeline.
	detector := detect.NewDetector(driver, cfg.Detect)
	harvester := harvest.NewHarvester(driver, cfg.Harvest)
	scraper := scrape.NewScraper(driver, cfg.Scrape)
	gateway := classify.NewGateway(cfg.Classify)
	orch := crawler.NewOrchestrator(detector, harvester, scraper, gateway, st,
		crawler.Config{Limits: cfg.Limits, Logger: logger})

	// Scheduled crawls, when homepages are configured.
	if len(cfg.Scheduler.Homepages) > 0 {
		sched := crawler.NewScheduler(orch, cfg.Scheduler)
		go sched.Run(ctx)
	}

	// API.
	api := webapi.NewServer(st, detector, orch, cfg.Server)
	if err := api.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("api server", "error", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
