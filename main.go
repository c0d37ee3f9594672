package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telecom-scraper/config"
	"telecom-scraper/models"
	"telecom-scraper/scraper"
	"telecom-scraper/services"
	"telecom-scraper/storage"
	"telecom-scraper/utils"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)
	for _, w := range cfg.Warnings {
		logger.Warn("[config] %s", w)
	}

	logger.Info("=== Telecom Offer Scraper starting ===")
	logger.Info("Config: mode %s | force %t | kinds %v | data dir %s",
		cfg.Mode, cfg.ForceUpdate, cfg.Kinds, cfg.DataDir)

	registry, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		logger.Error("Failed to load providers from %s: %v", cfg.ProvidersFile, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser := scraper.NewBrowser(cfg, logger)
	defer browser.Close()

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	var mirror storage.SnapshotMirror
	if cfg.PostgresEnabled {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DSN())
		if err != nil {
			logger.Warn("PostgreSQL mirror disabled: %v", err)
		} else {
			defer pg.Close()
			mirror = pg
		}
	}

	pipeline := services.NewPipeline(logger)
	summary := services.NewSummary(os.Stdout)
	failed := 0

	for _, kind := range cfg.Kinds {
		if ctx.Err() != nil {
			logger.Warn("Interrupted, skipping remaining kinds")
			failed++
			break
		}

		providers := scraper.BuildRegistry(kind, registry.ForKind(kind), browser, retry, logger)
		if len(providers) == 0 {
			logger.Warn("[%s] No providers configured, skipping", kind)
			continue
		}

		mode := cfg.Mode
		if mode == config.ModeLight && !hasKeyProvider(providers) {
			logger.Info("[%s] No key providers configured, running full scrape", kind)
			mode = config.ModeFull
		}

		opts := services.RunOptions{
			Mode:   mode,
			Force:  cfg.ForceUpdate,
			Store:  storage.NewFileStore(kind, cfg.SnapshotPath(kind), logger),
			Mirror: mirror,
		}
		rejects := openRejects(cfg, kind, logger)
		if rejects != nil {
			opts.Rejects = rejects
		}

		report, err := pipeline.Run(ctx, kind, providers, opts)
		if rejects != nil {
			_ = rejects.Close()
		}
		summary.Print(report)
		if err != nil {
			logger.Error("[%s] Run failed: %v", kind, err)
			failed++
		}
	}

	if failed > 0 {
		logger.Error("=== Finished with %d failed kind(s) ===", failed)
		return 1
	}
	logger.Info("=== Finished ===")
	return 0
}

func openRejects(cfg *config.Config, kind models.Kind, logger *utils.Logger) *storage.CSVWriter {
	path := cfg.RejectsPath(kind)
	if path == "" {
		return nil
	}
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		logger.Warn("[%s] Rejected candidates will not be written: %v", kind, err)
		return nil
	}
	return w
}

func hasKeyProvider(providers []scraper.Descriptor) bool {
	for _, d := range providers {
		if d.Enabled && d.Key {
			return true
		}
	}
	return false
}
