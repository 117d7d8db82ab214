package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kade-connect/pricescout/internal/async"
	"github.com/kade-connect/pricescout/internal/common"
	"github.com/kade-connect/pricescout/internal/dedupe"
	"github.com/kade-connect/pricescout/internal/export"
	"github.com/kade-connect/pricescout/internal/imaging"
	"github.com/kade-connect/pricescout/internal/llm"
	"github.com/kade-connect/pricescout/internal/llm/openai"
	"github.com/kade-connect/pricescout/internal/monitoring"
	"github.com/kade-connect/pricescout/internal/ocr"
	"github.com/kade-connect/pricescout/internal/pipeline"
	"github.com/kade-connect/pricescout/internal/repository"
	"github.com/kade-connect/pricescout/internal/server"
	"github.com/kade-connect/pricescout/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("open repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	images, err := openImageStore(cfg, logger)
	if err != nil {
		logger.Error("open image store", "error", err)
		os.Exit(1)
	}

	var deduper server.Deduper
	var dedupeStore *dedupe.Store
	if cfg.Redis.Addr != "" {
		dedupeStore = dedupe.NewStore(cfg.Redis.Addr, cfg.Redis.DedupTTL)
		if err := dedupeStore.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, dedupe disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			deduper = dedupeStore
			logger.Info("dedupe enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.DedupTTL)
		}
	}

	metrics := monitoring.NewMetrics()

	completer := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	processor := pipeline.NewProcessor(
		logger,
		imaging.NewPreprocessor(logger),
		imaging.NewAssessor(logger),
		buildRecognizer(cfg, logger),
		llm.NewExtractor(completer, logger),
		metrics,
	)

	queue := async.NewQueue(processor, repository.NewOutcomeSink(repo, logger), logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
		async.WithMetrics(metrics),
	)

	srv := server.New(cfg.Server, logger, processor, queue,
		repo, export.NewService(repo, logger), images, deduper, metrics)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	if dedupeStore != nil {
		if err := dedupeStore.Close(); err != nil {
			logger.Warn("redis close", "error", err)
		}
	}
	logger.Info("shutdown complete")
}

func openRepository(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repository.ProductRepository, error) {
	if cfg.Database.DSN != "" {
		return repository.NewPostgresRepository(ctx, cfg.Database.DSN, logger)
	}
	return repository.NewSQLiteRepository(ctx, cfg.Database.SQLitePath, logger)
}

func openImageStore(cfg *common.Config, logger *slog.Logger) (storage.ImageStore, error) {
	if cfg.Storage.AzureAccount != "" && cfg.Storage.AzureKey != "" {
		logger.Info("archiving to azure blob storage", "account", cfg.Storage.AzureAccount, "container", cfg.Storage.AzureContainer)
		return storage.NewAzureStore(cfg.Storage.AzureAccount, cfg.Storage.AzureKey, cfg.Storage.AzureContainer)
	}
	return storage.NewFSStore(cfg.Storage.Dir)
}

func buildRecognizer(cfg *common.Config, logger *slog.Logger) ocr.TextRecognizer {
	if cfg.Vision.UseTesseract {
		logger.Info("using local tesseract recognizer", "languages", cfg.Vision.TesseractLang)
		return ocr.NewTesseractRecognizer(ocr.TesseractConfig{Languages: cfg.Vision.TesseractLang}, logger)
	}
	return ocr.NewVisionClient(ocr.VisionConfig{
		APIKey:   cfg.Vision.APIKey,
		Endpoint: cfg.Vision.Endpoint,
		Timeout:  cfg.Vision.Timeout,
	}, logger)
}
