package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kade-connect/pricescout/internal/async"
	"github.com/kade-connect/pricescout/internal/common"
	"github.com/kade-connect/pricescout/internal/export"
	"github.com/kade-connect/pricescout/internal/monitoring"
	"github.com/kade-connect/pricescout/internal/pipeline"
	"github.com/kade-connect/pricescout/internal/repository"
	"github.com/kade-connect/pricescout/internal/storage"
)

// Processor is the synchronous scan dependency; satisfied by
// *pipeline.Processor.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) pipeline.Outcome
}

// Deduper reports whether an image content hash was submitted recently.
// A nil Deduper disables deduplication.
type Deduper interface {
	Seen(ctx context.Context, hash string) (bool, error)
}

// Server exposes the scan API over HTTP.
type Server struct {
	cfg       common.ServerConfig
	logger    *slog.Logger
	processor Processor
	queue     *async.Queue
	repo      repository.ProductRepository
	exporter  *export.Service
	images    storage.ImageStore
	dedupe    Deduper
	metrics   *monitoring.Metrics

	engine *gin.Engine
	http   *http.Server
}

func New(
	cfg common.ServerConfig,
	logger *slog.Logger,
	processor Processor,
	queue *async.Queue,
	repo repository.ProductRepository,
	exporter *export.Service,
	images storage.ImageStore,
	dedupe Deduper,
	metrics *monitoring.Metrics,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		processor: processor,
		queue:     queue,
		repo:      repo,
		exporter:  exporter,
		images:    images,
		dedupe:    dedupe,
		metrics:   metrics,
		engine:    engine,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	{
		v1.POST("/scans", s.handleScan)
		v1.GET("/products", s.handleListProducts)
		v1.GET("/products/export", s.handleExportProducts)
		v1.POST("/products/validate", s.handleValidateProduct)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("server.listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
