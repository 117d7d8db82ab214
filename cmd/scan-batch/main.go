package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kade-connect/pricescout/constants"
	"github.com/kade-connect/pricescout/internal/async"
	"github.com/kade-connect/pricescout/internal/common"
	"github.com/kade-connect/pricescout/internal/export"
	"github.com/kade-connect/pricescout/internal/imaging"
	"github.com/kade-connect/pricescout/internal/llm"
	"github.com/kade-connect/pricescout/internal/llm/openai"
	"github.com/kade-connect/pricescout/internal/ocr"
	"github.com/kade-connect/pricescout/internal/pipeline"
	"github.com/kade-connect/pricescout/internal/repository"
)

// scan-batch processes every image in a directory and optionally writes the
// extracted products to an XLSX workbook.
func main() {
	var (
		dir     = flag.String("dir", "", "directory of price-tag images (required)")
		workers = flag.Int("workers", 1, "concurrent pipeline workers")
		out     = flag.String("out", "", "write extracted products to this .xlsx file")
		timeout = flag.Duration("timeout", 2*time.Minute, "per-image processing timeout")
	)
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	paths, err := collectImages(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scan directory:", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "no jpg/jpeg/png images under", *dir)
		os.Exit(1)
	}

	processor := buildProcessor(cfg, logger)
	results := newMemoryRepository()
	sink := repository.NewOutcomeSink(results, logger)

	queue := async.NewQueue(processor, sink, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(len(paths)),
		async.WithProcessTimeout(*timeout),
	)

	submitted := 0
	for _, path := range paths {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			logger.Error("read image", "path", path, "error", rerr)
			continue
		}
		_ = queue.Enqueue(context.Background(), async.Job{
			SubmissionID: uuid.New(),
			Request: pipeline.Request{
				Image:    data,
				Metadata: map[string]string{"source_path": path},
			},
			SubmittedAt: time.Now().UTC(),
		})
		submitted++
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), time.Duration(submitted+1)*(*timeout))
	defer cancel()
	queue.Shutdown(drainCtx)

	stored := results.count()
	fmt.Fprintf(os.Stderr, "processed %d images, extracted %d products\n", submitted, stored)

	if *out != "" {
		workbook, xerr := export.NewService(results, logger).Export(context.Background(), nil, nil)
		if xerr != nil {
			fmt.Fprintln(os.Stderr, "export:", xerr)
			os.Exit(1)
		}
		if werr := os.WriteFile(*out, workbook, 0o644); werr != nil {
			fmt.Fprintln(os.Stderr, "write workbook:", werr)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "wrote", *out)
	}

	if stored == 0 {
		os.Exit(1)
	}
}

func collectImages(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if constants.IsAllowedExt(filepath.Ext(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func buildProcessor(cfg *common.Config, logger *slog.Logger) *pipeline.Processor {
	completer := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	var recognizer ocr.TextRecognizer
	if cfg.Vision.UseTesseract {
		recognizer = ocr.NewTesseractRecognizer(ocr.TesseractConfig{Languages: cfg.Vision.TesseractLang}, logger)
	} else {
		recognizer = ocr.NewVisionClient(ocr.VisionConfig{
			APIKey:   cfg.Vision.APIKey,
			Endpoint: cfg.Vision.Endpoint,
			Timeout:  cfg.Vision.Timeout,
		}, logger)
	}

	return pipeline.NewProcessor(
		logger,
		imaging.NewPreprocessor(logger),
		imaging.NewAssessor(logger),
		recognizer,
		llm.NewExtractor(completer, logger),
		nil,
	)
}

// memoryRepository collects results in memory so a batch run needs no
// database. It backs the XLSX export at the end of the run.
type memoryRepository struct {
	mu      sync.Mutex
	records []*repository.StoredProduct
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{}
}

func (m *memoryRepository) SaveProduct(_ context.Context, rec *repository.StoredProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryRepository) ListProducts(_ context.Context, from, to *time.Time) ([]*repository.StoredProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*repository.StoredProduct, 0, len(m.records))
	for _, rec := range m.records {
		if from != nil && rec.Product.CapturedAt.Before(*from) {
			continue
		}
		if to != nil && rec.Product.CapturedAt.After(*to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memoryRepository) Close() error { return nil }

func (m *memoryRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
