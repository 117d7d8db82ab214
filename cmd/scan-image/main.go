package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kade-connect/pricescout/internal/common"
	"github.com/kade-connect/pricescout/internal/imaging"
	"github.com/kade-connect/pricescout/internal/llm"
	"github.com/kade-connect/pricescout/internal/llm/openai"
	"github.com/kade-connect/pricescout/internal/ocr"
	"github.com/kade-connect/pricescout/internal/pipeline"
)

// scan-image runs a single price-tag image through the pipeline and prints
// the outcome as JSON. Useful for spot-checking a capture in the field.
func main() {
	var (
		imagePath = flag.String("image", "", "path to a jpg/jpeg/png price-tag image (required)")
		lat       = flag.Float64("lat", 0, "capture latitude")
		lng       = flag.Float64("lng", 0, "capture longitude")
		withGeo   = flag.Bool("geo", false, "attach -lat/-lng to the record")
		timeout   = flag.Duration("timeout", 2*time.Minute, "overall processing timeout")
		verbose   = flag.Bool("v", false, "log pipeline stages to stderr")
	)
	flag.Parse()

	if *imagePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read image:", err)
		os.Exit(1)
	}

	processor := buildProcessor(cfg, logger)

	req := pipeline.Request{Image: data}
	if *withGeo {
		req.Geo = &pipeline.GeoPoint{Latitude: *lat, Longitude: *lng}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	outcome := processor.Process(ctx, req)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		fmt.Fprintln(os.Stderr, "encode outcome:", err)
		os.Exit(1)
	}
	if !outcome.Succeeded {
		os.Exit(1)
	}
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
