package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kade-connect/pricescout/internal/imaging"
	"github.com/kade-connect/pricescout/internal/llm"
	"github.com/kade-connect/pricescout/internal/monitoring"
	"github.com/kade-connect/pricescout/internal/ocr"
)

// Processor coordinates the pipeline: preprocess -> quality -> OCR -> LLM
// parse -> assemble. Each invocation is independent; a Processor is safe for
// concurrent use.
type Processor struct {
	logger     *slog.Logger
	pre        *imaging.Preprocessor
	quality    *imaging.Assessor
	recognizer ocr.TextRecognizer
	extractor  *llm.Extractor
	metrics    *monitoring.Metrics // optional
}

func NewProcessor(
	logger *slog.Logger,
	pre *imaging.Preprocessor,
	quality *imaging.Assessor,
	recognizer ocr.TextRecognizer,
	extractor *llm.Extractor,
	metrics *monitoring.Metrics,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:     logger,
		pre:        pre,
		quality:    quality,
		recognizer: recognizer,
		extractor:  extractor,
		metrics:    metrics,
	}
}

// Process runs the stages in strict sequence and always returns a well-formed
// Outcome. Only an image-decode failure or an unexpected panic fails the
// invocation; every other failure mode degrades the result's confidence.
func (p *Processor) Process(ctx context.Context, req Request) (out Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline.process.panic", "panic", r)
			out = p.failure(start, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	gray, err := p.pre.Run(req.Image)
	if err != nil {
		p.logger.Error("pipeline.preprocess.failed", "error", err)
		return p.failure(start, err.Error())
	}

	quality := p.quality.Score(gray)
	p.logger.Info("pipeline.quality.scored", "score", quality)

	// OCR runs on the original bytes; the recognition service does its own
	// preprocessing. Failures degrade to "no text found".
	text := p.recognizeText(ctx, req.Image)
	p.logger.Info("pipeline.ocr.done", "chars", len(text))

	fields := p.extractor.Extract(ctx, text)

	product := assemble(fields, text, quality, req.Geo)

	elapsed := time.Since(start)
	p.logger.Info("pipeline.process.ok",
		"product", product.ProductName,
		"confidence", product.Confidence,
		"quality", quality,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	p.observe(true, elapsed)

	return Outcome{
		Succeeded:    true,
		Product:      product,
		ElapsedMS:    elapsed.Milliseconds(),
		ImageQuality: &quality,
	}
}

func (p *Processor) recognizeText(ctx context.Context, image []byte) string {
	text, err := p.recognizer.RecognizeText(ctx, image)
	if err != nil {
		p.logger.Warn("pipeline.ocr.failed", "error", err)
		return ""
	}
	return text
}

// assemble builds the final record: confidence is scaled by image quality
// (never upgrading a zero-confidence result), raw OCR text is retained
// verbatim, and the caller's location is attached unvalidated.
func assemble(fields llm.ProductFields, ocrText string, quality float64, geo *GeoPoint) *ExtractedProduct {
	confidence := fields.Confidence
	if confidence > 0 {
		confidence *= quality
	}

	product := &ExtractedProduct{
		ProductName: fields.ProductName,
		Brand:       fields.Brand,
		Price:       fields.Price,
		Unit:        fields.Unit,
		ShopName:    fields.ShopName,
		Category:    fields.Category,
		Confidence:  confidence,
		RawText:     ocrText,
		CapturedAt:  time.Now().UTC(),
	}
	if geo != nil {
		lat, lng := geo.Latitude, geo.Longitude
		product.Latitude = &lat
		product.Longitude = &lng
	}
	return product
}

func (p *Processor) failure(start time.Time, reason string) Outcome {
	elapsed := time.Since(start)
	p.observe(false, elapsed)
	return Outcome{
		Succeeded:     false,
		FailureReason: reason,
		ElapsedMS:     elapsed.Milliseconds(),
	}
}

func (p *Processor) observe(succeeded bool, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveRun(succeeded, elapsed)
}
