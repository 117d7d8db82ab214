package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig configures the local tesseract recognizer.
type TesseractConfig struct {
	// Languages as a tesseract language string, e.g. "eng+sin+tam".
	Languages string
}

// TesseractRecognizer runs OCR locally through libtesseract. It is the
// offline alternative to the Vision client and satisfies the same contract.
type TesseractRecognizer struct {
	cfg    TesseractConfig
	logger *slog.Logger
}

func NewTesseractRecognizer(cfg TesseractConfig, logger *slog.Logger) *TesseractRecognizer {
	if cfg.Languages == "" {
		cfg.Languages = "eng+sin+tam"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractRecognizer{cfg: cfg, logger: logger}
}

// RecognizeText runs tesseract over the image bytes. A fresh client per call:
// gosseract clients are not safe for concurrent use.
func (t *TesseractRecognizer) RecognizeText(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() {
		if cerr := client.Close(); cerr != nil {
			t.logger.Warn("ocr.tesseract.close_error", "error", cerr)
		}
	}()

	if err := client.SetLanguage(strings.Split(t.cfg.Languages, "+")...); err != nil {
		return "", fmt.Errorf("tesseract set language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract ocr: %w", err)
	}
	t.logger.Info("ocr.tesseract.ok", "chars", len(text), "lang", t.cfg.Languages)
	return text, nil
}
