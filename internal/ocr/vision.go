package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kade-connect/pricescout/constants"
)

// VisionConfig configures the Google Vision text-detection client.
type VisionConfig struct {
	APIKey   string
	Endpoint string // default https://vision.googleapis.com/v1/images:annotate
	Timeout  time.Duration
	// LanguageHints defaults to constants.LanguageHints (en, si, ta).
	LanguageHints []string
}

// VisionClient calls the images:annotate REST endpoint with TEXT_DETECTION
// and returns the first (full-page) text annotation.
type VisionClient struct {
	cfg        VisionConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewVisionClient(cfg VisionConfig, logger *slog.Logger) *VisionClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://vision.googleapis.com/v1/images:annotate"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.LanguageHints) == 0 {
		cfg.LanguageHints = constants.LanguageHints
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image        imageContent `json:"image"`
	Features     []feature    `json:"features"`
	ImageContext imageContext `json:"imageContext"`
}

type imageContent struct {
	Content string `json:"content"` // base64
}

type feature struct {
	Type string `json:"type"`
}

type imageContext struct {
	LanguageHints []string `json:"languageHints"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// RecognizeText sends the original image bytes (the service does its own
// preprocessing) and returns the full-page annotation, or "" when the
// service found no text.
func (c *VisionClient) RecognizeText(ctx context.Context, image []byte) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := annotateRequest{
		Requests: []annotateEntry{{
			Image:        imageContent{Content: base64.StdEncoding.EncodeToString(image)},
			Features:     []feature{{Type: "TEXT_DETECTION"}},
			ImageContext: imageContext{LanguageHints: c.cfg.LanguageHints},
		}},
	}
	bs, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode annotate request: %w", err)
	}

	url := c.cfg.Endpoint
	if c.cfg.APIKey != "" {
		url += "?key=" + c.cfg.APIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("ocr.vision.request", "req_id", rid, "image_bytes", len(image), "hints", c.cfg.LanguageHints)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ocr.vision.send_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("ocr.vision.body_close_error", "req_id", rid, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("vision api status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var out annotateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode annotate response: %w", err)
	}
	if len(out.Responses) == 0 {
		return "", nil
	}
	r := out.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("vision api error: %s", r.Error.Message)
	}
	if len(r.TextAnnotations) == 0 {
		c.logger.Info("ocr.vision.no_text", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return "", nil
	}

	text := r.TextAnnotations[0].Description
	c.logger.Info("ocr.vision.ok", "req_id", rid, "chars", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
