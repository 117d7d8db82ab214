package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/kade-connect/pricescout/internal/imaging"
	"github.com/kade-connect/pricescout/internal/llm"
)

type stubRecognizer struct {
	text string
	err  error
}

func (s stubRecognizer) RecognizeText(_ context.Context, _ []byte) (string, error) {
	return s.text, s.err
}

type stubCompleter struct {
	resp  string
	err   error
	calls int
}

func (s *stubCompleter) CompleteText(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.resp, s.err
}

func tagImagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(220)
			if y%8 < 3 && x > 8 && x < 56 {
				v = 30
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func newTestProcessor(rec stubRecognizer, completer *stubCompleter) *Processor {
	return NewProcessor(
		nil,
		imaging.NewPreprocessor(nil),
		imaging.NewAssessor(nil),
		rec,
		llm.NewExtractor(completer, nil),
		nil,
	)
}

func TestProcessSuccess(t *testing.T) {
	completer := &stubCompleter{
		resp: `{"product_name":"Anchor Milk Powder","brand":"Anchor","price":850,"confidence_score":0.9}`,
	}
	p := newTestProcessor(stubRecognizer{text: "ANCHOR MILK POWDER Rs.850"}, completer)

	out := p.Process(context.Background(), Request{Image: tagImagePNG(t)})

	if !out.Succeeded {
		t.Fatalf("failed: %s", out.FailureReason)
	}
	if out.Product == nil {
		t.Fatal("no product on success")
	}
	if out.ImageQuality == nil {
		t.Fatal("no image quality on success")
	}

	// Final confidence is the model's confidence scaled by image quality.
	want := 0.9 * *out.ImageQuality
	if got := out.Product.Confidence; got != want {
		t.Errorf("confidence: got %v, want %v", got, want)
	}
	if out.Product.Confidence > 0.9 {
		t.Errorf("scaling must never raise confidence: %v", out.Product.Confidence)
	}
	if out.Product.RawText != "ANCHOR MILK POWDER Rs.850" {
		t.Errorf("raw_text: got %q", out.Product.RawText)
	}
	if out.Product.CapturedAt.IsZero() {
		t.Error("captured_at not set")
	}
	if out.ElapsedMS < 0 {
		t.Errorf("elapsed_ms: got %d", out.ElapsedMS)
	}
}

func TestProcessCorruptImage(t *testing.T) {
	completer := &stubCompleter{}
	p := newTestProcessor(stubRecognizer{text: "irrelevant"}, completer)

	out := p.Process(context.Background(), Request{Image: []byte("not an image")})

	if out.Succeeded {
		t.Fatal("corrupt image must fail the run")
	}
	if out.FailureReason == "" {
		t.Error("failure reason missing")
	}
	if out.Product != nil {
		t.Error("no product expected on failure")
	}
	if completer.calls != 0 {
		t.Errorf("pipeline must stop before extraction, got %d completer calls", completer.calls)
	}
}

func TestProcessOCRFailureDegrades(t *testing.T) {
	completer := &stubCompleter{resp: `{"product_name":"never"}`}
	p := newTestProcessor(stubRecognizer{err: errors.New("service down")}, completer)

	out := p.Process(context.Background(), Request{Image: tagImagePNG(t)})

	if !out.Succeeded {
		t.Fatalf("OCR failure must not fail the run: %s", out.FailureReason)
	}
	if out.Product.ProductName != llm.NoTextProductName {
		t.Errorf("product_name: got %q, want %q", out.Product.ProductName, llm.NoTextProductName)
	}
	if out.Product.Confidence != 0 {
		t.Errorf("confidence: got %v, want 0", out.Product.Confidence)
	}
	if completer.calls != 0 {
		t.Errorf("no completion call expected for empty text, got %d", completer.calls)
	}
	if out.Product.RawText != "" {
		t.Errorf("raw_text: got %q, want empty", out.Product.RawText)
	}
}

func TestProcessZeroConfidenceNotScaled(t *testing.T) {
	completer := &stubCompleter{resp: `{"product_name":"Tea","confidence_score":0}`}
	p := newTestProcessor(stubRecognizer{text: "TEA"}, completer)

	out := p.Process(context.Background(), Request{Image: tagImagePNG(t)})

	if !out.Succeeded {
		t.Fatalf("failed: %s", out.FailureReason)
	}
	if out.Product.Confidence != 0 {
		t.Errorf("confidence: got %v, want 0", out.Product.Confidence)
	}
}

func TestProcessAttachesGeo(t *testing.T) {
	completer := &stubCompleter{resp: `{"product_name":"Tea","confidence_score":0.8}`}
	p := newTestProcessor(stubRecognizer{text: "TEA"}, completer)

	geo := &GeoPoint{Latitude: 6.9271, Longitude: 79.8612}
	out := p.Process(context.Background(), Request{Image: tagImagePNG(t), Geo: geo})

	if !out.Succeeded {
		t.Fatalf("failed: %s", out.FailureReason)
	}
	if out.Product.Latitude == nil || *out.Product.Latitude != 6.9271 {
		t.Errorf("latitude: got %v", out.Product.Latitude)
	}
	if out.Product.Longitude == nil || *out.Product.Longitude != 79.8612 {
		t.Errorf("longitude: got %v", out.Product.Longitude)
	}
}

func TestProcessNoGeoLeavesCoordinatesUnset(t *testing.T) {
	completer := &stubCompleter{resp: `{"product_name":"Tea","confidence_score":0.8}`}
	p := newTestProcessor(stubRecognizer{text: "TEA"}, completer)

	out := p.Process(context.Background(), Request{Image: tagImagePNG(t)})

	if out.Product.Latitude != nil || out.Product.Longitude != nil {
		t.Error("coordinates must stay unset without a capture location")
	}
}
