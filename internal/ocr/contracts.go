package ocr

import "context"

// TextRecognizer is Stage 3: image bytes -> recognized text. Implementations
// return the top-ranked full-text annotation; an empty string means the
// service found no text. Errors are recovered by the pipeline, which treats
// them as "no text found".
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}
