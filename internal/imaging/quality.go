package imaging

import (
	"image"
	"log/slog"
	"math"
)

const (
	// focusCeiling is the empirically fixed Laplacian-variance value treated
	// as perfectly sharp. Values above it clamp to 1.0.
	focusCeiling = 500.0
	// brightnessMidpoint is the ideal mean intensity for OCR.
	brightnessMidpoint = 127.0

	focusWeight      = 0.7
	brightnessWeight = 0.3

	// neutralScore is returned when quality cannot be computed. Quality
	// scoring is advisory and never fails a pipeline run.
	neutralScore = 0.5
)

// Assessor scores a preprocessed image on sharpness and brightness,
// producing a [0,1] confidence multiplier for downstream extraction.
type Assessor struct {
	logger *slog.Logger
}

func NewAssessor(logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{logger: logger}
}

// Score combines a Laplacian-variance focus measure with a brightness
// measure as 0.7*focus + 0.3*brightness, clamped to [0,1].
func (a *Assessor) Score(img *image.Gray) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("imaging.quality.failed", "panic", r)
			score = neutralScore
		}
	}()

	if img == nil || img.Rect.Dx() == 0 || img.Rect.Dy() == 0 {
		return neutralScore
	}

	focus := laplacianVariance(img) / focusCeiling
	if focus > 1.0 {
		focus = 1.0
	}

	brightness := 1.0 - math.Abs(meanIntensity(img)-brightnessMidpoint)/brightnessMidpoint
	if brightness < 0 {
		brightness = 0
	}

	score = focusWeight*focus + brightnessWeight*brightness
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// laplacianVariance is the classic blur metric: variance of the response to
// the kernel [0 1 0; 1 -4 1; 0 1 0]. Low variance means few edges, i.e. blur.
func laplacianVariance(gray *image.Gray) float64 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	n := float64((w - 2) * (h - 2))
	var sum, sumSq float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := -4*float64(gray.GrayAt(x, y).Y) +
				float64(gray.GrayAt(x, y-1).Y) +
				float64(gray.GrayAt(x, y+1).Y) +
				float64(gray.GrayAt(x-1, y).Y) +
				float64(gray.GrayAt(x+1, y).Y)
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / n
	return sumSq/n - mean*mean
}

func meanIntensity(gray *image.Gray) float64 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += float64(gray.GrayAt(x, y).Y)
		}
	}
	return sum / float64(w*h)
}
