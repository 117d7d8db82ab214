package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sort"
)

// ErrImageDecode marks an unreadable image. It is the only preprocessing
// failure that aborts a pipeline run.
var ErrImageDecode = errors.New("image decode failed")

const (
	equalizeTileGrid = 8
	equalizeClip     = 2.0
)

// Preprocessor normalizes a photograph for text recognition: grayscale,
// contrast-limited tile equalization, median denoise, then sharpening.
type Preprocessor struct {
	logger *slog.Logger
}

func NewPreprocessor(logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{logger: logger}
}

// Run decodes the image bytes and applies the enhancement chain. A decode
// failure is fatal; an enhancement failure falls back to the decoded
// grayscale image so the pipeline stays available.
func (p *Preprocessor) Run(data []byte) (*image.Gray, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	gray := ToGray(img)
	p.logger.Debug("imaging.decode.ok", "format", format, "width", gray.Rect.Dx(), "height", gray.Rect.Dy())

	enhanced, err := p.enhance(gray)
	if err != nil {
		p.logger.Warn("imaging.enhance.failed", "error", err)
		return gray, nil
	}
	return enhanced, nil
}

// enhance runs equalize -> denoise -> sharpen, converting any panic in the
// pixel math into an error so Run can fall back.
func (p *Preprocessor) enhance(gray *image.Gray) (out *image.Gray, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("enhancement panic: %v", r)
		}
	}()
	eq := equalizeTiles(gray, equalizeTileGrid, equalizeClip)
	den := medianDenoise(eq)
	return sharpen(den), nil
}

// ToGray converts any decoded image to a zero-origin grayscale image.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// equalizeTiles applies clip-limited histogram equalization per tile, which
// normalizes contrast locally without letting noise blow up in flat regions.
func equalizeTiles(src *image.Gray, grid int, clip float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 || grid <= 0 {
		return src
	}
	dst := image.NewGray(src.Rect)
	tileW := (w + grid - 1) / grid
	tileH := (h + grid - 1) / grid

	for ty := 0; ty < h; ty += tileH {
		for tx := 0; tx < w; tx += tileW {
			x1, y1 := tx+tileW, ty+tileH
			if x1 > w {
				x1 = w
			}
			if y1 > h {
				y1 = h
			}
			equalizeRegion(src, dst, tx, ty, x1, y1, clip)
		}
	}
	return dst
}

func equalizeRegion(src, dst *image.Gray, x0, y0, x1, y1 int, clip float64) {
	area := (x1 - x0) * (y1 - y0)
	if area == 0 {
		return
	}

	var hist [256]int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}

	// Clip the histogram and spread the excess evenly so a single dominant
	// intensity cannot saturate the mapping.
	limit := int(clip * float64(area) / 256.0)
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	share := excess / 256
	for i := range hist {
		hist[i] += share
	}

	var lut [256]uint8
	cum := 0
	for i := range hist {
		cum += hist[i]
		lut[i] = uint8(cum * 255 / area)
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dst.SetGray(x, y, colorGray(lut[src.GrayAt(x, y).Y]))
		}
	}
}

// medianDenoise applies a 3x3 median filter; borders are copied through.
func medianDenoise(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	copy(dst.Pix, src.Pix)
	if w < 3 || h < 3 {
		return dst
	}

	var window [9]uint8
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[i] = src.GrayAt(x+dx, y+dy).Y
					i++
				}
			}
			s := window[:]
			sort.Slice(s, func(a, b int) bool { return s[a] < s[b] })
			dst.SetGray(x, y, colorGray(window[4]))
		}
	}
	return dst
}

// sharpen convolves with the edge-boosting kernel [-1 -1 -1; -1 9 -1; -1 -1 -1].
func sharpen(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	copy(dst.Pix, src.Pix)
	if w < 3 || h < 3 {
		return dst
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			sum := 9 * int(src.GrayAt(x, y).Y)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					sum -= int(src.GrayAt(x+dx, y+dy).Y)
				}
			}
			dst.SetGray(x, y, colorGray(clampByte(sum)))
		}
	}
	return dst
}

func colorGray(v uint8) color.Gray {
	return color.Gray{Y: v}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
