package pipeline

import "time"

// GeoPoint is a caller-supplied capture location. It is attached to the
// record as-is, never validated.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Request is one pipeline invocation: the original image bytes plus optional
// capture context. Metadata is passed through untouched.
type Request struct {
	Image    []byte
	Geo      *GeoPoint
	Metadata map[string]string
}

// ExtractedProduct is the structured output of one pipeline run. raw_text is
// always populated (possibly empty) even when structured fields are missing;
// partial extraction never discards the OCR evidence.
type ExtractedProduct struct {
	ProductName string    `json:"product_name"`
	Brand       string    `json:"brand,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	ShopName    string    `json:"shop_name,omitempty"`
	Category    string    `json:"category,omitempty"`
	Confidence  float64   `json:"confidence_score"`
	RawText     string    `json:"raw_text"`
	CapturedAt  time.Time `json:"captured_at"`
	Latitude    *float64  `json:"gps_latitude,omitempty"`
	Longitude   *float64  `json:"gps_longitude,omitempty"`
}

// Outcome wraps one pipeline invocation. Product is present iff Succeeded;
// FailureReason is present iff not.
type Outcome struct {
	Succeeded     bool              `json:"succeeded"`
	Product       *ExtractedProduct `json:"product,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	ElapsedMS     int64             `json:"elapsed_ms"`
	ImageQuality  *float64          `json:"image_quality,omitempty"`
}
