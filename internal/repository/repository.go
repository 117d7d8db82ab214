package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kade-connect/pricescout/internal/pipeline"
)

// StoredProduct is one persisted extraction result.
type StoredProduct struct {
	ID           uuid.UUID
	SubmissionID uuid.UUID
	Product      pipeline.ExtractedProduct
	ImageQuality *float64
	ImagePath    string
	CreatedAt    time.Time
}

// ProductRepository persists accepted pipeline outputs for listing, export,
// and the async submission path.
type ProductRepository interface {
	SaveProduct(ctx context.Context, rec *StoredProduct) error
	ListProducts(ctx context.Context, from, to *time.Time) ([]*StoredProduct, error)
	Close() error
}
