package storage

import "context"

// ImageStore archives original scan images. The returned location is
// implementation-specific (filesystem path or blob URL) and is recorded with
// the stored product for traceability.
type ImageStore interface {
	Save(ctx context.Context, name string, data []byte) (location string, err error)
}
