package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kade-connect/pricescout/internal/pipeline"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testProduct(name string, capturedAt time.Time) pipeline.ExtractedProduct {
	price := 450.0
	lat, lng := 6.9271, 79.8612
	return pipeline.ExtractedProduct{
		ProductName: name,
		Brand:       "Araliya",
		Price:       &price,
		Unit:        "kg",
		ShopName:    "Sathosa",
		Category:    "Groceries",
		Confidence:  0.82,
		RawText:     "RICE 5KG Rs.450",
		CapturedAt:  capturedAt,
		Latitude:    &lat,
		Longitude:   &lng,
	}
}

func TestSQLiteSaveAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	capturedAt := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	quality := 0.7
	rec := &StoredProduct{
		SubmissionID: uuid.New(),
		Product:      testProduct("Rice 5kg", capturedAt),
		ImageQuality: &quality,
		ImagePath:    "/archive/ab/abcd.jpg",
	}
	if err := repo.SaveProduct(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatal("save must assign an id")
	}

	got, err := repo.ListProducts(ctx, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("records: got %d, want 1", len(got))
	}

	p := got[0].Product
	if p.ProductName != "Rice 5kg" || p.Brand != "Araliya" {
		t.Errorf("fields: got %+v", p)
	}
	if p.Price == nil || *p.Price != 450 {
		t.Errorf("price: got %v", p.Price)
	}
	if p.Latitude == nil || *p.Latitude != 6.9271 {
		t.Errorf("latitude: got %v", p.Latitude)
	}
	if !p.CapturedAt.Equal(capturedAt) {
		t.Errorf("captured_at: got %v, want %v", p.CapturedAt, capturedAt)
	}
	if got[0].ImageQuality == nil || *got[0].ImageQuality != 0.7 {
		t.Errorf("image quality: got %v", got[0].ImageQuality)
	}
	if got[0].ImagePath != "/archive/ab/abcd.jpg" {
		t.Errorf("image path: got %q", got[0].ImagePath)
	}
	if got[0].SubmissionID != rec.SubmissionID {
		t.Errorf("submission id: got %v, want %v", got[0].SubmissionID, rec.SubmissionID)
	}
}

func TestSQLiteListWindow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := &StoredProduct{
			SubmissionID: uuid.New(),
			Product:      testProduct("Item", base.AddDate(0, 0, i)),
		}
		if err := repo.SaveProduct(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	from := base.AddDate(0, 0, 1)
	got, err := repo.ListProducts(ctx, &from, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("windowed records: got %d, want 2", len(got))
	}

	to := base.AddDate(0, 0, 1)
	got, err = repo.ListProducts(ctx, &from, &to)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("bounded records: got %d, want 1", len(got))
	}
}

func TestSQLiteNullableFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := &StoredProduct{
		SubmissionID: uuid.New(),
		Product: pipeline.ExtractedProduct{
			ProductName: "No text detected",
			Confidence:  0,
			CapturedAt:  time.Now().UTC(),
		},
	}
	if err := repo.SaveProduct(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.ListProducts(ctx, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	p := got[0].Product
	if p.Price != nil || p.Latitude != nil || p.Longitude != nil {
		t.Errorf("optional fields must round-trip as nil: %+v", p)
	}
	if got[0].ImageQuality != nil {
		t.Errorf("image quality must round-trip as nil: %v", got[0].ImageQuality)
	}
}

func TestOutcomeSink(t *testing.T) {
	repo := newTestRepo(t)
	sink := NewOutcomeSink(repo, nil)
	ctx := context.Background()

	quality := 0.6
	product := testProduct("Rice 5kg", time.Now().UTC())
	submissionID := uuid.New()

	if err := sink.StoreOutcome(ctx, submissionID, pipeline.Outcome{
		Succeeded:    true,
		Product:      &product,
		ImageQuality: &quality,
	}); err != nil {
		t.Fatalf("store outcome: %v", err)
	}

	// Failed outcomes are skipped, not persisted.
	if err := sink.StoreOutcome(ctx, uuid.New(), pipeline.Outcome{
		Succeeded:     false,
		FailureReason: "image decode failed",
	}); err != nil {
		t.Fatalf("store failed outcome: %v", err)
	}

	got, err := repo.ListProducts(ctx, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("records: got %d, want 1", len(got))
	}
	if got[0].SubmissionID != submissionID {
		t.Errorf("submission id: got %v", got[0].SubmissionID)
	}
}
