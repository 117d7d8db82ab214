package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kade-connect/pricescout/internal/pipeline"
	"github.com/kade-connect/pricescout/internal/repository"
)

type stubRepo struct {
	records []*repository.StoredProduct
	gotFrom *time.Time
	gotTo   *time.Time
}

func (s *stubRepo) SaveProduct(context.Context, *repository.StoredProduct) error { return nil }

func (s *stubRepo) ListProducts(_ context.Context, from, to *time.Time) ([]*repository.StoredProduct, error) {
	s.gotFrom, s.gotTo = from, to
	return s.records, nil
}

func (s *stubRepo) Close() error { return nil }

func record(name, brand string, price float64, capturedAt time.Time) *repository.StoredProduct {
	return &repository.StoredProduct{
		ID:           uuid.New(),
		SubmissionID: uuid.New(),
		Product: pipeline.ExtractedProduct{
			ProductName: name,
			Brand:       brand,
			Price:       &price,
			Unit:        "kg",
			ShopName:    "Sathosa",
			Category:    "Groceries",
			Confidence:  0.82,
			CapturedAt:  capturedAt,
		},
	}
}

func TestExportWorkbook(t *testing.T) {
	capturedAt := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	repo := &stubRepo{records: []*repository.StoredProduct{
		record("Rice 5kg", "Araliya", 450, capturedAt),
		record("Anchor Milk Powder", "Anchor", 850, capturedAt.Add(time.Hour)),
	}}
	svc := NewService(repo, nil)

	out, err := svc.Export(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Captured At" || rows[0][1] != "Product" {
		t.Errorf("header row: got %v", rows[0])
	}
	if rows[1][1] != "Rice 5kg" || rows[1][2] != "Araliya" {
		t.Errorf("first data row: got %v", rows[1])
	}
	if rows[2][1] != "Anchor Milk Powder" {
		t.Errorf("second data row: got %v", rows[2])
	}
	if rows[1][0] != capturedAt.Format(time.RFC3339) {
		t.Errorf("captured at: got %q", rows[1][0])
	}
}

func TestExportEmptyWindow(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	out, err := svc.Export(context.Background(), &from, &to)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if repo.gotFrom == nil || !repo.gotFrom.Equal(from) {
		t.Errorf("from not forwarded: %v", repo.gotFrom)
	}
	if repo.gotTo == nil || !repo.gotTo.Equal(to) {
		t.Errorf("to not forwarded: %v", repo.gotTo)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want header only", len(rows))
	}
}
