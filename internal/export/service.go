package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kade-connect/pricescout/internal/repository"
)

const sheetName = "Products"

var headers = []string{
	"Captured At", "Product", "Brand", "Price", "Unit",
	"Shop", "Category", "Confidence", "Latitude", "Longitude",
}

// Service renders stored products as an XLSX workbook for field coordinators.
type Service struct {
	repo   repository.ProductRepository
	logger *slog.Logger
}

func NewService(repo repository.ProductRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Export builds a workbook of products captured inside the window. Nil window
// bounds are open-ended.
func (s *Service) Export(ctx context.Context, from, to *time.Time) ([]byte, error) {
	records, err := s.repo.ListProducts(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return s.render(records)
}

func (s *Service) render(records []*repository.StoredProduct) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, rec := range records {
		p := rec.Product
		row := []any{
			p.CapturedAt.UTC().Format(time.RFC3339),
			p.ProductName,
			p.Brand,
			floatOrBlank(p.Price),
			p.Unit,
			p.ShopName,
			p.Category,
			p.Confidence,
			floatOrBlank(p.Latitude),
			floatOrBlank(p.Longitude),
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.xlsx.ok", "rows", len(records))
	return buf.Bytes(), nil
}

func floatOrBlank(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
