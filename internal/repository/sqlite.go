package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kade-connect/pricescout/internal/pipeline"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	id               TEXT PRIMARY KEY,
	submission_id    TEXT NOT NULL,
	product_name     TEXT NOT NULL,
	brand            TEXT,
	price            REAL,
	unit             TEXT,
	shop_name        TEXT,
	category         TEXT,
	confidence_score REAL NOT NULL,
	raw_text         TEXT NOT NULL DEFAULT '',
	captured_at      TIMESTAMP NOT NULL,
	gps_latitude     REAL,
	gps_longitude    REAL,
	image_quality    REAL,
	image_path       TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_captured_at ON products (captured_at);
`

// SQLiteRepository stores products in a local SQLite file. It is the default
// when no Postgres DSN is configured, which keeps single-device field setups
// dependency-free.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteRepository(ctx context.Context, path string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = "./pricescout.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under the worker pool.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("repository.sqlite.ready", "path", path)
	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) SaveProduct(ctx context.Context, rec *StoredProduct) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	p := rec.Product
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, submission_id, product_name, brand, price, unit, shop_name,
			category, confidence_score, raw_text, captured_at,
			gps_latitude, gps_longitude, image_quality, image_path, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID.String(), rec.SubmissionID.String(), p.ProductName, p.Brand,
		p.Price, p.Unit, p.ShopName, p.Category, p.Confidence, p.RawText,
		p.CapturedAt.UTC(), p.Latitude, p.Longitude, rec.ImageQuality,
		rec.ImagePath, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListProducts(ctx context.Context, from, to *time.Time) ([]*StoredProduct, error) {
	query := `
		SELECT id, submission_id, product_name, brand, price, unit, shop_name,
		       category, confidence_score, raw_text, captured_at,
		       gps_latitude, gps_longitude, image_quality, image_path, created_at
		FROM products WHERE 1=1`
	args := make([]any, 0, 2)
	if from != nil {
		query += " AND captured_at >= ?"
		args = append(args, from.UTC())
	}
	if to != nil {
		query += " AND captured_at <= ?"
		args = append(args, to.UTC())
	}
	query += " ORDER BY captured_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*StoredProduct
	for rows.Next() {
		rec := &StoredProduct{Product: pipeline.ExtractedProduct{}}
		p := &rec.Product
		var id, submissionID string
		if err := rows.Scan(
			&id, &submissionID, &p.ProductName, &p.Brand, &p.Price,
			&p.Unit, &p.ShopName, &p.Category, &p.Confidence, &p.RawText,
			&p.CapturedAt, &p.Latitude, &p.Longitude, &rec.ImageQuality,
			&rec.ImagePath, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse product id: %w", err)
		}
		if rec.SubmissionID, err = uuid.Parse(submissionID); err != nil {
			return nil, fmt.Errorf("parse submission id: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
