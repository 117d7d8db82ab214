package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kade-connect/pricescout/internal/pipeline"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products (
	id               UUID PRIMARY KEY,
	submission_id    UUID NOT NULL,
	product_name     TEXT NOT NULL,
	brand            TEXT,
	price            DOUBLE PRECISION,
	unit             TEXT,
	shop_name        TEXT,
	category         TEXT,
	confidence_score DOUBLE PRECISION NOT NULL,
	raw_text         TEXT NOT NULL DEFAULT '',
	captured_at      TIMESTAMPTZ NOT NULL,
	gps_latitude     DOUBLE PRECISION,
	gps_longitude    DOUBLE PRECISION,
	image_quality    DOUBLE PRECISION,
	image_path       TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_captured_at ON products (captured_at);
`

// PostgresRepository stores products in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("repository.postgres.ready")
	return &PostgresRepository{pool: pool, logger: logger}, nil
}

func (r *PostgresRepository) SaveProduct(ctx context.Context, rec *StoredProduct) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	p := rec.Product
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (
			id, submission_id, product_name, brand, price, unit, shop_name,
			category, confidence_score, raw_text, captured_at,
			gps_latitude, gps_longitude, image_quality, image_path, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		rec.ID, rec.SubmissionID, p.ProductName, p.Brand, p.Price, p.Unit,
		p.ShopName, p.Category, p.Confidence, p.RawText, p.CapturedAt,
		p.Latitude, p.Longitude, rec.ImageQuality, rec.ImagePath, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListProducts(ctx context.Context, from, to *time.Time) ([]*StoredProduct, error) {
	query := `
		SELECT id, submission_id, product_name, brand, price, unit, shop_name,
		       category, confidence_score, raw_text, captured_at,
		       gps_latitude, gps_longitude, image_quality, image_path, created_at
		FROM products WHERE 1=1`
	args := make([]any, 0, 2)
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND captured_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND captured_at <= $%d", len(args))
	}
	query += " ORDER BY captured_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*StoredProduct
	for rows.Next() {
		rec := &StoredProduct{Product: pipeline.ExtractedProduct{}}
		p := &rec.Product
		if err := rows.Scan(
			&rec.ID, &rec.SubmissionID, &p.ProductName, &p.Brand, &p.Price,
			&p.Unit, &p.ShopName, &p.Category, &p.Confidence, &p.RawText,
			&p.CapturedAt, &p.Latitude, &p.Longitude, &rec.ImageQuality,
			&rec.ImagePath, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
