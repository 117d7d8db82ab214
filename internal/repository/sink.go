package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kade-connect/pricescout/internal/pipeline"
)

// OutcomeSink persists successful pipeline outcomes from the async queue.
// Failed outcomes are logged and dropped; the submitter already received the
// submission id and can re-scan.
type OutcomeSink struct {
	repo   ProductRepository
	logger *slog.Logger
}

func NewOutcomeSink(repo ProductRepository, logger *slog.Logger) *OutcomeSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutcomeSink{repo: repo, logger: logger}
}

func (s *OutcomeSink) StoreOutcome(ctx context.Context, submissionID uuid.UUID, outcome pipeline.Outcome) error {
	if !outcome.Succeeded || outcome.Product == nil {
		s.logger.Warn("sink.outcome.skipped",
			"submission_id", submissionID,
			"reason", outcome.FailureReason,
		)
		return nil
	}
	rec := &StoredProduct{
		ID:           uuid.New(),
		SubmissionID: submissionID,
		Product:      *outcome.Product,
		ImageQuality: outcome.ImageQuality,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.SaveProduct(ctx, rec); err != nil {
		return err
	}
	s.logger.Info("sink.outcome.stored",
		"submission_id", submissionID,
		"product_id", rec.ID,
	)
	return nil
}
