package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kade-connect/pricescout/internal/pipeline"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRunner) Process(_ context.Context, _ pipeline.Request) pipeline.Outcome {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return pipeline.Outcome{
		Succeeded: true,
		Product:   &pipeline.ExtractedProduct{ProductName: "Tea", Confidence: 0.8},
	}
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type collectingSink struct {
	mu       sync.Mutex
	outcomes map[uuid.UUID]pipeline.Outcome
	err      error
}

func newCollectingSink() *collectingSink {
	return &collectingSink{outcomes: make(map[uuid.UUID]pipeline.Outcome)}
}

func (s *collectingSink) StoreOutcome(_ context.Context, id uuid.UUID, out pipeline.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[id] = out
	return s.err
}

func (s *collectingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

func TestQueueProcessesAllJobs(t *testing.T) {
	runner := &countingRunner{}
	sink := newCollectingSink()
	q := NewQueue(runner, sink, nil, WithWorkers(3), WithQueueSize(16))

	const jobs = 10
	ids := make([]uuid.UUID, 0, jobs)
	for i := 0; i < jobs; i++ {
		id := uuid.New()
		ids = append(ids, id)
		if err := q.Enqueue(context.Background(), Job{
			SubmissionID: id,
			Request:      pipeline.Request{Image: []byte("img")},
			SubmittedAt:  time.Now(),
		}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := runner.count(); got != jobs {
		t.Errorf("processed: got %d, want %d", got, jobs)
	}
	if got := sink.count(); got != jobs {
		t.Errorf("stored: got %d, want %d", got, jobs)
	}
	for _, id := range ids {
		out, ok := sink.outcomes[id]
		if !ok {
			t.Errorf("submission %s missing from sink", id)
			continue
		}
		if !out.Succeeded {
			t.Errorf("submission %s not succeeded", id)
		}
	}
}

func TestQueueSurvivesSinkErrors(t *testing.T) {
	runner := &countingRunner{}
	sink := newCollectingSink()
	sink.err = errors.New("db down")
	q := NewQueue(runner, sink, nil, WithWorkers(1))

	for i := 0; i < 3; i++ {
		_ = q.Enqueue(context.Background(), Job{SubmissionID: uuid.New()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := runner.count(); got != 3 {
		t.Errorf("processed: got %d, want 3 despite sink errors", got)
	}
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	runner := &countingRunner{}
	q := NewQueue(runner, nil, nil, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	// Enqueue after shutdown is a no-op, not a panic on a closed channel.
	if err := q.Enqueue(context.Background(), Job{SubmissionID: uuid.New()}); err != nil {
		t.Fatalf("enqueue after shutdown: %v", err)
	}
	if got := runner.count(); got != 0 {
		t.Errorf("processed: got %d, want 0", got)
	}
}

func TestQueueNilSink(t *testing.T) {
	runner := &countingRunner{}
	q := NewQueue(runner, nil, nil, WithWorkers(2))

	for i := 0; i < 4; i++ {
		_ = q.Enqueue(context.Background(), Job{SubmissionID: uuid.New()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if got := runner.count(); got != 4 {
		t.Errorf("processed: got %d, want 4", got)
	}
}
