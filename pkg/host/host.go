// Package host runs thread drivers in a detached execution context, decoupled
// from the request that created the thread. The caller polls the read
// endpoint; the host guarantees each thread is driven at most once and always
// ends terminal.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/symposiumhq/symposium/pkg/eventbus"
	"github.com/symposiumhq/symposium/pkg/events"
	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/thread"
)

type Host struct {
	driver      *thread.Driver
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	guard       Guard
	workerID    string
	logger      *slog.Logger
}

func NewHost(
	driver *thread.Driver,
	p persistence.Persistence,
	publisher eventbus.EventPublisher,
	guard Guard,
	workerID string,
	logger *slog.Logger,
) *Host {
	return &Host{
		driver:      driver,
		persistence: p,
		publisher:   publisher,
		guard:       guard,
		workerID:    workerID,
		logger:      logger.With("module", "host", "worker_id", workerID),
	}
}

// Run claims and drives one thread. Redelivered or duplicate events are
// dropped at the guard; already-terminal threads are dropped after a status
// check. The driver's own cleanup guarantees the terminal status, so any
// error escaping it is logged, not retried.
func (h *Host) Run(ctx context.Context, threadID string) error {
	acquired, err := h.guard.Acquire(ctx, threadID)
	if err != nil {
		return fmt.Errorf("failed to acquire claim for thread %s: %w", threadID, err)
	}

	if !acquired {
		h.logger.InfoContext(ctx, "thread already claimed, skipping", "thread_id", threadID)

		return nil
	}

	threads := h.persistence.ThreadRepository()

	t, err := threads.GetByID(ctx, threadID)
	if err != nil {
		if releaseErr := h.guard.Release(ctx, threadID); releaseErr != nil {
			h.logger.WarnContext(ctx, "failed to release claim", "thread_id", threadID, "error", releaseErr)
		}

		return fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	if t.Status == models.ThreadStatusComplete {
		h.logger.InfoContext(ctx, "thread already complete, skipping", "thread_id", threadID)

		return nil
	}

	started := time.Now()

	err = h.driver.Run(ctx, threadID)
	if err != nil {
		// The thread is terminal regardless; this is for the operator.
		h.logger.ErrorContext(ctx, "thread driver reported an error", "thread_id", threadID, "error", err)
	}

	h.announceCompleted(ctx, t, time.Since(started))

	return nil
}

func (h *Host) announceCompleted(ctx context.Context, t *models.Thread, duration time.Duration) {
	threads := h.persistence.ThreadRepository()

	contributions, err := threads.Contributions(ctx, t.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to count contributions for completion event", "thread_id", t.ID, "error", err)
	}

	hasSynthesis := false

	_, err = threads.Synthesis(ctx, t.ID)
	if err == nil {
		hasSynthesis = true
	} else if !errors.Is(err, persistence.ErrSynthesisNotFound) {
		h.logger.WarnContext(ctx, "failed to look up synthesis for completion event", "thread_id", t.ID, "error", err)
	}

	base := events.NewBaseEvent(events.ThreadCompletedEvent, t.ID)
	base.WorkerID = h.workerID

	event := events.ThreadCompleted{
		BaseEvent:     base,
		Kind:          t.Kind,
		Contributions: len(contributions),
		HasSynthesis:  hasSynthesis,
		Duration:      duration,
	}

	err = h.publisher.Publish(ctx, t.ID, event)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to publish completion event", "thread_id", t.ID, "error", err)
	}
}
