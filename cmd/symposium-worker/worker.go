package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/symposiumhq/symposium/pkg/eventbus"
	"github.com/symposiumhq/symposium/pkg/events"
	"github.com/symposiumhq/symposium/pkg/host"
)

// WorkerManager consumes thread request events and hands each one to the
// execution host. The host owns the at-most-once claim; redelivered events
// are safe to pass through.
type WorkerManager struct {
	id       string
	logger   *slog.Logger
	eventBus eventbus.EventBus
	host     *host.Host
}

func NewWorkerManager(
	id string,
	eventBus eventbus.EventBus,
	runHost *host.Host,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:       id,
		logger:   logger.With("module", "symposium-worker", "worker_id", id),
		eventBus: eventBus,
		host:     runHost,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "worker_id", w.id)

	err := w.eventBus.Handle(events.ThreadRequestedEvent, w.handleThreadRequested)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleThreadRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.ThreadRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ThreadRequested")

		return nil
	}

	logger := w.logger.With(
		"thread_id", requested.ThreadID,
		"kind", requested.Kind,
		"event_id", requested.ID,
	)
	logger.InfoContext(ctx, "Processing thread request")

	err := w.host.Run(ctx, requested.ThreadID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to run thread", "error", err)

		return err
	}

	return nil
}
