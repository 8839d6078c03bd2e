// Package scheduler creates debates on a cron schedule from a standing topic
// list: each firing picks the next topic in rotation and a random subset of
// the registered personas.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/services"
)

// debateSize is how many personas join a scheduled debate.
const debateSize = 3

// Topic is one standing debate subject.
type Topic struct {
	Topic         string `json:"topic"`
	SourceTitle   string `json:"source_title"`
	SourceExcerpt string `json:"source_excerpt,omitempty"`
}

type Scheduler struct {
	cron    *cron.Cron
	threads *services.ThreadService
	persona *services.PersonaService
	topics  []Topic
	next    int
	mu      sync.Mutex
	logger  *slog.Logger
}

func NewScheduler(threads *services.ThreadService, persona *services.PersonaService, topics []Topic, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		threads: threads,
		persona: persona,
		topics:  topics,
		logger:  logger.With("module", "scheduler"),
	}
}

// Start registers the firing schedule and launches the cron loop. The spec
// string uses standard five-field cron syntax.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.fire(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started", "spec", spec, "topics", len(s.topics))

	return nil
}

// Stop halts the cron loop and waits for a running firing to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) fire(ctx context.Context) {
	topic, ok := s.nextTopic()
	if !ok {
		s.logger.WarnContext(ctx, "no standing topics configured, skipping firing")

		return
	}

	personas, err := s.persona.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list personas for scheduled debate", "error", err)

		return
	}

	participants := pickPersonas(personas, debateSize)
	if len(participants) < 2 {
		s.logger.WarnContext(ctx, "not enough personas for a scheduled debate", "available", len(personas))

		return
	}

	thread, err := s.threads.CreateDebate(ctx, services.CreateDebateParams{
		Topic:         topic.Topic,
		SourceTitle:   topic.SourceTitle,
		SourceExcerpt: topic.SourceExcerpt,
		PersonaIDs:    participants,
		LengthTier:    models.LengthMedium,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create scheduled debate", "topic", topic.Topic, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "scheduled debate created", "thread_id", thread.ID, "topic", topic.Topic)
}

func (s *Scheduler) nextTopic() (Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.topics) == 0 {
		return Topic{}, false
	}

	topic := s.topics[s.next%len(s.topics)]
	s.next++

	return topic, true
}

func pickPersonas(personas []*models.Persona, n int) []string {
	ids := make([]string, 0, len(personas))
	for _, persona := range personas {
		ids = append(ids, persona.ID)
	}

	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	if len(ids) > n {
		ids = ids[:n]
	}

	return ids
}
