package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/aegis-auth/aegis/internal/jobs"
	"github.com/aegis-auth/aegis/jobs"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50

	defaultRetention = 90 * 24 * time.Hour
)

// Service coordinates recording, listing and pruning of auth events.
type Service struct {
	repo      Repository
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
	retention time.Duration
	now       func() time.Time
}

// NewService constructs an audit service. A non-positive retention falls
// back to 90 days. Job metrics may be nil.
func NewService(repo Repository, logger *slog.Logger, metrics *jobmetrics.Metrics, retention time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Service{
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		retention: retention,
		now:       time.Now,
	}
}

// Record validates and stores one event, assigning its id.
func (s *Service) Record(ctx context.Context, event Event) error {
	if s.repo == nil {
		return fmt.Errorf("audit: repository not configured")
	}
	if strings.TrimSpace(event.Kind) == "" {
		return fmt.Errorf("audit: event kind required")
	}
	if event.Outcome == "" {
		event.Outcome = OutcomeOK
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	return s.repo.Insert(ctx, event)
}

// Timeline returns one page of events, newest first. The page size is
// clamped; one extra row is fetched to detect a following page.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	events, err := s.repo.TimelineWindow(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(events) > pageSize
	if hasNext {
		events = events[:pageSize]
	}
	if events == nil {
		events = []Event{}
	}
	return Result{
		Events: events,
		Paging: PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext},
	}, nil
}

// Prune deletes events older than the retention window.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("audit: repository not configured")
	}
	cutoff := s.now().UTC().Add(-s.retention)
	return s.repo.DeleteBefore(ctx, cutoff)
}

// HandleAuthEventTask processes queued auth events from the API.
func (s *Service) HandleAuthEventTask(ctx context.Context, t *asynq.Task) error {
	tracker := s.metrics.Track("auth_event")
	var payload jobs.AuthEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	err := s.Record(ctx, Event{
		Kind:       payload.Kind,
		Outcome:    payload.Outcome,
		Email:      payload.Email,
		UserID:     payload.UserID,
		OccurredAt: payload.At,
	})
	if err != nil {
		s.logger.Error("record auth event", slog.Any("error", err))
	}
	return tracker.End(err)
}

// HandlePruneTask runs the scheduled retention sweep.
func (s *Service) HandlePruneTask(ctx context.Context, t *asynq.Task) error {
	tracker := s.metrics.Track("auth_event_prune")
	removed, err := s.Prune(ctx)
	if err != nil {
		s.logger.Error("prune auth events", slog.Any("error", err))
		return tracker.End(err)
	}
	s.logger.Info("pruned auth events", slog.Int64("removed", removed))
	return tracker.End(nil)
}
