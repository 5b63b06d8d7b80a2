package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/petnice/clinic-dashboard/internal/auth"
	"github.com/petnice/clinic-dashboard/internal/domain"
	"github.com/petnice/clinic-dashboard/internal/events"
	"github.com/petnice/clinic-dashboard/internal/repository"
)

// RecordService runs the CRUD workflow of one resource on behalf of a signed-in user.
type RecordService[T domain.Record] struct {
	repo       repository.RecordRepository[T]
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewRecordService builds a service over repo.
func NewRecordService[T domain.Record](repo repository.RecordRepository[T], dispatcher events.Dispatcher, logger *zap.Logger) *RecordService[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService[T]{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger.With(zap.String("resource", repo.Resource())),
	}
}

// Resource names the remote collection.
func (s *RecordService[T]) Resource() string {
	return s.repo.Resource()
}

func (s *RecordService[T]) List(ctx context.Context, principal *auth.Principal) ([]T, error) {
	return s.repo.List(ctx, principal.Token)
}

func (s *RecordService[T]) Create(ctx context.Context, principal *auth.Principal, payload any) error {
	if err := s.repo.Create(ctx, principal.Token, payload); err != nil {
		return err
	}
	s.publish(ctx, events.EventRecordCreated, principal, "")
	return nil
}

func (s *RecordService[T]) Update(ctx context.Context, principal *auth.Principal, id string, payload any) error {
	if err := s.repo.Update(ctx, principal.Token, id, payload); err != nil {
		return err
	}
	s.publish(ctx, events.EventRecordUpdated, principal, id)
	return nil
}

func (s *RecordService[T]) Delete(ctx context.Context, principal *auth.Principal, id string) error {
	if err := s.repo.Delete(ctx, principal.Token, id); err != nil {
		return err
	}
	s.publish(ctx, events.EventRecordDeleted, principal, id)
	return nil
}

func (s *RecordService[T]) publish(ctx context.Context, eventType events.EventType, principal *auth.Principal, id string) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(eventType, events.ActorFrom(principal.Identity), events.RecordPayload{
		Resource: s.repo.Resource(),
		RecordID: id,
	})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// Filter keeps records whose search text contains query, ignoring case. An empty
// query keeps everything.
func Filter[T domain.Record](records []T, query string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	out := make([]T, 0, len(records))
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.SearchText()), query) {
			out = append(out, record)
		}
	}
	return out
}

// Find returns the record with id.
func Find[T domain.Record](records []T, id string) (T, bool) {
	for _, record := range records {
		if record.RecordID() == id {
			return record, true
		}
	}
	var zero T
	return zero, false
}
