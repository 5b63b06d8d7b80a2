package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/petnice/clinic-dashboard/internal/events"
)

// AuditService writes a structured log entry for every dashboard event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventSessionStarted,
		events.EventSessionEnded,
		events.EventSessionExpired,
		events.EventSessionRejected,
		events.EventAccountRegistered,
	} {
		a.dispatcher.Subscribe(eventType, a.handleSessionEvent)
	}
	for _, eventType := range []events.EventType{
		events.EventRecordCreated,
		events.EventRecordUpdated,
		events.EventRecordDeleted,
	} {
		a.dispatcher.Subscribe(eventType, a.handleRecordEvent)
	}
}

func (a *AuditService) handleSessionEvent(_ context.Context, event events.Event) error {
	fields := append(baseFields(event), zap.Any("payload", event.Payload))
	a.logger.Info(string(event.Type), fields...)
	return nil
}

func (a *AuditService) handleRecordEvent(_ context.Context, event events.Event) error {
	fields := baseFields(event)
	if payload, ok := event.Payload.(events.RecordPayload); ok {
		fields = append(fields,
			zap.String("resource", payload.Resource),
			zap.String("record_id", payload.RecordID))
	}
	a.logger.Info(string(event.Type), fields...)
	return nil
}

func baseFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("user_id", event.Actor.UserID),
		zap.String("email", event.Actor.Email),
		zap.Time("at", event.Timestamp),
	}
}
