package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/bus-tracking/internal/events"
	"github.com/spec-kit/bus-tracking/internal/observability"
)

// AuditService records authentication events in the log and in metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserRegistered)
	a.dispatcher.Subscribe(events.EventUserLoggedIn, a.handleUserLoggedIn)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventUserProvisioned, a.handleUserProvisioned)
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	a.logger.Info("UserRegistered", zap.String("subject_id", event.SubjectID), zap.String("role", string(event.Role)))
	return nil
}

func (a *AuditService) handleUserLoggedIn(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	a.logger.Info("UserLoggedIn", zap.String("subject_id", event.SubjectID), zap.String("role", string(event.Role)))
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	a.logger.Warn("LoginFailed", zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleUserProvisioned(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	a.logger.Info("UserProvisioned", zap.String("subject_id", event.SubjectID), zap.String("role", string(event.Role)))
	return nil
}
