package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userUUID string, at time.Time) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("user_uuid", userUUID),
		zap.Time("timestamp", at.UTC()),
	)
}

func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.logEvent("account.registered", event.UserUUID, event.RegisteredAt)
	return nil
}

func (p *StubPublisher) PublishAccountAuthenticated(_ context.Context, event domain.AccountAuthenticatedEvent) error {
	p.logEvent("account.authenticated", event.UserUUID, event.AuthenticatedAt)
	return nil
}

func (p *StubPublisher) PublishAccountRecovered(_ context.Context, event domain.AccountRecoveredEvent) error {
	p.logEvent("account.recovered", event.UserUUID, event.RecoveredAt)
	return nil
}

func (p *StubPublisher) PublishAccountDeleted(_ context.Context, event domain.AccountDeletedEvent) error {
	p.logEvent("account.deleted", event.UserUUID, event.DeletedAt)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
