package port

import (
	"context"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
)

// EventPublisher publishes account lifecycle events to the message bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishAccountAuthenticated(ctx context.Context, event domain.AccountAuthenticatedEvent) error
	PublishAccountRecovered(ctx context.Context, event domain.AccountRecoveredEvent) error
	PublishAccountDeleted(ctx context.Context, event domain.AccountDeletedEvent) error
}
