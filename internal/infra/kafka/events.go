package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
	"github.com/GitHubKaan/gju-jobs-api/internal/core/port"
	"github.com/GitHubKaan/gju-jobs-api/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserUUID  string            `json:"user_uuid,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userUUID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserUUID:  userUUID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes account.registered events.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		UserUUID     string    `json:"user_uuid"`
		UserType     string    `json:"user_type"`
		Email        string    `json:"email"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserUUID:     event.UserUUID,
		UserType:     string(event.UserType),
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "account.registered", event.UserUUID, event.RegisteredAt, payload)
}

// PublishAccountAuthenticated publishes account.authenticated events.
func (p *EventPublisher) PublishAccountAuthenticated(ctx context.Context, event domain.AccountAuthenticatedEvent) error {
	payload := struct {
		UserUUID        string    `json:"user_uuid"`
		UserType        string    `json:"user_type"`
		OS              string    `json:"os,omitempty"`
		Browser         string    `json:"browser,omitempty"`
		AuthenticatedAt time.Time `json:"authenticated_at"`
	}{
		UserUUID:        event.UserUUID,
		UserType:        string(event.UserType),
		OS:              event.OS,
		Browser:         event.Browser,
		AuthenticatedAt: event.AuthenticatedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "account.authenticated", event.UserUUID, event.AuthenticatedAt, payload)
}

// PublishAccountRecovered publishes account.recovered events.
func (p *EventPublisher) PublishAccountRecovered(ctx context.Context, event domain.AccountRecoveredEvent) error {
	payload := struct {
		UserUUID    string    `json:"user_uuid"`
		UserType    string    `json:"user_type"`
		RecoveredAt time.Time `json:"recovered_at"`
	}{
		UserUUID:    event.UserUUID,
		UserType:    string(event.UserType),
		RecoveredAt: event.RecoveredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "account.recovered", event.UserUUID, event.RecoveredAt, payload)
}

// PublishAccountDeleted publishes account.deleted events.
func (p *EventPublisher) PublishAccountDeleted(ctx context.Context, event domain.AccountDeletedEvent) error {
	payload := struct {
		UserUUID  string    `json:"user_uuid"`
		UserType  string    `json:"user_type"`
		DeletedAt time.Time `json:"deleted_at"`
	}{
		UserUUID:  event.UserUUID,
		UserType:  string(event.UserType),
		DeletedAt: event.DeletedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "account.deleted", event.UserUUID, event.DeletedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
