package ports

import (
	"context"
	"time"

	"samiksha/contexts/survey-delivery/paradata-service/domain/entities"
	"samiksha/internal/shared/events"
)

// ResponseFilter narrows list queries. Flagged nil means no flag filter.
type ResponseFilter struct {
	ScheduleID string
	District   string
	Flagged    *bool
	Limit      int
}

type Repository interface {
	// CreateRecord persists an ingested record. Records are append-only;
	// a duplicate response id is ErrResponseExists.
	CreateRecord(ctx context.Context, record entities.ParadataRecord) error
	GetRecord(ctx context.Context, responseID string) (entities.ParadataRecord, error)
	ListRecords(ctx context.Context, filter ResponseFilter) ([]entities.ParadataRecord, error)

	// UpsertVerdict replaces the verdict for a response. Verdicts stay 1:1
	// with their record.
	UpsertVerdict(ctx context.Context, verdict entities.QualityVerdict) error
	GetVerdict(ctx context.Context, responseID string) (entities.QualityVerdict, error)

	Stats(ctx context.Context) (entities.MonitoringStats, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
