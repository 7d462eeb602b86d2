package ports

import (
	"context"
	"encoding/json"
	"time"

	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	"samiksha/internal/shared/events"
)

type Repository interface {
	CreateSchedule(ctx context.Context, schedule entities.DeliverySchedule) error
	UpdateSchedule(ctx context.Context, schedule entities.DeliverySchedule) error
	GetSchedule(ctx context.Context, scheduleID string) (entities.DeliverySchedule, error)
	ListSchedules(ctx context.Context, district string, status entities.ScheduleStatus) ([]entities.DeliverySchedule, error)
	ListSchedulesByStatus(ctx context.Context, status entities.ScheduleStatus, limit int) ([]entities.DeliverySchedule, error)

	// Per-schedule counters must update atomically; implementations serialize
	// writers per schedule id while different schedules update in parallel.
	IncrementSentCount(ctx context.Context, scheduleID string) (entities.DeliverySchedule, error)
	IncrementRespondedCount(ctx context.Context, scheduleID string) (entities.DeliverySchedule, error)

	// MarkResponseSeen reports whether the response id was recorded for the
	// first time. Responded counts increment only on a first sighting.
	MarkResponseSeen(ctx context.Context, scheduleID, responseID string) (bool, error)

	CreateSlot(ctx context.Context, slot entities.RespondentSlot) error
	UpdateSlot(ctx context.Context, slot entities.RespondentSlot) error
	GetSlot(ctx context.Context, scheduleID, respondentID string) (entities.RespondentSlot, error)
	ListDueSlots(ctx context.Context, scheduleID string, threshold time.Time, limit int) ([]entities.RespondentSlot, error)
	CountSlotsByState(ctx context.Context, scheduleID string, state entities.SlotState) (int, error)

	// Attempt log is append-only; outcomes are recorded by appending, never by
	// rewriting a prior row.
	AppendAttempt(ctx context.Context, attempt entities.DispatchAttempt) error
	ListAttempts(ctx context.Context, scheduleID, respondentID string) ([]entities.DispatchAttempt, error)
	CountAttempts(ctx context.Context, scheduleID string) (int, error)

	UpsertChannel(ctx context.Context, channel entities.Channel) error
	GetChannel(ctx context.Context, kind entities.ChannelKind) (entities.Channel, error)
	ListChannels(ctx context.Context) ([]entities.Channel, error)
}

// Dispatch carries one invitation to one respondent. The payload format is
// owned by the channel adapter and opaque to the core.
type Dispatch struct {
	ScheduleID   string
	RespondentID string
	Channel      entities.ChannelKind
	Payload      json.RawMessage
}

// ChannelAdapter is the uniform send/poll surface per transport. Send must
// return within the caller's context deadline; implementations report
// explicit rejection as ErrTransportFailure and deadline expiry as
// ErrTransportTimeout so the two are distinguishable in the attempt log.
type ChannelAdapter interface {
	Kind() entities.ChannelKind
	Send(ctx context.Context, dispatch Dispatch) error
	CheckHealth(ctx context.Context) entities.ChannelHealth
}

type AdapterRegistry interface {
	Adapter(kind entities.ChannelKind) (ChannelAdapter, bool)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}
