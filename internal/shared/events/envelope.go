package events

import "time"

// Envelope is the canonical event shape exchanged between survey-delivery
// modules. Paradata scoring emits it through the outbox; the delivery side
// consumes it to advance response progress.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceService  string    `json:"source_service"`
	OccurredAtUTC  time.Time `json:"occurred_at_utc"`
	CorrelationID  string    `json:"correlation_id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	PayloadVersion int       `json:"payload_version"`
	Payload        []byte    `json:"payload"`
}

// TopicResponseScored carries one event per scored response.
const TopicResponseScored = "paradata.response.scored"

// ResponseScoredPayload is the payload carried on TopicResponseScored.
type ResponseScoredPayload struct {
	ResponseID      string   `json:"response_id"`
	ScheduleID      string   `json:"schedule_id"`
	RespondentID    string   `json:"respondent_id"`
	Channel         string   `json:"channel"`
	DurationSeconds float64  `json:"duration_seconds"`
	Status          string   `json:"status"`
	Flags           []string `json:"flags"`
}
