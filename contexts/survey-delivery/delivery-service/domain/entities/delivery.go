package entities

import "time"

type ChannelKind string

const (
	ChannelKindChat        ChannelKind = "chat"
	ChannelKindIVR         ChannelKind = "ivr"
	ChannelKindWeb         ChannelKind = "web"
	ChannelKindVoiceAvatar ChannelKind = "voice_avatar"
)

type ChannelStatus string

const (
	ChannelStatusActive   ChannelStatus = "active"
	ChannelStatusInactive ChannelStatus = "inactive"
	ChannelStatusTesting  ChannelStatus = "testing"
)

type ChannelHealth string

const (
	ChannelHealthActive   ChannelHealth = "active"
	ChannelHealthDegraded ChannelHealth = "degraded"
	ChannelHealthDown     ChannelHealth = "down"
)

// Channel is never deleted; operators deactivate it instead so historical
// attempts keep a valid reference.
type Channel struct {
	Name                 string
	Kind                 ChannelKind
	Status               ChannelStatus
	Reach                int64
	Responded            int64
	ResponseRate         float64
	AvgCompletionSeconds float64
	UpdatedAt            time.Time
}

type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusRunning   ScheduleStatus = "running"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

type DeliverySchedule struct {
	ID               string
	CampaignID       string
	SurveyName       string
	District         string
	PrimaryChannel   ChannelKind
	FallbackChannels []ChannelKind
	Retry            RetryPolicy
	ScheduledStart   time.Time
	ScheduledEnd     time.Time
	TargetCount      int
	SentCount        int
	RespondedCount   int
	Status           ScheduleStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ChannelChain is the primary channel followed by the ordered fallback list.
func (s DeliverySchedule) ChannelChain() []ChannelKind {
	chain := make([]ChannelKind, 0, 1+len(s.FallbackChannels))
	chain = append(chain, s.PrimaryChannel)
	chain = append(chain, s.FallbackChannels...)
	return chain
}

type SlotState string

const (
	SlotStatePending   SlotState = "pending"
	SlotStateDelivered SlotState = "delivered"
	SlotStateExhausted SlotState = "exhausted"
)

// RespondentSlot tracks per-respondent dispatch progress inside one schedule:
// position in the channel chain, attempts consumed on the current channel and
// when the next attempt becomes due. Delivered slots never re-enter dispatch,
// which is what keeps the sent counter increment-once.
type RespondentSlot struct {
	ScheduleID    string
	RespondentID  string
	ChannelIndex  int
	AttemptsUsed  int
	TotalAttempts int
	NextAttemptAt time.Time
	State         SlotState
	LastError     string
	UpdatedAt     time.Time
}

type AttemptOutcome string

const (
	AttemptOutcomePending   AttemptOutcome = "pending"
	AttemptOutcomeDelivered AttemptOutcome = "delivered"
	AttemptOutcomeFailed    AttemptOutcome = "failed"
	AttemptOutcomeTimedOut  AttemptOutcome = "timed_out"
)

// DispatchAttempt is one try to deliver a survey invitation to one respondent
// over one channel. The attempt log is append-only; a retry appends a new row
// rather than mutating the prior outcome.
type DispatchAttempt struct {
	ID            string
	ScheduleID    string
	RespondentID  string
	AttemptNumber int
	Channel       ChannelKind
	Outcome       AttemptOutcome
	Error         string
	AttemptedAt   time.Time
}

// Progress is the outbound feed consumed by the dashboard UI.
type Progress struct {
	ScheduleID    string
	TargetCount   int
	SentCount     int
	RespondedCount int
	Status        ScheduleStatus
	Percent       int
	OverDelivered bool
}

// ChannelInsight summarizes cross-channel performance for the dashboard
// insights card.
type ChannelInsight struct {
	BestResponseRate  Channel
	FastestCompletion Channel
	TotalReach        int64
}
