package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateScheduleRequest struct {
	CampaignID       string   `json:"campaign_id"`
	SurveyName       string   `json:"survey_name"`
	District         string   `json:"district"`
	PrimaryChannel   string   `json:"primary_channel"`
	FallbackChannels []string `json:"fallback_channels"`
	MaxAttempts      int      `json:"max_attempts"`
	RetryIntervalSec int      `json:"retry_interval_seconds"`
	ScheduledStart   string   `json:"scheduled_start"`
	ScheduledEnd     string   `json:"scheduled_end"`
	TargetCount      int      `json:"target_count"`
}

type EnrollRespondentsRequest struct {
	RespondentIDs []string `json:"respondent_ids"`
}

type EnrollRespondentsResponse struct {
	ScheduleID    string `json:"schedule_id"`
	EnrolledCount int    `json:"enrolled_count"`
}

type ScheduleDTO struct {
	ID               string   `json:"id"`
	CampaignID       string   `json:"campaign_id"`
	SurveyName       string   `json:"survey_name"`
	District         string   `json:"district"`
	PrimaryChannel   string   `json:"primary_channel"`
	FallbackChannels []string `json:"fallback_channels"`
	MaxAttempts      int      `json:"max_attempts"`
	RetryIntervalSec int      `json:"retry_interval_seconds"`
	ScheduledStart   string   `json:"scheduled_start"`
	ScheduledEnd     string   `json:"scheduled_end"`
	TargetCount      int      `json:"target_count"`
	SentCount        int      `json:"sent_count"`
	RespondedCount   int      `json:"responded_count"`
	Status           string   `json:"status"`
}

type ProgressDTO struct {
	ScheduleID     string `json:"schedule_id"`
	TargetCount    int    `json:"target"`
	SentCount      int    `json:"sent"`
	RespondedCount int    `json:"responded"`
	Status         string `json:"status"`
	Percent        int    `json:"percent"`
	OverDelivered  bool   `json:"over_delivered"`
}

type ChannelDTO struct {
	Name                 string  `json:"name"`
	Kind                 string  `json:"kind"`
	Status               string  `json:"status"`
	Reach                int64   `json:"reach"`
	ResponseRate         float64 `json:"response_rate"`
	AvgCompletionSeconds float64 `json:"avg_completion_seconds"`
}

type ChannelInsightDTO struct {
	BestResponseRateChannel  string  `json:"best_response_rate_channel"`
	BestResponseRate         float64 `json:"best_response_rate"`
	FastestCompletionChannel string  `json:"fastest_completion_channel"`
	FastestCompletionSeconds float64 `json:"fastest_completion_seconds"`
	TotalReach               int64   `json:"total_reach"`
}

type AttemptDTO struct {
	ID            string `json:"id"`
	ScheduleID    string `json:"schedule_id"`
	RespondentID  string `json:"respondent_id"`
	AttemptNumber int    `json:"attempt_number"`
	Channel       string `json:"channel"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
	AttemptedAt   string `json:"attempted_at"`
}
