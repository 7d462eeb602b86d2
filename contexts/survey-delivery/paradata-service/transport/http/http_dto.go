package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IngestRequest carries the raw response metadata from a channel webhook.
// Optional readings are pointers so absent and zero stay distinguishable.
type IngestRequest struct {
	ResponseID      string   `json:"responseId,omitempty"`
	ScheduleID      string   `json:"scheduleId"`
	RespondentID    string   `json:"respondentId"`
	District        string   `json:"district,omitempty"`
	Channel         string   `json:"channel,omitempty"`
	DeviceType      string   `json:"deviceType,omitempty"`
	InteractionMode string   `json:"interactionMode,omitempty"`
	DurationSeconds float64  `json:"durationSeconds"`
	SubmittedAt     string   `json:"submittedAt"`
	NetworkQuality  string   `json:"networkQuality,omitempty"`
	EditCount       int      `json:"editCount,omitempty"`
	QuestionCount   int      `json:"questionCount,omitempty"`
	GPSLatitude     *float64 `json:"gpsLatitude,omitempty"`
	GPSLongitude    *float64 `json:"gpsLongitude,omitempty"`
	VoiceConfidence *float64 `json:"voiceConfidence,omitempty"`
}

type VerdictDTO struct {
	ResponseID        string   `json:"responseId"`
	Flags             []string `json:"flags"`
	Status            string   `json:"status"`
	ThresholdRevision int      `json:"thresholdRevision"`
	EvaluatedAt       string   `json:"evaluatedAt"`
}

type ResponseDTO struct {
	ResponseID      string     `json:"responseId"`
	ScheduleID      string     `json:"scheduleId"`
	RespondentID    string     `json:"respondentId"`
	District        string     `json:"district,omitempty"`
	Channel         string     `json:"channel,omitempty"`
	DeviceType      string     `json:"deviceType,omitempty"`
	InteractionMode string     `json:"interactionMode,omitempty"`
	DurationSeconds float64    `json:"durationSeconds"`
	SubmittedAt     string     `json:"submittedAt"`
	NetworkQuality  string     `json:"networkQuality,omitempty"`
	EditCount       int        `json:"editCount"`
	QuestionCount   int        `json:"questionCount"`
	GPSLatitude     *float64   `json:"gpsLatitude,omitempty"`
	GPSLongitude    *float64   `json:"gpsLongitude,omitempty"`
	VoiceConfidence *float64   `json:"voiceConfidence,omitempty"`
	Verdict         VerdictDTO `json:"verdict"`
}

type MonitoringStatsDTO struct {
	TotalResponses     int     `json:"totalResponses"`
	FlaggedResponses   int     `json:"flaggedResponses"`
	AvgDurationSeconds float64 `json:"avgDurationSeconds"`
	GPSVerifiedCount   int     `json:"gpsVerifiedCount"`
}

// RescoreRequest overrides individual thresholds; fields left null keep the
// active value. The revision bump is handled server side.
type RescoreRequest struct {
	MinDurationSeconds   map[string]float64 `json:"minDurationSeconds,omitempty"`
	DefaultMinDuration   *float64           `json:"defaultMinDuration,omitempty"`
	LateNightStartHour   *int               `json:"lateNightStartHour,omitempty"`
	LateNightEndHour     *int               `json:"lateNightEndHour,omitempty"`
	MaxEditsPerQuestion  *float64           `json:"maxEditsPerQuestion,omitempty"`
	MaxEditsAbsolute     *int               `json:"maxEditsAbsolute,omitempty"`
	VoiceConfidenceFloor *float64           `json:"voiceConfidenceFloor,omitempty"`
	RequireGPS           *bool              `json:"requireGps,omitempty"`
	GPSRadiusKm          *float64           `json:"gpsRadiusKm,omitempty"`
}

type RescoreResponse struct {
	ThresholdRevision int `json:"thresholdRevision"`
	RescoredCount     int `json:"rescoredCount"`
}
