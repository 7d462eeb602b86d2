package entities

import "time"

// NetworkQuality is the respondent-reported connectivity tier captured with
// the response.
type NetworkQuality string

const (
	NetworkQualityExcellent NetworkQuality = "excellent"
	NetworkQualityGood      NetworkQuality = "good"
	NetworkQualityAverage   NetworkQuality = "average"
	NetworkQualityPoor      NetworkQuality = "poor"
)

// FlagCode identifies one suspicious-signal rule. Flags are additive; a single
// response can carry several.
type FlagCode string

const (
	FlagTooFast            FlagCode = "too_fast"
	FlagLateNight          FlagCode = "late_night"
	FlagExcessiveEdits     FlagCode = "excessive_edits"
	FlagLowVoiceConfidence FlagCode = "low_voice_confidence"
	FlagGPSImplausible     FlagCode = "gps_implausible"
)

type VerdictStatus string

const (
	VerdictStatusVerified    VerdictStatus = "verified"
	VerdictStatusNeedsReview VerdictStatus = "needs_review"
)

// ParadataRecord is the behavioral metadata captured alongside one survey
// response. Immutable after ingest; a correction arrives as a new response id.
// Optional readings stay nil when the channel did not capture them, so a
// missing value is never confused with a genuine zero.
type ParadataRecord struct {
	ResponseID      string
	ScheduleID      string
	RespondentID    string
	District        string
	Channel         string
	DeviceType      string
	InteractionMode string
	DurationSeconds float64
	SubmittedAt     time.Time
	NetworkQuality  NetworkQuality
	EditCount       int
	QuestionCount   int
	GPSLatitude     *float64
	GPSLongitude    *float64
	VoiceConfidence *float64
	IngestedAt      time.Time
}

// HasGPS reports whether both coordinates were captured.
func (r ParadataRecord) HasGPS() bool {
	return r.GPSLatitude != nil && r.GPSLongitude != nil
}

// QualityVerdict is the scoring outcome for one ParadataRecord. It is
// recomputed from the record and the active thresholds, never edited by hand.
type QualityVerdict struct {
	ResponseID        string
	Flags             []FlagCode
	Status            VerdictStatus
	ThresholdRevision int
	EvaluatedAt       time.Time
}

// Flagged reports whether any rule fired.
func (v QualityVerdict) Flagged() bool {
	return len(v.Flags) > 0
}

// MonitoringStats backs the operator dashboard cards.
type MonitoringStats struct {
	TotalResponses     int
	FlaggedResponses   int
	AvgDurationSeconds float64
	GPSVerifiedCount   int
}
