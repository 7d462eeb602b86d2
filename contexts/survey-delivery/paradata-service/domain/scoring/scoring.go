// Package scoring evaluates paradata records against the quality rule set.
// Evaluation is pure and order-independent: the same record and config always
// produce the same verdict, which allows stored responses to be re-scored
// after a threshold change.
package scoring

import (
	"math"
	"sort"
	"time"

	"samiksha/contexts/survey-delivery/paradata-service/domain/entities"
)

// Coordinate is a district centroid used for GPS plausibility.
type Coordinate struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// RuleConfig carries every tunable threshold. Zero values are replaced by
// DefaultRuleConfig fields where a zero would disable the rule by accident.
type RuleConfig struct {
	// Revision is bumped on every operator change so verdicts record which
	// threshold set produced them.
	Revision int `yaml:"revision"`

	// MinDurationSeconds maps channel kind to the minimum plausible
	// completion time. Channels not listed fall back to DefaultMinDuration.
	MinDurationSeconds map[string]float64 `yaml:"min_duration_seconds"`
	DefaultMinDuration float64            `yaml:"default_min_duration"`

	// Late-night window in local hours. StartHour > EndHour means the window
	// crosses midnight.
	LateNightStartHour int `yaml:"late_night_start_hour"`
	LateNightEndHour   int `yaml:"late_night_end_hour"`

	// Edits above MaxEditsPerQuestion * question count are flagged. When the
	// question count is unknown MaxEditsAbsolute applies instead.
	MaxEditsPerQuestion float64 `yaml:"max_edits_per_question"`
	MaxEditsAbsolute    int     `yaml:"max_edits_absolute"`

	VoiceConfidenceFloor float64 `yaml:"voice_confidence_floor"`

	// GPS plausibility. RequireGPS flags records that arrive without
	// coordinates. A record from a district without a centroid cannot be
	// evaluated for distance and is not flagged for it.
	RequireGPS        bool                  `yaml:"require_gps"`
	GPSRadiusKm       float64               `yaml:"gps_radius_km"`
	DistrictCentroids map[string]Coordinate `yaml:"district_centroids"`
}

// DefaultRuleConfig mirrors the field-tested thresholds for the pilot
// districts.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		Revision: 1,
		MinDurationSeconds: map[string]float64{
			"chat":         60,
			"ivr":          90,
			"web":          120,
			"voice_avatar": 90,
		},
		DefaultMinDuration:   60,
		LateNightStartHour:   23,
		LateNightEndHour:     5,
		MaxEditsPerQuestion:  0.5,
		MaxEditsAbsolute:     10,
		VoiceConfidenceFloor: 0.6,
		RequireGPS:           false,
		GPSRadiusKm:          50,
		DistrictCentroids: map[string]Coordinate{
			"Ahmadabad": {Latitude: 23.0225, Longitude: 72.5714},
			"Mumbai":    {Latitude: 19.0760, Longitude: 72.8777},
			"Bangalore": {Latitude: 12.9716, Longitude: 77.5946},
			"Jaipur":    {Latitude: 26.9124, Longitude: 75.7873},
		},
	}
}

// Evaluate applies every rule to the record and returns the verdict. A rule
// whose inputs are absent is treated as not triggered, never as an error.
func Evaluate(record entities.ParadataRecord, config RuleConfig, now time.Time) entities.QualityVerdict {
	var flags []entities.FlagCode

	if tooFast(record, config) {
		flags = append(flags, entities.FlagTooFast)
	}
	if lateNight(record, config) {
		flags = append(flags, entities.FlagLateNight)
	}
	if excessiveEdits(record, config) {
		flags = append(flags, entities.FlagExcessiveEdits)
	}
	if lowVoiceConfidence(record, config) {
		flags = append(flags, entities.FlagLowVoiceConfidence)
	}
	if gpsImplausible(record, config) {
		flags = append(flags, entities.FlagGPSImplausible)
	}

	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })

	status := entities.VerdictStatusVerified
	if len(flags) > 0 {
		status = entities.VerdictStatusNeedsReview
	}
	return entities.QualityVerdict{
		ResponseID:        record.ResponseID,
		Flags:             flags,
		Status:            status,
		ThresholdRevision: config.Revision,
		EvaluatedAt:       now.UTC(),
	}
}

func tooFast(record entities.ParadataRecord, config RuleConfig) bool {
	minimum, ok := config.MinDurationSeconds[record.Channel]
	if !ok {
		minimum = config.DefaultMinDuration
	}
	if minimum <= 0 {
		return false
	}
	return record.DurationSeconds > 0 && record.DurationSeconds < minimum
}

func lateNight(record entities.ParadataRecord, config RuleConfig) bool {
	if record.SubmittedAt.IsZero() {
		return false
	}
	start := config.LateNightStartHour
	end := config.LateNightEndHour
	if start == end {
		return false
	}
	hour := record.SubmittedAt.Hour()
	if start < end {
		return hour >= start && hour < end
	}
	// Window crosses midnight, e.g. 23:00 to 05:00.
	return hour >= start || hour < end
}

func excessiveEdits(record entities.ParadataRecord, config RuleConfig) bool {
	if record.EditCount <= 0 {
		return false
	}
	if record.QuestionCount > 0 && config.MaxEditsPerQuestion > 0 {
		return float64(record.EditCount) > config.MaxEditsPerQuestion*float64(record.QuestionCount)
	}
	if config.MaxEditsAbsolute > 0 {
		return record.EditCount > config.MaxEditsAbsolute
	}
	return false
}

func lowVoiceConfidence(record entities.ParadataRecord, config RuleConfig) bool {
	if record.VoiceConfidence == nil {
		return false
	}
	return *record.VoiceConfidence < config.VoiceConfidenceFloor
}

func gpsImplausible(record entities.ParadataRecord, config RuleConfig) bool {
	if !record.HasGPS() {
		return config.RequireGPS
	}
	centroid, ok := config.DistrictCentroids[record.District]
	if !ok || config.GPSRadiusKm <= 0 {
		return false
	}
	distance := haversineKm(*record.GPSLatitude, *record.GPSLongitude, centroid.Latitude, centroid.Longitude)
	return distance > config.GPSRadiusKm
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
