package scoring

import (
	"reflect"
	"testing"
	"time"

	"samiksha/contexts/survey-delivery/paradata-service/domain/entities"
)

func float64Ptr(value float64) *float64 { return &value }

func baseRecord() entities.ParadataRecord {
	return entities.ParadataRecord{
		ResponseID:      "response-1",
		ScheduleID:      "sched-1",
		RespondentID:    "resp-1",
		District:        "Ahmadabad",
		Channel:         "web",
		DurationSeconds: 300,
		SubmittedAt:     time.Date(2026, time.March, 2, 14, 30, 0, 0, time.UTC),
		QuestionCount:   20,
	}
}

func TestTooFastUsesPerChannelMinimum(t *testing.T) {
	config := DefaultRuleConfig()
	now := time.Now()

	fast := baseRecord()
	fast.Channel = "chat"
	fast.DurationSeconds = 45
	verdict := Evaluate(fast, config, now)
	if !containsFlag(verdict.Flags, entities.FlagTooFast) {
		t.Fatalf("expected too_fast for 45s chat response, got %v", verdict.Flags)
	}

	// 45s is under the chat minimum but a 100s web response is under the web
	// minimum too, while the same duration on chat would pass.
	slowEnoughChat := baseRecord()
	slowEnoughChat.Channel = "chat"
	slowEnoughChat.DurationSeconds = 100
	if verdict := Evaluate(slowEnoughChat, config, now); containsFlag(verdict.Flags, entities.FlagTooFast) {
		t.Fatalf("100s chat response must not be too_fast, got %v", verdict.Flags)
	}

	fastWeb := baseRecord()
	fastWeb.DurationSeconds = 100
	if verdict := Evaluate(fastWeb, config, now); !containsFlag(verdict.Flags, entities.FlagTooFast) {
		t.Fatalf("100s web response must be too_fast, got %v", verdict.Flags)
	}
}

func TestLateNightWindowCrossesMidnight(t *testing.T) {
	config := DefaultRuleConfig()
	now := time.Now()

	cases := []struct {
		hour    int
		minute  int
		flagged bool
	}{
		{23, 30, true},
		{2, 0, true},
		{4, 59, true},
		{5, 0, false},
		{22, 59, false},
		{12, 0, false},
	}
	for _, tc := range cases {
		record := baseRecord()
		record.SubmittedAt = time.Date(2026, time.March, 2, tc.hour, tc.minute, 0, 0, time.UTC)
		verdict := Evaluate(record, config, now)
		if containsFlag(verdict.Flags, entities.FlagLateNight) != tc.flagged {
			t.Fatalf("hour %02d:%02d: expected flagged=%v, got %v", tc.hour, tc.minute, tc.flagged, verdict.Flags)
		}
	}
}

func TestExcessiveEditsPerQuestionThenAbsolute(t *testing.T) {
	config := DefaultRuleConfig()
	now := time.Now()

	perQuestion := baseRecord()
	perQuestion.EditCount = 11
	if verdict := Evaluate(perQuestion, config, now); !containsFlag(verdict.Flags, entities.FlagExcessiveEdits) {
		t.Fatalf("11 edits over 20 questions must be flagged, got %v", verdict.Flags)
	}

	withinBudget := baseRecord()
	withinBudget.EditCount = 10
	if verdict := Evaluate(withinBudget, config, now); containsFlag(verdict.Flags, entities.FlagExcessiveEdits) {
		t.Fatalf("10 edits over 20 questions must pass, got %v", verdict.Flags)
	}

	unknownQuestions := baseRecord()
	unknownQuestions.QuestionCount = 0
	unknownQuestions.EditCount = 11
	if verdict := Evaluate(unknownQuestions, config, now); !containsFlag(verdict.Flags, entities.FlagExcessiveEdits) {
		t.Fatalf("absolute edit cap must apply without a question count, got %v", verdict.Flags)
	}
}

func TestLowVoiceConfidenceSkipsMissingReading(t *testing.T) {
	config := DefaultRuleConfig()
	now := time.Now()

	noReading := baseRecord()
	if verdict := Evaluate(noReading, config, now); containsFlag(verdict.Flags, entities.FlagLowVoiceConfidence) {
		t.Fatalf("missing confidence reading must not flag, got %v", verdict.Flags)
	}

	low := baseRecord()
	low.VoiceConfidence = float64Ptr(0.4)
	if verdict := Evaluate(low, config, now); !containsFlag(verdict.Flags, entities.FlagLowVoiceConfidence) {
		t.Fatalf("0.4 confidence must flag under 0.6 floor, got %v", verdict.Flags)
	}
}

func TestGPSPlausibilityAgainstDistrictCentroid(t *testing.T) {
	config := DefaultRuleConfig()
	now := time.Now()

	// Mumbai coordinates on an Ahmadabad schedule, roughly 440km away.
	farAway := baseRecord()
	farAway.GPSLatitude = float64Ptr(19.0760)
	farAway.GPSLongitude = float64Ptr(72.8777)
	if verdict := Evaluate(farAway, config, now); !containsFlag(verdict.Flags, entities.FlagGPSImplausible) {
		t.Fatalf("coordinates 400+km from centroid must flag, got %v", verdict.Flags)
	}

	nearby := baseRecord()
	nearby.GPSLatitude = float64Ptr(23.05)
	nearby.GPSLongitude = float64Ptr(72.60)
	if verdict := Evaluate(nearby, config, now); containsFlag(verdict.Flags, entities.FlagGPSImplausible) {
		t.Fatalf("coordinates inside the radius must pass, got %v", verdict.Flags)
	}

	missing := baseRecord()
	if verdict := Evaluate(missing, config, now); containsFlag(verdict.Flags, entities.FlagGPSImplausible) {
		t.Fatalf("missing coordinates must not flag while gps is optional, got %v", verdict.Flags)
	}

	config.RequireGPS = true
	if verdict := Evaluate(missing, config, now); !containsFlag(verdict.Flags, entities.FlagGPSImplausible) {
		t.Fatalf("missing coordinates must flag when gps is required, got %v", verdict.Flags)
	}

	unknownDistrict := baseRecord()
	unknownDistrict.District = "Unknownpur"
	unknownDistrict.GPSLatitude = float64Ptr(19.0760)
	unknownDistrict.GPSLongitude = float64Ptr(72.8777)
	config.RequireGPS = false
	if verdict := Evaluate(unknownDistrict, config, now); containsFlag(verdict.Flags, entities.FlagGPSImplausible) {
		t.Fatalf("district without a centroid cannot be evaluated, got %v", verdict.Flags)
	}
}

func TestEvaluateIsDeterministicAndSortsFlags(t *testing.T) {
	config := DefaultRuleConfig()
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

	record := baseRecord()
	record.Channel = "chat"
	record.DurationSeconds = 30
	record.SubmittedAt = time.Date(2026, time.March, 2, 23, 45, 0, 0, time.UTC)
	record.VoiceConfidence = float64Ptr(0.2)
	record.GPSLatitude = float64Ptr(19.0760)
	record.GPSLongitude = float64Ptr(72.8777)

	first := Evaluate(record, config, now)
	second := Evaluate(record, config, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("evaluation must be idempotent: %+v vs %+v", first, second)
	}
	if first.Status != entities.VerdictStatusNeedsReview {
		t.Fatalf("expected needs_review, got %s", first.Status)
	}
	for i := 1; i < len(first.Flags); i++ {
		if first.Flags[i-1] >= first.Flags[i] {
			t.Fatalf("flags must be sorted and unique, got %v", first.Flags)
		}
	}
	if len(first.Flags) != 4 {
		t.Fatalf("expected 4 flags (too fast, late night, low confidence, gps), got %v", first.Flags)
	}
}

func TestVerifiedWhenNoRuleFires(t *testing.T) {
	verdict := Evaluate(baseRecord(), DefaultRuleConfig(), time.Now())
	if verdict.Status != entities.VerdictStatusVerified {
		t.Fatalf("expected verified, got %s with %v", verdict.Status, verdict.Flags)
	}
	if verdict.Flagged() {
		t.Fatalf("expected no flags, got %v", verdict.Flags)
	}
}

func containsFlag(flags []entities.FlagCode, target entities.FlagCode) bool {
	for _, flag := range flags {
		if flag == target {
			return true
		}
	}
	return false
}
