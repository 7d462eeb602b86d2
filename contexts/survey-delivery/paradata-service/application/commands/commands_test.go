package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"samiksha/contexts/survey-delivery/paradata-service/adapters/memory"
	"samiksha/contexts/survey-delivery/paradata-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/paradata-service/domain/errors"
	"samiksha/contexts/survey-delivery/paradata-service/domain/scoring"
	"samiksha/internal/shared/events"
)

func float64Ptr(value float64) *float64 { return &value }

func newIngestUseCase(store *memory.Store) *UseCase {
	return NewUseCase(store, store, store, store, scoring.DefaultRuleConfig(), nil)
}

func validMetadata() RawMetadata {
	return RawMetadata{
		ResponseID:      "response-1",
		ScheduleID:      "sched-1",
		RespondentID:    "resp-1",
		District:        "Ahmadabad",
		Channel:         "web",
		DeviceType:      "mobile",
		DurationSeconds: 300,
		SubmittedAt:     time.Date(2026, time.March, 2, 14, 30, 0, 0, time.UTC),
		NetworkQuality:  "good",
		QuestionCount:   20,
	}
}

func TestIngestRejectsMalformedMetadata(t *testing.T) {
	useCase := newIngestUseCase(memory.NewStore())

	missingRespondent := validMetadata()
	missingRespondent.RespondentID = " "
	if _, _, err := useCase.Ingest(context.Background(), missingRespondent); !errors.Is(err, domainerrors.ErrMalformedMetadata) {
		t.Fatalf("expected ErrMalformedMetadata for missing respondent, got %v", err)
	}

	zeroDuration := validMetadata()
	zeroDuration.DurationSeconds = 0
	if _, _, err := useCase.Ingest(context.Background(), zeroDuration); !errors.Is(err, domainerrors.ErrMalformedMetadata) {
		t.Fatalf("expected ErrMalformedMetadata for zero duration, got %v", err)
	}

	noTimestamp := validMetadata()
	noTimestamp.SubmittedAt = time.Time{}
	if _, _, err := useCase.Ingest(context.Background(), noTimestamp); !errors.Is(err, domainerrors.ErrMalformedMetadata) {
		t.Fatalf("expected ErrMalformedMetadata for missing timestamp, got %v", err)
	}
}

func TestIngestGeneratesResponseIDWhenBlank(t *testing.T) {
	useCase := newIngestUseCase(memory.NewStore())

	raw := validMetadata()
	raw.ResponseID = ""
	record, _, err := useCase.Ingest(context.Background(), raw)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if record.ResponseID == "" {
		t.Fatal("expected a generated response id")
	}
}

func TestIngestPreservesAbsentOptionalReadings(t *testing.T) {
	store := memory.NewStore()
	useCase := newIngestUseCase(store)

	record, _, err := useCase.Ingest(context.Background(), validMetadata())
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if record.GPSLatitude != nil || record.GPSLongitude != nil || record.VoiceConfidence != nil {
		t.Fatal("absent optional readings must stay nil")
	}

	stored, err := store.GetRecord(context.Background(), record.ResponseID)
	if err != nil {
		t.Fatalf("record lookup failed: %v", err)
	}
	if stored.VoiceConfidence != nil {
		t.Fatal("stored record must not invent a confidence reading")
	}
}

func TestIngestScoresAndQueuesScoredEvent(t *testing.T) {
	store := memory.NewStore()
	useCase := newIngestUseCase(store)

	raw := validMetadata()
	raw.Channel = "chat"
	raw.DurationSeconds = 30
	record, verdict, err := useCase.Ingest(context.Background(), raw)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if verdict.Status != entities.VerdictStatusNeedsReview {
		t.Fatalf("expected needs_review for 30s chat response, got %s", verdict.Status)
	}

	stored, err := store.GetVerdict(context.Background(), record.ResponseID)
	if err != nil {
		t.Fatalf("verdict lookup failed: %v", err)
	}
	if stored.Status != verdict.Status {
		t.Fatalf("persisted verdict mismatch: %s vs %s", stored.Status, verdict.Status)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("outbox list failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one queued scored event, got %d", len(pending))
	}
	var envelope events.Envelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("outbox payload decode failed: %v", err)
	}
	if envelope.EventType != events.TopicResponseScored {
		t.Fatalf("expected %s event, got %s", events.TopicResponseScored, envelope.EventType)
	}
	var payload events.ResponseScoredPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		t.Fatalf("scored payload decode failed: %v", err)
	}
	if payload.ResponseID != record.ResponseID || payload.ScheduleID != record.ScheduleID {
		t.Fatalf("scored payload identity mismatch: %+v", payload)
	}
}

func TestIngestRejectsDuplicateResponseID(t *testing.T) {
	useCase := newIngestUseCase(memory.NewStore())

	if _, _, err := useCase.Ingest(context.Background(), validMetadata()); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	_, _, err := useCase.Ingest(context.Background(), validMetadata())
	if !errors.Is(err, domainerrors.ErrResponseExists) {
		t.Fatalf("expected ErrResponseExists, got %v", err)
	}
}

func TestRescoreReplacesVerdictsUnderNewThresholds(t *testing.T) {
	store := memory.NewStore()
	useCase := newIngestUseCase(store)

	raw := validMetadata()
	raw.DurationSeconds = 150
	record, verdict, err := useCase.Ingest(context.Background(), raw)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if verdict.Status != entities.VerdictStatusVerified {
		t.Fatalf("expected verified under default thresholds, got %s", verdict.Status)
	}

	stricter := scoring.DefaultRuleConfig()
	stricter.MinDurationSeconds["web"] = 200
	count, err := useCase.Rescore(context.Background(), stricter)
	if err != nil {
		t.Fatalf("rescore failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 rescored record, got %d", count)
	}

	updated, err := store.GetVerdict(context.Background(), record.ResponseID)
	if err != nil {
		t.Fatalf("verdict lookup failed: %v", err)
	}
	if updated.Status != entities.VerdictStatusNeedsReview {
		t.Fatalf("expected needs_review under stricter thresholds, got %s", updated.Status)
	}
	if updated.ThresholdRevision <= verdict.ThresholdRevision {
		t.Fatalf("expected bumped threshold revision, got %d after %d", updated.ThresholdRevision, verdict.ThresholdRevision)
	}

	// Rescoring replaces verdicts in place without re-announcing responses.
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("rescore must not queue new scored events, got %d", len(pending))
	}
}

func TestRescoreAutoBumpsStaleRevision(t *testing.T) {
	useCase := newIngestUseCase(memory.NewStore())

	stale := scoring.DefaultRuleConfig()
	stale.Revision = 1
	if _, err := useCase.Rescore(context.Background(), stale); err != nil {
		t.Fatalf("rescore failed: %v", err)
	}
	if got := useCase.Rules().Revision; got != 2 {
		t.Fatalf("expected revision auto-bumped to 2, got %d", got)
	}
}

func TestIngestLowVoiceConfidenceFlagged(t *testing.T) {
	useCase := newIngestUseCase(memory.NewStore())

	raw := validMetadata()
	raw.Channel = "voice_avatar"
	raw.VoiceConfidence = float64Ptr(0.3)
	_, verdict, err := useCase.Ingest(context.Background(), raw)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	found := false
	for _, flag := range verdict.Flags {
		if flag == entities.FlagLowVoiceConfidence {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected low_voice_confidence flag, got %v", verdict.Flags)
	}
}
