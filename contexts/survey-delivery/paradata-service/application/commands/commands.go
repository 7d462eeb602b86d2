package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"samiksha/contexts/survey-delivery/paradata-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/paradata-service/domain/errors"
	"samiksha/contexts/survey-delivery/paradata-service/domain/scoring"
	"samiksha/contexts/survey-delivery/paradata-service/ports"
	"samiksha/internal/shared/events"
)

// RawMetadata is the inbound response payload as the channel webhooks deliver
// it. Optional readings arrive as pointers so an absent value is not mistaken
// for zero.
type RawMetadata struct {
	ResponseID      string
	ScheduleID      string
	RespondentID    string
	District        string
	Channel         string
	DeviceType      string
	InteractionMode string
	DurationSeconds float64
	SubmittedAt     time.Time
	NetworkQuality  string
	EditCount       int
	QuestionCount   int
	GPSLatitude     *float64
	GPSLongitude    *float64
	VoiceConfidence *float64
}

type UseCase struct {
	Repository ports.Repository
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger

	mu    sync.RWMutex
	rules scoring.RuleConfig
}

func NewUseCase(
	repository ports.Repository,
	outbox ports.OutboxWriter,
	clock ports.Clock,
	idGen ports.IDGenerator,
	rules scoring.RuleConfig,
	logger *slog.Logger,
) *UseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &UseCase{
		Repository: repository,
		Outbox:     outbox,
		Clock:      clock,
		IDGen:      idGen,
		Logger:     logger,
		rules:      rules,
	}
}

// Rules returns the active threshold configuration.
func (uc *UseCase) Rules() scoring.RuleConfig {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.rules
}

// Ingest validates and persists one response's paradata, scores it
// immediately, and queues the scored event for the delivery side. Scoring
// never fails the ingest; a rule that cannot evaluate simply does not fire.
func (uc *UseCase) Ingest(ctx context.Context, raw RawMetadata) (entities.ParadataRecord, entities.QualityVerdict, error) {
	if strings.TrimSpace(raw.RespondentID) == "" ||
		raw.DurationSeconds <= 0 ||
		raw.SubmittedAt.IsZero() {
		uc.Logger.Warn("paradata ingest rejected",
			"event", "paradata_ingest_malformed",
			"module", "survey-delivery/paradata-service",
			"layer", "application",
			"response_id", strings.TrimSpace(raw.ResponseID),
			"respondent_id", strings.TrimSpace(raw.RespondentID),
		)
		return entities.ParadataRecord{}, entities.QualityVerdict{}, domainerrors.ErrMalformedMetadata
	}

	responseID := strings.TrimSpace(raw.ResponseID)
	if responseID == "" {
		generated, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.ParadataRecord{}, entities.QualityVerdict{}, err
		}
		responseID = generated
	}

	now := uc.Clock.Now().UTC()
	record := entities.ParadataRecord{
		ResponseID:      responseID,
		ScheduleID:      strings.TrimSpace(raw.ScheduleID),
		RespondentID:    strings.TrimSpace(raw.RespondentID),
		District:        strings.TrimSpace(raw.District),
		Channel:         strings.TrimSpace(raw.Channel),
		DeviceType:      strings.TrimSpace(raw.DeviceType),
		InteractionMode: strings.TrimSpace(raw.InteractionMode),
		DurationSeconds: raw.DurationSeconds,
		SubmittedAt:     raw.SubmittedAt.UTC(),
		NetworkQuality:  entities.NetworkQuality(strings.TrimSpace(raw.NetworkQuality)),
		EditCount:       raw.EditCount,
		QuestionCount:   raw.QuestionCount,
		GPSLatitude:     raw.GPSLatitude,
		GPSLongitude:    raw.GPSLongitude,
		VoiceConfidence: raw.VoiceConfidence,
		IngestedAt:      now,
	}

	if err := uc.Repository.CreateRecord(ctx, record); err != nil {
		return entities.ParadataRecord{}, entities.QualityVerdict{}, err
	}

	verdict := scoring.Evaluate(record, uc.Rules(), now)
	if err := uc.Repository.UpsertVerdict(ctx, verdict); err != nil {
		return entities.ParadataRecord{}, entities.QualityVerdict{}, err
	}

	if err := uc.appendScoredEvent(ctx, record, verdict); err != nil {
		return entities.ParadataRecord{}, entities.QualityVerdict{}, err
	}

	uc.Logger.Info("paradata response scored",
		"event", "paradata_response_scored",
		"module", "survey-delivery/paradata-service",
		"layer", "application",
		"response_id", record.ResponseID,
		"schedule_id", record.ScheduleID,
		"status", string(verdict.Status),
		"flag_count", len(verdict.Flags),
	)
	return record, verdict, nil
}

// Rescore re-evaluates stored records under a new threshold configuration.
// Verdicts are replaced in place; no new scored events are emitted because
// the delivery side counts each response id exactly once regardless of its
// verdict.
func (uc *UseCase) Rescore(ctx context.Context, rules scoring.RuleConfig) (int, error) {
	uc.mu.Lock()
	if rules.Revision <= uc.rules.Revision {
		rules.Revision = uc.rules.Revision + 1
	}
	uc.rules = rules
	uc.mu.Unlock()

	records, err := uc.Repository.ListRecords(ctx, ports.ResponseFilter{})
	if err != nil {
		return 0, err
	}

	now := uc.Clock.Now().UTC()
	rescored := 0
	for _, record := range records {
		verdict := scoring.Evaluate(record, rules, now)
		if err := uc.Repository.UpsertVerdict(ctx, verdict); err != nil {
			return rescored, err
		}
		rescored++
	}

	uc.Logger.Info("paradata responses rescored",
		"event", "paradata_rescore_completed",
		"module", "survey-delivery/paradata-service",
		"layer", "application",
		"threshold_revision", rules.Revision,
		"rescored", rescored,
	)
	return rescored, nil
}

func (uc *UseCase) appendScoredEvent(
	ctx context.Context,
	record entities.ParadataRecord,
	verdict entities.QualityVerdict,
) error {
	flags := make([]string, 0, len(verdict.Flags))
	for _, flag := range verdict.Flags {
		flags = append(flags, string(flag))
	}
	payload, err := json.Marshal(events.ResponseScoredPayload{
		ResponseID:      record.ResponseID,
		ScheduleID:      record.ScheduleID,
		RespondentID:    record.RespondentID,
		Channel:         record.Channel,
		DurationSeconds: record.DurationSeconds,
		Status:          string(verdict.Status),
		Flags:           flags,
	})
	if err != nil {
		return err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:        eventID,
		EventType:      events.TopicResponseScored,
		SourceService:  "paradata-service",
		OccurredAtUTC:  verdict.EvaluatedAt,
		CorrelationID:  record.ScheduleID,
		EntityType:     "paradata_response",
		EntityID:       record.ResponseID,
		PayloadVersion: 1,
		Payload:        payload,
	})
}
