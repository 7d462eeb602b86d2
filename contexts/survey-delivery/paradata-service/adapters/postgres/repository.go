package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"samiksha/contexts/survey-delivery/paradata-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/paradata-service/domain/errors"
	"samiksha/contexts/survey-delivery/paradata-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateRecord(ctx context.Context, record entities.ParadataRecord) error {
	if strings.TrimSpace(record.ResponseID) == "" || strings.TrimSpace(record.RespondentID) == "" {
		r.logWarn("paradata_repo_create_record_invalid_input",
			"response_id", strings.TrimSpace(record.ResponseID),
		)
		return domainerrors.ErrInvalidInput
	}
	row := recordModelFromEntity(record)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("paradata_repo_create_record_unique_conflict",
				"response_id", row.ResponseID,
			)
			return domainerrors.ErrResponseExists
		}
		return r.logError("paradata_repo_create_record_failed", err,
			"response_id", row.ResponseID,
		)
	}
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, responseID string) (entities.ParadataRecord, error) {
	var row paradataRecordModel
	err := r.db.WithContext(ctx).
		Where("response_id = ?", strings.TrimSpace(responseID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ParadataRecord{}, domainerrors.ErrResponseNotFound
		}
		return entities.ParadataRecord{}, r.logError("paradata_repo_get_record_failed", err,
			"response_id", strings.TrimSpace(responseID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRecords(ctx context.Context, filter ports.ResponseFilter) ([]entities.ParadataRecord, error) {
	query := r.db.WithContext(ctx).Model(&paradataRecordModel{})
	if filter.ScheduleID != "" {
		query = query.Where("schedule_id = ?", filter.ScheduleID)
	}
	if filter.District != "" {
		query = query.Where("district = ?", filter.District)
	}
	if filter.Flagged != nil {
		sub := r.db.
			Model(&qualityVerdictModel{}).
			Select("response_id").
			Where("status = ?", string(entities.VerdictStatusNeedsReview))
		if *filter.Flagged {
			query = query.Where("response_id IN (?)", sub)
		} else {
			query = query.Where("response_id NOT IN (?)", sub)
		}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	var rows []paradataRecordModel
	if err := query.
		Order("ingested_at DESC, response_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("paradata_repo_list_records_failed", err,
			"schedule_id", filter.ScheduleID,
			"district", filter.District,
		)
	}
	records := make([]entities.ParadataRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toEntity())
	}
	return records, nil
}

func (r *Repository) UpsertVerdict(ctx context.Context, verdict entities.QualityVerdict) error {
	row := verdictModelFromEntity(verdict)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "response_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"flags":              row.Flags,
			"status":             row.Status,
			"threshold_revision": row.ThresholdRevision,
			"evaluated_at":       row.EvaluatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return r.logError("paradata_repo_upsert_verdict_failed", err,
			"response_id", row.ResponseID,
		)
	}
	return nil
}

func (r *Repository) GetVerdict(ctx context.Context, responseID string) (entities.QualityVerdict, error) {
	var row qualityVerdictModel
	err := r.db.WithContext(ctx).
		Where("response_id = ?", strings.TrimSpace(responseID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.QualityVerdict{}, domainerrors.ErrVerdictNotFound
		}
		return entities.QualityVerdict{}, r.logError("paradata_repo_get_verdict_failed", err,
			"response_id", strings.TrimSpace(responseID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) Stats(ctx context.Context) (entities.MonitoringStats, error) {
	var stats entities.MonitoringStats

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&paradataRecordModel{}).
		Count(&total).Error; err != nil {
		return entities.MonitoringStats{}, r.logError("paradata_repo_stats_total_failed", err)
	}
	stats.TotalResponses = int(total)
	if stats.TotalResponses == 0 {
		return stats, nil
	}

	var flagged int64
	if err := r.db.WithContext(ctx).
		Model(&qualityVerdictModel{}).
		Where("status = ?", string(entities.VerdictStatusNeedsReview)).
		Count(&flagged).Error; err != nil {
		return entities.MonitoringStats{}, r.logError("paradata_repo_stats_flagged_failed", err)
	}
	stats.FlaggedResponses = int(flagged)

	var avgDuration float64
	if err := r.db.WithContext(ctx).
		Model(&paradataRecordModel{}).
		Select("COALESCE(AVG(duration_seconds), 0)").
		Scan(&avgDuration).Error; err != nil {
		return entities.MonitoringStats{}, r.logError("paradata_repo_stats_duration_failed", err)
	}
	stats.AvgDurationSeconds = avgDuration

	var gpsVerified int64
	if err := r.db.WithContext(ctx).
		Model(&paradataRecordModel{}).
		Where("gps_latitude IS NOT NULL").
		Where("gps_longitude IS NOT NULL").
		Where("response_id NOT IN (?)", r.db.
			Model(&qualityVerdictModel{}).
			Select("response_id").
			Where("flags LIKE ?", "%"+string(entities.FlagGPSImplausible)+"%"),
		).
		Count(&gpsVerified).Error; err != nil {
		return entities.MonitoringStats{}, r.logError("paradata_repo_stats_gps_failed", err)
	}
	stats.GPSVerifiedCount = int(gpsVerified)
	return stats, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("paradata_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := paradataOutboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.EntityID),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAtUTC.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return r.logError("paradata_repo_append_outbox_insert_failed", result.Error,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []paradataOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("paradata_repo_list_pending_outbox_failed", err,
			"limit", limit,
		)
	}
	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return messages, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&paradataOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("paradata_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("paradata_repo_mark_outbox_published_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "survey-delivery/paradata-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("paradata repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+5)
	fields = append(fields,
		"event", event,
		"module", "survey-delivery/paradata-service",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("paradata repository warning", fields...)
}

type paradataRecordModel struct {
	ResponseID      string    `gorm:"column:response_id;primaryKey"`
	ScheduleID      string    `gorm:"column:schedule_id"`
	RespondentID    string    `gorm:"column:respondent_id"`
	District        string    `gorm:"column:district"`
	Channel         string    `gorm:"column:channel"`
	DeviceType      string    `gorm:"column:device_type"`
	InteractionMode string    `gorm:"column:interaction_mode"`
	DurationSeconds float64   `gorm:"column:duration_seconds"`
	SubmittedAt     time.Time `gorm:"column:submitted_at"`
	NetworkQuality  string    `gorm:"column:network_quality"`
	EditCount       int       `gorm:"column:edit_count"`
	QuestionCount   int       `gorm:"column:question_count"`
	GPSLatitude     *float64  `gorm:"column:gps_latitude"`
	GPSLongitude    *float64  `gorm:"column:gps_longitude"`
	VoiceConfidence *float64  `gorm:"column:voice_confidence"`
	IngestedAt      time.Time `gorm:"column:ingested_at"`
}

func (paradataRecordModel) TableName() string {
	return "paradata_records"
}

func recordModelFromEntity(record entities.ParadataRecord) paradataRecordModel {
	return paradataRecordModel{
		ResponseID:      strings.TrimSpace(record.ResponseID),
		ScheduleID:      strings.TrimSpace(record.ScheduleID),
		RespondentID:    strings.TrimSpace(record.RespondentID),
		District:        strings.TrimSpace(record.District),
		Channel:         strings.TrimSpace(record.Channel),
		DeviceType:      strings.TrimSpace(record.DeviceType),
		InteractionMode: strings.TrimSpace(record.InteractionMode),
		DurationSeconds: record.DurationSeconds,
		SubmittedAt:     record.SubmittedAt.UTC(),
		NetworkQuality:  string(record.NetworkQuality),
		EditCount:       record.EditCount,
		QuestionCount:   record.QuestionCount,
		GPSLatitude:     record.GPSLatitude,
		GPSLongitude:    record.GPSLongitude,
		VoiceConfidence: record.VoiceConfidence,
		IngestedAt:      record.IngestedAt.UTC(),
	}
}

func (m paradataRecordModel) toEntity() entities.ParadataRecord {
	return entities.ParadataRecord{
		ResponseID:      m.ResponseID,
		ScheduleID:      m.ScheduleID,
		RespondentID:    m.RespondentID,
		District:        m.District,
		Channel:         m.Channel,
		DeviceType:      m.DeviceType,
		InteractionMode: m.InteractionMode,
		DurationSeconds: m.DurationSeconds,
		SubmittedAt:     m.SubmittedAt.UTC(),
		NetworkQuality:  entities.NetworkQuality(m.NetworkQuality),
		EditCount:       m.EditCount,
		QuestionCount:   m.QuestionCount,
		GPSLatitude:     m.GPSLatitude,
		GPSLongitude:    m.GPSLongitude,
		VoiceConfidence: m.VoiceConfidence,
		IngestedAt:      m.IngestedAt.UTC(),
	}
}

type qualityVerdictModel struct {
	ResponseID        string    `gorm:"column:response_id;primaryKey"`
	Flags             string    `gorm:"column:flags"`
	Status            string    `gorm:"column:status"`
	ThresholdRevision int       `gorm:"column:threshold_revision"`
	EvaluatedAt       time.Time `gorm:"column:evaluated_at"`
}

func (qualityVerdictModel) TableName() string {
	return "quality_verdicts"
}

func verdictModelFromEntity(verdict entities.QualityVerdict) qualityVerdictModel {
	flags := make([]string, 0, len(verdict.Flags))
	for _, flag := range verdict.Flags {
		flags = append(flags, string(flag))
	}
	return qualityVerdictModel{
		ResponseID:        strings.TrimSpace(verdict.ResponseID),
		Flags:             strings.Join(flags, ","),
		Status:            string(verdict.Status),
		ThresholdRevision: verdict.ThresholdRevision,
		EvaluatedAt:       verdict.EvaluatedAt.UTC(),
	}
}

func (m qualityVerdictModel) toEntity() entities.QualityVerdict {
	var flags []entities.FlagCode
	for _, raw := range strings.Split(m.Flags, ",") {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			flags = append(flags, entities.FlagCode(trimmed))
		}
	}
	return entities.QualityVerdict{
		ResponseID:        m.ResponseID,
		Flags:             flags,
		Status:            entities.VerdictStatus(m.Status),
		ThresholdRevision: m.ThresholdRevision,
		EvaluatedAt:       m.EvaluatedAt.UTC(),
	}
}

type paradataOutboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (paradataOutboxModel) TableName() string {
	return "paradata_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
