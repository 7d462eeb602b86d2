package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/delivery-service/domain/errors"
	"samiksha/contexts/survey-delivery/delivery-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) CreateSchedule(ctx context.Context, schedule entities.DeliverySchedule) error {
	if strings.TrimSpace(schedule.ID) == "" || strings.TrimSpace(schedule.SurveyName) == "" {
		r.logWarn("delivery_repo_create_schedule_invalid_input",
			"schedule_id", strings.TrimSpace(schedule.ID),
		)
		return domainerrors.ErrInvalidScheduleInput
	}
	row := scheduleModelFromEntity(schedule)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("delivery_repo_create_schedule_unique_conflict",
				"schedule_id", row.ID,
				"campaign_id", row.CampaignID,
			)
			return domainerrors.ErrScheduleExists
		}
		return r.logError("delivery_repo_create_schedule_failed", err,
			"schedule_id", row.ID,
			"campaign_id", row.CampaignID,
		)
	}
	return nil
}

func (r *Repository) UpdateSchedule(ctx context.Context, schedule entities.DeliverySchedule) error {
	row := scheduleModelFromEntity(schedule)
	result := r.db.WithContext(ctx).
		Model(&deliveryScheduleModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"survey_name":            row.SurveyName,
			"district":               row.District,
			"primary_channel":        row.PrimaryChannel,
			"fallback_channels":      row.FallbackChannels,
			"max_attempts":           row.MaxAttempts,
			"retry_interval_seconds": row.RetryIntervalSec,
			"scheduled_start":        row.ScheduledStart,
			"scheduled_end":          row.ScheduledEnd,
			"target_count":           row.TargetCount,
			"status":                 row.Status,
			"updated_at":             row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("delivery_repo_update_schedule_failed", result.Error,
			"schedule_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("delivery_repo_update_schedule_not_found",
			"schedule_id", row.ID,
		)
		return domainerrors.ErrScheduleNotFound
	}
	return nil
}

func (r *Repository) GetSchedule(ctx context.Context, scheduleID string) (entities.DeliverySchedule, error) {
	var row deliveryScheduleModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(scheduleID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DeliverySchedule{}, domainerrors.ErrScheduleNotFound
		}
		return entities.DeliverySchedule{}, r.logError("delivery_repo_get_schedule_failed", err,
			"schedule_id", strings.TrimSpace(scheduleID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSchedules(
	ctx context.Context,
	district string,
	status entities.ScheduleStatus,
) ([]entities.DeliverySchedule, error) {
	query := r.db.WithContext(ctx).Model(&deliveryScheduleModel{})
	if trimmed := strings.TrimSpace(district); trimmed != "" {
		query = query.Where("district = ?", trimmed)
	}
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	var rows []deliveryScheduleModel
	if err := query.Order("scheduled_start ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("delivery_repo_list_schedules_failed", err,
			"district", strings.TrimSpace(district),
			"status", string(status),
		)
	}
	schedules := make([]entities.DeliverySchedule, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, row.toEntity())
	}
	return schedules, nil
}

func (r *Repository) ListSchedulesByStatus(
	ctx context.Context,
	status entities.ScheduleStatus,
	limit int,
) ([]entities.DeliverySchedule, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []deliveryScheduleModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("scheduled_start ASC, id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("delivery_repo_list_schedules_by_status_failed", err,
			"status", string(status),
			"limit", limit,
		)
	}
	schedules := make([]entities.DeliverySchedule, 0, len(rows))
	for _, row := range rows {
		schedules = append(schedules, row.toEntity())
	}
	return schedules, nil
}

func (r *Repository) IncrementSentCount(ctx context.Context, scheduleID string) (entities.DeliverySchedule, error) {
	return r.incrementCounter(ctx, scheduleID, "sent_count", "delivery_repo_increment_sent_failed")
}

func (r *Repository) IncrementRespondedCount(ctx context.Context, scheduleID string) (entities.DeliverySchedule, error) {
	return r.incrementCounter(ctx, scheduleID, "responded_count", "delivery_repo_increment_responded_failed")
}

// incrementCounter relies on a single SQL UPDATE so concurrent increments on
// the same schedule never lose a write.
func (r *Repository) incrementCounter(
	ctx context.Context,
	scheduleID string,
	column string,
	failEvent string,
) (entities.DeliverySchedule, error) {
	trimmed := strings.TrimSpace(scheduleID)
	result := r.db.WithContext(ctx).
		Model(&deliveryScheduleModel{}).
		Where("id = ?", trimmed).
		Updates(map[string]any{
			column:       gorm.Expr(column+" + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return entities.DeliverySchedule{}, r.logError(failEvent, result.Error,
			"schedule_id", trimmed,
		)
	}
	if result.RowsAffected == 0 {
		return entities.DeliverySchedule{}, domainerrors.ErrScheduleNotFound
	}
	return r.GetSchedule(ctx, trimmed)
}

func (r *Repository) MarkResponseSeen(ctx context.Context, scheduleID, responseID string) (bool, error) {
	row := seenResponseModel{
		ScheduleID: strings.TrimSpace(scheduleID),
		ResponseID: strings.TrimSpace(responseID),
		SeenAt:     time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "schedule_id"}, {Name: "response_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, r.logError("delivery_repo_mark_response_seen_failed", result.Error,
			"schedule_id", row.ScheduleID,
			"response_id", row.ResponseID,
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) CreateSlot(ctx context.Context, slot entities.RespondentSlot) error {
	row := slotModelFromEntity(slot)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrSlotExists
		}
		return r.logError("delivery_repo_create_slot_failed", err,
			"schedule_id", row.ScheduleID,
			"respondent_id", row.RespondentID,
		)
	}
	return nil
}

func (r *Repository) UpdateSlot(ctx context.Context, slot entities.RespondentSlot) error {
	row := slotModelFromEntity(slot)
	result := r.db.WithContext(ctx).
		Model(&respondentSlotModel{}).
		Where("schedule_id = ?", row.ScheduleID).
		Where("respondent_id = ?", row.RespondentID).
		Updates(map[string]any{
			"channel_index":   row.ChannelIndex,
			"attempts_used":   row.AttemptsUsed,
			"total_attempts":  row.TotalAttempts,
			"next_attempt_at": row.NextAttemptAt,
			"state":           row.State,
			"last_error":      row.LastError,
			"updated_at":      row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("delivery_repo_update_slot_failed", result.Error,
			"schedule_id", row.ScheduleID,
			"respondent_id", row.RespondentID,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSlotNotFound
	}
	return nil
}

func (r *Repository) GetSlot(ctx context.Context, scheduleID, respondentID string) (entities.RespondentSlot, error) {
	var row respondentSlotModel
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", strings.TrimSpace(scheduleID)).
		Where("respondent_id = ?", strings.TrimSpace(respondentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RespondentSlot{}, domainerrors.ErrSlotNotFound
		}
		return entities.RespondentSlot{}, r.logError("delivery_repo_get_slot_failed", err,
			"schedule_id", strings.TrimSpace(scheduleID),
			"respondent_id", strings.TrimSpace(respondentID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListDueSlots(
	ctx context.Context,
	scheduleID string,
	threshold time.Time,
	limit int,
) ([]entities.RespondentSlot, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []respondentSlotModel
	if err := r.db.WithContext(ctx).
		Where("schedule_id = ?", strings.TrimSpace(scheduleID)).
		Where("state = ?", string(entities.SlotStatePending)).
		Where("next_attempt_at <= ?", threshold.UTC()).
		Order("next_attempt_at ASC, respondent_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("delivery_repo_list_due_slots_failed", err,
			"schedule_id", strings.TrimSpace(scheduleID),
			"threshold_utc", threshold.UTC().Format(time.RFC3339),
			"limit", limit,
		)
	}
	slots := make([]entities.RespondentSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, row.toEntity())
	}
	return slots, nil
}

func (r *Repository) CountSlotsByState(
	ctx context.Context,
	scheduleID string,
	state entities.SlotState,
) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&respondentSlotModel{}).
		Where("schedule_id = ?", strings.TrimSpace(scheduleID)).
		Where("state = ?", string(state)).
		Count(&count).Error; err != nil {
		return 0, r.logError("delivery_repo_count_slots_failed", err,
			"schedule_id", strings.TrimSpace(scheduleID),
			"state", string(state),
		)
	}
	return int(count), nil
}

func (r *Repository) AppendAttempt(ctx context.Context, attempt entities.DispatchAttempt) error {
	row := attemptModelFromEntity(attempt)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("delivery_repo_append_attempt_failed", err,
			"attempt_id", row.ID,
			"schedule_id", row.ScheduleID,
			"respondent_id", row.RespondentID,
		)
	}
	return nil
}

func (r *Repository) ListAttempts(
	ctx context.Context,
	scheduleID, respondentID string,
) ([]entities.DispatchAttempt, error) {
	var rows []dispatchAttemptModel
	if err := r.db.WithContext(ctx).
		Where("schedule_id = ?", strings.TrimSpace(scheduleID)).
		Where("respondent_id = ?", strings.TrimSpace(respondentID)).
		Order("attempted_at ASC, attempt_number ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("delivery_repo_list_attempts_failed", err,
			"schedule_id", strings.TrimSpace(scheduleID),
			"respondent_id", strings.TrimSpace(respondentID),
		)
	}
	attempts := make([]entities.DispatchAttempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, row.toEntity())
	}
	return attempts, nil
}

func (r *Repository) CountAttempts(ctx context.Context, scheduleID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&dispatchAttemptModel{}).
		Where("schedule_id = ?", strings.TrimSpace(scheduleID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("delivery_repo_count_attempts_failed", err,
			"schedule_id", strings.TrimSpace(scheduleID),
		)
	}
	return int(count), nil
}

func (r *Repository) UpsertChannel(ctx context.Context, channel entities.Channel) error {
	row := channelModelFromEntity(channel)
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kind"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":                   row.Name,
			"status":                 row.Status,
			"reach":                  row.Reach,
			"responded":              row.Responded,
			"response_rate":          row.ResponseRate,
			"avg_completion_seconds": row.AvgCompletionSeconds,
			"updated_at":             row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return r.logError("delivery_repo_upsert_channel_failed", err,
			"channel", row.Kind,
		)
	}
	return nil
}

func (r *Repository) GetChannel(ctx context.Context, kind entities.ChannelKind) (entities.Channel, error) {
	var row channelModel
	err := r.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Channel{}, domainerrors.ErrChannelNotFound
		}
		return entities.Channel{}, r.logError("delivery_repo_get_channel_failed", err,
			"channel", string(kind),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListChannels(ctx context.Context) ([]entities.Channel, error) {
	var rows []channelModel
	if err := r.db.WithContext(ctx).
		Order("kind ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("delivery_repo_list_channels_failed", err)
	}
	channels := make([]entities.Channel, 0, len(rows))
	for _, row := range rows {
		channels = append(channels, row.toEntity())
	}
	return channels, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "survey-delivery/delivery-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("delivery repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+5)
	fields = append(fields,
		"event", event,
		"module", "survey-delivery/delivery-service",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("delivery repository warning", fields...)
}

type deliveryScheduleModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	CampaignID       string    `gorm:"column:campaign_id"`
	SurveyName       string    `gorm:"column:survey_name"`
	District         string    `gorm:"column:district"`
	PrimaryChannel   string    `gorm:"column:primary_channel"`
	FallbackChannels string    `gorm:"column:fallback_channels"`
	MaxAttempts      int       `gorm:"column:max_attempts"`
	RetryIntervalSec int64     `gorm:"column:retry_interval_seconds"`
	ScheduledStart   time.Time `gorm:"column:scheduled_start"`
	ScheduledEnd     time.Time `gorm:"column:scheduled_end"`
	TargetCount      int       `gorm:"column:target_count"`
	SentCount        int       `gorm:"column:sent_count"`
	RespondedCount   int       `gorm:"column:responded_count"`
	Status           string    `gorm:"column:status"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (deliveryScheduleModel) TableName() string {
	return "delivery_schedules"
}

func scheduleModelFromEntity(schedule entities.DeliverySchedule) deliveryScheduleModel {
	fallbacks := make([]string, 0, len(schedule.FallbackChannels))
	for _, kind := range schedule.FallbackChannels {
		fallbacks = append(fallbacks, string(kind))
	}
	return deliveryScheduleModel{
		ID:               strings.TrimSpace(schedule.ID),
		CampaignID:       strings.TrimSpace(schedule.CampaignID),
		SurveyName:       strings.TrimSpace(schedule.SurveyName),
		District:         strings.TrimSpace(schedule.District),
		PrimaryChannel:   string(schedule.PrimaryChannel),
		FallbackChannels: strings.Join(fallbacks, ","),
		MaxAttempts:      schedule.Retry.MaxAttempts,
		RetryIntervalSec: int64(schedule.Retry.Interval.Seconds()),
		ScheduledStart:   schedule.ScheduledStart.UTC(),
		ScheduledEnd:     schedule.ScheduledEnd.UTC(),
		TargetCount:      schedule.TargetCount,
		SentCount:        schedule.SentCount,
		RespondedCount:   schedule.RespondedCount,
		Status:           string(schedule.Status),
		CreatedAt:        schedule.CreatedAt.UTC(),
		UpdatedAt:        schedule.UpdatedAt.UTC(),
	}
}

func (m deliveryScheduleModel) toEntity() entities.DeliverySchedule {
	var fallbacks []entities.ChannelKind
	for _, raw := range strings.Split(m.FallbackChannels, ",") {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			fallbacks = append(fallbacks, entities.ChannelKind(trimmed))
		}
	}
	return entities.DeliverySchedule{
		ID:               m.ID,
		CampaignID:       m.CampaignID,
		SurveyName:       m.SurveyName,
		District:         m.District,
		PrimaryChannel:   entities.ChannelKind(m.PrimaryChannel),
		FallbackChannels: fallbacks,
		Retry: entities.RetryPolicy{
			MaxAttempts: m.MaxAttempts,
			Interval:    time.Duration(m.RetryIntervalSec) * time.Second,
		},
		ScheduledStart: m.ScheduledStart.UTC(),
		ScheduledEnd:   m.ScheduledEnd.UTC(),
		TargetCount:    m.TargetCount,
		SentCount:      m.SentCount,
		RespondedCount: m.RespondedCount,
		Status:         entities.ScheduleStatus(m.Status),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type respondentSlotModel struct {
	ScheduleID    string    `gorm:"column:schedule_id;primaryKey"`
	RespondentID  string    `gorm:"column:respondent_id;primaryKey"`
	ChannelIndex  int       `gorm:"column:channel_index"`
	AttemptsUsed  int       `gorm:"column:attempts_used"`
	TotalAttempts int       `gorm:"column:total_attempts"`
	NextAttemptAt time.Time `gorm:"column:next_attempt_at"`
	State         string    `gorm:"column:state"`
	LastError     string    `gorm:"column:last_error"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (respondentSlotModel) TableName() string {
	return "respondent_slots"
}

func slotModelFromEntity(slot entities.RespondentSlot) respondentSlotModel {
	return respondentSlotModel{
		ScheduleID:    strings.TrimSpace(slot.ScheduleID),
		RespondentID:  strings.TrimSpace(slot.RespondentID),
		ChannelIndex:  slot.ChannelIndex,
		AttemptsUsed:  slot.AttemptsUsed,
		TotalAttempts: slot.TotalAttempts,
		NextAttemptAt: slot.NextAttemptAt.UTC(),
		State:         string(slot.State),
		LastError:     strings.TrimSpace(slot.LastError),
		UpdatedAt:     slot.UpdatedAt.UTC(),
	}
}

func (m respondentSlotModel) toEntity() entities.RespondentSlot {
	return entities.RespondentSlot{
		ScheduleID:    m.ScheduleID,
		RespondentID:  m.RespondentID,
		ChannelIndex:  m.ChannelIndex,
		AttemptsUsed:  m.AttemptsUsed,
		TotalAttempts: m.TotalAttempts,
		NextAttemptAt: m.NextAttemptAt.UTC(),
		State:         entities.SlotState(m.State),
		LastError:     m.LastError,
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type dispatchAttemptModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	ScheduleID    string    `gorm:"column:schedule_id"`
	RespondentID  string    `gorm:"column:respondent_id"`
	AttemptNumber int       `gorm:"column:attempt_number"`
	Channel       string    `gorm:"column:channel"`
	Outcome       string    `gorm:"column:outcome"`
	Error         string    `gorm:"column:error"`
	AttemptedAt   time.Time `gorm:"column:attempted_at"`
}

func (dispatchAttemptModel) TableName() string {
	return "dispatch_attempts"
}

func attemptModelFromEntity(attempt entities.DispatchAttempt) dispatchAttemptModel {
	return dispatchAttemptModel{
		ID:            strings.TrimSpace(attempt.ID),
		ScheduleID:    strings.TrimSpace(attempt.ScheduleID),
		RespondentID:  strings.TrimSpace(attempt.RespondentID),
		AttemptNumber: attempt.AttemptNumber,
		Channel:       string(attempt.Channel),
		Outcome:       string(attempt.Outcome),
		Error:         strings.TrimSpace(attempt.Error),
		AttemptedAt:   attempt.AttemptedAt.UTC(),
	}
}

func (m dispatchAttemptModel) toEntity() entities.DispatchAttempt {
	return entities.DispatchAttempt{
		ID:            m.ID,
		ScheduleID:    m.ScheduleID,
		RespondentID:  m.RespondentID,
		AttemptNumber: m.AttemptNumber,
		Channel:       entities.ChannelKind(m.Channel),
		Outcome:       entities.AttemptOutcome(m.Outcome),
		Error:         m.Error,
		AttemptedAt:   m.AttemptedAt.UTC(),
	}
}

type channelModel struct {
	Kind                 string    `gorm:"column:kind;primaryKey"`
	Name                 string    `gorm:"column:name"`
	Status               string    `gorm:"column:status"`
	Reach                int64     `gorm:"column:reach"`
	Responded            int64     `gorm:"column:responded"`
	ResponseRate         float64   `gorm:"column:response_rate"`
	AvgCompletionSeconds float64   `gorm:"column:avg_completion_seconds"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (channelModel) TableName() string {
	return "delivery_channels"
}

func channelModelFromEntity(channel entities.Channel) channelModel {
	return channelModel{
		Kind:                 string(channel.Kind),
		Name:                 strings.TrimSpace(channel.Name),
		Status:               string(channel.Status),
		Reach:                channel.Reach,
		Responded:            channel.Responded,
		ResponseRate:         channel.ResponseRate,
		AvgCompletionSeconds: channel.AvgCompletionSeconds,
		UpdatedAt:            channel.UpdatedAt.UTC(),
	}
}

func (m channelModel) toEntity() entities.Channel {
	return entities.Channel{
		Kind:                 entities.ChannelKind(m.Kind),
		Name:                 m.Name,
		Status:               entities.ChannelStatus(m.Status),
		Reach:                m.Reach,
		Responded:            m.Responded,
		ResponseRate:         m.ResponseRate,
		AvgCompletionSeconds: m.AvgCompletionSeconds,
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

type seenResponseModel struct {
	ScheduleID string    `gorm:"column:schedule_id;primaryKey"`
	ResponseID string    `gorm:"column:response_id;primaryKey"`
	SeenAt     time.Time `gorm:"column:seen_at"`
}

func (seenResponseModel) TableName() string {
	return "delivery_seen_responses"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
