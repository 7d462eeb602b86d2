package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "samiksha/contexts/survey-delivery/paradata-service/application"
	"samiksha/contexts/survey-delivery/paradata-service/application/commands"
	"samiksha/contexts/survey-delivery/paradata-service/application/queries"
	domainerrors "samiksha/contexts/survey-delivery/paradata-service/domain/errors"
	httptransport "samiksha/contexts/survey-delivery/paradata-service/transport/http"
)

type Handler struct {
	Commands *commands.UseCase
	Queries  *queries.Queries
	Logger   *slog.Logger
}

func (h Handler) IngestHandler(ctx context.Context, req httptransport.IngestRequest) (httptransport.ResponseDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	submittedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.SubmittedAt))
	if err != nil {
		return httptransport.ResponseDTO{}, domainerrors.ErrMalformedMetadata
	}

	record, verdict, err := h.Commands.Ingest(ctx, commands.RawMetadata{
		ResponseID:      req.ResponseID,
		ScheduleID:      req.ScheduleID,
		RespondentID:    req.RespondentID,
		District:        req.District,
		Channel:         req.Channel,
		DeviceType:      req.DeviceType,
		InteractionMode: req.InteractionMode,
		DurationSeconds: req.DurationSeconds,
		SubmittedAt:     submittedAt,
		NetworkQuality:  req.NetworkQuality,
		EditCount:       req.EditCount,
		QuestionCount:   req.QuestionCount,
		GPSLatitude:     req.GPSLatitude,
		GPSLongitude:    req.GPSLongitude,
		VoiceConfidence: req.VoiceConfidence,
	})
	if err != nil {
		logger.Warn("paradata http ingest failed",
			"event", "paradata_http_ingest_failed",
			"module", "survey-delivery/paradata-service",
			"layer", "adapter",
			"response_id", strings.TrimSpace(req.ResponseID),
			"respondent_id", strings.TrimSpace(req.RespondentID),
			"error", err.Error(),
		)
		return httptransport.ResponseDTO{}, err
	}
	return responseDTO(queries.ResponseView{Record: record, Verdict: verdict}), nil
}

func (h Handler) GetResponseHandler(ctx context.Context, responseID string) (httptransport.ResponseDTO, error) {
	view, err := h.Queries.GetResponse(ctx, responseID)
	if err != nil {
		return httptransport.ResponseDTO{}, err
	}
	return responseDTO(view), nil
}

func (h Handler) ListResponsesHandler(
	ctx context.Context,
	scheduleID, district, flagFilter string,
	limit int,
) ([]httptransport.ResponseDTO, error) {
	views, err := h.Queries.ListResponses(ctx, scheduleID, district, flagFilter, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]httptransport.ResponseDTO, 0, len(views))
	for _, view := range views {
		dtos = append(dtos, responseDTO(view))
	}
	return dtos, nil
}

func (h Handler) MonitoringStatsHandler(ctx context.Context) (httptransport.MonitoringStatsDTO, error) {
	stats, err := h.Queries.MonitoringStats(ctx)
	if err != nil {
		return httptransport.MonitoringStatsDTO{}, err
	}
	return httptransport.MonitoringStatsDTO{
		TotalResponses:     stats.TotalResponses,
		FlaggedResponses:   stats.FlaggedResponses,
		AvgDurationSeconds: stats.AvgDurationSeconds,
		GPSVerifiedCount:   stats.GPSVerifiedCount,
	}, nil
}

func (h Handler) RescoreHandler(ctx context.Context, req httptransport.RescoreRequest) (httptransport.RescoreResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	rules := h.Commands.Rules()
	if req.MinDurationSeconds != nil {
		rules.MinDurationSeconds = req.MinDurationSeconds
	}
	if req.DefaultMinDuration != nil {
		rules.DefaultMinDuration = *req.DefaultMinDuration
	}
	if req.LateNightStartHour != nil {
		rules.LateNightStartHour = *req.LateNightStartHour
	}
	if req.LateNightEndHour != nil {
		rules.LateNightEndHour = *req.LateNightEndHour
	}
	if req.MaxEditsPerQuestion != nil {
		rules.MaxEditsPerQuestion = *req.MaxEditsPerQuestion
	}
	if req.MaxEditsAbsolute != nil {
		rules.MaxEditsAbsolute = *req.MaxEditsAbsolute
	}
	if req.VoiceConfidenceFloor != nil {
		rules.VoiceConfidenceFloor = *req.VoiceConfidenceFloor
	}
	if req.RequireGPS != nil {
		rules.RequireGPS = *req.RequireGPS
	}
	if req.GPSRadiusKm != nil {
		rules.GPSRadiusKm = *req.GPSRadiusKm
	}

	rescored, err := h.Commands.Rescore(ctx, rules)
	if err != nil {
		logger.Warn("paradata http rescore failed",
			"event", "paradata_http_rescore_failed",
			"module", "survey-delivery/paradata-service",
			"layer", "adapter",
			"error", err.Error(),
		)
		return httptransport.RescoreResponse{}, err
	}
	return httptransport.RescoreResponse{
		ThresholdRevision: h.Commands.Rules().Revision,
		RescoredCount:     rescored,
	}, nil
}

func responseDTO(view queries.ResponseView) httptransport.ResponseDTO {
	record := view.Record
	verdict := view.Verdict
	flags := make([]string, 0, len(verdict.Flags))
	for _, flag := range verdict.Flags {
		flags = append(flags, string(flag))
	}
	dto := httptransport.ResponseDTO{
		ResponseID:      record.ResponseID,
		ScheduleID:      record.ScheduleID,
		RespondentID:    record.RespondentID,
		District:        record.District,
		Channel:         record.Channel,
		DeviceType:      record.DeviceType,
		InteractionMode: record.InteractionMode,
		DurationSeconds: record.DurationSeconds,
		SubmittedAt:     record.SubmittedAt.UTC().Format(time.RFC3339),
		NetworkQuality:  string(record.NetworkQuality),
		EditCount:       record.EditCount,
		QuestionCount:   record.QuestionCount,
		GPSLatitude:     record.GPSLatitude,
		GPSLongitude:    record.GPSLongitude,
		VoiceConfidence: record.VoiceConfidence,
		Verdict: httptransport.VerdictDTO{
			ResponseID:        verdict.ResponseID,
			Flags:             flags,
			Status:            string(verdict.Status),
			ThresholdRevision: verdict.ThresholdRevision,
		},
	}
	if !verdict.EvaluatedAt.IsZero() {
		dto.Verdict.EvaluatedAt = verdict.EvaluatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
