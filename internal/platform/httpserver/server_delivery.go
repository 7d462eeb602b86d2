package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	deliveryerrors "samiksha/contexts/survey-delivery/delivery-service/domain/errors"
	deliveryhttp "samiksha/contexts/survey-delivery/delivery-service/transport/http"
)

func (s *Server) registerDeliveryRoutes() {
	s.mux.HandleFunc("POST /api/delivery/v1/schedules", s.handleCreateSchedule)
	s.mux.HandleFunc("GET /api/delivery/v1/schedules", s.handleListSchedules)
	s.mux.HandleFunc("GET /api/delivery/v1/schedules/{schedule_id}", s.handleGetSchedule)
	s.mux.HandleFunc("POST /api/delivery/v1/schedules/{schedule_id}/respondents", s.handleEnrollRespondents)
	s.mux.HandleFunc("POST /api/delivery/v1/schedules/{schedule_id}/cancel", s.handleCancelSchedule)
	s.mux.HandleFunc("GET /api/delivery/v1/schedules/{schedule_id}/progress", s.handleGetProgress)
	s.mux.HandleFunc("GET /api/delivery/v1/schedules/{schedule_id}/attempts", s.handleListAttempts)
	s.mux.HandleFunc("GET /api/delivery/v1/channels", s.handleListChannels)
	s.mux.HandleFunc("GET /api/delivery/v1/channels/insights", s.handleChannelInsights)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req deliveryhttp.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDeliveryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.delivery.Handler.CreateScheduleHandler(r.Context(), req)
	if err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.delivery.Handler.ListSchedulesHandler(r.Context(), query.Get("district"), query.Get("status"))
	if err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	resp, err := s.delivery.Handler.GetScheduleHandler(r.Context(), r.PathValue("schedule_id"))
	if err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnrollRespondents(w http.ResponseWriter, r *http.Request) {
	var req deliveryhttp.EnrollRespondentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDeliveryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.delivery.Handler.EnrollRespondentsHandler(r.Context(), r.PathValue("schedule_id"), req)
	if err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.delivery.Handler.CancelScheduleHandler(r.Context(), r.PathValue("schedule_id")); err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	resp, err := s.delivery.Handler.GetProgressHandler(r.Context(), r.PathValue("schedule_id"))
	if err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.delivery.Handler.ListAttemptsHandler(
		r.Context(),
		r.PathValue("schedule_id"),
		r.URL.Query().Get("respondent_id"),
	)
	if err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	resp, err := s.delivery.Handler.ListChannelsHandler(r.Context())
	if err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChannelInsights(w http.ResponseWriter, r *http.Request) {
	resp, err := s.delivery.Handler.ChannelInsightsHandler(r.Context())
	if err != nil {
		writeDeliveryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDeliveryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deliveryerrors.ErrScheduleNotFound),
		errors.Is(err, deliveryerrors.ErrSlotNotFound),
		errors.Is(err, deliveryerrors.ErrChannelNotFound):
		writeDeliveryError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, deliveryerrors.ErrScheduleExists),
		errors.Is(err, deliveryerrors.ErrSlotExists),
		errors.Is(err, deliveryerrors.ErrInvalidStateTransition):
		writeDeliveryError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, deliveryerrors.ErrInvalidScheduleInput),
		errors.Is(err, deliveryerrors.ErrInvalidScheduleWindow),
		errors.Is(err, deliveryerrors.ErrUnsupportedChannel):
		writeDeliveryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, deliveryerrors.ErrChannelUnavailable):
		writeDeliveryError(w, http.StatusServiceUnavailable, "channel_unavailable", err.Error())
	default:
		writeDeliveryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDeliveryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, deliveryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
