package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	paradataerrors "samiksha/contexts/survey-delivery/paradata-service/domain/errors"
	paradatahttp "samiksha/contexts/survey-delivery/paradata-service/transport/http"
)

func (s *Server) registerParadataRoutes() {
	s.mux.HandleFunc("POST /api/paradata/v1/responses", s.handleIngestResponse)
	s.mux.HandleFunc("GET /api/paradata/v1/responses", s.handleListResponses)
	s.mux.HandleFunc("GET /api/paradata/v1/responses/{response_id}", s.handleGetResponse)
	s.mux.HandleFunc("GET /api/paradata/v1/stats", s.handleMonitoringStats)
	s.mux.HandleFunc("POST /api/paradata/v1/rescore", s.handleRescore)
}

func (s *Server) handleIngestResponse(w http.ResponseWriter, r *http.Request) {
	var req paradatahttp.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeParadataError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.paradata.Handler.IngestHandler(r.Context(), req)
	if err != nil {
		writeParadataDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeParadataError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.paradata.Handler.ListResponsesHandler(
		r.Context(),
		query.Get("schedule_id"),
		query.Get("district"),
		query.Get("filter"),
		limit,
	)
	if err != nil {
		writeParadataDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := s.paradata.Handler.GetResponseHandler(r.Context(), r.PathValue("response_id"))
	if err != nil {
		writeParadataDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMonitoringStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.paradata.Handler.MonitoringStatsHandler(r.Context())
	if err != nil {
		writeParadataDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRescore(w http.ResponseWriter, r *http.Request) {
	var req paradatahttp.RescoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeParadataError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.paradata.Handler.RescoreHandler(r.Context(), req)
	if err != nil {
		writeParadataDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeParadataDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paradataerrors.ErrMalformedMetadata):
		writeParadataError(w, http.StatusUnprocessableEntity, "malformed_metadata", err.Error())
	case errors.Is(err, paradataerrors.ErrResponseNotFound),
		errors.Is(err, paradataerrors.ErrVerdictNotFound):
		writeParadataError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, paradataerrors.ErrResponseExists):
		writeParadataError(w, http.StatusConflict, "response_exists", err.Error())
	case errors.Is(err, paradataerrors.ErrInvalidInput):
		writeParadataError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeParadataError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeParadataError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, paradatahttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
