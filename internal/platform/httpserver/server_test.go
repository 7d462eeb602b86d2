package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	deliveryservice "samiksha/contexts/survey-delivery/delivery-service"
	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	deliveryhttp "samiksha/contexts/survey-delivery/delivery-service/transport/http"
	paradataservice "samiksha/contexts/survey-delivery/paradata-service"
	paradatahttp "samiksha/contexts/survey-delivery/paradata-service/transport/http"
	"samiksha/contexts/survey-delivery/paradata-service/domain/scoring"
)

func newTestServer() *Server {
	delivery := deliveryservice.NewInMemoryModule(nil, []entities.Channel{
		{Name: "Gov Chat", Kind: entities.ChannelKindChat, Status: entities.ChannelStatusActive},
		{Name: "Web Portal", Kind: entities.ChannelKindWeb, Status: entities.ChannelStatusActive},
	}, nil, nil)
	paradata := paradataservice.NewInMemoryModule(nil, scoring.DefaultRuleConfig(), nil)
	return New(delivery, paradata, nil, ":0")
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

const createScheduleBody = `{
	"campaign_id": "campaign-1",
	"survey_name": "Water Access Survey",
	"district": "Ahmadabad",
	"primary_channel": "chat",
	"fallback_channels": ["web"],
	"max_attempts": 2,
	"retry_interval_seconds": 3600,
	"scheduled_start": "2026-03-02T09:00:00Z",
	"scheduled_end": "2026-03-02T18:00:00Z",
	"target_count": 50
}`

func TestScheduleLifecycleOverHTTP(t *testing.T) {
	server := newTestServer()

	created := doRequest(t, server, http.MethodPost, "/api/delivery/v1/schedules", createScheduleBody)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", created.Code, created.Body.String())
	}
	var schedule deliveryhttp.ScheduleDTO
	if err := json.Unmarshal(created.Body.Bytes(), &schedule); err != nil {
		t.Fatalf("decode schedule failed: %v", err)
	}
	if schedule.ID == "" || schedule.Status != "scheduled" {
		t.Fatalf("unexpected schedule response: %+v", schedule)
	}

	fetched := doRequest(t, server, http.MethodGet, "/api/delivery/v1/schedules/"+schedule.ID, "")
	if fetched.Code != http.StatusOK {
		t.Fatalf("expected 200 on fetch, got %d", fetched.Code)
	}

	enrolled := doRequest(t, server, http.MethodPost,
		"/api/delivery/v1/schedules/"+schedule.ID+"/respondents",
		`{"respondent_ids": ["resp-1", "resp-2"]}`)
	if enrolled.Code != http.StatusOK {
		t.Fatalf("expected 200 on enroll, got %d: %s", enrolled.Code, enrolled.Body.String())
	}
	var enrollResp deliveryhttp.EnrollRespondentsResponse
	if err := json.Unmarshal(enrolled.Body.Bytes(), &enrollResp); err != nil {
		t.Fatalf("decode enroll response failed: %v", err)
	}
	if enrollResp.EnrolledCount != 2 {
		t.Fatalf("expected 2 enrolled, got %d", enrollResp.EnrolledCount)
	}

	progress := doRequest(t, server, http.MethodGet, "/api/delivery/v1/schedules/"+schedule.ID+"/progress", "")
	if progress.Code != http.StatusOK {
		t.Fatalf("expected 200 on progress, got %d", progress.Code)
	}
	var progressResp deliveryhttp.ProgressDTO
	if err := json.Unmarshal(progress.Body.Bytes(), &progressResp); err != nil {
		t.Fatalf("decode progress failed: %v", err)
	}
	if progressResp.TargetCount != 50 || progressResp.Percent != 0 {
		t.Fatalf("unexpected progress: %+v", progressResp)
	}

	cancelled := doRequest(t, server, http.MethodPost, "/api/delivery/v1/schedules/"+schedule.ID+"/cancel", "")
	if cancelled.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on cancel, got %d", cancelled.Code)
	}
	again := doRequest(t, server, http.MethodPost, "/api/delivery/v1/schedules/"+schedule.ID+"/cancel", "")
	if again.Code != http.StatusConflict {
		t.Fatalf("expected 409 on repeat cancel, got %d", again.Code)
	}
}

func TestScheduleEndpointErrorMapping(t *testing.T) {
	server := newTestServer()

	missing := doRequest(t, server, http.MethodGet, "/api/delivery/v1/schedules/no-such-id", "")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}

	badChannel := strings.Replace(createScheduleBody, `"chat"`, `"pigeon"`, 1)
	rejected := doRequest(t, server, http.MethodPost, "/api/delivery/v1/schedules", badChannel)
	if rejected.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported channel, got %d", rejected.Code)
	}
	var errResp deliveryhttp.ErrorResponse
	if err := json.Unmarshal(rejected.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error body failed: %v", err)
	}
	if errResp.Code != "invalid_request" {
		t.Fatalf("expected invalid_request code, got %s", errResp.Code)
	}

	badJSON := doRequest(t, server, http.MethodPost, "/api/delivery/v1/schedules", "{not json")
	if badJSON.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", badJSON.Code)
	}
}

func TestParadataIngestStatusCodes(t *testing.T) {
	server := newTestServer()

	body := `{
		"responseId": "response-1",
		"scheduleId": "sched-1",
		"respondentId": "resp-1",
		"district": "Ahmadabad",
		"channel": "chat",
		"durationSeconds": 30,
		"submittedAt": "2026-03-02T23:45:00Z"
	}`
	created := doRequest(t, server, http.MethodPost, "/api/paradata/v1/responses", body)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", created.Code, created.Body.String())
	}
	var resp paradatahttp.ResponseDTO
	if err := json.Unmarshal(created.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Verdict.Status != "needs_review" {
		t.Fatalf("expected needs_review for fast late-night chat response, got %s", resp.Verdict.Status)
	}

	duplicate := doRequest(t, server, http.MethodPost, "/api/paradata/v1/responses", body)
	if duplicate.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate response id, got %d", duplicate.Code)
	}

	malformed := doRequest(t, server, http.MethodPost, "/api/paradata/v1/responses",
		`{"scheduleId": "sched-1", "durationSeconds": 30, "submittedAt": "2026-03-02T23:45:00Z"}`)
	if malformed.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing respondent, got %d", malformed.Code)
	}

	badFilter := doRequest(t, server, http.MethodGet, "/api/paradata/v1/responses?filter=suspicious", "")
	if badFilter.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", badFilter.Code)
	}

	missing := doRequest(t, server, http.MethodGet, "/api/paradata/v1/responses/no-such-id", "")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing response, got %d", missing.Code)
	}
}

func TestParadataStatsAndRescoreEndpoints(t *testing.T) {
	server := newTestServer()

	body := `{
		"responseId": "response-1",
		"scheduleId": "sched-1",
		"respondentId": "resp-1",
		"channel": "web",
		"durationSeconds": 150,
		"submittedAt": "2026-03-02T14:00:00Z"
	}`
	if created := doRequest(t, server, http.MethodPost, "/api/paradata/v1/responses", body); created.Code != http.StatusCreated {
		t.Fatalf("seed ingest failed: %d", created.Code)
	}

	stats := doRequest(t, server, http.MethodGet, "/api/paradata/v1/stats", "")
	if stats.Code != http.StatusOK {
		t.Fatalf("expected 200 on stats, got %d", stats.Code)
	}
	var statsResp paradatahttp.MonitoringStatsDTO
	if err := json.Unmarshal(stats.Body.Bytes(), &statsResp); err != nil {
		t.Fatalf("decode stats failed: %v", err)
	}
	if statsResp.TotalResponses != 1 {
		t.Fatalf("expected 1 response, got %d", statsResp.TotalResponses)
	}

	rescored := doRequest(t, server, http.MethodPost, "/api/paradata/v1/rescore",
		`{"minDurationSeconds": {"web": 200}}`)
	if rescored.Code != http.StatusOK {
		t.Fatalf("expected 200 on rescore, got %d: %s", rescored.Code, rescored.Body.String())
	}
	var rescoreResp paradatahttp.RescoreResponse
	if err := json.Unmarshal(rescored.Body.Bytes(), &rescoreResp); err != nil {
		t.Fatalf("decode rescore failed: %v", err)
	}
	if rescoreResp.RescoredCount != 1 {
		t.Fatalf("expected 1 rescored, got %d", rescoreResp.RescoredCount)
	}
	if rescoreResp.ThresholdRevision < 2 {
		t.Fatalf("expected bumped revision, got %d", rescoreResp.ThresholdRevision)
	}

	flagged := doRequest(t, server, http.MethodGet, "/api/paradata/v1/responses?filter=flagged", "")
	if flagged.Code != http.StatusOK {
		t.Fatalf("expected 200 on flagged list, got %d", flagged.Code)
	}
	var flaggedResp []paradatahttp.ResponseDTO
	if err := json.Unmarshal(flagged.Body.Bytes(), &flaggedResp); err != nil {
		t.Fatalf("decode flagged list failed: %v", err)
	}
	if len(flaggedResp) != 1 {
		t.Fatalf("expected the rescored response flagged, got %d", len(flaggedResp))
	}
}
