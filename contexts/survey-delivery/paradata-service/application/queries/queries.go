package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"samiksha/contexts/survey-delivery/paradata-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/paradata-service/domain/errors"
	"samiksha/contexts/survey-delivery/paradata-service/ports"
)

// ResponseView pairs a record with its verdict for the monitoring screen.
type ResponseView struct {
	Record  entities.ParadataRecord
	Verdict entities.QualityVerdict
}

const (
	FilterAll     = "all"
	FilterFlagged = "flagged"
	FilterClean   = "clean"
)

type Queries struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func NewQueries(repository ports.Repository, logger *slog.Logger) *Queries {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queries{Repository: repository, Logger: logger}
}

func (q *Queries) GetResponse(ctx context.Context, responseID string) (ResponseView, error) {
	record, err := q.Repository.GetRecord(ctx, strings.TrimSpace(responseID))
	if err != nil {
		return ResponseView{}, err
	}
	verdict, err := q.Repository.GetVerdict(ctx, record.ResponseID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrVerdictNotFound) {
			return ResponseView{Record: record}, nil
		}
		return ResponseView{}, err
	}
	return ResponseView{Record: record, Verdict: verdict}, nil
}

// ListResponses serves the monitoring feed. The flag filter accepts
// "all", "flagged" and "clean"; anything else is ErrInvalidInput.
func (q *Queries) ListResponses(
	ctx context.Context,
	scheduleID string,
	district string,
	flagFilter string,
	limit int,
) ([]ResponseView, error) {
	filter := ports.ResponseFilter{
		ScheduleID: strings.TrimSpace(scheduleID),
		District:   strings.TrimSpace(district),
		Limit:      limit,
	}
	switch strings.TrimSpace(flagFilter) {
	case "", FilterAll:
	case FilterFlagged:
		flagged := true
		filter.Flagged = &flagged
	case FilterClean:
		flagged := false
		filter.Flagged = &flagged
	default:
		return nil, domainerrors.ErrInvalidInput
	}

	records, err := q.Repository.ListRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]ResponseView, 0, len(records))
	for _, record := range records {
		view := ResponseView{Record: record}
		verdict, err := q.Repository.GetVerdict(ctx, record.ResponseID)
		switch {
		case err == nil:
			view.Verdict = verdict
		case errors.Is(err, domainerrors.ErrVerdictNotFound):
		default:
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (q *Queries) MonitoringStats(ctx context.Context) (entities.MonitoringStats, error) {
	return q.Repository.Stats(ctx)
}
