package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"samiksha/contexts/survey-delivery/paradata-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/paradata-service/domain/errors"
	"samiksha/contexts/survey-delivery/paradata-service/ports"

	"github.com/google/uuid"
)

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	records  map[string]entities.ParadataRecord
	verdicts map[string]entities.QualityVerdict
	outbox   []outboxRow
}

func NewStore() *Store {
	return &Store{
		records:  make(map[string]entities.ParadataRecord),
		verdicts: make(map[string]entities.QualityVerdict),
	}
}

func (s *Store) CreateRecord(_ context.Context, record entities.ParadataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ResponseID]; exists {
		return domainerrors.ErrResponseExists
	}
	s.records[record.ResponseID] = record
	return nil
}

func (s *Store) GetRecord(_ context.Context, responseID string) (entities.ParadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[strings.TrimSpace(responseID)]
	if !exists {
		return entities.ParadataRecord{}, domainerrors.ErrResponseNotFound
	}
	return record, nil
}

func (s *Store) ListRecords(_ context.Context, filter ports.ResponseFilter) ([]entities.ParadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]entities.ParadataRecord, 0)
	for _, record := range s.records {
		if filter.ScheduleID != "" && record.ScheduleID != filter.ScheduleID {
			continue
		}
		if filter.District != "" && !strings.EqualFold(record.District, filter.District) {
			continue
		}
		if filter.Flagged != nil {
			verdict, exists := s.verdicts[record.ResponseID]
			if !exists {
				continue
			}
			if verdict.Flagged() != *filter.Flagged {
				continue
			}
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].IngestedAt.Equal(records[j].IngestedAt) {
			return records[i].ResponseID < records[j].ResponseID
		}
		return records[i].IngestedAt.After(records[j].IngestedAt)
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (s *Store) UpsertVerdict(_ context.Context, verdict entities.QualityVerdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verdicts[verdict.ResponseID] = verdict
	return nil
}

func (s *Store) GetVerdict(_ context.Context, responseID string) (entities.QualityVerdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	verdict, exists := s.verdicts[strings.TrimSpace(responseID)]
	if !exists {
		return entities.QualityVerdict{}, domainerrors.ErrVerdictNotFound
	}
	return verdict, nil
}

func (s *Store) Stats(_ context.Context) (entities.MonitoringStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := entities.MonitoringStats{TotalResponses: len(s.records)}
	var totalDuration float64
	for _, record := range s.records {
		totalDuration += record.DurationSeconds
		verdict, exists := s.verdicts[record.ResponseID]
		if exists && verdict.Flagged() {
			stats.FlaggedResponses++
		}
		if record.HasGPS() && (!exists || !containsFlag(verdict.Flags, entities.FlagGPSImplausible)) {
			stats.GPSVerifiedCount++
		}
	}
	if stats.TotalResponses > 0 {
		stats.AvgDurationSeconds = totalDuration / float64(stats.TotalResponses)
	}
	return stats, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.outbox {
		if row.message.OutboxID == envelope.EventID {
			return nil
		}
	}
	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.EntityID,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAtUTC.UTC(),
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		messages = append(messages, ports.OutboxMessage{
			OutboxID:     row.message.OutboxID,
			EventType:    row.message.EventType,
			PartitionKey: row.message.PartitionKey,
			Payload:      append([]byte(nil), row.message.Payload...),
			CreatedAt:    row.message.CreatedAt,
		})
		if len(messages) == limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return domainerrors.ErrInvalidInput
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func containsFlag(flags []entities.FlagCode, target entities.FlagCode) bool {
	for _, flag := range flags {
		if flag == target {
			return true
		}
	}
	return false
}

var _ ports.Repository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
