package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"samiksha/contexts/survey-delivery/delivery-service/domain/entities"
	domainerrors "samiksha/contexts/survey-delivery/delivery-service/domain/errors"
	"samiksha/contexts/survey-delivery/delivery-service/ports"

	"github.com/google/uuid"
)

type slotKey struct {
	scheduleID   string
	respondentID string
}

type Store struct {
	mu sync.RWMutex

	schedules     map[string]entities.DeliverySchedule
	slots         map[slotKey]entities.RespondentSlot
	attempts      []entities.DispatchAttempt
	channels      map[entities.ChannelKind]entities.Channel
	seenResponses map[string]struct{}
}

func NewStore(seedSchedules []entities.DeliverySchedule, seedChannels []entities.Channel) *Store {
	schedules := make(map[string]entities.DeliverySchedule, len(seedSchedules))
	for _, schedule := range seedSchedules {
		schedules[schedule.ID] = schedule
	}
	channels := make(map[entities.ChannelKind]entities.Channel, len(seedChannels))
	for _, channel := range seedChannels {
		channels[channel.Kind] = channel
	}
	return &Store{
		schedules:     schedules,
		slots:         make(map[slotKey]entities.RespondentSlot),
		channels:      channels,
		seenResponses: make(map[string]struct{}),
	}
}

func (s *Store) CreateSchedule(_ context.Context, schedule entities.DeliverySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[schedule.ID]; exists {
		return domainerrors.ErrScheduleExists
	}
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *Store) UpdateSchedule(_ context.Context, schedule entities.DeliverySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[schedule.ID]; !exists {
		return domainerrors.ErrScheduleNotFound
	}
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *Store) GetSchedule(_ context.Context, scheduleID string) (entities.DeliverySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, exists := s.schedules[strings.TrimSpace(scheduleID)]
	if !exists {
		return entities.DeliverySchedule{}, domainerrors.ErrScheduleNotFound
	}
	return schedule, nil
}

func (s *Store) ListSchedules(_ context.Context, district string, status entities.ScheduleStatus) ([]entities.DeliverySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := make([]entities.DeliverySchedule, 0)
	for _, schedule := range s.schedules {
		if district != "" && !strings.EqualFold(schedule.District, district) {
			continue
		}
		if status != "" && schedule.Status != status {
			continue
		}
		schedules = append(schedules, schedule)
	}
	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].CreatedAt.After(schedules[j].CreatedAt)
	})
	return schedules, nil
}

func (s *Store) ListSchedulesByStatus(_ context.Context, status entities.ScheduleStatus, limit int) ([]entities.DeliverySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := make([]entities.DeliverySchedule, 0)
	for _, schedule := range s.schedules {
		if schedule.Status == status {
			schedules = append(schedules, schedule)
		}
	}
	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].CreatedAt.Before(schedules[j].CreatedAt)
	})
	if limit > 0 && len(schedules) > limit {
		schedules = schedules[:limit]
	}
	return schedules, nil
}

func (s *Store) IncrementSentCount(_ context.Context, scheduleID string) (entities.DeliverySchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, exists := s.schedules[scheduleID]
	if !exists {
		return entities.DeliverySchedule{}, domainerrors.ErrScheduleNotFound
	}
	schedule.SentCount++
	schedule.UpdatedAt = time.Now().UTC()
	s.schedules[scheduleID] = schedule
	return schedule, nil
}

func (s *Store) IncrementRespondedCount(_ context.Context, scheduleID string) (entities.DeliverySchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, exists := s.schedules[scheduleID]
	if !exists {
		return entities.DeliverySchedule{}, domainerrors.ErrScheduleNotFound
	}
	schedule.RespondedCount++
	schedule.UpdatedAt = time.Now().UTC()
	s.schedules[scheduleID] = schedule
	return schedule, nil
}

func (s *Store) MarkResponseSeen(_ context.Context, scheduleID, responseID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scheduleID + "|" + responseID
	if _, exists := s.seenResponses[key]; exists {
		return false, nil
	}
	s.seenResponses[key] = struct{}{}
	return true, nil
}

func (s *Store) CreateSlot(_ context.Context, slot entities.RespondentSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{scheduleID: slot.ScheduleID, respondentID: slot.RespondentID}
	if _, exists := s.slots[key]; exists {
		return domainerrors.ErrSlotExists
	}
	s.slots[key] = slot
	return nil
}

func (s *Store) UpdateSlot(_ context.Context, slot entities.RespondentSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{scheduleID: slot.ScheduleID, respondentID: slot.RespondentID}
	if _, exists := s.slots[key]; !exists {
		return domainerrors.ErrSlotNotFound
	}
	s.slots[key] = slot
	return nil
}

func (s *Store) GetSlot(_ context.Context, scheduleID, respondentID string) (entities.RespondentSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, exists := s.slots[slotKey{scheduleID: strings.TrimSpace(scheduleID), respondentID: strings.TrimSpace(respondentID)}]
	if !exists {
		return entities.RespondentSlot{}, domainerrors.ErrSlotNotFound
	}
	return slot, nil
}

func (s *Store) ListDueSlots(_ context.Context, scheduleID string, threshold time.Time, limit int) ([]entities.RespondentSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	slots := make([]entities.RespondentSlot, 0, limit)
	for key, slot := range s.slots {
		if key.scheduleID != scheduleID || slot.State != entities.SlotStatePending {
			continue
		}
		if slot.NextAttemptAt.After(threshold) {
			continue
		}
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].NextAttemptAt.Equal(slots[j].NextAttemptAt) {
			return slots[i].RespondentID < slots[j].RespondentID
		}
		return slots[i].NextAttemptAt.Before(slots[j].NextAttemptAt)
	})
	if len(slots) > limit {
		slots = slots[:limit]
	}
	return slots, nil
}

func (s *Store) CountSlotsByState(_ context.Context, scheduleID string, state entities.SlotState) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for key, slot := range s.slots {
		if key.scheduleID == scheduleID && slot.State == state {
			count++
		}
	}
	return count, nil
}

func (s *Store) AppendAttempt(_ context.Context, attempt entities.DispatchAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *Store) ListAttempts(_ context.Context, scheduleID, respondentID string) ([]entities.DispatchAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempts := make([]entities.DispatchAttempt, 0)
	for _, attempt := range s.attempts {
		if scheduleID != "" && attempt.ScheduleID != scheduleID {
			continue
		}
		if respondentID != "" && attempt.RespondentID != respondentID {
			continue
		}
		attempts = append(attempts, attempt)
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].AttemptedAt.Before(attempts[j].AttemptedAt)
	})
	return attempts, nil
}

func (s *Store) CountAttempts(_ context.Context, scheduleID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, attempt := range s.attempts {
		if attempt.ScheduleID == scheduleID {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpsertChannel(_ context.Context, channel entities.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.channels[channel.Kind] = channel
	return nil
}

func (s *Store) GetChannel(_ context.Context, kind entities.ChannelKind) (entities.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channel, exists := s.channels[kind]
	if !exists {
		return entities.Channel{}, domainerrors.ErrChannelNotFound
	}
	return channel, nil
}

func (s *Store) ListChannels(_ context.Context) ([]entities.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]entities.Channel, 0, len(s.channels))
	for _, channel := range s.channels {
		channels = append(channels, channel)
	}
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Kind < channels[j].Kind
	})
	return channels, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
