package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"carenote/internal/core"
	"carenote/internal/stats"
	"carenote/internal/storage"
)

// ErrStoreUnavailable reports that a mutation could not be persisted not
// even after the in-memory copy was prepared; nothing was committed.
var ErrStoreUnavailable = errors.New("record store unavailable")

// RecordPublisher publishes a saved-record notification after a mutation
// is persisted. *amqp.Client satisfies it.
type RecordPublisher interface {
	PublishRecordSaved(ctx context.Context, id int64, kind string) error
}

// RecordService orchestrates record mutations across storage and AMQP.
// All mutations follow the same shape: copy the collection, mutate the
// copy, persist, and only then commit the copy to memory.
type RecordService struct {
	mu        sync.Mutex
	store     *storage.RecordStore
	publisher RecordPublisher

	records []core.Record
	loaded  bool
}

func NewRecordService(store *storage.RecordStore, publisher RecordPublisher) *RecordService {
	return &RecordService{
		store:     store,
		publisher: publisher,
	}
}

// CreateDayRecord validates and persists a daily work record.
func (s *RecordService) CreateDayRecord(ctx context.Context, date core.Date, place core.WorkPlace, hours core.ShiftHours, status core.PatientStatus, payWon int64) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	record, err := core.NewDayRecord(date, place, hours, status, payWon)
	if err != nil {
		return core.Record{}, err
	}

	next := append(s.snapshot(), record)
	if err := s.commit(ctx, next, record); err != nil {
		return core.Record{}, err
	}
	return record, nil
}

// RepeatLast creates a new day record on the given date by copying the
// most recent day record's workplace, hours, status and pay.
func (s *RecordService) RepeatLast(ctx context.Context, date core.Date) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	last, ok := core.LastDayRecord(s.records)
	if !ok {
		return core.Record{}, core.ErrNoRepeatSource
	}

	record, err := core.QuickRepeat(last, date)
	if err != nil {
		return core.Record{}, err
	}

	next := append(s.snapshot(), record)
	if err := s.commit(ctx, next, record); err != nil {
		return core.Record{}, err
	}
	return record, nil
}

// StartCase opens a new live-in case. At most one case may be active.
func (s *RecordService) StartCase(ctx context.Context, start core.Date, place core.WorkPlace, hours core.ShiftHours, status core.PatientStatus, payWon int64) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	record, err := core.StartCase(s.records, start, place, hours, status, payWon)
	if err != nil {
		return core.Record{}, err
	}

	next := append(s.snapshot(), record)
	if err := s.commit(ctx, next, record); err != nil {
		return core.Record{}, err
	}
	return record, nil
}

// AddWorkDayToActive appends a worked day to the active case.
func (s *RecordService) AddWorkDayToActive(ctx context.Context, day core.Date) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	idx := core.ActiveCaseIndex(s.records)
	if idx < 0 {
		return core.Record{}, core.ErrNoActiveCase
	}

	next := s.snapshot()
	if err := next[idx].AddWorkDay(day); err != nil {
		return core.Record{}, err
	}

	if err := s.commit(ctx, next, next[idx]); err != nil {
		return core.Record{}, err
	}
	return next[idx], nil
}

// CloseActiveCase sets the end date on the active case.
func (s *RecordService) CloseActiveCase(ctx context.Context, end core.Date) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)

	idx := core.ActiveCaseIndex(s.records)
	if idx < 0 {
		return core.Record{}, core.ErrNoActiveCase
	}

	next := s.snapshot()
	if err := next[idx].CloseCase(end); err != nil {
		return core.Record{}, err
	}

	if err := s.commit(ctx, next, next[idx]); err != nil {
		return core.Record{}, err
	}
	return next[idx], nil
}

// Records returns a copy of the full collection.
func (s *RecordService) Records(ctx context.Context) []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return s.snapshot()
}

// MonthlyStats aggregates work days, income and average wages for a month.
func (s *RecordService) MonthlyStats(ctx context.Context, year, month int) stats.MonthlyStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return stats.Monthly(s.records, year, month)
}

// CareerSummary aggregates lifetime career figures across all records.
func (s *RecordService) CareerSummary(ctx context.Context) stats.CareerSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return stats.BuildCareerSummary(s.records)
}

// ActiveCase returns the currently open case, if any.
func (s *RecordService) ActiveCase(ctx context.Context) (core.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return core.ActiveCase(s.records)
}

// CompletedCases returns closed cases, most recently ended first.
func (s *RecordService) CompletedCases(ctx context.Context) []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return core.CompletedCases(s.records)
}

// DaysSinceLastRecord reports how many days have passed since any work
// was recorded, for reminder surfaces. ok is false with no records.
func (s *RecordService) DaysSinceLastRecord(ctx context.Context, today core.Date) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return core.DaysSinceLastRecord(s.records, today)
}

func (s *RecordService) load(ctx context.Context) {
	if s.loaded {
		return
	}
	s.records = s.store.Load(ctx)
	s.loaded = true
}

// snapshot deep-copies the collection so in-place mutations on the
// copy (day inserts re-sort DaysWorked) can never write through to the
// committed records when a save fails.
func (s *RecordService) snapshot() []core.Record {
	next := make([]core.Record, len(s.records))
	for i, r := range s.records {
		next[i] = r.Clone()
	}
	return next
}

// commit persists the mutated collection and, on success, makes it the
// in-memory state and publishes a saved-record message. A failed save
// leaves memory untouched so the mutation is fully rolled back.
func (s *RecordService) commit(ctx context.Context, next []core.Record, saved core.Record) error {
	if !s.store.Save(ctx, next) {
		return ErrStoreUnavailable
	}
	s.records = next

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishRecordSaved(ctx, saved.ID, string(saved.Kind)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish saved-record message",
			"id", saved.ID, "error", err)
		// Don't fail the request - the record is saved locally
	}
	return nil
}
