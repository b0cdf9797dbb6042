package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Record kinds. A day record is a single worked date with a flat daily
// rate; a case record is a continuous engagement billed per recorded
// work-day until it is closed.
const (
	KindDay  RecordKind = "day"
	KindCase RecordKind = "case"
)

const (
	Hospital WorkPlace = "hospital"
	Home     WorkPlace = "home"
)

const (
	Daytime       ShiftHours = "daytime"
	Night         ShiftHours = "night"
	RoundTheClock ShiftHours = "24h"
)

const (
	StatusBase     PatientStatus = "base"
	StatusDementia PatientStatus = "dementia"
	StatusPostOp   PatientStatus = "postop"
	StatusImmobile PatientStatus = "immobile"
)

type (
	RecordKind    string
	WorkPlace     string
	ShiftHours    string
	PatientStatus string

	// Record is the tagged union persisted per entry. Day records use
	// Date and WorkType; case records use StartDate, EndDate (nil while
	// active), WorkPlaceType and DaysWorked. The remaining fields are
	// shared by both kinds.
	Record struct {
		Kind RecordKind `json:"kind"`
		ID   int64      `json:"id"`

		Date     Date      `json:"date,omitzero"`
		WorkType WorkPlace `json:"workType,omitempty"`

		StartDate     Date      `json:"startDate,omitzero"`
		EndDate       *Date     `json:"endDate,omitempty"`
		WorkPlaceType WorkPlace `json:"workPlaceType,omitempty"`
		DaysWorked    []Date    `json:"daysWorked,omitempty"`

		WorkHours     ShiftHours    `json:"workHours"`
		PatientStatus PatientStatus `json:"patientStatus"`
		PayWon        int64         `json:"payWon"`
	}
)

var (
	ErrInvalidRecord    = errors.New("invalid record")
	ErrActiveCaseExists = errors.New("an active case already exists")
	ErrNoActiveCase     = errors.New("no active case")
	ErrAlreadyRecorded  = errors.New("work day already recorded")
	ErrNoRepeatSource   = errors.New("no previous day record to repeat")
)

func (p WorkPlace) Valid() bool {
	return p == Hospital || p == Home
}

func (h ShiftHours) Valid() bool {
	return h == Daytime || h == Night || h == RoundTheClock
}

func (s PatientStatus) Valid() bool {
	return s == StatusBase || s == StatusDementia || s == StatusPostOp || s == StatusImmobile
}

// Record IDs are creation timestamps in milliseconds, bumped when two
// creations land on the same tick so the collection never sees a
// duplicate.
var (
	idMu   sync.Mutex
	lastID int64
)

func newID() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}

// NewDayRecord creates a completed single-day record. Every enum field
// must be set and the pay must be positive.
func NewDayRecord(date Date, place WorkPlace, hours ShiftHours, status PatientStatus, payWon int64) (Record, error) {
	if err := date.Validate(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !place.Valid() {
		return Record{}, fmt.Errorf("%w: work place %q", ErrInvalidRecord, place)
	}
	if !hours.Valid() {
		return Record{}, fmt.Errorf("%w: work hours %q", ErrInvalidRecord, hours)
	}
	if !status.Valid() {
		return Record{}, fmt.Errorf("%w: patient status %q", ErrInvalidRecord, status)
	}
	if payWon <= 0 {
		return Record{}, fmt.Errorf("%w: non-positive pay %d", ErrInvalidRecord, payWon)
	}
	return Record{
		Kind:          KindDay,
		ID:            newID(),
		Date:          date,
		WorkType:      place,
		WorkHours:     hours,
		PatientStatus: status,
		PayWon:        payWon,
	}, nil
}

// StartCase opens a new continuous-stay case. It fails when the
// collection already holds an active case. Hours default to 24h when
// unset, matching how cases are normally staffed.
func StartCase(records []Record, start Date, place WorkPlace, hours ShiftHours, status PatientStatus, payWon int64) (Record, error) {
	if ActiveCaseIndex(records) >= 0 {
		return Record{}, ErrActiveCaseExists
	}
	if err := start.Validate(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !place.Valid() {
		return Record{}, fmt.Errorf("%w: work place %q", ErrInvalidRecord, place)
	}
	if hours == "" {
		hours = RoundTheClock
	}
	if !hours.Valid() {
		return Record{}, fmt.Errorf("%w: work hours %q", ErrInvalidRecord, hours)
	}
	if !status.Valid() {
		return Record{}, fmt.Errorf("%w: patient status %q", ErrInvalidRecord, status)
	}
	if payWon <= 0 {
		return Record{}, fmt.Errorf("%w: non-positive pay %d", ErrInvalidRecord, payWon)
	}
	return Record{
		Kind:          KindCase,
		ID:            newID(),
		StartDate:     start,
		WorkPlaceType: place,
		WorkHours:     hours,
		PatientStatus: status,
		PayWon:        payWon,
		DaysWorked:    []Date{},
	}, nil
}

// IsActiveCase reports whether the record is a case with no end date yet.
// Active is always derived from EndDate, never cached.
func (r *Record) IsActiveCase() bool {
	return r.Kind == KindCase && r.EndDate == nil
}

// AddWorkDay records one worked date on an active case. Days before
// the case start are rejected so the case stays closeable. Recording
// the same date twice signals ErrAlreadyRecorded and leaves the case
// unchanged; callers surface it as a notice, not a failure.
func (r *Record) AddWorkDay(d Date) error {
	if !r.IsActiveCase() {
		return ErrNoActiveCase
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if d.Before(r.StartDate) {
		return fmt.Errorf("%w: work day %s before start date %s", ErrInvalidRecord, d.ISO(), r.StartDate.ISO())
	}
	for _, existing := range r.DaysWorked {
		if existing.Equal(d) {
			return ErrAlreadyRecorded
		}
	}
	r.DaysWorked = append(r.DaysWorked, d)
	sort.Slice(r.DaysWorked, func(i, j int) bool {
		return r.DaysWorked[i].Before(r.DaysWorked[j])
	})
	return nil
}

// CloseCase sets the end date, after which the case is immutable. The
// end date must cover every recorded work-day and the start date.
func (r *Record) CloseCase(end Date) error {
	if !r.IsActiveCase() {
		return ErrNoActiveCase
	}
	if err := end.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if end.Before(r.StartDate) {
		return fmt.Errorf("%w: end date %s before start date %s", ErrInvalidRecord, end.ISO(), r.StartDate.ISO())
	}
	for _, d := range r.DaysWorked {
		if d.Before(r.StartDate) || d.After(end) {
			return fmt.Errorf("%w: work day %s outside %s..%s", ErrInvalidRecord, d.ISO(), r.StartDate.ISO(), end.ISO())
		}
	}
	r.EndDate = &end
	return nil
}

// Clone returns a copy that shares no mutable state with the receiver.
// DaysWorked and EndDate are copied so mutating the clone never writes
// through to the original's backing array or pointer.
func (r Record) Clone() Record {
	c := r
	if r.DaysWorked != nil {
		c.DaysWorked = append([]Date(nil), r.DaysWorked...)
	}
	if r.EndDate != nil {
		end := *r.EndDate
		c.EndDate = &end
	}
	return c
}

// QuickRepeat produces a new day record copying everything from the
// last one except the date and id.
func QuickRepeat(last Record, newDate Date) (Record, error) {
	if last.Kind != KindDay {
		return Record{}, fmt.Errorf("%w: can only repeat a day record", ErrInvalidRecord)
	}
	return NewDayRecord(newDate, last.WorkType, last.WorkHours, last.PatientStatus, last.PayWon)
}

// Workplace resolves the workplace field for either kind. Day records
// carry WorkType and cases carry WorkPlaceType; each falls back to the
// other so records migrated from legacy shapes still resolve.
func (r *Record) Workplace() WorkPlace {
	if r.Kind == KindCase {
		if r.WorkPlaceType != "" {
			return r.WorkPlaceType
		}
		return r.WorkType
	}
	if r.WorkType != "" {
		return r.WorkType
	}
	return r.WorkPlaceType
}

// DayRecords returns the day-record subset of the collection.
func DayRecords(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.Kind == KindDay {
			out = append(out, r)
		}
	}
	return out
}

// CaseRecords returns the case-record subset of the collection.
func CaseRecords(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.Kind == KindCase {
			out = append(out, r)
		}
	}
	return out
}

// ActiveCaseIndex returns the index of the open case, or -1. At most one
// case is ever open, so the first match wins.
func ActiveCaseIndex(records []Record) int {
	for i := range records {
		if records[i].IsActiveCase() {
			return i
		}
	}
	return -1
}

// ActiveCase returns a copy of the open case, if any.
func ActiveCase(records []Record) (Record, bool) {
	i := ActiveCaseIndex(records)
	if i < 0 {
		return Record{}, false
	}
	return records[i], true
}

// CompletedCases returns closed cases, most recently ended first.
func CompletedCases(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.Kind == KindCase && r.EndDate != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EndDate.After(*out[j].EndDate)
	})
	return out
}

// LastDayRecord returns the day record with the latest date.
func LastDayRecord(records []Record) (Record, bool) {
	var last Record
	found := false
	for _, r := range records {
		if r.Kind != KindDay {
			continue
		}
		if !found || r.Date.After(last.Date) {
			last = r
			found = true
		}
	}
	return last, found
}

// HasRecordOn reports whether the given date is covered by a day record
// or by a work-day of the active case.
func HasRecordOn(records []Record, d Date) bool {
	for _, r := range records {
		switch r.Kind {
		case KindDay:
			if r.Date.Equal(d) {
				return true
			}
		case KindCase:
			if !r.IsActiveCase() {
				continue
			}
			for _, worked := range r.DaysWorked {
				if worked.Equal(d) {
					return true
				}
			}
		}
	}
	return false
}

// DaysSinceLastRecord returns how many days have passed since the most
// recent day record, for the "no entry yet" reminder. The second return
// is false when there are no day records at all.
func DaysSinceLastRecord(records []Record, today Date) (int, bool) {
	last, ok := LastDayRecord(records)
	if !ok {
		return 0, false
	}
	return DaysBetween(last.Date, today), true
}
