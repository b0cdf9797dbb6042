package core

import (
	"errors"
	"testing"
)

func TestNewDayRecord(t *testing.T) {
	good, err := NewDayRecord(NewDate(2024, 3, 1), Hospital, Daytime, StatusBase, 110000)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if good.Kind != KindDay || good.ID == 0 {
		t.Fatalf("unexpected record %+v", good)
	}

	bads := []struct {
		name   string
		date   Date
		place  WorkPlace
		hours  ShiftHours
		status PatientStatus
		pay    int64
	}{
		{"zero date", Date{}, Hospital, Daytime, StatusBase, 110000},
		{"missing place", NewDate(2024, 3, 1), "", Daytime, StatusBase, 110000},
		{"missing hours", NewDate(2024, 3, 1), Hospital, "", StatusBase, 110000},
		{"missing status", NewDate(2024, 3, 1), Hospital, Daytime, "", 110000},
		{"zero pay", NewDate(2024, 3, 1), Hospital, Daytime, StatusBase, 0},
		{"negative pay", NewDate(2024, 3, 1), Hospital, Daytime, StatusBase, -100},
	}
	for _, tt := range bads {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDayRecord(tt.date, tt.place, tt.hours, tt.status, tt.pay)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestRecordIDsUnique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		r, err := NewDayRecord(NewDate(2024, 3, 1), Hospital, Daytime, StatusBase, 100000)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[r.ID] {
			t.Fatalf("duplicate id %d", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestStartCaseRejectsSecondActive(t *testing.T) {
	first, err := StartCase(nil, NewDate(2024, 3, 1), Hospital, "", StatusDementia, 100000)
	if err != nil {
		t.Fatalf("start first case: %v", err)
	}
	if first.WorkHours != RoundTheClock {
		t.Fatalf("hours should default to 24h, got %q", first.WorkHours)
	}
	if len(first.DaysWorked) != 0 {
		t.Fatalf("new case must start with no work days")
	}

	records := []Record{first}
	if _, err := StartCase(records, NewDate(2024, 3, 2), Home, Night, StatusBase, 90000); !errors.Is(err, ErrActiveCaseExists) {
		t.Fatalf("expected ErrActiveCaseExists, got %v", err)
	}

	// Closing the case frees the slot.
	if err := records[0].CloseCase(NewDate(2024, 3, 5)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := StartCase(records, NewDate(2024, 3, 6), Home, Night, StatusBase, 90000); err != nil {
		t.Fatalf("start after close: %v", err)
	}
}

func TestAddWorkDayIdempotent(t *testing.T) {
	c, err := StartCase(nil, NewDate(2024, 3, 1), Hospital, RoundTheClock, StatusBase, 100000)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := c.AddWorkDay(NewDate(2024, 3, 6)); err != nil {
		t.Fatalf("add day: %v", err)
	}
	if err := c.AddWorkDay(NewDate(2024, 3, 5)); err != nil {
		t.Fatalf("add day: %v", err)
	}
	if err := c.AddWorkDay(NewDate(2024, 3, 5)); !errors.Is(err, ErrAlreadyRecorded) {
		t.Fatalf("expected ErrAlreadyRecorded, got %v", err)
	}

	if len(c.DaysWorked) != 2 {
		t.Fatalf("expected 2 work days, got %d", len(c.DaysWorked))
	}
	// Insertion keeps the dates ascending.
	if !c.DaysWorked[0].Equal(NewDate(2024, 3, 5)) || !c.DaysWorked[1].Equal(NewDate(2024, 3, 6)) {
		t.Fatalf("work days not sorted: %v, %v", c.DaysWorked[0].ISO(), c.DaysWorked[1].ISO())
	}
}

func TestAddWorkDayBeforeStartRejected(t *testing.T) {
	c, _ := StartCase(nil, NewDate(2024, 3, 10), Hospital, RoundTheClock, StatusBase, 100000)

	if err := c.AddWorkDay(NewDate(2024, 3, 1)); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("day before start should fail, got %v", err)
	}
	if len(c.DaysWorked) != 0 {
		t.Fatalf("rejected day was recorded: %v", c.DaysWorked)
	}

	// The rejection keeps the case closeable.
	if err := c.AddWorkDay(NewDate(2024, 3, 10)); err != nil {
		t.Fatalf("add day: %v", err)
	}
	if err := c.CloseCase(NewDate(2024, 3, 10)); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCloseCase(t *testing.T) {
	c, _ := StartCase(nil, NewDate(2024, 3, 1), Hospital, RoundTheClock, StatusBase, 100000)
	_ = c.AddWorkDay(NewDate(2024, 3, 2))

	if err := c.CloseCase(NewDate(2024, 2, 28)); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("end before start should fail, got %v", err)
	}
	if err := c.CloseCase(NewDate(2024, 3, 1)); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("end before a worked day should fail, got %v", err)
	}
	if err := c.CloseCase(NewDate(2024, 3, 3)); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Closed cases are immutable.
	if err := c.AddWorkDay(NewDate(2024, 3, 4)); !errors.Is(err, ErrNoActiveCase) {
		t.Fatalf("expected ErrNoActiveCase after close, got %v", err)
	}
	if err := c.CloseCase(NewDate(2024, 3, 5)); !errors.Is(err, ErrNoActiveCase) {
		t.Fatalf("double close should fail, got %v", err)
	}

	records := []Record{c}
	if _, ok := ActiveCase(records); ok {
		t.Fatalf("closed case must not appear as active")
	}
	if got := len(CompletedCases(records)); got != 1 {
		t.Fatalf("expected 1 completed case, got %d", got)
	}
}

func TestQuickRepeat(t *testing.T) {
	last, _ := NewDayRecord(NewDate(2024, 3, 1), Home, Night, StatusPostOp, 130000)

	repeated, err := QuickRepeat(last, NewDate(2024, 3, 2))
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if repeated.ID == last.ID {
		t.Fatalf("repeated record must get a fresh id")
	}
	if !repeated.Date.Equal(NewDate(2024, 3, 2)) {
		t.Fatalf("repeated date got %s", repeated.Date.ISO())
	}
	if repeated.WorkType != last.WorkType || repeated.WorkHours != last.WorkHours ||
		repeated.PatientStatus != last.PatientStatus || repeated.PayWon != last.PayWon {
		t.Fatalf("repeated record differs: %+v vs %+v", repeated, last)
	}

	c, _ := StartCase(nil, NewDate(2024, 3, 1), Hospital, RoundTheClock, StatusBase, 100000)
	if _, err := QuickRepeat(c, NewDate(2024, 3, 2)); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("repeating a case should fail, got %v", err)
	}
}

func TestCollectionQueries(t *testing.T) {
	d1, _ := NewDayRecord(NewDate(2024, 3, 1), Hospital, Daytime, StatusBase, 110000)
	d2, _ := NewDayRecord(NewDate(2024, 3, 3), Home, Night, StatusBase, 120000)
	c, _ := StartCase(nil, NewDate(2024, 3, 4), Hospital, RoundTheClock, StatusDementia, 100000)
	_ = c.AddWorkDay(NewDate(2024, 3, 4))
	records := []Record{d1, c, d2}

	if got := len(DayRecords(records)); got != 2 {
		t.Fatalf("day records = %d, want 2", got)
	}
	if got := len(CaseRecords(records)); got != 1 {
		t.Fatalf("case records = %d, want 1", got)
	}

	last, ok := LastDayRecord(records)
	if !ok || !last.Date.Equal(NewDate(2024, 3, 3)) {
		t.Fatalf("last day record got %v %v", ok, last.Date.ISO())
	}

	if !HasRecordOn(records, NewDate(2024, 3, 1)) {
		t.Fatalf("day record date should count as recorded")
	}
	if !HasRecordOn(records, NewDate(2024, 3, 4)) {
		t.Fatalf("active case work day should count as recorded")
	}
	if HasRecordOn(records, NewDate(2024, 3, 9)) {
		t.Fatalf("unrecorded date reported as recorded")
	}

	days, ok := DaysSinceLastRecord(records, NewDate(2024, 3, 10))
	if !ok || days != 7 {
		t.Fatalf("days since last record got %v %v, want 7", days, ok)
	}
	if _, ok := DaysSinceLastRecord(nil, NewDate(2024, 3, 10)); ok {
		t.Fatalf("empty collection has no last record")
	}
}
