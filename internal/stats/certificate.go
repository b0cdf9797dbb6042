package stats

import (
	"math"

	"carenote/internal/core"
)

// CareerSummary holds the lifetime aggregates printed on the career
// certificate. Date bounds are nil and every counter and ratio is 0 on
// an empty collection.
type CareerSummary struct {
	FirstRecordDate *core.Date `json:"firstRecordDate"`
	LastRecordDate  *core.Date `json:"lastRecordDate"`
	PeriodDays      int        `json:"periodDays"`
	TotalWorkDays   int        `json:"totalWorkDays"`
	CaseCount       int        `json:"caseCount"`
	AvgPeriod       int        `json:"avgPeriod"`
	MaxPeriod       int        `json:"maxPeriod"`
	Ratio24h        int        `json:"ratio24h"`
	DementiaDays    int        `json:"dementiaDays"`
	ImmobileDays    int        `json:"immobileDays"`
	PostOpDays      int        `json:"postOpDays"`
	RatioHospital   int        `json:"ratioHospital"`
	RatioHome       int        `json:"ratioHome"`
}

// BuildCareerSummary aggregates the entire collection, not a single
// month. Day records contribute their own date once; case records
// contribute one unit per recorded work-day, weighted by the case's
// shift, status and workplace fields.
func BuildCareerSummary(records []core.Record) CareerSummary {
	var s CareerSummary

	var first, last core.Date
	observe := func(d core.Date) {
		if d.IsZero() {
			return
		}
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}

	var (
		total24h      int
		hospitalDays  int
		homeDays      int
		casePeriods   []int
		periodDaysSum int
	)

	for i := range records {
		r := &records[i]
		switch r.Kind {
		case core.KindDay:
			observe(r.Date)
			s.TotalWorkDays++
			if r.WorkHours == core.RoundTheClock {
				total24h++
			}
			switch r.PatientStatus {
			case core.StatusDementia:
				s.DementiaDays++
			case core.StatusImmobile:
				s.ImmobileDays++
			case core.StatusPostOp:
				s.PostOpDays++
			}
			switch r.Workplace() {
			case core.Hospital:
				hospitalDays++
			case core.Home:
				homeDays++
			}
		case core.KindCase:
			observe(r.StartDate)
			if r.EndDate != nil {
				observe(*r.EndDate)
			}
			for _, d := range r.DaysWorked {
				observe(d)
			}

			n := len(r.DaysWorked)
			s.TotalWorkDays += n
			if r.WorkHours == core.RoundTheClock {
				total24h += n
			}
			switch r.PatientStatus {
			case core.StatusDementia:
				s.DementiaDays += n
			case core.StatusImmobile:
				s.ImmobileDays += n
			case core.StatusPostOp:
				s.PostOpDays += n
			}
			switch r.Workplace() {
			case core.Hospital:
				hospitalDays += n
			case core.Home:
				homeDays += n
			}

			if r.EndDate != nil {
				s.CaseCount++
				if n > 0 {
					casePeriods = append(casePeriods, n)
					periodDaysSum += n
				}
			}
		}
	}

	if !first.IsZero() && !last.IsZero() {
		f, l := first, last
		s.FirstRecordDate = &f
		s.LastRecordDate = &l
		s.PeriodDays = core.DaysBetween(first, last) + 1
	}

	if len(casePeriods) > 0 {
		s.AvgPeriod = int(math.Round(float64(periodDaysSum) / float64(len(casePeriods))))
		for _, n := range casePeriods {
			if n > s.MaxPeriod {
				s.MaxPeriod = n
			}
		}
	}

	s.Ratio24h = roundPercent(total24h, s.TotalWorkDays)
	s.RatioHospital = roundPercent(hospitalDays, s.TotalWorkDays)
	s.RatioHome = roundPercent(homeDays, s.TotalWorkDays)
	return s
}
