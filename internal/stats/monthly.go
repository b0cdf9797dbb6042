// Package stats computes monthly and lifetime aggregates over a
// work-record collection. All functions are pure: they take a snapshot
// of the collection and never touch storage.
package stats

import (
	"math"

	"carenote/internal/core"
)

// MonthlyStats is the per-month aggregate consumed by the stats view.
// AvgDayWage and AvgNightWage are nil when no work-day of that shift
// type fell in the month, which is distinct from a computed zero.
type MonthlyStats struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	WorkDays     int    `json:"workDays"`
	TotalIncome  int64  `json:"totalIncome"`
	AvgWage      int64  `json:"avgWage"`
	AvgDayWage   *int64 `json:"avgDayWage"`
	AvgNightWage *int64 `json:"avgNightWage"`
}

// Monthly buckets the collection by exact calendar month and aggregates
// work days and income. A case's per-day rate is charged once per
// qualifying recorded work-day, never once per case.
func Monthly(records []core.Record, year, month int) MonthlyStats {
	out := MonthlyStats{Year: year, Month: month}

	var (
		dayCount, nightCount   int
		dayIncome, nightIncome int64
	)

	for i := range records {
		r := &records[i]
		switch r.Kind {
		case core.KindDay:
			if !r.Date.InMonth(year, month) {
				continue
			}
			out.WorkDays++
			out.TotalIncome += r.PayWon
			switch r.WorkHours {
			case core.Daytime:
				dayCount++
				dayIncome += r.PayWon
			case core.Night:
				nightCount++
				nightIncome += r.PayWon
			}
		case core.KindCase:
			n := 0
			for _, d := range r.DaysWorked {
				if d.InMonth(year, month) {
					n++
				}
			}
			if n == 0 {
				continue
			}
			income := int64(n) * r.PayWon
			out.WorkDays += n
			out.TotalIncome += income
			switch r.WorkHours {
			case core.Daytime:
				dayCount += n
				dayIncome += income
			case core.Night:
				nightCount += n
				nightIncome += income
			}
		}
	}

	if out.WorkDays > 0 {
		out.AvgWage = roundDiv(out.TotalIncome, out.WorkDays)
	}
	if dayCount > 0 {
		avg := roundDiv(dayIncome, dayCount)
		out.AvgDayWage = &avg
	}
	if nightCount > 0 {
		avg := roundDiv(nightIncome, nightCount)
		out.AvgNightWage = &avg
	}
	return out
}

// roundDiv divides and rounds half away from zero, keeping all monetary
// results in whole won.
func roundDiv(total int64, count int) int64 {
	return int64(math.Round(float64(total) / float64(count)))
}

// roundPercent returns round(part/total*100), or 0 when total is 0.
func roundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
