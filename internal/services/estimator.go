package services

import (
	"carenote/internal/core"
)

// Region is a supported service area for cost estimates.
type Region string

const (
	Suncheon Region = "suncheon"
	Gwangju  Region = "gwangju"
	Seoul    Region = "seoul"
)

// Severity buckets patients for pricing. "severe" covers dementia,
// post-operative and immobile patients.
type Severity string

const (
	SeverityBase   Severity = "base"
	SeveritySevere Severity = "severe"
)

// wonRange is a min-max daily cost band in won.
type wonRange struct {
	Min int64
	Max int64
}

// Daily cost bands by region, workplace and severity.
var costMatrix = map[Region]map[core.WorkPlace]map[Severity]wonRange{
	Suncheon: {
		core.Hospital: {SeverityBase: {120000, 150000}, SeveritySevere: {150000, 180000}},
		core.Home:     {SeverityBase: {100000, 130000}, SeveritySevere: {130000, 160000}},
	},
	Gwangju: {
		core.Hospital: {SeverityBase: {130000, 160000}, SeveritySevere: {160000, 190000}},
		core.Home:     {SeverityBase: {110000, 140000}, SeveritySevere: {140000, 170000}},
	},
	Seoul: {
		core.Hospital: {SeverityBase: {150000, 190000}, SeveritySevere: {190000, 230000}},
		core.Home:     {SeverityBase: {130000, 170000}, SeveritySevere: {170000, 210000}},
	},
}

// Estimate is the projected cost band for a stay.
type Estimate struct {
	Region    Region         `json:"region"`
	Workplace core.WorkPlace `json:"workplace"`
	Severity  Severity       `json:"severity"`
	Days      int            `json:"days"`
	DailyMin  int64          `json:"dailyMin"`
	DailyMax  int64          `json:"dailyMax"`
	TotalMin  int64          `json:"totalMin"`
	TotalMax  int64          `json:"totalMax"`
}

// EstimateCost projects the min-max cost of a stay. Unknown inputs fall
// back to the Suncheon hospital base band rather than failing; days
// below zero are treated as zero.
func EstimateCost(region Region, place core.WorkPlace, severity Severity, days int) Estimate {
	regional, ok := costMatrix[region]
	if !ok {
		region = Suncheon
		regional = costMatrix[Suncheon]
	}
	byPlace, ok := regional[place]
	if !ok {
		place = core.Hospital
		byPlace = regional[core.Hospital]
	}
	band, ok := byPlace[severity]
	if !ok {
		severity = SeverityBase
		band = byPlace[SeverityBase]
	}
	if days < 0 {
		days = 0
	}
	return Estimate{
		Region:    region,
		Workplace: place,
		Severity:  severity,
		Days:      days,
		DailyMin:  band.Min,
		DailyMax:  band.Max,
		TotalMin:  band.Min * int64(days),
		TotalMax:  band.Max * int64(days),
	}
}

// SeverityForStatus maps a patient status onto a pricing severity.
func SeverityForStatus(status core.PatientStatus) Severity {
	if status == core.StatusBase {
		return SeverityBase
	}
	return SeveritySevere
}
