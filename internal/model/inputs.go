package model

import "time"

// Dataset is the canonical "inputs to the system" object: a chronologically
// ordered, de-duplicated period series plus its granularity.
//
// A Dataset is never mutated after preparation; every component derives new
// tables from it.
type Dataset struct {
	Records []PeriodRecord

	// PeriodsPerHour is 4 for 15-minute settlement periods.
	PeriodsPerHour int
	Location       *time.Location
}

// PeriodsPerDay is the number of settlement periods in a nominal day.
func (d *Dataset) PeriodsPerDay() int { return d.PeriodsPerHour * 24 }

// Span returns the first and last timestamps, or zero times for an empty dataset.
func (d *Dataset) Span() (time.Time, time.Time) {
	if d == nil || len(d.Records) == 0 {
		return time.Time{}, time.Time{}
	}
	return d.Records[0].Timestamp, d.Records[len(d.Records)-1].Timestamp
}
