// Package usage describes model token spend reports.
package usage

import "time"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value onto a Period. Empty defaults to day.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, true
	case PeriodMonth:
		return PeriodMonth, true
	default:
		return "", false
	}
}

// Report is a token spend snapshot for one budget period.
type Report struct {
	period    Period
	start     time.Time
	end       time.Time
	limit     int64
	used      int64
	remaining int64
}

// NewReport creates a usage report. limit 0 means unlimited.
func NewReport(period Period, start, end time.Time, limit, used, remaining int64) Report {
	return Report{
		period:    period,
		start:     start,
		end:       end,
		limit:     limit,
		used:      used,
		remaining: remaining,
	}
}

// Period returns the aggregation granularity.
func (r Report) Period() Period { return r.period }

// Start returns the period start.
func (r Report) Start() time.Time { return r.start }

// ResetsAt returns the moment the counters roll over.
func (r Report) ResetsAt() time.Time { return r.end }

// Limit returns the token cap, 0 when unlimited.
func (r Report) Limit() int64 { return r.limit }

// Used returns tokens consumed in the period.
func (r Report) Used() int64 { return r.used }

// Remaining returns tokens left, -1 when unlimited.
func (r Report) Remaining() int64 { return r.remaining }

// Exhausted reports whether a capped budget is spent.
func (r Report) Exhausted() bool { return r.limit > 0 && r.remaining <= 0 }
