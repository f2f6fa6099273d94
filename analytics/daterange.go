package analytics

import "time"

// Period is the dashboard period selector.
type Period string

const (
	PeriodAll       Period = "all"
	Period7Days     Period = "7days"
	Period30Days    Period = "30days"
	PeriodThisMonth Period = "this_month"
)

// DateRange bounds a feedback query. A nil bound means unconstrained.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ResolvePeriod translates a period selector into concrete bounds relative
// to now. Lower bounds are truncated to local midnight. PeriodAll leaves
// both bounds nil on purpose: an unbounded query must not silently cap at
// the moment the selector was chosen. Unknown periods behave like PeriodAll.
func ResolvePeriod(period Period, now time.Time) DateRange {
	var start time.Time
	switch period {
	case Period7Days:
		start = midnight(now.AddDate(0, 0, -7))
	case Period30Days:
		start = midnight(now.AddDate(0, 0, -30))
	case PeriodThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return DateRange{}
	}
	end := now
	return DateRange{Start: &start, End: &end}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
