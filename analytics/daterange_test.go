package analytics

import (
	"testing"
	"time"
)

func TestResolvePeriod7Days(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	r := ResolvePeriod(Period7Days, now)
	if r.Start == nil || r.End == nil {
		t.Fatalf("expected both bounds, got %+v", r)
	}
	if !r.Start.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", r.Start)
	}
	if !r.End.Equal(now) {
		t.Fatalf("unexpected end: %v", r.End)
	}
}

func TestResolvePeriodThisMonth(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	r := ResolvePeriod(PeriodThisMonth, now)
	if r.Start == nil || !r.Start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", r.Start)
	}
}

func TestResolvePeriod30DaysCrossesMonths(t *testing.T) {
	now := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	r := ResolvePeriod(Period30Days, now)
	if r.Start == nil || !r.Start.Equal(time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", r.Start)
	}
}

func TestResolvePeriodAllIsUnbounded(t *testing.T) {
	r := ResolvePeriod(PeriodAll, time.Now())
	if r.Start != nil || r.End != nil {
		t.Fatalf("expected unbounded range, got %+v", r)
	}
	// Unknown selectors degrade to unbounded rather than guessing.
	r = ResolvePeriod(Period("fortnight"), time.Now())
	if r.Start != nil || r.End != nil {
		t.Fatalf("expected unbounded range for unknown period, got %+v", r)
	}
}
