package analytics

import (
	"testing"
	"time"
)

func record(compound float64, createdAt time.Time) FeedbackRecord {
	return FeedbackRecord{Compound: &compound, CreatedAt: createdAt}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.PositiveCount != 0 || s.NeutralCount != 0 || s.NegativeCount != 0 {
		t.Fatalf("expected zero counts, got %+v", s)
	}
	if s.PositivePct != 0 || s.NeutralPct != 0 || s.NegativePct != 0 {
		t.Fatalf("expected zero percentages, got %+v", s)
	}
}

func TestSummarizeCountsAndPercentages(t *testing.T) {
	now := time.Now()
	records := []FeedbackRecord{
		record(0.8, now),
		record(0.05, now),
		record(0, now),
		record(-0.05, now),
		record(-0.9, now),
		{CreatedAt: now}, // no compound, counted neutral
	}
	s := Summarize(records)
	if s.PositiveCount != 2 || s.NeutralCount != 2 || s.NegativeCount != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if total := s.PositiveCount + s.NeutralCount + s.NegativeCount; total != len(records) {
		t.Fatalf("counts sum to %d, expected %d", total, len(records))
	}
	if s.PositivePct != 33.3 || s.NeutralPct != 33.3 || s.NegativePct != 33.3 {
		t.Fatalf("unexpected percentages: %+v", s)
	}
}

func TestDailyTrendSortsByDateNotLabel(t *testing.T) {
	// "01" < "31" lexicographically; the December day must still come first.
	december := time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC)
	january := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	records := []FeedbackRecord{
		record(0.5, january),
		record(-0.5, december),
		record(0.7, january),
	}
	points := DailyTrend(records)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[0].Date.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected December first, got %v", points[0].Date)
	}
	if points[0].AverageCompound != -0.5 {
		t.Fatalf("unexpected December average: %v", points[0].AverageCompound)
	}
	if points[1].AverageCompound != 0.6 {
		t.Fatalf("unexpected January average: %v", points[1].AverageCompound)
	}
}

func TestDailyTrendSkipsMissingCompound(t *testing.T) {
	day := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	records := []FeedbackRecord{
		record(0.4, day),
		{CreatedAt: day}, // grouped, excluded from the average
	}
	points := DailyTrend(records)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].AverageCompound != 0.4 {
		t.Fatalf("expected average 0.4, got %v", points[0].AverageCompound)
	}
}
