package analytics

import (
	"math"
	"sort"
	"time"
)

// Summary is the per-bucket breakdown of a feedback set. Percentages are
// rounded to one decimal and are zero (not NaN) for an empty input.
type Summary struct {
	PositiveCount int     `json:"positive_count"`
	NeutralCount  int     `json:"neutral_count"`
	NegativeCount int     `json:"negative_count"`
	PositivePct   float64 `json:"positive_pct"`
	NeutralPct    float64 `json:"neutral_pct"`
	NegativePct   float64 `json:"negative_pct"`
}

func Summarize(records []FeedbackRecord) Summary {
	var s Summary
	for _, record := range records {
		if record.Compound == nil {
			s.NeutralCount++
			continue
		}
		switch Classify(*record.Compound) {
		case Positive:
			s.PositiveCount++
		case Negative:
			s.NegativeCount++
		default:
			s.NeutralCount++
		}
	}
	total := len(records)
	if total == 0 {
		return s
	}
	s.PositivePct = percentage(s.PositiveCount, total)
	s.NeutralPct = percentage(s.NeutralCount, total)
	s.NegativePct = percentage(s.NegativeCount, total)
	return s
}

func percentage(count, total int) float64 {
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// TrendPoint is the average compound for one calendar day.
type TrendPoint struct {
	Date            time.Time `json:"date"`
	AverageCompound float64   `json:"average_compound"`
}

// DailyTrend groups records by the calendar day of CreatedAt, averages the
// compound within each day and returns the points sorted by the actual date.
// Sorting happens on time values, never on formatted labels: "01/01/2025"
// must come after "31/12/2024". Records without a compound still anchor
// their day but are excluded from the average.
func DailyTrend(records []FeedbackRecord) []TrendPoint {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]*bucket)
	for _, record := range records {
		day := dayOf(record.CreatedAt)
		b := buckets[day]
		if b == nil {
			b = &bucket{}
			buckets[day] = b
		}
		if record.Compound != nil {
			b.sum += *record.Compound
			b.count++
		}
	}

	points := make([]TrendPoint, 0, len(buckets))
	for day, b := range buckets {
		point := TrendPoint{Date: day}
		if b.count > 0 {
			point.AverageCompound = b.sum / float64(b.count)
		}
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
