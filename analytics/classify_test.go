package analytics

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := map[float64]Sentiment{
		1:       Positive,
		0.5:     Positive,
		0.05:    Positive,
		0.0499:  Neutral,
		0:       Neutral,
		-0.0499: Neutral,
		-0.05:   Negative,
		-0.5:    Negative,
		-1:      Negative,
	}
	for compound, expect := range cases {
		if got := Classify(compound); got != expect {
			t.Fatalf("Classify(%v) = %s, expected %s", compound, got, expect)
		}
	}
}
