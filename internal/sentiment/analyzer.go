// Package sentiment scores Portuguese feedback text. The real model runs in
// a sidecar service; a small lexicon fallback keeps the backend usable when
// no sidecar is configured.
package sentiment

import (
	"context"
	"math"
	"strings"
)

// Scores mirror the analyzer output: class probabilities plus a compound in
// [-1, 1] computed as P(pos) - P(neg).
type Scores struct {
	Compound float64 `json:"compound"`
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
}

type Analyzer interface {
	Analyze(ctx context.Context, text string) (Scores, error)
}

// neutral is the verdict for blank input; no model call is made for it.
func neutral() Scores {
	return Scores{Compound: 0, Neg: 0, Neu: 1, Pos: 0}
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
