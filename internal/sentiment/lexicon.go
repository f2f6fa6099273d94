package sentiment

import (
	"context"
	"strings"
	"time"
)

// LexiconAnalyzer is a coarse word-list scorer. It exists so the service
// runs without the model sidecar (local development, tests); scores are
// rough but directionally correct for typical lesson feedback.
type LexiconAnalyzer struct{}

var positiveWords = map[string]struct{}{
	"bom": {}, "boa": {}, "otimo": {}, "otima": {}, "excelente": {},
	"clara": {}, "claro": {}, "gostei": {}, "adorei": {}, "ajudou": {},
	"ajudaram": {}, "entendi": {}, "aprendi": {}, "fantastica": {},
	"fantastico": {}, "interessante": {}, "relevante": {}, "pratica": {},
	"pratico": {}, "bem": {}, "melhor": {}, "util": {}, "didatica": {},
	"didatico": {}, "motivador": {}, "motivadora": {}, "perfeito": {},
	"perfeita": {}, "maravilhosa": {}, "maravilhoso": {},
}

var negativeWords = map[string]struct{}{
	"ruim": {}, "pessimo": {}, "pessima": {}, "confuso": {}, "confusa": {},
	"dificil": {}, "dificuldade": {}, "rapido": {}, "abstrato": {},
	"abstrata": {}, "cansativa": {}, "cansativo": {}, "chata": {},
	"chato": {}, "perdido": {}, "perdida": {}, "fraco": {}, "fraca": {},
	"desorganizada": {}, "desorganizado": {}, "pior": {}, "mal": {},
	"problema": {}, "desmotivador": {}, "desmotivadora": {},
}

func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{}
}

func (a *LexiconAnalyzer) Analyze(_ context.Context, text string) (Scores, error) {
	if isBlank(text) {
		return neutral(), nil
	}

	var pos, neg float64
	negate := false
	for _, word := range tokenize(text) {
		// "não gostei" must not count as positive.
		if word == "nao" || word == "nunca" {
			negate = true
			continue
		}
		if _, ok := positiveWords[word]; ok {
			if negate {
				neg++
			} else {
				pos++
			}
		} else if _, ok := negativeWords[word]; ok {
			if negate {
				pos++
			} else {
				neg++
			}
		}
		negate = false
	}

	hits := pos + neg
	if hits == 0 {
		return neutral(), nil
	}
	// +1 keeps probabilities off the extremes for short texts.
	posP := pos / (hits + 1)
	negP := neg / (hits + 1)
	return Scores{
		Compound: round4(posP - negP),
		Neg:      round4(negP),
		Neu:      round4(1 - posP - negP),
		Pos:      round4(posP),
	}, nil
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		if folded, ok := accentFold[r]; ok {
			return folded
		}
		return r
	}, text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

var accentFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'ã': 'a', 'â': 'a',
	'é': 'e', 'ê': 'e',
	'í': 'i',
	'ó': 'o', 'ô': 'o', 'õ': 'o',
	'ú': 'u', 'ü': 'u',
	'ç': 'c',
}

// New picks the sidecar-backed analyzer when an address is configured and
// the lexicon fallback otherwise.
func New(sidecarAddr string, timeout time.Duration) Analyzer {
	if sidecarAddr != "" {
		return NewHTTPAnalyzer(sidecarAddr, timeout)
	}
	return NewLexiconAnalyzer()
}
