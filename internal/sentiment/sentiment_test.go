package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLexiconAnalyzer(t *testing.T) {
	analyzer := NewLexiconAnalyzer()

	scores, err := analyzer.Analyze(context.Background(), "A aula foi excelente, gostei muito e o professor explicou bem.")
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if scores.Compound <= 0 {
		t.Fatalf("expected positive compound, got %v", scores.Compound)
	}

	scores, err = analyzer.Analyze(context.Background(), "Achei a aula confusa e tive muita dificuldade.")
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if scores.Compound >= 0 {
		t.Fatalf("expected negative compound, got %v", scores.Compound)
	}
}

func TestLexiconNegation(t *testing.T) {
	analyzer := NewLexiconAnalyzer()
	scores, err := analyzer.Analyze(context.Background(), "Não gostei da aula de hoje.")
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if scores.Compound >= 0 {
		t.Fatalf("expected negated positive to score negative, got %v", scores.Compound)
	}
}

func TestBlankTextIsNeutralWithoutModelCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	analyzer := NewHTTPAnalyzer(server.URL, time.Second)
	scores, err := analyzer.Analyze(context.Background(), "   ")
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if called {
		t.Fatalf("blank text must not reach the sidecar")
	}
	if scores.Neu != 1 || scores.Compound != 0 {
		t.Fatalf("expected neutral verdict, got %+v", scores)
	}
}

func TestHTTPAnalyzerParsesProbabilities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
			t.Errorf("bad request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]map[string]float64{
			"probas": {"POS": 0.81234, "NEU": 0.1, "NEG": 0.08766},
		})
	}))
	defer server.Close()

	analyzer := NewHTTPAnalyzer(server.URL, time.Second)
	scores, err := analyzer.Analyze(context.Background(), "aula excelente")
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	if scores.Compound != 0.7247 {
		t.Fatalf("expected compound 0.7247, got %v", scores.Compound)
	}
	if scores.Pos != 0.8123 || scores.Neg != 0.0877 {
		t.Fatalf("unexpected probabilities: %+v", scores)
	}
}
