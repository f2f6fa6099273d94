package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPAnalyzer calls the model sidecar. The sidecar exposes POST /analyze
// taking {"text": ...} and returning the class probabilities.
type HTTPAnalyzer struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPAnalyzer(baseURL string, timeout time.Duration) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, text string) (Scores, error) {
	if isBlank(text) {
		return neutral(), nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Scores{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return Scores{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Scores{}, fmt.Errorf("sentiment sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Scores{}, fmt.Errorf("sentiment sidecar status %d", resp.StatusCode)
	}

	var body struct {
		Probas struct {
			Pos float64 `json:"POS"`
			Neu float64 `json:"NEU"`
			Neg float64 `json:"NEG"`
		} `json:"probas"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Scores{}, fmt.Errorf("malformed sidecar response: %w", err)
	}

	return Scores{
		Compound: round4(body.Probas.Pos - body.Probas.Neg),
		Neg:      round4(body.Probas.Neg),
		Neu:      round4(body.Probas.Neu),
		Pos:      round4(body.Probas.Pos),
	}, nil
}
