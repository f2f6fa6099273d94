// Package client is the Go client for the classroom feedback API. It owns
// the authenticated session (token pair, silent refresh, retry-on-401) and
// exposes typed calls for every endpoint the dashboards consume.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luaraperilli/classroom-feedback-analyzer/analytics"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New builds a client against baseURL with credentials persisted in store.
// Call Session().Init before issuing authenticated requests.
func New(baseURL string, store CredentialStore) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    NewSession(strings.TrimRight(baseURL, "/"), store, httpClient),
	}
}

func (c *Client) Session() *Session { return c.session }

// Login authenticates and adopts the returned token pair into the session.
func (c *Client) Login(ctx context.Context, username, password string) (*Identity, error) {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		AccessToken  string   `json:"access_token"`
		RefreshToken string   `json:"refresh_token"`
		User         Identity `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, &resp); err != nil {
		return nil, err
	}
	if err := c.session.Login(resp.AccessToken, resp.RefreshToken, &resp.User); err != nil {
		return nil, err
	}
	return c.session.User(), nil
}

// Logout revokes the stored refresh session server-side, best effort, then
// clears local credentials. Local state clears even when the revoke call
// fails; the abandoned server session then dies by its own TTL.
func (c *Client) Logout(ctx context.Context) {
	if refresh := c.session.currentRefreshToken(); refresh != "" {
		if resp, err := c.send(ctx, http.MethodPost, "/logout", nil, nil, refresh); err == nil {
			drain(resp)
		}
	}
	c.session.Logout()
}

func (c *Client) Register(ctx context.Context, username, password, role string) error {
	body := map[string]string{"username": username, "password": password, "role": role}
	return c.do(ctx, http.MethodPost, "/register", nil, body, nil)
}

// AnalyzeRequest is one feedback submission: free text, structured ratings,
// or both, always tied to a subject.
type AnalyzeRequest struct {
	SubjectID         string         `json:"subject_id"`
	Text              string         `json:"text,omitempty"`
	Ratings           map[string]int `json:"ratings,omitempty"`
	AdditionalComment string         `json:"additional_comment,omitempty"`
}

// SentimentScores is the analyzer verdict echoed back on submission.
type SentimentScores struct {
	Compound     *float64 `json:"compound,omitempty"`
	Neg          *float64 `json:"neg,omitempty"`
	Neu          *float64 `json:"neu,omitempty"`
	Pos          *float64 `json:"pos,omitempty"`
	OverallScore *float64 `json:"overall_score,omitempty"`
}

func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (SentimentScores, error) {
	var scores SentimentScores
	err := c.do(ctx, http.MethodPost, "/analyze", nil, req, &scores)
	return scores, err
}

// Filter scopes feedback queries by subject and date range.
type Filter struct {
	SubjectID string
	Range     analytics.DateRange
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.SubjectID != "" {
		q.Set("subject_id", f.SubjectID)
	}
	if f.Range.Start != nil {
		q.Set("start_date", f.Range.Start.Format(time.RFC3339))
	}
	if f.Range.End != nil {
		q.Set("end_date", f.Range.End.Format(time.RFC3339))
	}
	return q
}

func (c *Client) Feedbacks(ctx context.Context, filter Filter) ([]analytics.FeedbackRecord, error) {
	var records []analytics.FeedbackRecord
	if err := c.do(ctx, http.MethodGet, "/feedbacks", filter.query(), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) Subjects(ctx context.Context) ([]Subject, error) {
	var subjects []Subject
	if err := c.do(ctx, http.MethodGet, "/subjects", nil, nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

type Professor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (c *Client) Professors(ctx context.Context) ([]Professor, error) {
	var professors []Professor
	if err := c.do(ctx, http.MethodGet, "/admin/professors", nil, nil, &professors); err != nil {
		return nil, err
	}
	return professors, nil
}

func (c *Client) CreateSubject(ctx context.Context, name string) (Subject, error) {
	var subject Subject
	err := c.do(ctx, http.MethodPost, "/admin/subjects", nil, map[string]string{"name": name}, &subject)
	return subject, err
}

func (c *Client) AssignSubject(ctx context.Context, subjectID, professorID string) error {
	body := map[string]string{"professor_id": professorID}
	return c.do(ctx, http.MethodPost, "/admin/subjects/"+subjectID+"/assign", nil, body, nil)
}

func (c *Client) StudentsAtRisk(ctx context.Context, subjectID string, minRisk analytics.RiskLevel) ([]analytics.RiskAssessment, error) {
	q := url.Values{}
	if subjectID != "" {
		q.Set("subject_id", subjectID)
	}
	if minRisk != "" {
		q.Set("min_risk", string(minRisk))
	}
	var assessments []analytics.RiskAssessment
	if err := c.do(ctx, http.MethodGet, "/students-at-risk", q, nil, &assessments); err != nil {
		return nil, err
	}
	return assessments, nil
}

// do runs one API call as a two-attempt state machine: attempt one with the
// current token; on 401, refresh and retry exactly once with the new token;
// any outcome of the second attempt is terminal. The single retry is the
// loop-prevention guarantee: a server that keeps rejecting refreshed tokens
// surfaces ErrSessionExpired instead of hammering /refresh.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	token := c.session.AccessToken()
	resp, err := c.send(ctx, method, path, query, payload, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		drain(resp)
		if err := c.session.refreshIfStale(ctx, token); err != nil {
			return fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		resp, err = c.send(ctx, method, path, query, payload, c.session.AccessToken())
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			c.session.Logout()
			return ErrSessionExpired
		}
	}

	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &ServerError{StatusCode: resp.StatusCode, Message: "malformed response body"}
		}
		return nil
	}

	message := serverMessage(resp.Body)
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode, Message: message}
	}
	return &ValidationError{StatusCode: resp.StatusCode, Message: message}
}

// serverMessage pulls the human-readable message out of an error body. The
// API uses both {"error": ...} and {"message": ...} shapes.
func serverMessage(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
