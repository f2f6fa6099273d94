// Package analytics holds the shared data shapes returned by the feedback
// API and the pure classification/aggregation functions every dashboard
// consumer uses. Keeping them in one place is deliberate: earlier revisions
// of the frontend re-derived these numbers inline per view and drifted.
package analytics

import "time"

// FeedbackRecord is one submitted feedback as returned by GET /feedbacks.
// Records are immutable on the client side; refetch instead of mutating.
type FeedbackRecord struct {
	ID                string         `json:"id"`
	StudentID         string         `json:"student_id"`
	StudentUsername   string         `json:"student_username"`
	SubjectID         string         `json:"subject_id"`
	SubjectName       string         `json:"subject_name"`
	Text              string         `json:"text,omitempty"`
	AdditionalComment *string        `json:"additional_comment,omitempty"`
	Compound          *float64       `json:"compound,omitempty"`
	Neg               *float64       `json:"neg,omitempty"`
	Neu               *float64       `json:"neu,omitempty"`
	Pos               *float64       `json:"pos,omitempty"`
	Ratings           map[string]int `json:"ratings,omitempty"`
	OverallScore      *float64       `json:"overall_score,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// RiskLevel is the coarse severity bucket computed server-side. The client
// treats it as an opaque enum plus RiskScore for ordering.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is one per-student-per-subject row from GET /students-at-risk.
type RiskAssessment struct {
	StudentID        string    `json:"student_id"`
	StudentUsername  string    `json:"student_username"`
	SubjectID        string    `json:"subject_id"`
	SubjectName      string    `json:"subject_name"`
	AverageScore     float64   `json:"average_score"`
	AverageSentiment *float64  `json:"average_sentiment,omitempty"`
	FeedbackCount    int       `json:"feedback_count"`
	RiskScore        float64   `json:"risk_score"`
	RiskLevel        RiskLevel `json:"risk_level"`
}
