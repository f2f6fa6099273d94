package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/luaraperilli/classroom-feedback-analyzer/internal/model"
)

// FeedbackFilter bounds a feedback listing. Zero values mean unconstrained;
// Start is inclusive.
type FeedbackFilter struct {
	SubjectID string
	Start     *time.Time
	End       *time.Time
}

func (s *Store) CreateFeedback(ctx context.Context, feedback model.Feedback) error {
	var ratings []byte
	if feedback.Ratings != nil {
		var err error
		ratings, err = json.Marshal(feedback.Ratings)
		if err != nil {
			return err
		}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedbacks (id, student_id, subject_id, text, additional_comment,
			compound, neg, neu, pos, ratings, overall_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, feedback.ID, feedback.StudentID, feedback.SubjectID, feedback.Text,
		feedback.AdditionalComment, feedback.Compound, feedback.Neg, feedback.Neu,
		feedback.Pos, ratings, feedback.OverallScore, feedback.CreatedAt)
	return err
}

// FeedbackWithNames joins the student and subject display names the
// dashboard shows alongside each record.
type FeedbackWithNames struct {
	model.Feedback
	StudentUsername string
	SubjectName     string
}

func (s *Store) ListFeedbacks(ctx context.Context, filter FeedbackFilter) ([]FeedbackWithNames, error) {
	query := `
		SELECT f.id, f.student_id, u.username, f.subject_id, s.name, f.text,
			f.additional_comment, f.compound, f.neg, f.neu, f.pos, f.ratings,
			f.overall_score, f.created_at
		FROM feedbacks f
		JOIN users u ON u.id = f.student_id
		JOIN subjects s ON s.id = f.subject_id
		WHERE ($1 = '' OR f.subject_id = $1)
			AND ($2::timestamptz IS NULL OR f.created_at >= $2)
			AND ($3::timestamptz IS NULL OR f.created_at <= $3)
		ORDER BY f.created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, filter.SubjectID, filter.Start, filter.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feedbacks []FeedbackWithNames
	for rows.Next() {
		var f FeedbackWithNames
		var ratings []byte
		if err := rows.Scan(&f.ID, &f.StudentID, &f.StudentUsername, &f.SubjectID,
			&f.SubjectName, &f.Text, &f.AdditionalComment, &f.Compound, &f.Neg,
			&f.Neu, &f.Pos, &ratings, &f.OverallScore, &f.CreatedAt); err != nil {
			return nil, err
		}
		if len(ratings) > 0 {
			if err := json.Unmarshal(ratings, &f.Ratings); err != nil {
				return nil, err
			}
		}
		feedbacks = append(feedbacks, f)
	}
	return feedbacks, rows.Err()
}

// RiskAggregate is the per-student-per-subject rollup the risk scorer
// consumes.
type RiskAggregate struct {
	StudentID        string
	StudentUsername  string
	SubjectID        string
	SubjectName      string
	AverageScore     *float64
	AverageSentiment *float64
	FeedbackCount    int
}

func (s *Store) RiskAggregates(ctx context.Context, subjectID string) ([]RiskAggregate, error) {
	query := `
		SELECT f.student_id, u.username, f.subject_id, s.name,
			AVG(f.overall_score), AVG(f.compound), COUNT(*)
		FROM feedbacks f
		JOIN users u ON u.id = f.student_id
		JOIN subjects s ON s.id = f.subject_id
		WHERE ($1 = '' OR f.subject_id = $1)
		GROUP BY f.student_id, u.username, f.subject_id, s.name
	`
	rows, err := s.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggregates []RiskAggregate
	for rows.Next() {
		var a RiskAggregate
		if err := rows.Scan(&a.StudentID, &a.StudentUsername, &a.SubjectID,
			&a.SubjectName, &a.AverageScore, &a.AverageSentiment, &a.FeedbackCount); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}
