package model

import "time"

const (
	RoleStudent     = "aluno"
	RoleProfessor   = "professor"
	RoleCoordinator = "coordenador"
)

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleProfessor, RoleCoordinator:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type Subject struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Feedback is one stored submission. Sentiment fields are nil for
// ratings-only submissions that carried no analyzable text.
type Feedback struct {
	ID                string
	StudentID         string
	SubjectID         string
	Text              string
	AdditionalComment *string
	Compound          *float64
	Neg               *float64
	Neu               *float64
	Pos               *float64
	Ratings           map[string]int
	OverallScore      *float64
	CreatedAt         time.Time
}

type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
