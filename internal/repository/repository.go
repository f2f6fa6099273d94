package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luaraperilli/classroom-feedback-analyzer/internal/model"
)

// ErrConflict reports a unique-constraint violation (duplicate username,
// subject name or assignment).
var ErrConflict = errors.New("conflict")

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`, username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	return user, err
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`, userID)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	return user, err
}

func (s *Store) ListProfessors(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE role = $1
		ORDER BY username
	`, model.RoleProfessor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var professors []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
			return nil, err
		}
		professors = append(professors, user)
	}
	return professors, rows.Err()
}

func (s *Store) CreateSubject(ctx context.Context, subject model.Subject) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subjects (id, name, created_at)
		VALUES ($1, $2, $3)
	`, subject.ID, subject.Name, subject.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *Store) GetSubject(ctx context.Context, subjectID string) (model.Subject, error) {
	var subject model.Subject
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM subjects WHERE id = $1
	`, subjectID)
	err := row.Scan(&subject.ID, &subject.Name, &subject.CreatedAt)
	return subject, err
}

func (s *Store) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, created_at FROM subjects ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var subject model.Subject
		if err := rows.Scan(&subject.ID, &subject.Name, &subject.CreatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func (s *Store) AssignSubject(ctx context.Context, subjectID, professorID string, assignedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO professor_subjects (professor_id, subject_id, assigned_at)
		VALUES ($1, $2, $3)
	`, professorID, subjectID, assignedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}
