package repository

import "context"

// EnsureSchema creates every table the service needs. The statements are
// idempotent so startup can run them unconditionally.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS professor_subjects (
			professor_id TEXT NOT NULL REFERENCES users(id),
			subject_id TEXT NOT NULL REFERENCES subjects(id),
			assigned_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (professor_id, subject_id)
		)`,
		`CREATE TABLE IF NOT EXISTS feedbacks (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL REFERENCES users(id),
			subject_id TEXT NOT NULL REFERENCES subjects(id),
			text TEXT NOT NULL,
			additional_comment TEXT,
			compound DOUBLE PRECISION,
			neg DOUBLE PRECISION,
			neu DOUBLE PRECISION,
			pos DOUBLE PRECISION,
			ratings JSONB,
			overall_score DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS feedbacks_subject_created_idx
			ON feedbacks (subject_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS refresh_token_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			token_hash TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
