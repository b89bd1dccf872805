package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

type PostgresStudentRepo struct {
	db *sql.DB
}

func NewStudentRepo(db *sql.DB) *PostgresStudentRepo {
	return &PostgresStudentRepo{db: db}
}

func (r *PostgresStudentRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			email TEXT,
			role VARCHAR(50) NOT NULL DEFAULT 'student',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			last_seen TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

func (r *PostgresStudentRepo) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	query := `
		SELECT id, email, role, created_at, last_seen
		FROM students
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var student domain.Student
	var roleStr string
	err := row.Scan(&student.ID, &student.Email, &roleStr, &student.CreatedAt, &student.LastSeen)
	if err == sql.ErrNoRows {
		return nil, errors.New("student not found")
	}
	if err != nil {
		return nil, err
	}

	student.Role = domain.Role(roleStr)
	return &student, nil
}

func (r *PostgresStudentRepo) Save(ctx context.Context, student *domain.Student) error {
	query := `
		INSERT INTO students (id, email, role, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			last_seen = EXCLUDED.last_seen;
	`
	_, err := r.db.ExecContext(ctx, query,
		student.ID,
		student.Email,
		string(student.Role),
		student.CreatedAt,
		student.LastSeen,
	)
	return err
}
