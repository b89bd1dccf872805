package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

type PostgresCourseRepo struct {
	db *sql.DB
}

func NewCourseRepo(db *sql.DB) *PostgresCourseRepo {
	return &PostgresCourseRepo{db: db}
}

func (r *PostgresCourseRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS courses (
			id VARCHAR(255) PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			duration_weeks INT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

func (r *PostgresCourseRepo) Save(ctx context.Context, course *domain.Course) error {
	query := `
		INSERT INTO courses (id, title, description, duration_weeks, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			duration_weeks = EXCLUDED.duration_weeks;
	`

	_, err := r.db.ExecContext(ctx, query,
		course.ID,
		course.Title,
		course.Description,
		course.DurationWeeks,
		course.CreatedAt,
	)
	return err
}

func (r *PostgresCourseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	query := `
		SELECT id, title, description, duration_weeks, created_at
		FROM courses
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	var course domain.Course
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.DurationWeeks,
		&course.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.New("course not found")
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *PostgresCourseRepo) ListAll(ctx context.Context) ([]domain.Course, error) {
	query := `
		SELECT id, title, description, duration_weeks, created_at
		FROM courses
		ORDER BY title ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		var course domain.Course
		err := rows.Scan(
			&course.ID,
			&course.Title,
			&course.Description,
			&course.DurationWeeks,
			&course.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	return courses, nil
}
