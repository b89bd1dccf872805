package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

type PostgresEnrollmentRepo struct {
	db *sql.DB
}

func NewConnection(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func NewEnrollmentRepo(db *sql.DB) *PostgresEnrollmentRepo {
	return &PostgresEnrollmentRepo{db: db}
}

func (r *PostgresEnrollmentRepo) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS enrollments (
			id VARCHAR(255) PRIMARY KEY,
			student_id TEXT NOT NULL,
			course_id VARCHAR(255) NOT NULL REFERENCES courses(id),
			start_date TIMESTAMPTZ NOT NULL,
			expected_end_date TIMESTAMPTZ NOT NULL,
			status VARCHAR(50) NOT NULL, -- active, completed, dropped
			enrolled_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (student_id, course_id)
		);
	`)
	return err
}

func (r *PostgresEnrollmentRepo) Save(ctx context.Context, enrollment *domain.Enrollment) error {
	query := `
		INSERT INTO enrollments (id, student_id, course_id, start_date, expected_end_date, status, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			expected_end_date = EXCLUDED.expected_end_date,
			status = EXCLUDED.status;
	`

	_, err := r.db.ExecContext(ctx, query,
		enrollment.ID,
		enrollment.StudentID,
		enrollment.Course.ID,
		enrollment.StartDate,
		enrollment.ExpectedEndDate,
		string(enrollment.Status),
		enrollment.EnrolledAt,
	)
	return err
}

func (r *PostgresEnrollmentRepo) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	query := `
		SELECT e.id, e.student_id, e.start_date, e.expected_end_date, e.status, e.enrolled_at,
		       c.id, c.title, c.description, c.duration_weeks, c.created_at
		FROM enrollments e
		JOIN courses c ON e.course_id = c.id
		WHERE e.id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	var e domain.Enrollment
	var statusStr string
	err := row.Scan(
		&e.ID, &e.StudentID, &e.StartDate, &e.ExpectedEndDate, &statusStr, &e.EnrolledAt,
		&e.Course.ID, &e.Course.Title, &e.Course.Description, &e.Course.DurationWeeks, &e.Course.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.New("enrollment not found")
	}
	if err != nil {
		return nil, err
	}

	e.Status = domain.EnrollmentStatus(statusStr)
	return &e, nil
}

// ListByStudent returns the student's enrollments with their courses
// embedded, oldest enrollment first. The dashboard renders cards in
// exactly this order.
func (r *PostgresEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Enrollment, error) {
	query := `
		SELECT e.id, e.student_id, e.start_date, e.expected_end_date, e.status, e.enrolled_at,
		       c.id, c.title, c.description, c.duration_weeks, c.created_at
		FROM enrollments e
		JOIN courses c ON e.course_id = c.id
		WHERE e.student_id = $1
		ORDER BY e.enrolled_at ASC, e.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []domain.Enrollment
	for rows.Next() {
		var e domain.Enrollment
		var statusStr string
		err := rows.Scan(
			&e.ID, &e.StudentID, &e.StartDate, &e.ExpectedEndDate, &statusStr, &e.EnrolledAt,
			&e.Course.ID, &e.Course.Title, &e.Course.Description, &e.Course.DurationWeeks, &e.Course.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		e.Status = domain.EnrollmentStatus(statusStr)
		enrollments = append(enrollments, e)
	}
	return enrollments, nil
}

func (r *PostgresEnrollmentRepo) ListByStatus(ctx context.Context, status domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	query := `
		SELECT e.id, e.student_id, e.start_date, e.expected_end_date, e.status, e.enrolled_at,
		       c.id, c.title, c.description, c.duration_weeks, c.created_at
		FROM enrollments e
		JOIN courses c ON e.course_id = c.id
		WHERE e.status = $1
		ORDER BY e.enrolled_at ASC, e.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []domain.Enrollment
	for rows.Next() {
		var e domain.Enrollment
		var statusStr string
		err := rows.Scan(
			&e.ID, &e.StudentID, &e.StartDate, &e.ExpectedEndDate, &statusStr, &e.EnrolledAt,
			&e.Course.ID, &e.Course.Title, &e.Course.Description, &e.Course.DurationWeeks, &e.Course.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		e.Status = domain.EnrollmentStatus(statusStr)
		enrollments = append(enrollments, e)
	}
	return enrollments, nil
}

func (r *PostgresEnrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*domain.Enrollment, error) {
	query := `
		SELECT e.id, e.student_id, e.start_date, e.expected_end_date, e.status, e.enrolled_at,
		       c.id, c.title, c.description, c.duration_weeks, c.created_at
		FROM enrollments e
		JOIN courses c ON e.course_id = c.id
		WHERE e.student_id = $1 AND e.course_id = $2
	`

	row := r.db.QueryRowContext(ctx, query, studentID, courseID)

	var e domain.Enrollment
	var statusStr string
	err := row.Scan(
		&e.ID, &e.StudentID, &e.StartDate, &e.ExpectedEndDate, &statusStr, &e.EnrolledAt,
		&e.Course.ID, &e.Course.Title, &e.Course.Description, &e.Course.DurationWeeks, &e.Course.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.New("enrollment not found")
	}
	if err != nil {
		return nil, err
	}

	e.Status = domain.EnrollmentStatus(statusStr)
	return &e, nil
}
