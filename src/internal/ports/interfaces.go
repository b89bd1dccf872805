package ports

import (
	"context"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	ListAll(ctx context.Context) ([]domain.Course, error)
	Save(ctx context.Context, course *domain.Course) error
}

type EnrollmentRepository interface {
	// GetByID returns the enrollment with its course embedded.
	GetByID(ctx context.Context, id string) (*domain.Enrollment, error)
	// ListByStudent returns the student's enrollments, courses embedded,
	// in enrollment order. Callers must not re-sort.
	ListByStudent(ctx context.Context, studentID string) ([]domain.Enrollment, error)
	ListByStatus(ctx context.Context, status domain.EnrollmentStatus) ([]domain.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*domain.Enrollment, error)
	Save(ctx context.Context, enrollment *domain.Enrollment) error
}

type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	Save(ctx context.Context, student *domain.Student) error
}

// SweepLock serializes background sweeps across API replicas. TryAcquireLock
// returns false when another holder owns the key.
type SweepLock interface {
	TryAcquireLock(ctx context.Context, key string, ttlSeconds int) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// RosterDirectory is the frontend's view of the Academy API: the hosted
// data service the dashboard reads enrollments and courses from.
// Calls that act on behalf of a signed-in student carry their bearer token.
type RosterDirectory interface {
	ListEnrollments(ctx context.Context, token string) ([]domain.Enrollment, error)
	GetEnrollment(ctx context.Context, token, id string) (*domain.Enrollment, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	Enroll(ctx context.Context, token, courseID string) (*domain.Enrollment, error)
}
