package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

type InMemoryEnrollmentRepo struct {
	enrollments map[string]domain.Enrollment
	mu          sync.RWMutex
}

func NewEnrollmentRepo() *InMemoryEnrollmentRepo {
	return &InMemoryEnrollmentRepo{
		enrollments: make(map[string]domain.Enrollment),
	}
}

func (r *InMemoryEnrollmentRepo) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enrollment, ok := r.enrollments[id]
	if !ok {
		return nil, errors.New("enrollment not found")
	}
	return &enrollment, nil
}

// ListByStudent returns the student's enrollments in the order they were
// taken out, oldest first. The dashboard renders cards in this order.
func (r *InMemoryEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var enrollments []domain.Enrollment
	for _, enrollment := range r.enrollments {
		if enrollment.StudentID == studentID {
			enrollments = append(enrollments, enrollment)
		}
	}
	sortByEnrolledAt(enrollments)
	return enrollments, nil
}

func (r *InMemoryEnrollmentRepo) ListByStatus(ctx context.Context, status domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var enrollments []domain.Enrollment
	for _, enrollment := range r.enrollments {
		if enrollment.Status == status {
			enrollments = append(enrollments, enrollment)
		}
	}
	sortByEnrolledAt(enrollments)
	return enrollments, nil
}

func (r *InMemoryEnrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*domain.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, enrollment := range r.enrollments {
		if enrollment.StudentID == studentID && enrollment.Course.ID == courseID {
			result := enrollment
			return &result, nil
		}
	}
	return nil, errors.New("enrollment not found")
}

func (r *InMemoryEnrollmentRepo) Save(ctx context.Context, enrollment *domain.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enrollments[enrollment.ID] = *enrollment
	return nil
}

func sortByEnrolledAt(enrollments []domain.Enrollment) {
	sort.Slice(enrollments, func(i, j int) bool {
		if !enrollments[i].EnrolledAt.Equal(enrollments[j].EnrolledAt) {
			return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt)
		}
		return enrollments[i].ID < enrollments[j].ID
	})
}
