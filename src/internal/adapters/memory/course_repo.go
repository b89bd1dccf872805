package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

type InMemoryCourseRepo struct {
	courses map[string]domain.Course
	mu      sync.RWMutex
}

func NewCourseRepo() *InMemoryCourseRepo {
	return &InMemoryCourseRepo{
		courses: make(map[string]domain.Course),
	}
}

func (r *InMemoryCourseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	course, ok := r.courses[id]
	if !ok {
		return nil, errors.New("course not found")
	}
	return &course, nil
}

// ListAll returns the catalog sorted by title, matching the order the
// postgres adapter produces.
func (r *InMemoryCourseRepo) ListAll(ctx context.Context) ([]domain.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	courses := make([]domain.Course, 0, len(r.courses))
	for _, course := range r.courses {
		courses = append(courses, course)
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Title != courses[j].Title {
			return courses[i].Title < courses[j].Title
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func (r *InMemoryCourseRepo) Save(ctx context.Context, course *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.courses[course.ID] = *course
	return nil
}
