package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

type InMemoryStudentRepo struct {
	students map[string]domain.Student
	mu       sync.RWMutex
}

func NewStudentRepo() *InMemoryStudentRepo {
	return &InMemoryStudentRepo{
		students: make(map[string]domain.Student),
	}
}

func (r *InMemoryStudentRepo) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	student, ok := r.students[id]
	if !ok {
		return nil, errors.New("student not found")
	}
	return &student, nil
}

func (r *InMemoryStudentRepo) Save(ctx context.Context, student *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.students[student.ID] = *student
	return nil
}
