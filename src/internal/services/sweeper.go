package services

import (
	"context"
	"log"
	"time"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
	"github.com/wilpowatech/wilpowa-academy/src/internal/ports"
)

// DefaultSweepInterval is how often the sweeper looks for enrollments that
// have passed their expected end date.
const DefaultSweepInterval = time.Hour

const sweepLockKey = "enrollment_sweep"

type EnrollmentSweeper struct {
	repo     ports.EnrollmentRepository
	lock     ports.SweepLock
	interval time.Duration
}

// NewEnrollmentSweeper builds a sweeper. lock may be nil when a single API
// instance runs; with replicas it keeps sweeps from overlapping.
func NewEnrollmentSweeper(repo ports.EnrollmentRepository, lock ports.SweepLock, interval time.Duration) *EnrollmentSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &EnrollmentSweeper{repo: repo, lock: lock, interval: interval}
}

// Start marks overdue active enrollments as completed periodically
func (s *EnrollmentSweeper) Start(ctx context.Context) {
	log.Println("Starting Enrollment Sweeper...")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *EnrollmentSweeper) sweep(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.TryAcquireLock(ctx, sweepLockKey, int(s.interval.Seconds()))
		if err != nil {
			log.Printf("[Sweeper] Failed to check sweep lock: %v", err)
			return
		}
		if !acquired {
			// Another replica holds the round.
			return
		}
		defer s.lock.ReleaseLock(ctx, sweepLockKey)
	}

	active, err := s.repo.ListByStatus(ctx, domain.EnrollmentActive)
	if err != nil {
		log.Printf("[Sweeper] Failed to list active enrollments: %v", err)
		return
	}

	now := time.Now()
	for _, enrollment := range active {
		if enrollment.ExpectedEndDate.After(now) {
			continue
		}

		enrollment.Status = domain.EnrollmentCompleted
		if err := s.repo.Save(ctx, &enrollment); err != nil {
			log.Printf("[Sweeper] Failed to complete enrollment %s: %v", enrollment.ID, err)
			continue
		}
		log.Printf("[Sweeper] Enrollment %s (%s) passed its expected end date, marked completed",
			enrollment.ID, enrollment.Course.Title)
	}
}
