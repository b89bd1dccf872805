package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
	"github.com/wilpowatech/wilpowa-academy/src/internal/ports"
)

// DefaultViewIdleTimeout is how long a dashboard view survives without a
// poll before the watchdog closes it. Three missed poll intervals means
// the browser tab is gone.
const DefaultViewIdleTimeout = 3 * DefaultTickInterval

// CardState is one enrollment card as the dashboard renders it: the
// enrollment row plus the latest countdown snapshot.
type CardState struct {
	EnrollmentID    string                  `json:"enrollmentId"`
	CourseID        string                  `json:"courseId"`
	CourseTitle     string                  `json:"courseTitle"`
	Description     string                  `json:"description"`
	DurationWeeks   int                     `json:"durationWeeks"`
	Status          domain.EnrollmentStatus `json:"status"`
	StartDate       time.Time               `json:"startDate"`
	ExpectedEndDate time.Time               `json:"expectedEndDate"`
	Remaining       domain.TimeRemaining    `json:"remaining"`
	AsOf            time.Time               `json:"asOf"`
}

// DashboardView holds one student's loaded enrollments and a live countdown
// tracker per card. Views are created by DashboardService.OpenView and must
// be closed through the service so the trackers are released.
type DashboardView struct {
	studentID   string
	enrollments []domain.Enrollment
	trackers    []*CountdownTracker
	fetchedAt   time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (v *DashboardView) StudentID() string    { return v.studentID }
func (v *DashboardView) FetchedAt() time.Time { return v.fetchedAt }

// Empty reports whether the student has no enrollments to show.
func (v *DashboardView) Empty() bool { return len(v.enrollments) == 0 }

// Cards returns the card states in enrollment order, each with the latest
// countdown snapshot.
func (v *DashboardView) Cards() []CardState {
	cards := make([]CardState, 0, len(v.enrollments))
	for i, e := range v.enrollments {
		remaining, _ := v.trackers[i].Snapshot()
		cards = append(cards, CardState{
			EnrollmentID:    e.ID,
			CourseID:        e.Course.ID,
			CourseTitle:     e.Course.Title,
			Description:     e.Course.Description,
			DurationWeeks:   e.Course.DurationWeeks,
			Status:          e.Status,
			StartDate:       e.StartDate,
			ExpectedEndDate: e.ExpectedEndDate,
			Remaining:       remaining,
			AsOf:            v.trackers[i].ComputedAt(),
		})
	}
	return cards
}

func (v *DashboardView) touch() {
	v.mu.Lock()
	v.lastSeen = time.Now()
	v.mu.Unlock()
}

func (v *DashboardView) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

func (v *DashboardView) close() {
	for _, t := range v.trackers {
		t.Stop()
	}
}

// DashboardService builds dashboard views from the roster directory and
// owns their countdown trackers. One view per student at a time: opening a
// new view closes the previous one.
type DashboardService struct {
	roster       ports.RosterDirectory
	tickInterval time.Duration
	idleAfter    time.Duration

	mu    sync.Mutex
	views map[string]*DashboardView
}

func NewDashboardService(roster ports.RosterDirectory, tickInterval, idleAfter time.Duration) *DashboardService {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if idleAfter <= 0 {
		idleAfter = DefaultViewIdleTimeout
	}
	return &DashboardService{
		roster:       roster,
		tickInterval: tickInterval,
		idleAfter:    idleAfter,
		views:        make(map[string]*DashboardView),
	}
}

// OpenView fetches the student's enrollments and starts a countdown tracker
// per card. A fetch failure degrades to the empty state rather than an
// error page; the student sees "no enrollments" and the next poll retries.
func (s *DashboardService) OpenView(ctx context.Context, studentID, token string) *DashboardView {
	enrollments, err := s.roster.ListEnrollments(ctx, token)
	if err != nil {
		log.Printf("[Dashboard] Failed to load enrollments for student %s: %v", studentID, err)
		enrollments = nil
	}

	now := time.Now()
	view := &DashboardView{
		studentID:   studentID,
		enrollments: enrollments,
		trackers:    make([]*CountdownTracker, 0, len(enrollments)),
		fetchedAt:   now,
		lastSeen:    now,
	}
	for _, e := range enrollments {
		view.trackers = append(view.trackers, NewCountdownTracker(e.ID, e.ExpectedEndDate, s.tickInterval))
	}

	s.mu.Lock()
	previous := s.views[studentID]
	s.views[studentID] = view
	s.mu.Unlock()

	if previous != nil {
		previous.close()
	}
	return view
}

// View returns the student's open view, or nil if none is open. Polling a
// view keeps it alive.
func (s *DashboardService) View(studentID string) *DashboardView {
	s.mu.Lock()
	view := s.views[studentID]
	s.mu.Unlock()

	if view != nil {
		view.touch()
	}
	return view
}

// CloseView stops the student's trackers and drops the view. Closing a
// student with no open view is a no-op.
func (s *DashboardService) CloseView(studentID string) {
	s.mu.Lock()
	view := s.views[studentID]
	delete(s.views, studentID)
	s.mu.Unlock()

	if view != nil {
		view.close()
	}
}

// Close releases every open view. Called on shutdown.
func (s *DashboardService) Close() {
	s.mu.Lock()
	views := s.views
	s.views = make(map[string]*DashboardView)
	s.mu.Unlock()

	for _, view := range views {
		view.close()
	}
}

// StartWatchdog closes views that have not been polled within the idle
// timeout, so trackers from abandoned tabs don't tick forever.
func (s *DashboardService) StartWatchdog(ctx context.Context) {
	log.Println("Starting Dashboard View Watchdog...")
	ticker := time.NewTicker(s.idleAfter / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			s.closeIdle(time.Now())
		}
	}
}

func (s *DashboardService) closeIdle(now time.Time) {
	s.mu.Lock()
	var idle []*DashboardView
	for studentID, view := range s.views {
		if now.Sub(view.idleSince()) > s.idleAfter {
			log.Printf("[Dashboard] Closing idle view for student %s", studentID)
			delete(s.views, studentID)
			idle = append(idle, view)
		}
	}
	s.mu.Unlock()

	for _, view := range idle {
		view.close()
	}
}
