package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wilpowatech/wilpowa-academy/src/internal/adapters/roster"
	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
	"github.com/wilpowatech/wilpowa-academy/src/internal/services"
)

// stubRoster is an in-process RosterDirectory that records calls.
type stubRoster struct {
	enrollments []domain.Enrollment
	courses     []domain.Course
	listErr     error
	enrollErr   error
	enrolled    *domain.Enrollment

	listCalls   int
	enrollCalls int
	lastToken   string
	lastCourse  string
}

func (s *stubRoster) ListEnrollments(ctx context.Context, token string) ([]domain.Enrollment, error) {
	s.listCalls++
	s.lastToken = token
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.enrollments, nil
}

func (s *stubRoster) GetEnrollment(ctx context.Context, token, id string) (*domain.Enrollment, error) {
	for i := range s.enrollments {
		if s.enrollments[i].ID == id {
			return &s.enrollments[i], nil
		}
	}
	return nil, roster.ErrNotFound
}

func (s *stubRoster) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.courses, nil
}

func (s *stubRoster) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	for i := range s.courses {
		if s.courses[i].ID == id {
			return &s.courses[i], nil
		}
	}
	return nil, roster.ErrNotFound
}

func (s *stubRoster) Enroll(ctx context.Context, token, courseID string) (*domain.Enrollment, error) {
	s.enrollCalls++
	s.lastToken = token
	s.lastCourse = courseID
	if s.enrollErr != nil {
		return nil, s.enrollErr
	}
	return s.enrolled, nil
}

func newTestFrontend(t *testing.T, stub *stubRoster) *frontend {
	t.Helper()
	dashboards := services.NewDashboardService(stub, time.Hour, time.Hour)
	t.Cleanup(dashboards.Close)
	return &frontend{
		roster:     stub,
		auth:       &AuthService{},
		dashboards: dashboards,
		tmplDir:    "templates",
	}
}

func studentSession() *Session {
	return &Session{
		StudentID: "student-1",
		Email:     "student@wilpowa.test",
		Role:      string(domain.RoleStudent),
		Token:     "tok-student-1",
	}
}

func stubEnrollment(id, title string, end time.Time) domain.Enrollment {
	start := end.Add(-6 * 7 * 24 * time.Hour)
	return domain.Enrollment{
		ID:        id,
		StudentID: "student-1",
		Course: domain.Course{
			ID:            "course-" + id,
			Title:         title,
			Description:   "Hands-on " + title,
			DurationWeeks: 6,
		},
		StartDate:       start,
		ExpectedEndDate: end,
		Status:          domain.EnrollmentActive,
		EnrolledAt:      start,
	}
}

func TestDashboardRedirectsAnonymousToLogin(t *testing.T) {
	f := newTestFrontend(t, &stubRoster{})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	f.handleDashboard(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestDashboardUnknownPathIs404(t *testing.T) {
	f := newTestFrontend(t, &stubRoster{})

	req := httptest.NewRequest("GET", "/nonsense", nil)
	rec := httptest.NewRecorder()
	f.handleDashboard(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDashboardRendersEnrollmentCards(t *testing.T) {
	end := time.Now().Add(14*24*time.Hour + 30*time.Second)
	stub := &stubRoster{enrollments: []domain.Enrollment{
		stubEnrollment("enr-1", "Welding Basics", end),
		stubEnrollment("enr-2", "Advanced Plumbing", end.Add(24*time.Hour)),
	}}
	f := newTestFrontend(t, stub)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	f.serveDashboard(rec, req, studentSession())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		`data-enrollment-id="enr-1"`,
		`data-enrollment-id="enr-2"`,
		"Welding Basics",
		"Advanced Plumbing",
		`data-unit="weeks">2<`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if stub.listCalls != 1 {
		t.Errorf("expected one roster fetch, got %d", stub.listCalls)
	}
	if stub.lastToken != "tok-student-1" {
		t.Errorf("expected the session token to reach the roster, got %q", stub.lastToken)
	}
}

func TestDashboardOtherRolesSkipRosterFetch(t *testing.T) {
	stub := &stubRoster{}
	f := newTestFrontend(t, stub)

	sess := studentSession()
	sess.Role = string(domain.RoleTutor)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	f.serveDashboard(rec, req, sess)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.listCalls != 0 {
		t.Errorf("expected no roster fetch for a tutor, got %d", stub.listCalls)
	}
	if !strings.Contains(rec.Body.String(), "Browse the course catalog") {
		t.Error("expected the empty state for non-students")
	}
}

func TestDashboardEmptyStateWithoutEnrollments(t *testing.T) {
	f := newTestFrontend(t, &stubRoster{})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	f.serveDashboard(rec, req, studentSession())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not enrolled in any courses") {
		t.Error("expected the browse-courses empty state")
	}
}

func TestDashboardStateReturnsCountdowns(t *testing.T) {
	end := time.Now().Add(14*24*time.Hour + 30*time.Second)
	stub := &stubRoster{enrollments: []domain.Enrollment{
		stubEnrollment("enr-1", "Welding Basics", end),
	}}
	f := newTestFrontend(t, stub)

	req := httptest.NewRequest("GET", "/api/dashboard/state", nil)
	rec := httptest.NewRecorder()
	f.serveDashboardState(rec, req, studentSession())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var state struct {
		Cards []struct {
			EnrollmentID string `json:"enrollmentId"`
			CourseTitle  string `json:"courseTitle"`
			Remaining    struct {
				Weeks   int `json:"weeks"`
				Days    int `json:"days"`
				Hours   int `json:"hours"`
				Minutes int `json:"minutes"`
			} `json:"remaining"`
		} `json:"cards"`
		Empty bool `json:"empty"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if state.Empty {
		t.Error("expected empty=false with one card")
	}
	if len(state.Cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(state.Cards))
	}
	if state.Cards[0].EnrollmentID != "enr-1" {
		t.Errorf("expected enrollmentId enr-1, got %q", state.Cards[0].EnrollmentID)
	}
	if state.Cards[0].Remaining.Weeks != 2 || state.Cards[0].Remaining.Days != 0 {
		t.Errorf("expected 2w0d remaining, got %+v", state.Cards[0].Remaining)
	}
}

func TestDashboardStateEmptyForNonStudents(t *testing.T) {
	stub := &stubRoster{enrollments: []domain.Enrollment{
		stubEnrollment("enr-1", "Welding Basics", time.Now().Add(time.Hour)),
	}}
	f := newTestFrontend(t, stub)

	sess := studentSession()
	sess.Role = string(domain.RoleAdmin)

	req := httptest.NewRequest("GET", "/api/dashboard/state", nil)
	rec := httptest.NewRecorder()
	f.serveDashboardState(rec, req, sess)

	var state struct {
		Cards []json.RawMessage `json:"cards"`
		Empty bool              `json:"empty"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if !state.Empty || len(state.Cards) != 0 {
		t.Errorf("expected an empty state for admins, got %d cards", len(state.Cards))
	}
	if stub.listCalls != 0 {
		t.Errorf("expected no roster fetch for an admin, got %d", stub.listCalls)
	}
}

func TestDashboardStateGuards(t *testing.T) {
	f := newTestFrontend(t, &stubRoster{})

	req := httptest.NewRequest("POST", "/api/dashboard/state", nil)
	rec := httptest.NewRecorder()
	f.handleDashboardState(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/dashboard/state", nil)
	rec = httptest.NewRecorder()
	f.handleDashboardState(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a session, got %d", rec.Code)
	}
}

func enrollForm(courseID string) *http.Request {
	body := ""
	if courseID != "" {
		body = "course_id=" + courseID
	}
	req := httptest.NewRequest("POST", "/enroll", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestEnrollSuccessRedirectsHome(t *testing.T) {
	enrollment := stubEnrollment("enr-9", "Welding Basics", time.Now().Add(time.Hour))
	stub := &stubRoster{enrolled: &enrollment}
	f := newTestFrontend(t, stub)

	sess := studentSession()
	// A cached view must not survive the enrollment.
	f.dashboards.OpenView(context.Background(), sess.StudentID, sess.Token)

	rec := httptest.NewRecorder()
	f.serveEnroll(rec, enrollForm("course-enr-9"), sess)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %q", loc)
	}
	if stub.lastCourse != "course-enr-9" {
		t.Errorf("expected course-enr-9 to reach the roster, got %q", stub.lastCourse)
	}
	if view := f.dashboards.View(sess.StudentID); view != nil {
		t.Error("expected the dashboard view to be dropped after enrolling")
	}
}

func TestEnrollNoticeRedirects(t *testing.T) {
	cases := []struct {
		name string
		err  error
		loc  string
	}{
		{"duplicate", roster.ErrAlreadyEnrolled, "/courses?notice=already-enrolled"},
		{"missing course", roster.ErrNotFound, "/courses?notice=course-not-found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFrontend(t, &stubRoster{enrollErr: tc.err})

			rec := httptest.NewRecorder()
			f.serveEnroll(rec, enrollForm("course-x"), studentSession())

			if rec.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tc.loc {
				t.Errorf("expected redirect to %s, got %q", tc.loc, loc)
			}
		})
	}
}

func TestEnrollUpstreamFailure(t *testing.T) {
	f := newTestFrontend(t, &stubRoster{enrollErr: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	f.serveEnroll(rec, enrollForm("course-x"), studentSession())

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestEnrollRejectsNonStudents(t *testing.T) {
	stub := &stubRoster{}
	f := newTestFrontend(t, stub)

	sess := studentSession()
	sess.Role = string(domain.RoleTutor)

	rec := httptest.NewRecorder()
	f.serveEnroll(rec, enrollForm("course-x"), sess)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if stub.enrollCalls != 0 {
		t.Errorf("expected no enroll call, got %d", stub.enrollCalls)
	}
}

func TestEnrollRequiresCourseID(t *testing.T) {
	f := newTestFrontend(t, &stubRoster{})

	rec := httptest.NewRecorder()
	f.serveEnroll(rec, enrollForm(""), studentSession())

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestEnrollGuards(t *testing.T) {
	f := newTestFrontend(t, &stubRoster{})

	req := httptest.NewRequest("GET", "/enroll", nil)
	rec := httptest.NewRecorder()
	f.handleEnroll(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.handleEnroll(rec, enrollForm("course-x"))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302 without a session, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}
