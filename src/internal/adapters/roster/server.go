package roster

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
	"github.com/wilpowatech/wilpowa-academy/src/internal/ports"
)

// Server exposes the enrollment roster and course catalog as the REST
// surface the dashboard frontend consumes.
type Server struct {
	courses     ports.CourseRepository
	enrollments ports.EnrollmentRepository
}

func NewServer(courses ports.CourseRepository, enrollments ports.EnrollmentRepository) *Server {
	return &Server{courses: courses, enrollments: enrollments}
}

// RegisterHandlers mounts the API routes. Enrollment routes run behind the
// supplied auth middleware; the course catalog is public.
func (s *Server) RegisterHandlers(mux *http.ServeMux, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/v1/enrollments", requireAuth(s.handleEnrollments))
	mux.HandleFunc("/api/v1/enrollments/", requireAuth(s.handleEnrollmentByID))
	mux.HandleFunc("/api/v1/courses", s.handleCourses)
	mux.HandleFunc("/api/v1/courses/", s.handleCourseByID)
}

func (s *Server) handleEnrollments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListEnrollments(w, r)
	case http.MethodPost:
		s.handleEnroll(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	studentID, _ := r.Context().Value("studentID").(string)
	if studentID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if role, _ := r.Context().Value("studentRole").(string); role != "" && role != string(domain.RoleStudent) {
		http.Error(w, "Only students have enrollments", http.StatusForbidden)
		return
	}

	enrollments, err := s.enrollments.ListByStudent(r.Context(), studentID)
	if err != nil {
		log.Printf("[Roster] Failed to list enrollments for %s: %v", studentID, err)
		http.Error(w, "Failed to list enrollments", http.StatusInternalServerError)
		return
	}
	if enrollments == nil {
		enrollments = []domain.Enrollment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(enrollments)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	studentID, _ := r.Context().Value("studentID").(string)
	if studentID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if role, _ := r.Context().Value("studentRole").(string); role != "" && role != string(domain.RoleStudent) {
		http.Error(w, "Only students can enroll", http.StatusForbidden)
		return
	}

	var payload struct {
		CourseID string `json:"courseId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.CourseID == "" {
		http.Error(w, "courseId required", http.StatusBadRequest)
		return
	}

	course, err := s.courses.GetByID(r.Context(), payload.CourseID)
	if err != nil {
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	}

	if _, err := s.enrollments.GetByStudentAndCourse(r.Context(), studentID, course.ID); err == nil {
		http.Error(w, "Already enrolled in this course", http.StatusConflict)
		return
	}

	now := time.Now()
	enrollment := domain.Enrollment{
		ID:              uuid.New().String(),
		StudentID:       studentID,
		Course:          *course,
		StartDate:       now,
		ExpectedEndDate: now.Add(course.RunLength()),
		Status:          domain.EnrollmentActive,
		EnrolledAt:      now,
	}

	if err := s.enrollments.Save(r.Context(), &enrollment); err != nil {
		log.Printf("[Roster] Failed to save enrollment for %s in %s: %v", studentID, course.ID, err)
		http.Error(w, "Failed to save enrollment", http.StatusInternalServerError)
		return
	}

	log.Printf("[Roster] Student %s enrolled in %q (enrollment %s, ends %s)",
		studentID, course.Title, enrollment.ID, enrollment.ExpectedEndDate.Format(time.RFC3339))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(enrollment)
}

func (s *Server) handleEnrollmentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	studentID, _ := r.Context().Value("studentID").(string)
	if studentID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/enrollments/")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	enrollment, err := s.enrollments.GetByID(r.Context(), id)
	// Another student's enrollment reads the same as a missing one.
	if err != nil || enrollment.StudentID != studentID {
		http.Error(w, "Enrollment not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(enrollment)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	courses, err := s.courses.ListAll(r.Context())
	if err != nil {
		log.Printf("[Roster] Failed to list courses: %v", err)
		http.Error(w, "Failed to list courses", http.StatusInternalServerError)
		return
	}
	if courses == nil {
		courses = []domain.Course{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(courses)
}

func (s *Server) handleCourseByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/courses/")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	course, err := s.courses.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(course)
}
