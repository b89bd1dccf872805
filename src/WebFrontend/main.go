package main

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/wilpowatech/wilpowa-academy/src/internal/adapters/roster"
	"github.com/wilpowatech/wilpowa-academy/src/internal/config"
	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
	"github.com/wilpowatech/wilpowa-academy/src/internal/ports"
	"github.com/wilpowatech/wilpowa-academy/src/internal/services"
)

// frontend holds the handlers' dependencies: the roster client for Academy
// API data, the auth service for sessions, and the dashboard service for
// per-student countdown views.
type frontend struct {
	roster     ports.RosterDirectory
	auth       *AuthService
	dashboards *services.DashboardService
	tmplDir    string
}

func main() {
	log.Println("Starting Wilpowa Academy Web Frontend...")

	// .env carries local dev settings; missing is fine
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := &config.WebFrontendConfig{}
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if err := config.Load(configPath, cfg); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("Loaded config from %s", configPath)
	}
	applyEnvOverrides(cfg)

	if cfg.AcademyAPIURL == "" {
		cfg.AcademyAPIURL = "http://localhost:8081"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cwd, _ := os.Getwd()
	// Try to find the templates in likely locations
	tmplDir := filepath.Join(cwd, "src", "WebFrontend", "templates")
	if _, err := os.Stat(tmplDir); os.IsNotExist(err) {
		// Fallback if running from src/WebFrontend or similar
		tmplDir = "templates"
	}

	auth := NewAuthService(cfg.OIDC)
	rosterClient := roster.NewHTTPRosterClient(cfg.AcademyAPIURL)
	dashboards := services.NewDashboardService(rosterClient, services.DefaultTickInterval, services.DefaultViewIdleTimeout)
	go dashboards.StartWatchdog(context.Background())

	f := &frontend{
		roster:     rosterClient,
		auth:       auth,
		dashboards: dashboards,
		tmplDir:    tmplDir,
	}

	mux := http.NewServeMux()

	// 1. Pages
	mux.HandleFunc("/", f.handleDashboard)
	mux.HandleFunc("/courses", f.handleCourses)
	mux.HandleFunc("/courses/", f.handleCourseDetail)
	mux.HandleFunc("/progress/", f.handleProgress)
	mux.HandleFunc("/profile", f.handleProfile)
	mux.HandleFunc("/enroll", f.handleEnroll)

	// 2. Dashboard state poll (the page refreshes its numbers from here)
	mux.HandleFunc("/api/dashboard/state", f.handleDashboardState)

	// 3. Auth
	mux.HandleFunc("/login", auth.HandleLogin)
	mux.HandleFunc("/auth/callback", auth.HandleCallback)
	mux.HandleFunc("/logout", f.handleLogout)

	// 4. Proxy roster API requests to the Academy API
	target, err := url.Parse(cfg.AcademyAPIURL)
	if err != nil {
		log.Fatal("Invalid ACADEMY_API_URL: ", err)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host
	}
	mux.Handle("/api/v1/", auth.TokenMiddleware(proxy))

	log.Printf("Web Frontend listening on http://0.0.0.0:%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		log.Fatal(err)
	}
}

func applyEnvOverrides(cfg *config.WebFrontendConfig) {
	if v := os.Getenv("ACADEMY_API_URL"); v != "" {
		cfg.AcademyAPIURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("OIDC_PROVIDER"); v != "" {
		cfg.OIDC.ProviderURL = v
	}
	if v := os.Getenv("OIDC_CLIENT_ID"); v != "" {
		cfg.OIDC.ClientID = v
	}
	if v := os.Getenv("OIDC_CLIENT_SECRET"); v != "" {
		cfg.OIDC.ClientSecret = v
	}
	if v := os.Getenv("OIDC_REDIRECT_URL"); v != "" {
		cfg.OIDC.RedirectURL = v
	}
}

func (f *frontend) render(w http.ResponseWriter, name string, data map[string]interface{}) {
	tmpl, err := template.ParseFiles(filepath.Join(f.tmplDir, name))
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("Error executing template %s: %v", name, err)
	}
}

// 1. Dashboard Page
func (f *frontend) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sess, err := f.auth.CurrentSession(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	f.serveDashboard(w, r, sess)
}

func (f *frontend) serveDashboard(w http.ResponseWriter, r *http.Request, sess *Session) {
	// Only students carry enrollments; other roles get the empty state
	// without a roster fetch.
	var cards []services.CardState
	if sess.Role == string(domain.RoleStudent) {
		view := f.dashboards.View(sess.StudentID)
		if view == nil {
			view = f.dashboards.OpenView(r.Context(), sess.StudentID, sess.Token)
		}
		cards = view.Cards()
	}

	f.render(w, "dashboard.html", map[string]interface{}{
		"Email":     sess.Email,
		"IsStudent": sess.Role == string(domain.RoleStudent),
		"Cards":     cards,
		"Time":      time.Now().Format(time.RFC3339),
	})
}

// 2. Dashboard state poll: JSON countdown snapshots. Polling keeps the
// view alive; a view the watchdog reaped is reopened here.
func (f *frontend) handleDashboardState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := f.auth.CurrentSession(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	f.serveDashboardState(w, r, sess)
}

func (f *frontend) serveDashboardState(w http.ResponseWriter, r *http.Request, sess *Session) {
	cards := []services.CardState{}
	if sess.Role == string(domain.RoleStudent) {
		view := f.dashboards.View(sess.StudentID)
		if view == nil {
			view = f.dashboards.OpenView(r.Context(), sess.StudentID, sess.Token)
		}
		cards = view.Cards()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cards": cards,
		"empty": len(cards) == 0,
	})
}

// 3. Enroll action (form POST from the courses pages)
func (f *frontend) handleEnroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	sess, err := f.auth.CurrentSession(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	f.serveEnroll(w, r, sess)
}

func (f *frontend) serveEnroll(w http.ResponseWriter, r *http.Request, sess *Session) {
	if sess.Role != string(domain.RoleStudent) {
		http.Error(w, "Only students can enroll", http.StatusForbidden)
		return
	}

	courseID := r.FormValue("course_id")
	if courseID == "" {
		http.Error(w, "course_id required", http.StatusBadRequest)
		return
	}

	enrollment, err := f.roster.Enroll(r.Context(), sess.Token, courseID)
	switch {
	case errors.Is(err, roster.ErrAlreadyEnrolled):
		http.Redirect(w, r, "/courses?notice=already-enrolled", http.StatusFound)
		return
	case errors.Is(err, roster.ErrNotFound):
		http.Redirect(w, r, "/courses?notice=course-not-found", http.StatusFound)
		return
	case err != nil:
		log.Printf("[Frontend] Enroll failed for student %s in course %s: %v", sess.StudentID, courseID, err)
		http.Error(w, "Enrollment failed", http.StatusBadGateway)
		return
	}

	// Drop the cached view so the dashboard refetches with the new card.
	f.dashboards.CloseView(sess.StudentID)
	log.Printf("[Frontend] Student %s enrolled in %q", sess.StudentID, enrollment.Course.Title)
	http.Redirect(w, r, "/", http.StatusFound)
}

// 4. Course catalog page
func (f *frontend) handleCourses(w http.ResponseWriter, r *http.Request) {
	sess, err := f.auth.CurrentSession(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	courses, err := f.roster.ListCourses(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch courses: "+err.Error(), http.StatusBadGateway)
		return
	}

	// Mark the courses the student already holds an enrollment for.
	enrolled := map[string]string{}
	if sess.Role == string(domain.RoleStudent) {
		if enrollments, err := f.roster.ListEnrollments(r.Context(), sess.Token); err == nil {
			for _, e := range enrollments {
				enrolled[e.Course.ID] = e.ID
			}
		} else {
			log.Printf("[Frontend] Failed to mark enrolled courses for %s: %v", sess.StudentID, err)
		}
	}

	f.render(w, "courses.html", map[string]interface{}{
		"Email":     sess.Email,
		"IsStudent": sess.Role == string(domain.RoleStudent),
		"Courses":   courses,
		"Enrolled":  enrolled,
		"Notice":    r.URL.Query().Get("notice"),
	})
}

// 5. Course detail page
func (f *frontend) handleCourseDetail(w http.ResponseWriter, r *http.Request) {
	sess, err := f.auth.CurrentSession(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	id := r.URL.Path[len("/courses/"):]
	if id == "" {
		http.Redirect(w, r, "/courses", http.StatusFound)
		return
	}

	course, err := f.roster.GetCourse(r.Context(), id)
	if errors.Is(err, roster.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch course: "+err.Error(), http.StatusBadGateway)
		return
	}

	// Surface the student's own enrollment on the page when it exists.
	var enrollment *domain.Enrollment
	if sess.Role == string(domain.RoleStudent) {
		if enrollments, err := f.roster.ListEnrollments(r.Context(), sess.Token); err == nil {
			for i := range enrollments {
				if enrollments[i].Course.ID == course.ID {
					enrollment = &enrollments[i]
					break
				}
			}
		}
	}

	data := map[string]interface{}{
		"Email":      sess.Email,
		"IsStudent":  sess.Role == string(domain.RoleStudent),
		"Course":     course,
		"Enrollment": enrollment,
	}
	if enrollment != nil {
		data["Remaining"] = services.Remaining(enrollment.ExpectedEndDate, time.Now())
	}
	f.render(w, "course.html", data)
}

// 6. Progress page for one enrollment
func (f *frontend) handleProgress(w http.ResponseWriter, r *http.Request) {
	sess, err := f.auth.CurrentSession(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	id := r.URL.Path[len("/progress/"):]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	// Ownership is the API's call: foreign enrollments read as 404.
	enrollment, err := f.roster.GetEnrollment(r.Context(), sess.Token, id)
	if errors.Is(err, roster.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch enrollment: "+err.Error(), http.StatusBadGateway)
		return
	}

	now := time.Now()
	remaining := services.Remaining(enrollment.ExpectedEndDate, now)

	total := enrollment.ExpectedEndDate.Sub(enrollment.StartDate)
	elapsed := now.Sub(enrollment.StartDate)
	percent := 0
	if total > 0 {
		percent = int(elapsed * 100 / total)
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	f.render(w, "progress.html", map[string]interface{}{
		"Email":      sess.Email,
		"Enrollment": enrollment,
		"Remaining":  remaining,
		"Percent":    percent,
	})
}

// 7. Profile page
func (f *frontend) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := f.auth.CurrentSession(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	var active, completed int
	if sess.Role == string(domain.RoleStudent) {
		if enrollments, err := f.roster.ListEnrollments(r.Context(), sess.Token); err == nil {
			for _, e := range enrollments {
				switch e.Status {
				case domain.EnrollmentActive:
					active++
				case domain.EnrollmentCompleted:
					completed++
				}
			}
		} else {
			log.Printf("[Frontend] Failed to load enrollments for profile of %s: %v", sess.StudentID, err)
		}
	}

	f.render(w, "profile.html", map[string]interface{}{
		"Email":     sess.Email,
		"StudentID": sess.StudentID,
		"Role":      sess.Role,
		"Active":    active,
		"Completed": completed,
	})
}

// Logout tears down the student's dashboard view before clearing the cookie.
func (f *frontend) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, err := f.auth.CurrentSession(r); err == nil {
		f.dashboards.CloseView(sess.StudentID)
	}
	f.auth.HandleLogout(w, r)
}
