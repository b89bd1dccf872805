package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

// ErrNotFound is returned for enrollments or courses the API does not
// expose to the caller.
var ErrNotFound = errors.New("not found")

// ErrAlreadyEnrolled is returned when the API rejects a duplicate
// enrollment for the same course.
var ErrAlreadyEnrolled = errors.New("already enrolled in this course")

// HTTPRosterClient talks to the Academy API over its REST surface. It is
// the frontend's only path to enrollment data.
type HTTPRosterClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRosterClient(baseURL string) *HTTPRosterClient {
	return &HTTPRosterClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPRosterClient) ListEnrollments(ctx context.Context, token string) ([]domain.Enrollment, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/enrollments", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster returned %d listing enrollments", resp.StatusCode)
	}

	var enrollments []domain.Enrollment
	if err := json.NewDecoder(resp.Body).Decode(&enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (c *HTTPRosterClient) GetEnrollment(ctx context.Context, token, id string) (*domain.Enrollment, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/enrollments/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster returned %d fetching enrollment %s", resp.StatusCode, id)
	}

	var enrollment domain.Enrollment
	if err := json.NewDecoder(resp.Body).Decode(&enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (c *HTTPRosterClient) ListCourses(ctx context.Context) ([]domain.Course, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/courses", nil)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster returned %d listing courses", resp.StatusCode)
	}

	var courses []domain.Course
	if err := json.NewDecoder(resp.Body).Decode(&courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *HTTPRosterClient) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/courses/"+id, nil)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster returned %d fetching course %s", resp.StatusCode, id)
	}

	var course domain.Course
	if err := json.NewDecoder(resp.Body).Decode(&course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *HTTPRosterClient) Enroll(ctx context.Context, token, courseID string) (*domain.Enrollment, error) {
	body, _ := json.Marshal(struct {
		CourseID string `json:"courseId"`
	}{CourseID: courseID})

	req, _ := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/enrollments", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusConflict:
		return nil, ErrAlreadyEnrolled
	default:
		return nil, fmt.Errorf("roster returned %d enrolling in course %s", resp.StatusCode, courseID)
	}

	var enrollment domain.Enrollment
	if err := json.NewDecoder(resp.Body).Decode(&enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}
