package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
)

type captureCourseRepo struct {
	saved   []domain.Course
	saveErr error
}

func (r *captureCourseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	return nil, errors.New("course not found")
}

func (r *captureCourseRepo) ListAll(ctx context.Context) ([]domain.Course, error) {
	return r.saved, nil
}

func (r *captureCourseRepo) Save(ctx context.Context, course *domain.Course) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, *course)
	return nil
}

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write catalog fixture: %v", err)
	}
	return path
}

func TestSeedFromFile(t *testing.T) {
	path := writeCatalog(t, `
courses:
  - id: course-welding-101
    title: Intro to Welding
    description: Arc and MIG fundamentals.
    duration_weeks: 6
  - title: Advanced Welding
    duration_weeks: 12
`)

	repo := &captureCourseRepo{}
	seeded, err := NewCatalogSeeder(repo).SeedFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if seeded != 2 {
		t.Fatalf("expected 2 seeded courses, got %d", seeded)
	}

	if repo.saved[0].ID != "course-welding-101" {
		t.Fatalf("expected the catalog ID to be kept, got %q", repo.saved[0].ID)
	}
	if repo.saved[0].Title != "Intro to Welding" || repo.saved[0].DurationWeeks != 6 {
		t.Fatalf("unexpected mapping: %+v", repo.saved[0])
	}
	if repo.saved[0].Description != "Arc and MIG fundamentals." {
		t.Fatalf("expected the description to be kept, got %q", repo.saved[0].Description)
	}
	if repo.saved[1].ID == "" {
		t.Fatal("expected a generated ID for the entry without one")
	}
	if repo.saved[0].CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be stamped")
	}
}

func TestSeedSkipsInvalidEntries(t *testing.T) {
	path := writeCatalog(t, `
courses:
  - title: Valid Course
    duration_weeks: 4
  - description: No title here
    duration_weeks: 4
  - title: Zero Duration
    duration_weeks: 0
  - title: Negative Duration
    duration_weeks: -3
`)

	repo := &captureCourseRepo{}
	seeded, err := NewCatalogSeeder(repo).SeedFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if seeded != 1 {
		t.Fatalf("expected only the valid entry to seed, got %d", seeded)
	}
	if len(repo.saved) != 1 || repo.saved[0].Title != "Valid Course" {
		t.Fatalf("unexpected saved set: %+v", repo.saved)
	}
}

func TestSeedMissingFile(t *testing.T) {
	repo := &captureCourseRepo{}
	if _, err := NewCatalogSeeder(repo).SeedFromFile(context.Background(), "/nonexistent/catalog.yaml"); err == nil {
		t.Fatal("expected an error for a missing catalog file")
	}
}

func TestSeedMalformedCatalog(t *testing.T) {
	path := writeCatalog(t, "courses: [not: {valid")

	repo := &captureCourseRepo{}
	if _, err := NewCatalogSeeder(repo).SeedFromFile(context.Background(), path); err == nil {
		t.Fatal("expected a parse error for malformed YAML")
	}
}

func TestSeedContinuesPastSaveFailures(t *testing.T) {
	path := writeCatalog(t, `
courses:
  - title: First
    duration_weeks: 2
  - title: Second
    duration_weeks: 3
`)

	repo := &captureCourseRepo{saveErr: errors.New("db down")}
	seeded, err := NewCatalogSeeder(repo).SeedFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("expected save failures to be non-fatal, got %v", err)
	}
	if seeded != 0 {
		t.Fatalf("expected zero seeded courses when every save fails, got %d", seeded)
	}
}
