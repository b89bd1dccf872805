package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/wilpowatech/wilpowa-academy/src/internal/domain"
	"github.com/wilpowatech/wilpowa-academy/src/internal/ports"
)

type CatalogSeeder struct {
	repo ports.CourseRepository
}

func NewCatalogSeeder(repo ports.CourseRepository) *CatalogSeeder {
	return &CatalogSeeder{repo: repo}
}

// catalogFile mirrors catalog.yaml: a single top-level course list.
type catalogFile struct {
	Courses []catalogEntry `yaml:"courses"`
}

type catalogEntry struct {
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	DurationWeeks int    `yaml:"duration_weeks"`
}

// SeedFromFile loads the course catalog and upserts each valid entry, so
// restarting the API refreshes titles and durations without duplicating
// courses. Invalid entries are skipped with a log line; one bad course
// doesn't block the rest of the catalog.
func (s *CatalogSeeder) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	seeded := 0
	for i, entry := range file.Courses {
		course, ok := mapEntryToCourse(entry)
		if !ok {
			log.Printf("[Catalog] Skipping entry %d (%q): a title and positive duration_weeks are required", i, entry.Title)
			continue
		}
		if err := s.repo.Save(ctx, &course); err != nil {
			log.Printf("[Catalog] Failed to save course %q: %v", course.Title, err)
			continue
		}
		seeded++
	}

	log.Printf("[Catalog] Seeded %d of %d courses from %s", seeded, len(file.Courses), path)
	return seeded, nil
}

func mapEntryToCourse(entry catalogEntry) (domain.Course, bool) {
	if entry.Title == "" || entry.DurationWeeks <= 0 {
		return domain.Course{}, false
	}

	// Entries without an explicit ID get a generated one; stable IDs in
	// catalog.yaml are what make re-seeding an upsert.
	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}

	return domain.Course{
		ID:            id,
		Title:         entry.Title,
		Description:   entry.Description,
		DurationWeeks: entry.DurationWeeks,
		CreatedAt:     time.Now(),
	}, true
}
