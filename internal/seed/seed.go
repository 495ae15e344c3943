// Package seed loads the sample scenarios shipped with the application.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pscheid92/ifthen/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var defaultData []byte

type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

type Scenario struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Author      string    `yaml:"author"`
	Tags        []string  `yaml:"tags"`
	Upvotes     int       `yaml:"upvotes"`
	Downvotes   int       `yaml:"downvotes"`
	ImageURL    string    `yaml:"image_url"`
	Status      string    `yaml:"status"`
	CreatedAt   time.Time `yaml:"created_at"`
	Comments    []Comment `yaml:"comments"`
}

type Comment struct {
	Author    string    `yaml:"author"`
	Body      string    `yaml:"body"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Default returns the embedded sample data.
func Default() (*File, error) {
	return Parse(defaultData)
}

// Parse decodes seed data. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode seed data: %w", err)
	}
	for i, s := range f.Scenarios {
		if strings.TrimSpace(s.Title) == "" {
			return nil, fmt.Errorf("seed scenario %d: title is required", i)
		}
		if s.Upvotes < 0 || s.Downvotes < 0 {
			return nil, fmt.Errorf("seed scenario %q: vote counts must not be negative", s.Title)
		}
	}
	return &f, nil
}

type Result struct {
	Scenarios int
	Comments  int
	Tags      int
	Skipped   bool
}

type Seeder struct {
	scenarios   domain.ScenarioRepository
	comments    domain.CommentRepository
	tags        domain.TagRepository
	randomColor func() string
	now         func() time.Time
}

func NewSeeder(scenarios domain.ScenarioRepository, comments domain.CommentRepository, tags domain.TagRepository, randomColor func() string) *Seeder {
	return &Seeder{
		scenarios:   scenarios,
		comments:    comments,
		tags:        tags,
		randomColor: randomColor,
		now:         time.Now,
	}
}

// Run inserts every scenario of f with its comments and registers the tags
// with random colors. Known tags keep their color. A store that already holds
// scenarios is left alone unless force is set.
func (s *Seeder) Run(ctx context.Context, f *File, force bool) (Result, error) {
	if f == nil {
		return Result{}, errors.New("no seed data")
	}

	if !force {
		existing, err := s.scenarios.List(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("failed to check existing scenarios: %w", err)
		}
		if len(existing) > 0 {
			slog.InfoContext(ctx, "Store already has scenarios, skipping seed", "count", len(existing))
			return Result{Skipped: true}, nil
		}
	}

	var res Result
	var tags []domain.Tag
	seen := make(map[string]struct{})

	for _, sc := range f.Scenarios {
		created, err := s.scenarios.Create(ctx, s.newScenario(sc))
		if err != nil {
			return res, fmt.Errorf("failed to seed scenario %q: %w", sc.Title, err)
		}
		res.Scenarios++

		for _, c := range sc.Comments {
			author := c.Author
			if author == "" {
				author = domain.DefaultAuthor
			}
			if _, err := s.comments.Create(ctx, created.ID, author, c.Body, s.timestamp(c.CreatedAt)); err != nil {
				return res, fmt.Errorf("failed to seed comment on %q: %w", sc.Title, err)
			}
			res.Comments++
		}

		for _, name := range created.Tags {
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, domain.Tag{Name: name, Color: s.randomColor()})
		}
	}

	inserted, err := s.tags.EnsureTags(ctx, tags)
	if err != nil {
		return res, fmt.Errorf("failed to seed tags: %w", err)
	}
	res.Tags = inserted

	slog.InfoContext(ctx, "Seeding completed", "scenarios", res.Scenarios, "comments", res.Comments, "tags", res.Tags)
	return res, nil
}

func (s *Seeder) newScenario(sc Scenario) domain.NewScenario {
	author := sc.Author
	if author == "" {
		author = domain.DefaultAuthor
	}
	return domain.NewScenario{
		Title:       strings.TrimSpace(sc.Title),
		Description: strings.TrimSpace(sc.Description),
		Author:      author,
		Tags:        sc.Tags,
		Upvotes:     sc.Upvotes,
		Downvotes:   sc.Downvotes,
		ImageURL:    sc.ImageURL,
		Status:      domain.ParseScenarioStatus(sc.Status),
		CreatedAt:   s.timestamp(sc.CreatedAt),
	}
}

func (s *Seeder) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t.UTC()
}
