package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultAuthor is attached to every anonymous submission.
const DefaultAuthor = "Anonymous"

// ScenarioStatus is the moderation status of a scenario.
type ScenarioStatus string

const (
	ScenarioStatusActive   ScenarioStatus = "active"
	ScenarioStatusArchived ScenarioStatus = "archived"
)

// ParseScenarioStatus converts a string to a ScenarioStatus, defaulting to active.
func ParseScenarioStatus(s string) ScenarioStatus {
	switch s {
	case "archived":
		return ScenarioStatusArchived
	default:
		return ScenarioStatusActive
	}
}

type Scenario struct {
	ID          uuid.UUID
	Title       string
	Description string
	Author      string
	Tags        []string
	Upvotes     int
	Downvotes   int
	ImageURL    string
	Status      ScenarioStatus
	CreatedAt   time.Time
}

// Counts returns the scenario's vote counters.
func (s *Scenario) Counts() VoteCounts {
	return VoteCounts{Upvotes: s.Upvotes, Downvotes: s.Downvotes}
}

// SetCounts overwrites the scenario's vote counters.
func (s *Scenario) SetCounts(c VoteCounts) {
	s.Upvotes = c.Upvotes
	s.Downvotes = c.Downvotes
}

// NewScenario carries every field of a scenario except its ID.
type NewScenario struct {
	Title       string
	Description string
	Author      string
	Tags        []string
	Upvotes     int
	Downvotes   int
	ImageURL    string
	Status      ScenarioStatus
	CreatedAt   time.Time
}

type ScenarioRepository interface {
	Create(ctx context.Context, s NewScenario) (*Scenario, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Scenario, error)
	// List returns every scenario, newest first.
	List(ctx context.Context) ([]Scenario, error)
	// AdjustVotes applies a relative change to both counters atomically,
	// clamping at zero, and returns the persisted counters.
	AdjustVotes(ctx context.Context, id uuid.UUID, delta VoteDelta) (VoteCounts, error)
}
