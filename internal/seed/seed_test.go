package seed

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/pscheid92/ifthen/internal/adapter/sqlite"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSeeder(t *testing.T) (*Seeder, *sql.DB) {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSeeder(sqlite.NewScenarioRepo(db), sqlite.NewCommentRepo(db), sqlite.NewTagRepo(db), func() string { return "#123456" })
	return s, db
}

func TestDefault(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)

	require.Len(t, f.Scenarios, 12)
	mars := f.Scenarios[0]
	assert.Equal(t, "What if humanity lived on Mars?", mars.Title)
	assert.Equal(t, []string{"SciFi", "Space"}, mars.Tags)
	assert.Equal(t, 102, mars.Upvotes)
	assert.Equal(t, 8, mars.Downvotes)
	assert.Equal(t, "2025-03-06T09:00:00Z", mars.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
	require.Len(t, mars.Comments, 3)
	assert.Equal(t, "Jane Smith", mars.Comments[0].Author)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "unknown field",
			data: "scenarios:\n  - title: x\n    colour: red\n",
			want: "colour",
		},
		{
			name: "missing title",
			data: "scenarios:\n  - description: no title\n",
			want: "title is required",
		},
		{
			name: "negative votes",
			data: "scenarios:\n  - title: x\n    downvotes: -1\n",
			want: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	s, db := newTestSeeder(t)

	f, err := Default()
	require.NoError(t, err)

	wantComments := 0
	distinctTags := map[string]struct{}{}
	for _, sc := range f.Scenarios {
		wantComments += len(sc.Comments)
		for _, tag := range sc.Tags {
			distinctTags[strings.ToLower(tag)] = struct{}{}
		}
	}

	res, err := s.Run(ctx, f, false)
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, len(f.Scenarios), res.Scenarios)
	assert.Equal(t, wantComments, res.Comments)
	assert.Equal(t, len(distinctTags), res.Tags)

	scenarios, err := sqlite.NewScenarioRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, scenarios, len(f.Scenarios))
	// newest first
	assert.Equal(t, "What if humans could manipulate time?", scenarios[0].Title)
	assert.Equal(t, domain.ScenarioStatusActive, scenarios[0].Status)

	tags, err := sqlite.NewTagRepo(db).List(ctx)
	require.NoError(t, err)
	for _, tag := range tags {
		assert.Equal(t, "#123456", tag.Color)
	}
}

func TestRun_SkipsPopulatedStore(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSeeder(t)

	f := &File{Scenarios: []Scenario{{Title: "What if", Tags: []string{"one"}}}}
	_, err := s.Run(ctx, f, false)
	require.NoError(t, err)

	res, err := s.Run(ctx, f, false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.Scenarios)
}

func TestRun_ForceKeepsKnownTagColors(t *testing.T) {
	ctx := context.Background()
	s, db := newTestSeeder(t)

	f := &File{Scenarios: []Scenario{{Title: "What if", Tags: []string{"one"}}}}
	_, err := s.Run(ctx, f, false)
	require.NoError(t, err)

	s.randomColor = func() string { return "#ffffff" }
	res, err := s.Run(ctx, f, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scenarios)
	assert.Zero(t, res.Tags)

	tags, err := sqlite.NewTagRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "#123456", tags[0].Color)
}

func TestRun_DefaultsAuthorAndTimestamp(t *testing.T) {
	ctx := context.Background()
	s, db := newTestSeeder(t)

	f := &File{Scenarios: []Scenario{{
		Title:    "What if",
		Comments: []Comment{{Body: "anonymous thought"}},
	}}}
	_, err := s.Run(ctx, f, false)
	require.NoError(t, err)

	scenarios, err := sqlite.NewScenarioRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, domain.DefaultAuthor, scenarios[0].Author)
	assert.False(t, scenarios[0].CreatedAt.IsZero())

	comments, err := sqlite.NewCommentRepo(db).ListByScenario(ctx, scenarios[0].ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, domain.DefaultAuthor, comments[0].Author)
}
