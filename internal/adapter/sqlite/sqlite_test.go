package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), memoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestScenario(title string, createdAt time.Time) domain.NewScenario {
	return domain.NewScenario{
		Title:       title,
		Description: "description of " + title,
		Author:      domain.DefaultAuthor,
		Tags:        []string{"Philosophical", "TimeTravel"},
		Upvotes:     56,
		Downvotes:   4,
		Status:      domain.ScenarioStatusActive,
		CreatedAt:   createdAt,
	}
}

func TestOpen_FileDatabaseReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scenarios.db")
	ctx := context.Background()

	db, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = NewScenarioRepo(db).Create(ctx, newTestScenario("persisted", time.Now()))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	list, err := NewScenarioRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "persisted", list[0].Title)
	assert.NoError(t, HealthCheck(db)(ctx))
}

func TestScenarioRepo_CreateGetList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScenarioRepo(db)
	ctx := context.Background()
	base := time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC)

	older, err := repo.Create(ctx, newTestScenario("older", base))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTestScenario("newer", base.Add(time.Hour)))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)
	assert.Equal(t, []string{"Philosophical", "TimeTravel"}, got.Tags)
	assert.Equal(t, domain.VoteCounts{Upvotes: 56, Downvotes: 4}, got.Counts())
	assert.True(t, base.Equal(got.CreatedAt))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)
}

func TestScenarioRepo_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := NewScenarioRepo(db).GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestScenarioRepo_AdjustVotes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScenarioRepo(db)
	ctx := context.Background()

	s, err := repo.Create(ctx, newTestScenario("votes", time.Now()))
	require.NoError(t, err)

	counts, err := repo.AdjustVotes(ctx, s.ID, domain.VoteDelta{Up: -1, Down: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteCounts{Upvotes: 55, Downvotes: 5}, counts)

	counts, err = repo.AdjustVotes(ctx, s.ID, domain.VoteDelta{Down: -100})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteCounts{Upvotes: 55, Downvotes: 0}, counts)

	_, err = repo.AdjustVotes(ctx, uuid.New(), domain.VoteDelta{Up: 1})
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestCommentRepo(t *testing.T) {
	db := setupTestDB(t)
	scenarios := NewScenarioRepo(db)
	comments := NewCommentRepo(db)
	ctx := context.Background()

	s, err := scenarios.Create(ctx, newTestScenario("discussed", time.Now()))
	require.NoError(t, err)

	base := time.Date(2025, 3, 6, 10, 0, 0, 0, time.UTC)
	_, err = comments.Create(ctx, s.ID, "Jane Smith", "first", base)
	require.NoError(t, err)
	second, err := comments.Create(ctx, s.ID, "Alice Cooper", "second", base.Add(time.Second))
	require.NoError(t, err)
	assert.NotZero(t, second.ID)

	list, err := comments.ListByScenario(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Body)
	assert.Equal(t, s.ID, list[0].ScenarioID)

	_, err = comments.Create(ctx, uuid.New(), domain.DefaultAuthor, "orphan", base)
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestContactRepo(t *testing.T) {
	db := setupTestDB(t)
	msg, err := NewContactRepo(db).Create(context.Background(), domain.ContactMessage{
		Name:        "Ada",
		Email:       "ada@example.com",
		Phone:       "+44 20 7946 0000",
		Message:     "hello",
		SubmittedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), msg.ID)
}

func TestTagRepo_EnsureTagsIsInsertOrIgnore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTagRepo(db)
	ctx := context.Background()

	n, err := repo.EnsureTags(ctx, []domain.Tag{{Name: "SciFi", Color: "#111111"}, {Name: "Space", Color: "#222222"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.EnsureTags(ctx, []domain.Tag{{Name: "SciFi", Color: "#999999"}})
	require.NoError(t, err)
	assert.Zero(t, n)

	tags, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Tag{{Name: "SciFi", Color: "#111111"}, {Name: "Space", Color: "#222222"}}, tags)
}
