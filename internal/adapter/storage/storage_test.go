package storage

import (
	"context"
	"testing"

	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	repos, err := Open(ctx, &config.Config{StorageDriver: config.StorageDriverSQLite, SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(repos.Close)

	assert.Equal(t, config.StorageDriverSQLite, repos.Driver)
	require.NoError(t, repos.HealthCheck(ctx))

	created, err := repos.Scenarios.Create(ctx, domain.NewScenario{
		Title:       "What if",
		Description: "stored",
		Author:      domain.DefaultAuthor,
		Status:      domain.ScenarioStatusActive,
	})
	require.NoError(t, err)

	got, err := repos.Scenarios.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "What if", got.Title)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StorageDriver: "mysql"}, nil)
	assert.ErrorContains(t, err, `unknown storage driver "mysql"`)
}
