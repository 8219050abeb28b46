//go:build integration

package repository_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/UnknownOlympus/crashmap/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRepository_Postgres(t *testing.T) {
	ctx := t.Context()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("crashmap"),
		postgres.WithUsername("crashmap"),
		postgres.WithPassword("crashmap"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if errTerm := container.Terminate(ctx); errTerm != nil {
			t.Logf("failed to terminate container: %v", errTerm)
		}
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := repository.Connect(ctx, connString)
	require.NoError(t, err)
	defer pool.Close()

	repo := repository.NewRepository(pool, slog.Default())
	require.NoError(t, repo.Migrate(ctx))

	source := "crashes.csv"
	first := []models.Coordinates{
		{Latitude: 40.7128, Longitude: -74.0060},
		{Latitude: 40.70, Longitude: -74.00},
		{Latitude: 40.68, Longitude: -73.95},
	}
	second := []models.Coordinates{{Latitude: 40.6, Longitude: -73.9}}

	copied, err := repo.ReplaceMarkers(ctx, source, first)
	require.NoError(t, err)
	assert.Equal(t, int64(3), copied)

	stored, err := repo.FetchMarkers(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	_, err = repo.ReplaceMarkers(ctx, source, second)
	require.NoError(t, err)

	stored, err = repo.FetchMarkers(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, second, stored)

	other, err := repo.FetchMarkers(ctx, "other.csv")
	require.NoError(t, err)
	assert.Empty(t, other)
}
