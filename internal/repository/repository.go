package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/crashmap/internal/models"
)

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	ReplaceMarkers(ctx context.Context, source string, coords []models.Coordinates) (int64, error)
	FetchMarkers(ctx context.Context, source string) ([]models.Coordinates, error)
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
