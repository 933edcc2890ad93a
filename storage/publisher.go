package storage

import (
	"context"

	"github.com/mirokatsu/osu-streak-tracker/models"
)

// SnapshotPublisher exports the joined presentation view so a statically
// hosted frontend can read it without hitting this service.
type SnapshotPublisher interface {
	PublishDailyStreakers(ctx context.Context, rows []models.DailyStreaker) error
}
