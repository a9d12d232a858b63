package store

import (
	"context"
	"errors"

	"dealerops.dev/storyline/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// StoryLogStore defines the contract for the generation audit log.
// Every request writes one record so service managers can review what
// was sent back to writers.
type StoryLogStore interface {
	Create(ctx context.Context, rec *model.StoryRecord) (*model.StoryRecord, error)
	GetByID(ctx context.Context, id int64) (*model.StoryRecord, error)
	ListRecent(ctx context.Context, limit int32) ([]model.StoryRecord, error)
}
