package handler_test

import (
	"context"

	"dealerops.dev/storyline/internal/model"
	"dealerops.dev/storyline/internal/store"
)

type mockStoryService struct {
	generateFn func(ctx context.Context, ro model.RepairOrder) (string, error)
	calls      int
	lastOrder  model.RepairOrder
}

func (m *mockStoryService) Generate(ctx context.Context, ro model.RepairOrder) (string, error) {
	m.calls++
	m.lastOrder = ro
	if m.generateFn != nil {
		return m.generateFn(ctx, ro)
	}
	return "", nil
}

type mockStoryLogStore struct {
	createFn     func(ctx context.Context, rec *model.StoryRecord) (*model.StoryRecord, error)
	getByIDFn    func(ctx context.Context, id int64) (*model.StoryRecord, error)
	listRecentFn func(ctx context.Context, limit int32) ([]model.StoryRecord, error)
}

func (m *mockStoryLogStore) Create(ctx context.Context, rec *model.StoryRecord) (*model.StoryRecord, error) {
	if m.createFn != nil {
		return m.createFn(ctx, rec)
	}
	return rec, nil
}

func (m *mockStoryLogStore) GetByID(ctx context.Context, id int64) (*model.StoryRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockStoryLogStore) ListRecent(ctx context.Context, limit int32) ([]model.StoryRecord, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}
