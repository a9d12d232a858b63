package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dealerops.dev/storyline/core/db"
	"dealerops.dev/storyline/internal/model"
)

type storyLogStore struct {
	db *db.DB
}

// NewStoryLogStore returns the Postgres-backed audit log.
func NewStoryLogStore(database *db.DB) StoryLogStore {
	return &storyLogStore{db: database}
}

const insertStoryLog = `
INSERT INTO story_logs (
	id, request_id, vin, job_type, section_mode, model, status, attempts,
	story, violations, latency_ms, prompt_tokens, completion_tokens
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING created_at`

func (s *storyLogStore) Create(ctx context.Context, rec *model.StoryRecord) (*model.StoryRecord, error) {
	row := s.db.Pool().QueryRow(ctx, insertStoryLog,
		rec.ID, rec.RequestID, rec.VIN, rec.JobType, rec.SectionMode, rec.Model,
		string(rec.Status), rec.Attempts, rec.Story, rec.Violations, rec.LatencyMs,
		rec.PromptTokens, rec.CompletionTokens,
	)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("inserting story log: %w", err)
	}
	return rec, nil
}

const selectStoryLog = `
SELECT id, request_id, vin, job_type, section_mode, model, status, attempts,
	story, violations, latency_ms, prompt_tokens, completion_tokens, created_at
FROM story_logs
WHERE id = $1`

func (s *storyLogStore) GetByID(ctx context.Context, id int64) (*model.StoryRecord, error) {
	rec, err := scanStoryLog(s.db.Pool().QueryRow(ctx, selectStoryLog, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

const listStoryLogs = `
SELECT id, request_id, vin, job_type, section_mode, model, status, attempts,
	story, violations, latency_ms, prompt_tokens, completion_tokens, created_at
FROM story_logs
ORDER BY created_at DESC
LIMIT $1`

func (s *storyLogStore) ListRecent(ctx context.Context, limit int32) ([]model.StoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Pool().Query(ctx, listStoryLogs, limit)
	if err != nil {
		return nil, fmt.Errorf("listing story logs: %w", err)
	}
	defer rows.Close()

	var records []model.StoryRecord
	for rows.Next() {
		rec, err := scanStoryLog(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoryLog(row rowScanner) (*model.StoryRecord, error) {
	var rec model.StoryRecord
	var status string
	err := row.Scan(
		&rec.ID, &rec.RequestID, &rec.VIN, &rec.JobType, &rec.SectionMode,
		&rec.Model, &status, &rec.Attempts, &rec.Story, &rec.Violations,
		&rec.LatencyMs, &rec.PromptTokens, &rec.CompletionTokens, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = model.StoryStatus(status)
	return &rec, nil
}
