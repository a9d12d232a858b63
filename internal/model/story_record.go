package model

import "time"

type StoryStatus string

const (
	StoryStatusSucceeded StoryStatus = "succeeded"
	StoryStatusFailed    StoryStatus = "failed"
)

// StoryRecord is one audit row per generation run, written best-effort
// after the orchestrator finishes (success or failure).
type StoryRecord struct {
	CreatedAt        time.Time   `json:"created_at"`
	Story            *string     `json:"story,omitempty"`
	Violations       *string     `json:"violations,omitempty"`
	LatencyMs        *int        `json:"latency_ms,omitempty"`
	PromptTokens     *int        `json:"prompt_tokens,omitempty"`
	CompletionTokens *int        `json:"completion_tokens,omitempty"`
	VIN              string      `json:"vin"`
	JobType          JobType     `json:"job_type"`
	SectionMode      SectionMode `json:"section_mode"`
	Model            string      `json:"model"`
	Status           StoryStatus `json:"status"`
	Attempts         int         `json:"attempts"`
	ID               int64       `json:"id"`
	RequestID        int64       `json:"request_id"`
}
